// Copyright 2019 eBay Inc.
// Primary authors: Simon Fell, Diego Ongaro,
//                  Raymond Kroeker, and Sathish Kandasamy.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
// https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package rules

import (
	"github.com/ebay/groundset/facts"
	"github.com/ebay/groundset/fixpoint"
)

// view is the part of a partition that a rule reads in a round: either every
// known fact (stable and delta), or just the new ones. The sets in a view are
// disjoint.
type view struct {
	sets []*facts.Set
}

// Which facts of a partition a view includes.
type scope int

const (
	known scope = iota
	fresh
)

// newView returns the facts of 'predicate' in the given scope. In a full round
// every known fact is fresh. If 'byObject' is set, the view holds the facts
// with subject and object swapped.
func newView(round *fixpoint.Round, predicate string, sc scope, byObject bool) view {
	atoms := round.Partition(predicate)
	if atoms == nil {
		return view{}
	}
	stable, delta := atoms.Stable(), atoms.Delta()
	if byObject {
		stable, delta = atoms.StableByObject(), atoms.DeltaByObject()
	}
	if sc == fresh && !round.Full() {
		return view{sets: []*facts.Set{delta}}
	}
	return view{sets: []*facts.Set{stable, delta}}
}

func (v view) empty() bool {
	for _, s := range v.sets {
		if s.Len() > 0 {
			return false
		}
	}
	return true
}

func (v view) iterator() facts.Iterator {
	var res facts.Iterator
	for _, s := range v.sets {
		if s.Len() == 0 {
			continue
		}
		if res == nil {
			res = s.Iterator()
		} else {
			res = facts.Union(res, s.Iterator())
		}
	}
	if res == nil {
		return facts.NewSliceIterator(nil)
	}
	return res
}

func (v view) ascend(fn func(facts.Fact) bool) {
	for _, s := range v.sets {
		stopped := false
		s.Ascend(func(f facts.Fact) bool {
			stopped = !fn(f)
			return !stopped
		})
		if stopped {
			return
		}
	}
}

func (v view) ascendSubject(subject string, fn func(facts.Fact)) {
	for _, s := range v.sets {
		s.AscendSubject(subject, func(f facts.Fact) bool {
			fn(f)
			return true
		})
	}
}

// deriver returns a function that reports facts for 'head' to 'sink', skipping
// those the graph already knows.
func deriver(round *fixpoint.Round, head string, sink fixpoint.Sink) func(facts.Fact) {
	atoms := round.Partition(head)
	return func(f facts.Fact) {
		if atoms != nil && atoms.Known(f) {
			return
		}
		sink.Derive(head, f)
	}
}
