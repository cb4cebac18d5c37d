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

package graph

import (
	"github.com/ebay/groundset/facts"
)

// AtomSet holds the facts for a single predicate, staged for semi-naive
// evaluation:
//   - stable: facts known as of the start of the current round.
//   - delta: facts that became known in the previous round.
//   - backlog: facts derived during the current round.
//
// Rules read stable and delta, and write only to backlog. Advance moves the
// partition forward one round. Stable only ever grows.
//
// Stable and delta each have an object-major index alongside them, holding
// the same facts with subject and object swapped, so that rules can join on
// objects.
type AtomSet struct {
	stable         *facts.Set
	delta          *facts.Set
	backlog        *facts.Set
	stableByObject *facts.Set
	deltaByObject  *facts.Set
}

// NewAtomSet returns a new empty AtomSet.
func NewAtomSet() *AtomSet {
	return &AtomSet{
		stable:         facts.NewSet(),
		delta:          facts.NewSet(),
		backlog:        facts.NewSet(),
		stableByObject: facts.NewSet(),
		deltaByObject:  facts.NewSet(),
	}
}

// Insert adds 'f' directly to stable. It's used to load ground facts before
// evaluation starts. It returns false if 'f' was already stable.
func (a *AtomSet) Insert(f facts.Fact) bool {
	if !a.stable.Insert(f) {
		return false
	}
	a.stableByObject.Insert(f.Swap())
	return true
}

// Derive adds 'f' to backlog. It returns false if 'f' was already in backlog.
// It doesn't matter whether 'f' is already known, Advance filters those out.
func (a *AtomSet) Derive(f facts.Fact) bool {
	return a.backlog.Insert(f)
}

// Known returns true if 'f' is in stable or delta.
func (a *AtomSet) Known(f facts.Fact) bool {
	return a.stable.Has(f) || a.delta.Has(f)
}

// Advance performs the staging transition. Delta is merged into stable, then
// the facts in backlog that aren't already stable become the new delta, and
// backlog is emptied. It returns true if the new delta isn't empty.
func (a *AtomSet) Advance() bool {
	a.stable.Merge(a.delta)
	a.stableByObject.Merge(a.deltaByObject)
	a.delta = a.backlog.Difference(a.stable)
	a.deltaByObject.Clear()
	a.delta.Ascend(func(f facts.Fact) bool {
		a.deltaByObject.Insert(f.Swap())
		return true
	})
	a.backlog.Clear()
	return a.delta.Len() > 0
}

// Stable returns the stable facts. The caller must not modify the returned set.
func (a *AtomSet) Stable() *facts.Set {
	return a.stable
}

// Delta returns the facts that became known in the previous round. The caller
// must not modify the returned set.
func (a *AtomSet) Delta() *facts.Set {
	return a.delta
}

// Backlog returns the facts derived so far this round. The caller must not
// modify the returned set, use Derive.
func (a *AtomSet) Backlog() *facts.Set {
	return a.backlog
}

// StableByObject returns the stable facts with subject and object swapped.
func (a *AtomSet) StableByObject() *facts.Set {
	return a.stableByObject
}

// DeltaByObject returns the delta facts with subject and object swapped.
func (a *AtomSet) DeltaByObject() *facts.Set {
	return a.deltaByObject
}

// State is a snapshot of an AtomSet's three sets, each in ascending order.
type State struct {
	Stable  []facts.Fact
	Delta   []facts.Fact
	Backlog []facts.Fact
}

// State returns a snapshot of the AtomSet.
func (a *AtomSet) State() State {
	return State{
		Stable:  a.stable.Slice(),
		Delta:   a.delta.Slice(),
		Backlog: a.backlog.Slice(),
	}
}
