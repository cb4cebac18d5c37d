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

// Package join implements the leapfrog join over seekable fact iterators.
package join

import (
	"github.com/ebay/groundset/facts"
)

// Leapfrog intersects k >= 1 iterators on a shared key. The key is the part of
// each fact selected by the join's Projection. Leapfrog is itself a
// facts.Iterator, producing the keys present in every input in ascending
// order, each once.
//
// Inputs are never scanned further than necessary: at each step the input at
// the smallest key seeks to the largest key, so the cost is near linear in the
// size of the inputs plus the output.
type Leapfrog struct {
	proj   facts.Projection
	inputs []facts.Iterator
	// current is the index of the input holding the agreed key, or -1 once
	// the join is exhausted.
	current int
}

// New returns a Leapfrog join over 'inputs', positioned at the first key
// present in all of them. It panics if there are no inputs. The join takes
// ownership of the inputs.
func New(proj facts.Projection, inputs ...facts.Iterator) *Leapfrog {
	if len(inputs) == 0 {
		panic("Programmer error: join.New called with no iterators")
	}
	j := &Leapfrog{proj: proj, inputs: inputs}
	j.search()
	return j
}

// search moves the inputs until they all agree on a key, or one of them is
// exhausted.
func (j *Leapfrog) search() {
	j.current = -1
	for {
		var min, max facts.Fact
		minIdx, maxIdx := -1, -1
		for i, in := range j.inputs {
			f, ok := in.Current()
			if !ok {
				return
			}
			if minIdx < 0 || j.proj.Compare(f, min) < 0 {
				min, minIdx = f, i
			}
			if maxIdx < 0 || j.proj.Compare(f, max) > 0 {
				max, maxIdx = f, i
			}
		}
		if j.proj.Compare(min, max) == 0 {
			j.current = 0
			return
		}
		j.inputs[minIdx].Seek(j.proj.Floor(max))
	}
}

// Current returns a fact carrying the agreed key, taken from the first input.
// With the Whole projection that's the common fact itself. It returns false
// once the join is exhausted.
func (j *Leapfrog) Current() (facts.Fact, bool) {
	if j.current < 0 {
		return facts.Fact{}, false
	}
	return j.inputs[j.current].Current()
}

// Next moves the join to the next key present in all the inputs. It panics if
// the join is exhausted.
func (j *Leapfrog) Next() {
	cur, ok := j.Current()
	if !ok {
		panic("Programmer error: Next called on an exhausted join.Leapfrog")
	}
	// Moving one input past the key is enough, search realigns the others.
	j.inputs[j.current].Seek(j.proj.Successor(cur))
	j.search()
}

// Seek moves the join to the least key present in all the inputs that is >=
// the key of 'target'. It never moves backwards.
func (j *Leapfrog) Seek(target facts.Fact) {
	cur, ok := j.Current()
	if !ok || j.proj.Compare(cur, target) >= 0 {
		return
	}
	floor := j.proj.Floor(target)
	for _, in := range j.inputs {
		in.Seek(floor)
	}
	j.search()
}

// Projection returns the projection the join compares keys with.
func (j *Leapfrog) Projection() facts.Projection {
	return j.proj
}
