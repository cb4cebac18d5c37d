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

package facts

import (
	"github.com/google/btree"
)

// Set is an ordered, deduplicated set of Facts. The zero value is not usable,
// use NewSet. A Set is not safe for concurrent use while it's being modified,
// but any number of goroutines can read and iterate it concurrently otherwise.
type Set struct {
	tree *btree.BTree
}

// NewSet returns a new Set containing the given facts.
func NewSet(facts ...Fact) *Set {
	s := &Set{tree: btree.New(16)}
	for _, f := range facts {
		s.Insert(f)
	}
	return s
}

// Insert adds 'f' to the set. It returns true if 'f' wasn't already present.
func (s *Set) Insert(f Fact) bool {
	return s.tree.ReplaceOrInsert(f) == nil
}

// Has returns true if 'f' is in the set.
func (s *Set) Has(f Fact) bool {
	return s.tree.Has(f)
}

// Len returns the number of facts in the set.
func (s *Set) Len() int {
	return s.tree.Len()
}

// Ascend calls 'fn' for each fact in ascending order until 'fn' returns false.
func (s *Set) Ascend(fn func(Fact) bool) {
	s.tree.Ascend(func(i btree.Item) bool {
		return fn(i.(Fact))
	})
}

// AscendSubject calls 'fn' in ascending order for each fact with the given
// subject, until 'fn' returns false.
func (s *Set) AscendSubject(subject string, fn func(Fact) bool) {
	s.tree.AscendGreaterOrEqual(Fact{Subject: subject}, func(i btree.Item) bool {
		f := i.(Fact)
		if f.Subject != subject {
			return false
		}
		return fn(f)
	})
}

// Slice returns the facts of the set in ascending order.
func (s *Set) Slice() []Fact {
	res := make([]Fact, 0, s.Len())
	s.Ascend(func(f Fact) bool {
		res = append(res, f)
		return true
	})
	return res
}

// Merge adds all the facts in 'other' to this set. It returns the number of
// facts that weren't already present.
func (s *Set) Merge(other *Set) int {
	added := 0
	other.Ascend(func(f Fact) bool {
		if s.Insert(f) {
			added++
		}
		return true
	})
	return added
}

// Difference returns a new set of the facts in this set that aren't in any of
// 'others'.
func (s *Set) Difference(others ...*Set) *Set {
	res := NewSet()
	s.Ascend(func(f Fact) bool {
		for _, o := range others {
			if o.Has(f) {
				return true
			}
		}
		res.Insert(f)
		return true
	})
	return res
}

// Clear removes all the facts from the set.
func (s *Set) Clear() {
	s.tree.Clear(false)
}

// Iterator returns a new Iterator over the set, positioned at its smallest
// fact. The set must not be modified while the iterator is in use.
func (s *Set) Iterator() Iterator {
	it := &treeIterator{tree: s.tree}
	if min := s.tree.Min(); min != nil {
		it.current = min.(Fact)
		it.valid = true
	}
	return it
}
