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
	"sort"

	"github.com/google/btree"
)

// Iterator is a forward-only cursor over an ordered set of facts.
type Iterator interface {
	// Current returns the fact at the cursor. It returns false once the
	// iterator is exhausted.
	Current() (Fact, bool)
	// Next moves the cursor to the smallest fact greater than the current one,
	// or to the exhausted state if there are none. It panics if the iterator is
	// already exhausted.
	Next()
	// Seek moves the cursor to the least fact >= 'target', or to the exhausted
	// state if there are none. Seek never moves the cursor backwards, and does
	// nothing if the current fact is already >= 'target'.
	Seek(target Fact)
}

// treeIterator is the tree-descent backend: each move descends the btree from
// its root, so long skips cost a logarithmic number of steps.
type treeIterator struct {
	tree    *btree.BTree
	current Fact
	valid   bool
}

func (it *treeIterator) Current() (Fact, bool) {
	return it.current, it.valid
}

func (it *treeIterator) Next() {
	if !it.valid {
		panic("Programmer error: Next called on an exhausted facts.Iterator")
	}
	it.moveTo(it.current, false)
}

func (it *treeIterator) Seek(target Fact) {
	if !it.valid || Compare(it.current, target) >= 0 {
		return
	}
	it.moveTo(target, true)
}

// moveTo positions the cursor at the first fact >= pivot (inclusive) or
// > pivot (!inclusive).
func (it *treeIterator) moveTo(pivot Fact, inclusive bool) {
	it.current, it.valid = Fact{}, false
	it.tree.AscendGreaterOrEqual(pivot, func(i btree.Item) bool {
		f := i.(Fact)
		if !inclusive && f == pivot {
			return true
		}
		it.current = f
		it.valid = true
		return false
	})
}

// sliceIterator is the scan backend over a sorted slice. Next is a single
// step, and Seek gallops forward from the cursor then binary searches.
type sliceIterator struct {
	facts []Fact
	pos   int
}

// NewSliceIterator returns an Iterator over 'sorted', which must be in
// ascending order without duplicates. The slice must not be modified while the
// iterator is in use.
func NewSliceIterator(sorted []Fact) Iterator {
	return &sliceIterator{facts: sorted}
}

func (it *sliceIterator) Current() (Fact, bool) {
	if it.pos >= len(it.facts) {
		return Fact{}, false
	}
	return it.facts[it.pos], true
}

func (it *sliceIterator) Next() {
	if it.pos >= len(it.facts) {
		panic("Programmer error: Next called on an exhausted facts.Iterator")
	}
	it.pos++
}

func (it *sliceIterator) Seek(target Fact) {
	n := len(it.facts)
	if it.pos >= n || Compare(it.facts[it.pos], target) >= 0 {
		return
	}
	// facts[lo] < target, find hi such that facts[hi] >= target or hi == n.
	lo, step := it.pos, 1
	hi := lo + step
	for hi < n && Compare(it.facts[hi], target) < 0 {
		lo = hi
		step *= 2
		hi = lo + step
	}
	if hi > n {
		hi = n
	}
	it.pos = lo + 1 + sort.Search(hi-lo-1, func(i int) bool {
		return Compare(it.facts[lo+1+i], target) >= 0
	})
}

// unionIterator presents the ordered union of two iterators. A fact present
// in both appears once.
type unionIterator struct {
	a, b Iterator
}

// Union returns an Iterator over the ordered union of 'a' and 'b'. Facts
// present in both are reported once. The union takes ownership of the two
// iterators.
func Union(a, b Iterator) Iterator {
	return &unionIterator{a: a, b: b}
}

func (it *unionIterator) Current() (Fact, bool) {
	fa, oka := it.a.Current()
	fb, okb := it.b.Current()
	switch {
	case !oka:
		return fb, okb
	case !okb:
		return fa, true
	case Compare(fb, fa) < 0:
		return fb, true
	}
	return fa, true
}

func (it *unionIterator) Next() {
	cur, ok := it.Current()
	if !ok {
		panic("Programmer error: Next called on an exhausted facts.Iterator")
	}
	for _, in := range []Iterator{it.a, it.b} {
		if f, ok := in.Current(); ok && f == cur {
			in.Next()
		}
	}
}

func (it *unionIterator) Seek(target Fact) {
	it.a.Seek(target)
	it.b.Seek(target)
}

// Drain returns all the remaining facts from 'it' in order, leaving it
// exhausted.
func Drain(it Iterator) []Fact {
	var res []Fact
	for f, ok := it.Current(); ok; f, ok = it.Current() {
		res = append(res, f)
		it.Next()
	}
	return res
}
