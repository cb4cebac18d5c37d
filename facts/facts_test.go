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
	"fmt"
	"math/rand"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func f(s, o string) Fact {
	return Fact{Subject: s, Object: o}
}

func Test_Compare(t *testing.T) {
	tests := []struct {
		a, b Fact
		exp  int
	}{
		{f("a", "b"), f("a", "b"), 0},
		{f("a", "b"), f("a", "c"), -1},
		{f("a", "z"), f("b", "a"), -1},
		{f("b", "a"), f("a", "z"), 1},
		{f("a", ""), f("a", "a"), -1},
		{f("ab", ""), f("a", "zz"), 1},
	}
	for _, test := range tests {
		t.Run(fmt.Sprintf("%v_%v", test.a, test.b), func(t *testing.T) {
			assert.Equal(t, test.exp, Compare(test.a, test.b))
			assert.Equal(t, test.exp < 0, test.a.Less(test.b))
		})
	}
}

func Test_Fact_SwapAndString(t *testing.T) {
	x := f("<a>", "<b>")
	assert.Equal(t, f("<b>", "<a>"), x.Swap())
	assert.Equal(t, x, x.Swap().Swap())
	assert.Equal(t, "(<a>, <b>)", x.String())
}

func Test_Projection(t *testing.T) {
	assert.Equal(t, 0, BySubject.Compare(f("a", "x"), f("a", "y")))
	assert.Equal(t, -1, Whole.Compare(f("a", "x"), f("a", "y")))
	assert.Equal(t, f("a", ""), BySubject.Floor(f("a", "y")))
	assert.Equal(t, f("a", "y"), Whole.Floor(f("a", "y")))

	// Successor sorts after every fact with the same key, and before every
	// fact with a greater key.
	for _, p := range []Projection{Whole, BySubject} {
		t.Run(p.String(), func(t *testing.T) {
			cur := f("a", "m")
			succ := p.Successor(cur)
			assert.True(t, p.Compare(cur, succ) < 0)
			assert.True(t, Compare(succ, f("a\x00", "")) <= 0)
			assert.True(t, Compare(succ, f("aa", "")) < 0)
			assert.True(t, Compare(succ, f("b", "")) < 0)
		})
	}
	assert.True(t, Compare(f("a", "zzzz"), BySubject.Successor(f("a", "m"))) < 0)
	assert.True(t, Compare(f("a", "m\x00"), Whole.Successor(f("a", "m"))) <= 0)
	assert.True(t, Compare(f("a", "ma"), Whole.Successor(f("a", "m"))) > 0)
	assert.Equal(t, "Projection(7)", Projection(7).String())
	assert.Panics(t, func() { Projection(7).Floor(f("a", "b")) })
}

func Test_Set(t *testing.T) {
	s := NewSet(f("b", "1"), f("a", "2"), f("a", "1"))
	assert.Equal(t, 3, s.Len())
	assert.False(t, s.Insert(f("a", "1")))
	assert.True(t, s.Insert(f("c", "1")))
	assert.True(t, s.Has(f("b", "1")))
	assert.False(t, s.Has(f("b", "2")))
	assert.Equal(t, []Fact{f("a", "1"), f("a", "2"), f("b", "1"), f("c", "1")}, s.Slice())

	var subj []Fact
	s.AscendSubject("a", func(x Fact) bool {
		subj = append(subj, x)
		return true
	})
	assert.Equal(t, []Fact{f("a", "1"), f("a", "2")}, subj)
	subj = nil
	s.AscendSubject("aa", func(x Fact) bool {
		subj = append(subj, x)
		return true
	})
	assert.Empty(t, subj)

	count := 0
	s.Ascend(func(Fact) bool {
		count++
		return count < 2
	})
	assert.Equal(t, 2, count)
}

func Test_Set_MergeDifferenceClear(t *testing.T) {
	a := NewSet(f("a", "1"), f("b", "1"))
	b := NewSet(f("b", "1"), f("c", "1"))
	c := NewSet()
	assert.Equal(t, 2, c.Merge(a))
	assert.Equal(t, 1, c.Merge(b))
	assert.Equal(t, []Fact{f("a", "1"), f("b", "1"), f("c", "1")}, c.Slice())
	assert.Equal(t, 2, a.Len(), "merge should not change its argument")

	assert.Equal(t, []Fact{f("a", "1")}, a.Difference(b).Slice())
	assert.Equal(t, []Fact{f("c", "1")}, c.Difference(a, NewSet(f("b", "1"))).Slice())
	assert.Equal(t, 0, NewSet().Difference(a).Len())

	c.Clear()
	assert.Equal(t, 0, c.Len())
	assert.Equal(t, 2, a.Len())
	assert.True(t, c.Insert(f("a", "1")), "a cleared set is usable")
	assert.Equal(t, []Fact{f("a", "1")}, c.Slice())
}

// backends returns a constructor for every Iterator implementation, each
// producing an iterator over the given sorted facts.
func backends() map[string]func(sorted []Fact) Iterator {
	return map[string]func([]Fact) Iterator{
		"tree": func(sorted []Fact) Iterator {
			return NewSet(sorted...).Iterator()
		},
		"slice": NewSliceIterator,
		"union": func(sorted []Fact) Iterator {
			var even, odd []Fact
			for i, x := range sorted {
				if i%2 == 0 {
					even = append(even, x)
				} else {
					odd = append(odd, x)
				}
				// overlap every third fact
				if i%3 == 0 && i%2 != 0 {
					even = append(even, x)
				}
			}
			return Union(NewSliceIterator(even), NewSet(odd...).Iterator())
		},
	}
}

func Test_Iterator_Scan(t *testing.T) {
	in := []Fact{f("a", "1"), f("a", "2"), f("b", "1"), f("c", "3"), f("d", "")}
	for name, mk := range backends() {
		t.Run(name, func(t *testing.T) {
			it := mk(in)
			assert.Equal(t, in, Drain(it))
			cur, ok := it.Current()
			assert.False(t, ok)
			assert.Equal(t, Fact{}, cur, "exhausted iterators report the zero Fact")
			assert.Panics(t, it.Next)
			it.Seek(f("a", ""))
			_, ok = it.Current()
			assert.False(t, ok, "Seek must not revive an exhausted iterator")
		})
	}
}

func Test_Iterator_Empty(t *testing.T) {
	for name, mk := range backends() {
		t.Run(name, func(t *testing.T) {
			it := mk(nil)
			_, ok := it.Current()
			assert.False(t, ok)
			assert.Panics(t, it.Next)
		})
	}
}

func Test_Iterator_Seek(t *testing.T) {
	in := []Fact{f("a", "1"), f("a", "2"), f("b", "1"), f("c", "3"), f("d", "")}
	tests := []struct {
		name    string
		targets []Fact
		exp     []Fact // expected Current after each Seek, zero value for exhausted
	}{
		{"exact", []Fact{f("a", "2"), f("c", "3")}, []Fact{f("a", "2"), f("c", "3")}},
		{"between", []Fact{f("a", "11"), f("bb", "")}, []Fact{f("a", "2"), f("c", "3")}},
		{"noop", []Fact{f("", ""), f("a", "1"), f("a", "1")}, []Fact{f("a", "1"), f("a", "1"), f("a", "1")}},
		{"backwards", []Fact{f("c", ""), f("a", "1")}, []Fact{f("c", "3"), f("c", "3")}},
		{"past end", []Fact{f("d", "a"), f("e", "")}, []Fact{{}, {}}},
		{"last", []Fact{f("d", "")}, []Fact{f("d", "")}},
	}
	for name, mk := range backends() {
		for _, test := range tests {
			t.Run(name+"_"+test.name, func(t *testing.T) {
				it := mk(in)
				for i, target := range test.targets {
					it.Seek(target)
					cur, ok := it.Current()
					assert.Equal(t, test.exp[i] != Fact{}, ok, "seek %v", target)
					assert.Equal(t, test.exp[i], cur, "seek %v", target)
				}
			})
		}
	}
}

// Test_Iterator_SeekMonotonic checks every backend against a brute force
// search, for random sets and random non-decreasing seek targets.
func Test_Iterator_SeekMonotonic(t *testing.T) {
	rnd := rand.New(rand.NewSource(42))
	key := func() string {
		return string(rune('a' + rnd.Intn(6)))
	}
	for round := 0; round < 50; round++ {
		set := NewSet()
		for i := rnd.Intn(40); i > 0; i-- {
			set.Insert(f(key(), key()))
		}
		in := set.Slice()
		targets := make([]Fact, 20)
		for i := range targets {
			targets[i] = f(key(), key())
		}
		sort.Slice(targets, func(i, j int) bool {
			return Compare(targets[i], targets[j]) < 0
		})
		for name, mk := range backends() {
			it := mk(in)
			for _, target := range targets {
				it.Seek(target)
				exp := sort.Search(len(in), func(i int) bool {
					return Compare(in[i], target) >= 0
				})
				cur, ok := it.Current()
				if exp == len(in) {
					require.False(t, ok, "%s: seek %v in %v", name, target, in)
					continue
				}
				require.True(t, ok, "%s: seek %v in %v", name, target, in)
				require.Equal(t, in[exp], cur, "%s: seek %v in %v", name, target, in)
				it.Seek(target)
				again, _ := it.Current()
				require.Equal(t, cur, again, "%s: repeated seek moved the cursor", name)
			}
		}
	}
}

func Test_Union_Duplicates(t *testing.T) {
	a := NewSliceIterator([]Fact{f("a", "1"), f("b", "1"), f("c", "1")})
	b := NewSliceIterator([]Fact{f("a", "1"), f("c", "1"), f("d", "1")})
	assert.Equal(t, []Fact{f("a", "1"), f("b", "1"), f("c", "1"), f("d", "1")}, Drain(Union(a, b)))
}
