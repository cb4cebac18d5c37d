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

// Package graph is the in-memory fact store. Facts are partitioned by
// predicate, each partition is an AtomSet staged for semi-naive evaluation.
package graph

import (
	"github.com/cespare/xxhash"
	"github.com/ebay/groundset/facts"
	"github.com/google/btree"
)

// Graph maps predicates to their AtomSets, ordered by predicate. Partitions are
// created on first use and never removed.
//
// Partition, InsertFact, Derive and Advance modify the graph and must not be
// called concurrently with anything else. Lookup and the AtomSet read methods
// are safe for concurrent use between modifications.
type Graph struct {
	partitions *btree.BTree
}

type partition struct {
	predicate string
	atoms     *AtomSet
}

func (p partition) Less(than btree.Item) bool {
	return p.predicate < than.(partition).predicate
}

// New returns a new empty Graph.
func New() *Graph {
	return &Graph{partitions: btree.New(8)}
}

// Partition returns the AtomSet for 'predicate', creating it if needed.
func (g *Graph) Partition(predicate string) *AtomSet {
	if a := g.Lookup(predicate); a != nil {
		return a
	}
	a := NewAtomSet()
	g.partitions.ReplaceOrInsert(partition{predicate: predicate, atoms: a})
	return a
}

// Lookup returns the AtomSet for 'predicate', or nil if there isn't one.
func (g *Graph) Lookup(predicate string) *AtomSet {
	item := g.partitions.Get(partition{predicate: predicate})
	if item == nil {
		return nil
	}
	return item.(partition).atoms
}

// InsertFact adds a ground fact to the stable set of the predicate's
// partition. It returns false if the fact was already stable.
func (g *Graph) InsertFact(predicate string, f facts.Fact) bool {
	return g.Partition(predicate).Insert(f)
}

// Derive adds a derived fact to the backlog of the predicate's partition.
func (g *Graph) Derive(predicate string, f facts.Fact) bool {
	return g.Partition(predicate).Derive(f)
}

// Ascend calls 'fn' for each partition in predicate order until 'fn' returns
// false.
func (g *Graph) Ascend(fn func(predicate string, atoms *AtomSet) bool) {
	g.partitions.Ascend(func(i btree.Item) bool {
		p := i.(partition)
		return fn(p.predicate, p.atoms)
	})
}

// Len returns the number of partitions.
func (g *Graph) Len() int {
	return g.partitions.Len()
}

// Advance applies the staging transition to every partition, and returns how
// many of them have a non-empty delta afterwards. Zero means the graph has
// reached a fixpoint.
func (g *Graph) Advance() int {
	changed := 0
	g.Ascend(func(_ string, atoms *AtomSet) bool {
		if atoms.Advance() {
			changed++
		}
		return true
	})
	return changed
}

// Digest returns a hash of all the stable facts in the graph. Two graphs with
// the same stable facts have the same digest regardless of the order the facts
// were added in.
func (g *Graph) Digest() uint64 {
	h := xxhash.New()
	g.Ascend(func(predicate string, atoms *AtomSet) bool {
		atoms.Stable().Ascend(func(f facts.Fact) bool {
			h.Write([]byte(predicate))
			h.Write([]byte{0})
			h.Write([]byte(f.Subject))
			h.Write([]byte{0})
			h.Write([]byte(f.Object))
			h.Write([]byte{'\n'})
			return true
		})
		return true
	})
	return h.Sum64()
}

// PartitionStats contains the sizes of one partition's sets.
type PartitionStats struct {
	Predicate string `json:"predicate"`
	Stable    int    `json:"stable"`
	Delta     int    `json:"delta"`
	Backlog   int    `json:"backlog"`
}

// Stats returns the sizes of every partition, in predicate order.
func (g *Graph) Stats() []PartitionStats {
	res := make([]PartitionStats, 0, g.Len())
	g.Ascend(func(predicate string, atoms *AtomSet) bool {
		res = append(res, PartitionStats{
			Predicate: predicate,
			Stable:    atoms.Stable().Len(),
			Delta:     atoms.Delta().Len(),
			Backlog:   atoms.Backlog().Len(),
		})
		return true
	})
	return res
}
