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

// Package fixpoint evaluates a set of monotonic rules over a graph until no
// new facts can be derived, using semi-naive evaluation.
//
// Each round every rule reads the facts known as of the start of the round,
// through Round, and reports what it derives to a Sink. Once all the rules are
// done, the derived facts are deposited into their partitions' backlogs and
// every partition advances. The run ends after a round in which no partition
// gains a new fact.
package fixpoint

import (
	"context"

	"github.com/ebay/groundset/facts"
	"github.com/ebay/groundset/graph"
)

// Rule derives new facts from existing ones.
type Rule interface {
	// Name is used in logs and traces.
	Name() string
	// Evaluate derives facts for this round. To be semi-naive, a rule should
	// only consider joins involving at least one new fact (see Round.Full).
	// Evaluate must not modify the graph, it may be called concurrently with
	// other rules.
	Evaluate(ctx context.Context, round *Round, sink Sink) error
}

// Sink receives derived facts.
type Sink interface {
	// Derive reports that 'f' holds for 'predicate'.
	Derive(predicate string, f facts.Fact)
}

// Round provides rules with read access to the graph during a round.
type Round struct {
	number int
	graph  *graph.Graph
}

// Number returns the round number, starting at 0.
func (r *Round) Number() int {
	return r.number
}

// Full returns true if every known fact should be treated as new this round.
// This is the case in the first round, where the loaded facts haven't been
// joined with anything yet. In later rounds only the delta facts are new.
func (r *Round) Full() bool {
	return r.number == 0
}

// Partition returns the AtomSet for 'predicate', or nil if the graph has no
// facts for it.
func (r *Round) Partition(predicate string) *graph.AtomSet {
	return r.graph.Lookup(predicate)
}

// buffer is the Sink given to a single rule for a single round.
type buffer struct {
	derived map[string]*facts.Set
}

func newBuffer() *buffer {
	return &buffer{derived: make(map[string]*facts.Set)}
}

func (b *buffer) Derive(predicate string, f facts.Fact) {
	s := b.derived[predicate]
	if s == nil {
		s = facts.NewSet()
		b.derived[predicate] = s
	}
	s.Insert(f)
}
