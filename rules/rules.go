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

// Package rules contains the monotonic rules the fixpoint driver can evaluate.
// All of them are semi-naive: each round they only derive facts from joins
// involving at least one fact that's new in that round.
package rules

import (
	"context"
	"fmt"
	"strings"

	"github.com/ebay/groundset/config"
	"github.com/ebay/groundset/facts"
	"github.com/ebay/groundset/fixpoint"
	"github.com/ebay/groundset/join"
)

// Chain derives Head(x,z) from Left(x,y) and Right(y,z).
type Chain struct {
	Head  string
	Left  string
	Right string
}

// Transitive returns a rule that makes 'predicate' transitive.
func Transitive(predicate string) Chain {
	return Chain{Head: predicate, Left: predicate, Right: predicate}
}

// Name implements fixpoint.Rule.
func (r Chain) Name() string {
	return fmt.Sprintf("%s(x,z) :- %s(x,y), %s(y,z)", r.Head, r.Left, r.Right)
}

// Evaluate implements fixpoint.Rule. Left is read through its object-major
// index, so both sides are keyed by y and can be joined by subject.
func (r Chain) Evaluate(ctx context.Context, round *fixpoint.Round, sink fixpoint.Sink) error {
	type pair struct{ left, right view }
	var pairs []pair
	if round.Full() {
		pairs = []pair{{
			left:  newView(round, r.Left, known, true),
			right: newView(round, r.Right, known, false),
		}}
	} else {
		pairs = []pair{{
			left:  newView(round, r.Left, fresh, true),
			right: newView(round, r.Right, known, false),
		}, {
			left:  newView(round, r.Left, known, true),
			right: newView(round, r.Right, fresh, false),
		}}
	}
	derive := deriver(round, r.Head, sink)
	for _, p := range pairs {
		if p.left.empty() || p.right.empty() {
			continue
		}
		j := join.New(facts.BySubject, p.left.iterator(), p.right.iterator())
		for key, ok := j.Current(); ok; key, ok = j.Current() {
			if err := ctx.Err(); err != nil {
				return err
			}
			y := key.Subject
			p.left.ascendSubject(y, func(yx facts.Fact) {
				p.right.ascendSubject(y, func(yz facts.Fact) {
					derive(facts.Fact{Subject: yx.Object, Object: yz.Object})
				})
			})
			j.Next()
		}
	}
	return nil
}

// Intersect derives Head(x,y) from facts present in every Body predicate.
type Intersect struct {
	Head string
	Body []string
}

// Name implements fixpoint.Rule.
func (r Intersect) Name() string {
	atoms := make([]string, len(r.Body))
	for i, p := range r.Body {
		atoms[i] = p + "(x,y)"
	}
	return fmt.Sprintf("%s(x,y) :- %s", r.Head, strings.Join(atoms, ", "))
}

// Evaluate implements fixpoint.Rule.
func (r Intersect) Evaluate(ctx context.Context, round *fixpoint.Round, sink fixpoint.Sink) error {
	if len(r.Body) == 0 {
		return fmt.Errorf("intersect rule for %v has no body predicates", r.Head)
	}
	// In a full round one join over everything is enough. Otherwise there's
	// a join for each body atom, with that atom restricted to new facts.
	joins := len(r.Body)
	if round.Full() {
		joins = 1
	}
	derive := deriver(round, r.Head, sink)
	for i := 0; i < joins; i++ {
		views := make([]view, len(r.Body))
		skip := false
		for b, p := range r.Body {
			sc := known
			if b == i {
				sc = fresh
			}
			views[b] = newView(round, p, sc, false)
			skip = skip || views[b].empty()
		}
		if skip {
			continue
		}
		inputs := make([]facts.Iterator, len(views))
		for b := range views {
			inputs[b] = views[b].iterator()
		}
		j := join.New(facts.Whole, inputs...)
		for f, ok := j.Current(); ok; f, ok = j.Current() {
			derive(f)
			j.Next()
		}
		if err := ctx.Err(); err != nil {
			return err
		}
	}
	return nil
}

// Inverse derives Head(y,x) from Body(x,y).
type Inverse struct {
	Head string
	Body string
}

// Symmetric returns a rule that makes 'predicate' symmetric.
func Symmetric(predicate string) Inverse {
	return Inverse{Head: predicate, Body: predicate}
}

// Name implements fixpoint.Rule.
func (r Inverse) Name() string {
	return fmt.Sprintf("%s(y,x) :- %s(x,y)", r.Head, r.Body)
}

// Evaluate implements fixpoint.Rule.
func (r Inverse) Evaluate(ctx context.Context, round *fixpoint.Round, sink fixpoint.Sink) error {
	derive := deriver(round, r.Head, sink)
	newView(round, r.Body, fresh, false).ascend(func(f facts.Fact) bool {
		derive(f.Swap())
		return true
	})
	return ctx.Err()
}

// SubProperty derives Head(x,y) from Body(x,y).
type SubProperty struct {
	Head string
	Body string
}

// Name implements fixpoint.Rule.
func (r SubProperty) Name() string {
	return fmt.Sprintf("%s(x,y) :- %s(x,y)", r.Head, r.Body)
}

// Evaluate implements fixpoint.Rule.
func (r SubProperty) Evaluate(ctx context.Context, round *fixpoint.Round, sink fixpoint.Sink) error {
	derive := deriver(round, r.Head, sink)
	newView(round, r.Body, fresh, false).ascend(func(f facts.Fact) bool {
		derive(f)
		return true
	})
	return ctx.Err()
}

// FromConfig builds the rules described by the configuration.
func FromConfig(cfgs []config.Rule) ([]fixpoint.Rule, error) {
	res := make([]fixpoint.Rule, 0, len(cfgs))
	for i := range cfgs {
		c := &cfgs[i]
		if err := c.Validate(); err != nil {
			return nil, err
		}
		switch c.Type {
		case config.Chain:
			res = append(res, Chain{Head: c.Head, Left: c.Body[0], Right: c.Body[1]})
		case config.Transitive:
			res = append(res, Transitive(c.Head))
		case config.Intersect:
			res = append(res, Intersect{Head: c.Head, Body: append([]string(nil), c.Body...)})
		case config.Inverse:
			res = append(res, Inverse{Head: c.Head, Body: c.Body[0]})
		case config.Symmetric:
			res = append(res, Symmetric(c.Head))
		case config.SubProperty:
			res = append(res, SubProperty{Head: c.Head, Body: c.Body[0]})
		default:
			panic(fmt.Sprintf("Programmer error: rule type %q passed validation but isn't handled", c.Type))
		}
	}
	return res, nil
}
