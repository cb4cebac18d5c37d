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

// Package config contains the configuration for a groundset evaluation. The
// configuration is typically loaded from a JSON file on disk.
package config

import (
	"fmt"

	"github.com/ebay/groundset/rdf"
	"github.com/ebay/groundset/triples"
)

// Groundset describes which rules to evaluate and how.
type Groundset struct {
	// The rules to evaluate over the loaded facts. May be empty, in which case
	// the loaded facts are the result.
	Rules []Rule `json:"rules"`

	// Limits and tuning for the fixpoint evaluation.
	Fixpoint Fixpoint `json:"fixpoint"`

	// If set, the host:port or :port on which to serve HTTP requests for
	// metrics and diagnostics while evaluating.
	MetricsAddress string `json:"metricsAddress,omitempty"`
}

// Fixpoint contains settings for the fixpoint driver.
type Fixpoint struct {
	// The maximum number of rounds to evaluate before giving up. 0 means no
	// limit.
	MaxRounds int `json:"maxRounds,omitempty"`

	// The number of rules to evaluate concurrently. 0 or 1 evaluates one at a
	// time.
	Parallelism int `json:"parallelism,omitempty"`
}

// The rule types.
const (
	// Head(x,z) :- Body[0](x,y), Body[1](y,z)
	Chain = "chain"
	// Head(x,z) :- Head(x,y), Head(y,z)
	Transitive = "transitive"
	// Head(x,y) :- Body[0](x,y), ..., Body[n](x,y)
	Intersect = "intersect"
	// Head(y,x) :- Body[0](x,y)
	Inverse = "inverse"
	// Head(y,x) :- Head(x,y)
	Symmetric = "symmetric"
	// Head(x,y) :- Body[0](x,y)
	SubProperty = "subProperty"
)

// Rule describes a single rule. Predicates are IRIs in N-Triples form, like
// "<http://example.com/parent>".
type Rule struct {
	// One of the rule type constants above.
	Type string `json:"type"`
	// The predicate the rule derives facts for.
	Head string `json:"head"`
	// The predicates the rule reads, the number required depends on Type.
	Body []string `json:"body,omitempty"`
}

// Validate returns an error if the rule's type is unknown, its body has the
// wrong number of predicates for its type, or a predicate isn't an IRI in
// canonical N-Triples form.
func (r *Rule) Validate() error {
	if r.Head == "" {
		return fmt.Errorf("%v rule is missing its head predicate", r.Type)
	}
	want := -1
	switch r.Type {
	case Chain:
		want = 2
	case Transitive, Symmetric:
		want = 0
	case Inverse, SubProperty:
		want = 1
	case Intersect:
		if len(r.Body) == 0 {
			return fmt.Errorf("intersect rule for %v needs at least one body predicate", r.Head)
		}
	default:
		return fmt.Errorf("rule for %v has unknown type %q", r.Head, r.Type)
	}
	if want >= 0 && len(r.Body) != want {
		return fmt.Errorf("%v rule for %v needs %d body predicates, got %d",
			r.Type, r.Head, want, len(r.Body))
	}
	for _, p := range append([]string{r.Head}, r.Body...) {
		if !predicateKey(p) {
			return fmt.Errorf("%v rule for %v: predicate %q is not an IRI in N-Triples form",
				r.Type, r.Head, p)
		}
	}
	return nil
}

// predicateKey returns true if 'p' is the canonical key of an IRI, which is
// how the loaded facts name their predicates.
func predicateKey(p string) bool {
	term, err := triples.ParseTerm(p)
	if err != nil {
		return false
	}
	iri, ok := term.(rdf.IRI)
	return ok && rdf.Key(iri) == p
}

// Validate checks every rule and the fixpoint settings.
func (cfg *Groundset) Validate() error {
	for i := range cfg.Rules {
		if err := cfg.Rules[i].Validate(); err != nil {
			return fmt.Errorf("rules[%d]: %v", i, err)
		}
	}
	if cfg.Fixpoint.MaxRounds < 0 {
		return fmt.Errorf("fixpoint.maxRounds must not be negative, got %d", cfg.Fixpoint.MaxRounds)
	}
	if cfg.Fixpoint.Parallelism < 0 {
		return fmt.Errorf("fixpoint.parallelism must not be negative, got %d", cfg.Fixpoint.Parallelism)
	}
	return nil
}
