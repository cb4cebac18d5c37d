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
	"strings"
)

// Projection selects the part of a Fact that acts as the key when comparing
// iterator positions, such as in a join.
type Projection int

const (
	// Whole compares entire facts.
	Whole Projection = iota
	// BySubject compares subjects only, facts sharing a subject share a key.
	BySubject
)

// Compare compares the keys of a and b.
func (p Projection) Compare(a, b Fact) int {
	switch p {
	case Whole:
		return Compare(a, b)
	case BySubject:
		return strings.Compare(a.Subject, b.Subject)
	}
	panic(fmt.Sprintf("Unexpected Projection: %d", p))
}

// Floor returns the least fact with the same key as f. Seeking to Floor(f)
// positions an iterator at the first fact carrying f's key, if any.
func (p Projection) Floor(f Fact) Fact {
	switch p {
	case Whole:
		return f
	case BySubject:
		return Fact{Subject: f.Subject}
	}
	panic(fmt.Sprintf("Unexpected Projection: %d", p))
}

// Successor returns the least fact whose key is greater than f's key. Seeking
// to Successor(f) moves an iterator past every fact carrying f's key.
func (p Projection) Successor(f Fact) Fact {
	// "\x00" appended to a string gives the least string that sorts after it.
	switch p {
	case Whole:
		return Fact{Subject: f.Subject, Object: f.Object + "\x00"}
	case BySubject:
		return Fact{Subject: f.Subject + "\x00"}
	}
	panic(fmt.Sprintf("Unexpected Projection: %d", p))
}

// String returns the name of the projection.
func (p Projection) String() string {
	switch p {
	case Whole:
		return "Whole"
	case BySubject:
		return "BySubject"
	}
	return fmt.Sprintf("Projection(%d)", int(p))
}
