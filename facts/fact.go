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

	"github.com/google/btree"
)

// Fact is a single (subject, object) pair belonging to some predicate. Subject
// and Object are canonical keys, they're compared as raw bytes.
type Fact struct {
	Subject string
	Object  string
}

// Compare returns -1 if a sorts before b, 0 if they're equal, and +1 if a sorts
// after b.
func Compare(a, b Fact) int {
	if c := strings.Compare(a.Subject, b.Subject); c != 0 {
		return c
	}
	return strings.Compare(a.Object, b.Object)
}

// Less implements btree.Item.
func (f Fact) Less(than btree.Item) bool {
	return Compare(f, than.(Fact)) < 0
}

// Swap returns the fact with its subject and object exchanged. Object-major
// indexes hold swapped facts.
func (f Fact) Swap() Fact {
	return Fact{Subject: f.Object, Object: f.Subject}
}

// String returns a human readable version of the fact.
func (f Fact) String() string {
	return fmt.Sprintf("(%s, %s)", f.Subject, f.Object)
}
