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

// Package facts defines the Fact, the ordered sets of Facts kept per
// predicate, and the seekable Iterator contract that the leapfrog join runs
// over.
//
// A Fact is a (subject, object) pair of canonical keys. Facts are ordered
// byte-wise, subject first then object. The same order is used everywhere:
// sets, iterators, joins, and output, which keeps every result deterministic.
package facts
