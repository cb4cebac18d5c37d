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

// Package triples reads RDF statements as facts. It understands N-Triples
// (https://www.w3.org/TR/n-triples/) and Turtle
// (https://www.w3.org/TR/turtle/).
//
// Each statement becomes a fact for its predicate, with the canonical keys of
// its subject and object terms (see package rdf).
package triples

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/ebay/groundset/facts"
	"github.com/ebay/groundset/graph"
	"github.com/ebay/groundset/rdf"
	"github.com/sirupsen/logrus"
	"github.com/vektah/goparsify"
)

// maxLineSize is the longest line ReadNTriples accepts.
const maxLineSize = 16 * 1024 * 1024

var (
	// ntStatement is the parser for a single line holding a statement.
	ntStatement goparsify.Parser
	// ntTerm is the parser used by ParseTerm.
	ntTerm goparsify.Parser
)

type triple struct {
	subject   rdf.Term
	predicate rdf.IRI
	object    rdf.Term
}

func init() {
	iri := iriRef(nil)
	blank := blankNode()
	subject := goparsify.Any(iri, blank)
	object := goparsify.Any(iri, blank, literal(iri, ntriplesQuoting))
	ntStatement = goparsify.Seq(subject, iri, object, ".").Map(func(n *goparsify.Result) {
		n.Result = triple{
			subject:   n.Child[0].Result.(rdf.Term),
			predicate: n.Child[1].Result.(rdf.IRI),
			object:    n.Child[2].Result.(rdf.Term),
		}
	})
	ntTerm = object
}

// ntWhitespace is the goparsify whitespace parser for N-Triples. Whitespace
// is ' ' and \t only, as input is parsed one line at a time. # starts a
// comment which runs to the end of the line.
func ntWhitespace(ps *goparsify.State) {
	for ps.Pos < len(ps.Input) {
		switch ps.Input[ps.Pos] {
		case ' ', '\t':
			ps.Pos++
		case '#':
			ps.Pos = len(ps.Input)
		default:
			return
		}
	}
}

// ParseError describes input that isn't valid N-Triples or Turtle.
type ParseError struct {
	// Format is "N-Triples" or "Turtle".
	Format string
	// Line is the 1-based line number in the input.
	Line int
	// Column is the 1-based column, in runes, where the error occurred.
	Column int
	// Input is the text of the offending line.
	Input string
	// The specific parser error.
	Details string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("unable to parse %s: line %d column %d: %s", e.Format, e.Line, e.Column, e.Details)
}

// parseLine runs 'parser' over all of 'in', a line of N-Triples. It returns a
// nil result if 'in' is blank or only holds a comment.
func parseLine(parser goparsify.Parser, in string, lineNo int) (*goparsify.Result, error) {
	state := goparsify.NewState(in)
	state.WS = ntWhitespace
	state.WS(state)
	if state.Pos >= len(in) {
		return nil, nil
	}
	result := &goparsify.Result{}
	parser(state, result)
	if state.Errored() {
		return nil, &ParseError{
			Format:  "N-Triples",
			Line:    lineNo,
			Column:  column(in, state.Error.Pos()),
			Input:   in,
			Details: "expected " + expectedText(&state.Error),
		}
	}
	state.WS(state)
	if unparsed := state.Get(); unparsed != "" {
		return nil, &ParseError{
			Format:  "N-Triples",
			Line:    lineNo,
			Column:  column(in, state.Pos),
			Input:   in,
			Details: fmt.Sprintf("unparsed text: '%s'", unparsed),
		}
	}
	return result, nil
}

// column converts a byte offset in 'line' into a 1-based rune column.
func column(line string, offset int) int {
	if offset > len(line) {
		offset = len(line)
	}
	return utf8.RuneCountInString(line[:offset]) + 1
}

// expectedText extracts the expected text from the supplied goparsify Error.
// This relies on the format of the error message generated by goparsify.
func expectedText(e *goparsify.Error) string {
	msg := e.Error()
	idx := strings.Index(msg, "expected ")
	if idx == -1 {
		logrus.WithField("err", msg).
			Warn("Got goparsify error with missing 'expected' string")
		return msg
	}
	return msg[idx+len("expected "):]
}

// ReadNTriples parses N-Triples from 'r', calling 'fn' with each statement's
// predicate key and fact, in input order. It stops at the first parse error,
// which is a *ParseError, or the first error from 'fn', which is returned as
// is. It returns the number of statements passed to 'fn'.
func ReadNTriples(r io.Reader, fn func(predicate string, f facts.Fact) error) (int, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxLineSize)
	count := 0
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSuffix(scanner.Text(), "\r")
		res, err := parseLine(ntStatement, line, lineNo)
		if err != nil {
			return count, err
		}
		if res == nil {
			continue
		}
		t := res.Result.(triple)
		if err := fn(rdf.Key(t.predicate), rdf.Fact(t.subject, t.object)); err != nil {
			return count, err
		}
		count++
	}
	if err := scanner.Err(); err != nil {
		return count, fmt.Errorf("error reading N-Triples after line %d: %v", lineNo, err)
	}
	return count, nil
}

// LoadNTriples reads N-Triples from 'r' into the stable sets of 'g'. It
// returns the number of statements read, including ones already in the graph.
func LoadNTriples(r io.Reader, g *graph.Graph) (int, error) {
	return ReadNTriples(r, insertInto(g))
}

func insertInto(g *graph.Graph) func(string, facts.Fact) error {
	return func(predicate string, f facts.Fact) error {
		g.InsertFact(predicate, f)
		return nil
	}
}

// ParseTerm parses a single term in N-Triples syntax, such as a canonical key.
func ParseTerm(key string) (rdf.Term, error) {
	res, err := parseLine(ntTerm, key, 1)
	if err != nil {
		return nil, err
	}
	if res == nil {
		return nil, &ParseError{Format: "N-Triples", Line: 1, Column: 1, Input: key, Details: "expected a term"}
	}
	return res.Result.(rdf.Term), nil
}
