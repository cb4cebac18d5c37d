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

package triples

import (
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/ebay/groundset/facts"
	"github.com/ebay/groundset/graph"
	"github.com/ebay/groundset/rdf"
	"github.com/vektah/goparsify"
)

// turtleReader holds the state that carries from one statement of a Turtle
// document to the next.
type turtleReader struct {
	prefixes map[string]string
	base     *url.URL
	// blanks counts the blank nodes generated for [] and collections.
	blanks int
	// out collects the triples of the statement being parsed.
	out []triple
	// undeclared is the offset of the first prefixed name in the statement
	// whose prefix hasn't been declared, or -1.
	undeclared       int
	undeclaredPrefix string

	iri       goparsify.Parser
	verb      goparsify.Parser
	subject   goparsify.Parser
	object    goparsify.Parser
	statement goparsify.Parser
}

// directive is the result of parsing @prefix, @base, PREFIX, or BASE.
type directive struct {
	base   bool
	prefix string
	iri    rdf.IRI
}

func newTurtleReader() *turtleReader {
	r := &turtleReader{
		prefixes:   make(map[string]string),
		undeclared: -1,
	}
	ref := iriRef(r.resolve)
	blank := blankNode()
	r.iri = goparsify.Any(ref, r.prefixedName())
	r.verb = goparsify.Any(r.iri, goparsify.Bind(keyword("a", false), rdf.RDFType))
	r.subject = goparsify.Any(r.iri, blank, r.collection)
	boolean := goparsify.Any(keyword("true", false), keyword("false", false)).Map(func(n *goparsify.Result) {
		n.Result = rdf.NewLiteral(n.Token, rdf.XSDBoolean)
	})
	r.object = goparsify.Any(r.iri, blank, r.propertyList, r.collection,
		literal(r.iri, turtleQuoting), number(), boolean)

	prefix := func(n *goparsify.Result) {
		n.Result = directive{prefix: n.Child[1].Result.(string), iri: n.Child[2].Result.(rdf.IRI)}
	}
	base := func(n *goparsify.Result) {
		n.Result = directive{base: true, iri: n.Child[1].Result.(rdf.IRI)}
	}
	r.statement = goparsify.Any(
		goparsify.Seq("@prefix", prefixDecl(), ref, ".").Map(prefix),
		goparsify.Seq("@base", ref, ".").Map(base),
		goparsify.Seq(keyword("PREFIX", true), prefixDecl(), ref).Map(prefix),
		goparsify.Seq(keyword("BASE", true), ref).Map(base),
		goparsify.Seq(r.triples, "."),
	)
	return r
}

// turtleWhitespace is the goparsify whitespace parser for Turtle. # starts a
// comment which runs to the end of the line.
func turtleWhitespace(ps *goparsify.State) {
	for ps.Pos < len(ps.Input) {
		switch ps.Input[ps.Pos] {
		case ' ', '\t', '\r', '\n':
			ps.Pos++
		case '#':
			for ps.Pos < len(ps.Input) && ps.Input[ps.Pos] != '\n' {
				ps.Pos++
			}
		default:
			return
		}
	}
}

// ReadTurtle parses a Turtle document from 'in', calling 'fn' with each
// statement's predicate key and fact, in input order. Shorthand is expanded:
// 'a' becomes rdf:type, and [] and collections become generated blank nodes
// labeled genid1, genid2, and so on. The document is read into memory before
// it's parsed. Errors are reported as in ReadNTriples.
func ReadTurtle(in io.Reader, fn func(predicate string, f facts.Fact) error) (int, error) {
	data, err := io.ReadAll(in)
	if err != nil {
		return 0, fmt.Errorf("error reading Turtle: %v", err)
	}
	doc := string(data)
	r := newTurtleReader()
	ps := goparsify.NewState(doc)
	ps.WS = turtleWhitespace
	count := 0
	for {
		ps.WS(ps)
		if ps.Pos >= len(doc) {
			return count, nil
		}
		start := ps.Pos
		r.out = r.out[:0]
		r.undeclared = -1
		ps.Error = goparsify.Error{}
		var res goparsify.Result
		r.statement(ps, &res)
		if ps.Errored() {
			return count, turtleError(doc, ps.Error.Pos(), "expected "+expectedText(&ps.Error))
		}
		if r.undeclared >= 0 {
			return count, turtleError(doc, r.undeclared,
				fmt.Sprintf("undeclared prefix %q", r.undeclaredPrefix))
		}
		if d, ok := res.Result.(directive); ok {
			if err := r.apply(d); err != nil {
				return count, turtleError(doc, start, fmt.Sprintf("invalid base IRI: %v", err))
			}
			continue
		}
		for _, t := range r.out {
			if err := fn(rdf.Key(t.predicate), rdf.Fact(t.subject, t.object)); err != nil {
				return count, err
			}
			count++
		}
	}
}

// LoadTurtle reads a Turtle document from 'r' into the stable sets of 'g'. It
// returns the number of statements read, including ones already in the graph.
func LoadTurtle(r io.Reader, g *graph.Graph) (int, error) {
	return ReadTurtle(r, insertInto(g))
}

// turtleError returns a ParseError for byte offset 'pos' in 'doc'.
func turtleError(doc string, pos int, details string) *ParseError {
	if pos > len(doc) {
		pos = len(doc)
	}
	lineStart := strings.LastIndexByte(doc[:pos], '\n') + 1
	line := doc[lineStart:]
	if end := strings.IndexByte(line, '\n'); end >= 0 {
		line = line[:end]
	}
	return &ParseError{
		Format:  "Turtle",
		Line:    strings.Count(doc[:pos], "\n") + 1,
		Column:  column(doc[lineStart:], pos-lineStart),
		Input:   strings.TrimSuffix(line, "\r"),
		Details: details,
	}
}

func (r *turtleReader) apply(d directive) error {
	if !d.base {
		r.prefixes[d.prefix] = string(d.iri)
		return nil
	}
	u, err := url.Parse(string(d.iri))
	if err != nil {
		return err
	}
	r.base = u
	return nil
}

// resolve resolves a relative IRI against the current base.
func (r *turtleReader) resolve(iri string) string {
	if r.base == nil {
		return iri
	}
	u, err := url.Parse(iri)
	if err != nil || u.IsAbs() {
		return iri
	}
	return r.base.ResolveReference(u).String()
}

func (r *turtleReader) fresh() rdf.Blank {
	r.blanks++
	return rdf.Blank(fmt.Sprintf("genid%d", r.blanks))
}

// run calls 'p' with a clear error. Any compares the errors of its
// alternatives with the error already in the state, so an error recovered
// earlier in the statement could otherwise mask a failure.
func run(p goparsify.Parser, ps *goparsify.State) (goparsify.Result, bool) {
	ps.Error = goparsify.Error{}
	var res goparsify.Result
	p(ps, &res)
	return res, !ps.Errored()
}

// peek skips whitespace and returns true if the next byte is 'c'.
func (r *turtleReader) peek(ps *goparsify.State, c byte) bool {
	ps.WS(ps)
	return ps.Pos < len(ps.Input) && ps.Input[ps.Pos] == c
}

// triples parses a subject and its predicate-object list, up to the final '.'.
// A blank node property list may stand alone.
func (r *turtleReader) triples(ps *goparsify.State, node *goparsify.Result) {
	if r.peek(ps, '[') {
		res, ok := run(r.propertyList, ps)
		if !ok || r.peek(ps, '.') {
			return
		}
		r.predicateObjectList(ps, res.Result.(rdf.Term))
		return
	}
	res, ok := run(r.subject, ps)
	if !ok {
		return
	}
	r.predicateObjectList(ps, res.Result.(rdf.Term))
}

// predicateObjectList parses "p o1, o2; q o3" for 'subject', collecting the
// triples. It returns false on a parse error.
func (r *turtleReader) predicateObjectList(ps *goparsify.State, subject rdf.Term) bool {
	for {
		v, ok := run(r.verb, ps)
		if !ok {
			return false
		}
		predicate := v.Result.(rdf.IRI)
		for {
			o, ok := run(r.object, ps)
			if !ok {
				return false
			}
			r.out = append(r.out, triple{subject: subject, predicate: predicate, object: o.Result.(rdf.Term)})
			if !r.peek(ps, ',') {
				break
			}
			ps.Pos++
		}
		if !r.peek(ps, ';') {
			return true
		}
		for r.peek(ps, ';') {
			ps.Pos++
		}
		if ps.Pos >= len(ps.Input) || r.peek(ps, '.') || r.peek(ps, ']') {
			return true
		}
	}
}

// propertyList parses [ p o ; ... ] or [] into a new blank node.
func (r *turtleReader) propertyList(ps *goparsify.State, node *goparsify.Result) {
	if !r.peek(ps, '[') {
		ps.ErrorHere("[")
		return
	}
	ps.Pos++
	b := r.fresh()
	if !r.peek(ps, ']') {
		if !r.predicateObjectList(ps, b) {
			return
		}
		if !r.peek(ps, ']') {
			ps.ErrorHere("]")
			return
		}
	}
	ps.Pos++
	node.Result = b
}

// collection parses ( o1 o2 ... ) into an rdf:first/rdf:rest list of new blank
// nodes. The empty collection is rdf:nil.
func (r *turtleReader) collection(ps *goparsify.State, node *goparsify.Result) {
	if !r.peek(ps, '(') {
		ps.ErrorHere("(")
		return
	}
	ps.Pos++
	var items []rdf.Term
	for !r.peek(ps, ')') {
		res, ok := run(r.object, ps)
		if !ok {
			return
		}
		items = append(items, res.Result.(rdf.Term))
	}
	ps.Pos++
	cells := make([]rdf.Term, len(items))
	for i := range items {
		cells[i] = r.fresh()
	}
	for i, item := range items {
		var rest rdf.Term = rdf.RDFNil
		if i+1 < len(cells) {
			rest = cells[i+1]
		}
		r.out = append(r.out,
			triple{subject: cells[i], predicate: rdf.RDFFirst, object: item},
			triple{subject: cells[i], predicate: rdf.RDFRest, object: rest})
	}
	if len(cells) == 0 {
		node.Result = rdf.Term(rdf.RDFNil)
		return
	}
	node.Result = cells[0]
}

// prefixedName parses prefix:local into the IRI it abbreviates. An undeclared
// prefix doesn't fail the parse, it's recorded and reported once the
// statement is done.
func (r *turtleReader) prefixedName() goparsify.Parser {
	return goparsify.NewParser("prefixed name", func(ps *goparsify.State, node *goparsify.Result) {
		ps.WS(ps)
		start := ps.Pos
		prefix, local, end, ok := scanPrefixedName(ps.Input, start)
		if !ok {
			ps.ErrorHere("prefixed name")
			return
		}
		ns, found := r.prefixes[prefix]
		if !found && r.undeclared < 0 {
			r.undeclared, r.undeclaredPrefix = start, prefix
		}
		node.Result = rdf.IRI(ns + local)
		node.Token = ps.Input[start:end]
		ps.Pos = end
	})
}

// prefixDecl parses the "prefix:" of a prefix declaration into the prefix.
func prefixDecl() goparsify.Parser {
	return goparsify.NewParser("prefix", func(ps *goparsify.State, node *goparsify.Result) {
		ps.WS(ps)
		end := scanPrefix(ps.Input, ps.Pos)
		if end >= len(ps.Input) || ps.Input[end] != ':' {
			ps.ErrorHere("prefix")
			return
		}
		node.Result = ps.Input[ps.Pos:end]
		node.Token = ps.Input[ps.Pos : end+1]
		ps.Pos = end + 1
	})
}

// scanPrefix returns the end of the prefix starting at 'pos', which may be
// empty.
func scanPrefix(in string, pos int) int {
	if pos >= len(in) || !(isLetter(in[pos]) || in[pos] >= 0x80) {
		return pos
	}
	end := pos
	for end < len(in) && (nameChar(in[end]) || in[end] == '.') {
		end++
	}
	for end > pos && in[end-1] == '.' {
		end--
	}
	return end
}

// localEscapes are the characters that may follow \ in a local name.
const localEscapes = "_~.-!$&'()*+,;=/?#@%"

// scanPrefixedName scans prefix:local at 'pos'. It returns the prefix, the
// local name with escapes removed, and the end offset.
func scanPrefixedName(in string, pos int) (prefix, local string, end int, ok bool) {
	colon := scanPrefix(in, pos)
	if colon >= len(in) || in[colon] != ':' {
		return "", "", 0, false
	}
	var b strings.Builder
	kept := 0
	end = colon + 1
	for i := colon + 1; ; {
		text, n := localToken(in, i, i == colon+1)
		if n == 0 {
			break
		}
		dot := in[i] == '.'
		b.WriteString(text)
		i += n
		// A local name can't end with an unescaped '.'.
		if !dot {
			end, kept = i, b.Len()
		}
	}
	return in[pos:colon], b.String()[:kept], end, true
}

// localToken returns the next piece of a local name at 'i' with escapes
// removed, and its length in the input. The length is 0 at the end of the
// name.
func localToken(in string, i int, first bool) (string, int) {
	if i >= len(in) {
		return "", 0
	}
	switch c := in[i]; {
	case c == '.' || c == '-':
		if !first {
			return in[i : i+1], 1
		}
	case nameChar(c) || c == ':':
		return in[i : i+1], 1
	case c == '%':
		if i+2 < len(in) && isHex(in[i+1]) && isHex(in[i+2]) {
			return in[i : i+3], 3
		}
	case c == '\\':
		if i+1 < len(in) && strings.IndexByte(localEscapes, in[i+1]) >= 0 {
			return in[i+1 : i+2], 2
		}
	}
	return "", 0
}

func isLetter(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z'
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func isHex(c byte) bool {
	return isDigit(c) || c >= 'a' && c <= 'f' || c >= 'A' && c <= 'F'
}

func nameChar(c byte) bool {
	return isLetter(c) || isDigit(c) || c == '_' || c == '-' || c >= 0x80
}

// keyword matches 'word' when it isn't the start of a longer name. If 'fold'
// is set, the match is case insensitive.
func keyword(word string, fold bool) goparsify.Parser {
	return goparsify.NewParser(word, func(ps *goparsify.State, node *goparsify.Result) {
		ps.WS(ps)
		in := ps.Input
		end := ps.Pos + len(word)
		if end > len(in) {
			ps.ErrorHere(word)
			return
		}
		got := in[ps.Pos:end]
		if got != word && !(fold && strings.EqualFold(got, word)) {
			ps.ErrorHere(word)
			return
		}
		if end < len(in) && (nameChar(in[end]) || in[end] == ':') {
			ps.ErrorHere(word)
			return
		}
		node.Token = got
		ps.Pos = end
	})
}

// number parses an integer, decimal, or double into a literal of that
// datatype. The lexical form is kept as written.
func number() goparsify.Parser {
	return goparsify.NewParser("number", func(ps *goparsify.State, node *goparsify.Result) {
		ps.WS(ps)
		in := ps.Input
		start := ps.Pos
		pos := start
		if pos < len(in) && (in[pos] == '+' || in[pos] == '-') {
			pos++
		}
		end := skipDigits(in, pos)
		datatype := rdf.XSDInteger
		if end+1 < len(in) && in[end] == '.' && isDigit(in[end+1]) {
			end = skipDigits(in, end+1)
			datatype = rdf.XSDDecimal
		}
		if end == pos {
			ps.ErrorHere("number")
			return
		}
		if end < len(in) && (in[end] == 'e' || in[end] == 'E') {
			exp := end + 1
			if exp < len(in) && (in[exp] == '+' || in[exp] == '-') {
				exp++
			}
			if expEnd := skipDigits(in, exp); expEnd > exp {
				end = expEnd
				datatype = rdf.XSDDouble
			}
		}
		node.Result = rdf.NewLiteral(in[start:end], datatype)
		node.Token = in[start:end]
		ps.Pos = end
	})
}

func skipDigits(in string, pos int) int {
	for pos < len(in) && isDigit(in[pos]) {
		pos++
	}
	return pos
}
