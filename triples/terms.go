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
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/ebay/groundset/rdf"
	"github.com/vektah/goparsify"
)

// failAt records a parse error at 'pos'. The enclosing combinators reset the
// position.
func failAt(ps *goparsify.State, pos int, expected string) {
	ps.Pos = pos
	ps.ErrorHere(expected)
}

// iriRef parses <...> into an rdf.IRI. If 'resolve' isn't nil, it's applied to
// the IRI, for example to resolve relative IRIs against a base.
func iriRef(resolve func(string) string) goparsify.Parser {
	return goparsify.NewParser("IRI", func(ps *goparsify.State, node *goparsify.Result) {
		ps.WS(ps)
		in := ps.Input
		if ps.Pos >= len(in) || in[ps.Pos] != '<' {
			ps.ErrorHere("<")
			return
		}
		var b strings.Builder
		pos := ps.Pos + 1
		for {
			if pos >= len(in) {
				failAt(ps, pos, ">")
				return
			}
			c := in[pos]
			switch {
			case c == '>':
				iri := b.String()
				if resolve != nil {
					iri = resolve(iri)
				}
				node.Result = rdf.IRI(iri)
				node.Token = in[ps.Pos : pos+1]
				ps.Pos = pos + 1
				return
			case c == '\\':
				r, n, ok := unescapeUChar(in[pos:])
				if !ok || (r < utf8.RuneSelf && !iriChar(byte(r))) {
					failAt(ps, pos, "IRI character")
					return
				}
				b.WriteRune(r)
				pos += n
			case !iriChar(c):
				failAt(ps, pos, "IRI character")
				return
			default:
				b.WriteByte(c)
				pos++
			}
		}
	})
}

// iriChar returns false for the ASCII characters that can't appear unescaped
// in an IRI. Bytes of multi-byte UTF-8 sequences are allowed.
func iriChar(c byte) bool {
	if c <= 0x20 {
		return false
	}
	switch c {
	case '<', '>', '"', '{', '}', '|', '^', '`', '\\':
		return false
	}
	return true
}

// unescapeUChar decodes a \uXXXX or \UXXXXXXXX escape at the start of 's'. It
// returns the rune and the length of the escape.
func unescapeUChar(s string) (r rune, n int, ok bool) {
	if len(s) < 2 || s[0] != '\\' {
		return 0, 0, false
	}
	switch s[1] {
	case 'u':
		n = 6
	case 'U':
		n = 10
	default:
		return 0, 0, false
	}
	if len(s) < n {
		return 0, 0, false
	}
	v, err := strconv.ParseUint(s[2:n], 16, 32)
	if err != nil || !utf8.ValidRune(rune(v)) {
		return 0, 0, false
	}
	return rune(v), n, true
}

// blankNode parses _:label into an rdf.Blank.
func blankNode() goparsify.Parser {
	return goparsify.NewParser("blank node", func(ps *goparsify.State, node *goparsify.Result) {
		ps.WS(ps)
		in := ps.Input
		if !strings.HasPrefix(in[ps.Pos:], "_:") {
			ps.ErrorHere("_:")
			return
		}
		start := ps.Pos + 2
		end := start
		for end < len(in) && labelChar(in[end], end == start) {
			end++
		}
		// A label can't end with '.', that's the end of the statement.
		for end > start && in[end-1] == '.' {
			end--
		}
		if end == start {
			failAt(ps, start, "blank node label")
			return
		}
		node.Result = rdf.Blank(in[start:end])
		node.Token = in[ps.Pos:end]
		ps.Pos = end
	})
}

func labelChar(c byte, first bool) bool {
	switch {
	case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '_':
		return true
	case c >= utf8.RuneSelf:
		return true
	case c == '-', c == '.':
		return !first
	}
	return false
}

// quoting describes the string delimiters a grammar allows.
type quoting struct {
	// quotes holds the allowed quote characters.
	quotes string
	// long allows strings delimited by three quote characters, which may span
	// lines.
	long bool
}

var (
	ntriplesQuoting = quoting{quotes: `"`}
	turtleQuoting   = quoting{quotes: `"'`, long: true}
)

// literal parses a quoted string with an optional language tag or datatype
// into an rdf.Literal. 'datatype' parses the IRI after ^^.
func literal(datatype goparsify.Parser, q quoting) goparsify.Parser {
	return goparsify.NewParser("literal", func(ps *goparsify.State, node *goparsify.Result) {
		ps.WS(ps)
		start := ps.Pos
		form, ok := quotedString(ps, q)
		if !ok {
			return
		}
		in := ps.Input
		switch {
		case strings.HasPrefix(in[ps.Pos:], "@"):
			tagStart := ps.Pos + 1
			end := tagStart
			for end < len(in) && langChar(in[end], end == tagStart) {
				end++
			}
			if end == tagStart || in[end-1] == '-' {
				failAt(ps, tagStart, "language tag")
				return
			}
			lit, err := rdf.NewLangLiteral(form, in[tagStart:end])
			if err != nil {
				failAt(ps, tagStart, "valid language tag")
				return
			}
			node.Result = lit
			ps.Pos = end

		case strings.HasPrefix(in[ps.Pos:], "^^"):
			ps.Pos += 2
			var dt goparsify.Result
			datatype(ps, &dt)
			if ps.Errored() {
				return
			}
			node.Result = rdf.NewLiteral(form, dt.Result.(rdf.IRI))

		default:
			node.Result = rdf.NewLiteral(form, "")
		}
		node.Token = in[start:ps.Pos]
	})
}

func langChar(c byte, first bool) bool {
	switch {
	case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z':
		return true
	case c >= '0' && c <= '9', c == '-':
		return !first
	}
	return false
}

// quotedString parses a quoted string at the current position, decoding its
// escapes. On failure, it records the error and returns false.
func quotedString(ps *goparsify.State, q quoting) (string, bool) {
	in := ps.Input
	if ps.Pos >= len(in) || strings.IndexByte(q.quotes, in[ps.Pos]) < 0 {
		ps.ErrorHere("literal")
		return "", false
	}
	delim := in[ps.Pos : ps.Pos+1]
	if q.long && strings.HasPrefix(in[ps.Pos:], delim+delim+delim) {
		delim = delim + delim + delim
	}
	multiline := len(delim) == 3
	var b strings.Builder
	pos := ps.Pos + len(delim)
	for {
		if pos >= len(in) {
			failAt(ps, pos, "closing "+delim)
			return "", false
		}
		if strings.HasPrefix(in[pos:], delim) {
			ps.Pos = pos + len(delim)
			return b.String(), true
		}
		switch c := in[pos]; c {
		case '\\':
			if pos+1 >= len(in) {
				failAt(ps, pos, "escape sequence")
				return "", false
			}
			if e, ok := echars[in[pos+1]]; ok {
				b.WriteByte(e)
				pos += 2
				continue
			}
			r, n, ok := unescapeUChar(in[pos:])
			if !ok {
				failAt(ps, pos, "escape sequence")
				return "", false
			}
			b.WriteRune(r)
			pos += n
		case '\n', '\r':
			if !multiline {
				failAt(ps, pos, "closing "+delim)
				return "", false
			}
			b.WriteByte(c)
			pos++
		default:
			b.WriteByte(c)
			pos++
		}
	}
}

// echars maps the character after a \ to the character it stands for.
var echars = map[byte]byte{
	't':  '\t',
	'b':  '\b',
	'n':  '\n',
	'r':  '\r',
	'f':  '\f',
	'"':  '"',
	'\'': '\'',
	'\\': '\\',
}
