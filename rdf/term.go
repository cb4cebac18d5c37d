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

// Package rdf is the term model for the values stored in facts: IRIs, blank
// nodes, and literals.
//
// Every term has a canonical key, its N-Triples rendering. Keys are what facts
// hold, so the byte-wise order of keys is the order of facts. Two terms are
// equal exactly when their keys are equal.
package rdf

import (
	"fmt"
	"strings"

	"github.com/ebay/groundset/facts"
	"github.com/ebay/groundset/util/unicode"
	"golang.org/x/text/language"
)

// Well known datatypes.
const (
	// XSDString is the datatype of plain literals. Literals don't store it.
	XSDString = IRI("http://www.w3.org/2001/XMLSchema#string")
	// LangString is the datatype of literals with a language tag.
	LangString = IRI("http://www.w3.org/1999/02/22-rdf-syntax-ns#langString")

	XSDInteger = IRI("http://www.w3.org/2001/XMLSchema#integer")
	XSDDecimal = IRI("http://www.w3.org/2001/XMLSchema#decimal")
	XSDDouble  = IRI("http://www.w3.org/2001/XMLSchema#double")
	XSDBoolean = IRI("http://www.w3.org/2001/XMLSchema#boolean")
)

// Predicates and nodes from the RDF vocabulary that Turtle's shorthand
// expands to.
const (
	RDFType  = IRI("http://www.w3.org/1999/02/22-rdf-syntax-ns#type")
	RDFFirst = IRI("http://www.w3.org/1999/02/22-rdf-syntax-ns#first")
	RDFRest  = IRI("http://www.w3.org/1999/02/22-rdf-syntax-ns#rest")
	RDFNil   = IRI("http://www.w3.org/1999/02/22-rdf-syntax-ns#nil")
)

// Term is an IRI, a Blank node, or a Literal.
type Term interface {
	// Key appends the term's canonical key to 'b'.
	Key(b *strings.Builder)
	// String returns the term's canonical key.
	String() string
}

// Key returns the canonical key of 't'.
func Key(t Term) string {
	var b strings.Builder
	t.Key(&b)
	return b.String()
}

// Fact returns the fact relating 'subject' to 'object'.
func Fact(subject, object Term) facts.Fact {
	return facts.Fact{Subject: Key(subject), Object: Key(object)}
}

// IRI is an absolute IRI, without the enclosing angle brackets.
type IRI string

// Key implements Term.
func (i IRI) Key(b *strings.Builder) {
	b.WriteByte('<')
	b.WriteString(string(i))
	b.WriteByte('>')
}

func (i IRI) String() string {
	return Key(i)
}

// Blank is a blank node, identified by its label without the "_:" prefix.
type Blank string

// Key implements Term.
func (n Blank) Key(b *strings.Builder) {
	b.WriteString("_:")
	b.WriteString(string(n))
}

func (n Blank) String() string {
	return Key(n)
}

// Literal is a literal value. Datatype is empty for plain xsd:string literals.
// Lang is set only when Datatype is LangString. Use NewLiteral and
// NewLangLiteral to build literals in their canonical form.
type Literal struct {
	Form     string
	Datatype IRI
	Lang     string
}

// NewLiteral returns a literal with the given lexical form and datatype. The
// form is normalized to NFC. An xsd:string datatype is dropped, as it's
// implied.
func NewLiteral(form string, datatype IRI) Literal {
	if datatype == XSDString {
		datatype = ""
	}
	return Literal{Form: unicode.Normalize(form), Datatype: datatype}
}

// NewLangLiteral returns a literal with the given lexical form and BCP 47
// language tag. Only the case of the tag is normalized, so "en-us" becomes
// "en-US" but deprecated subtags such as "iw" are kept as written. It returns
// an error if the tag isn't well formed.
func NewLangLiteral(form string, lang string) (Literal, error) {
	if strings.Trim(lang, tagChars) != "" {
		return Literal{}, fmt.Errorf("invalid language tag %q: unexpected character", lang)
	}
	if _, err := language.Raw.Parse(lang); err != nil {
		return Literal{}, fmt.Errorf("invalid language tag %q: %v", lang, err)
	}
	return Literal{
		Form:     unicode.Normalize(form),
		Datatype: LangString,
		Lang:     tagCase(lang),
	}, nil
}

const tagChars = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789-"

// tagCase applies the BCP 47 case conventions to a well formed tag: the
// language and anything after a singleton in lower case, 4-letter scripts in
// title case, and 2-letter regions in upper case.
func tagCase(tag string) string {
	parts := strings.Split(strings.ToLower(tag), "-")
	for i := 1; i < len(parts); i++ {
		if len(parts[i]) == 1 {
			break
		}
		switch len(parts[i]) {
		case 2:
			parts[i] = strings.ToUpper(parts[i])
		case 4:
			parts[i] = strings.ToUpper(parts[i][:1]) + parts[i][1:]
		}
	}
	return strings.Join(parts, "-")
}

// Key implements Term.
func (l Literal) Key(b *strings.Builder) {
	b.WriteByte('"')
	for i := 0; i < len(l.Form); i++ {
		switch c := l.Form[i]; c {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		default:
			b.WriteByte(c)
		}
	}
	b.WriteByte('"')
	switch {
	case l.Lang != "":
		b.WriteByte('@')
		b.WriteString(l.Lang)
	case l.Datatype != "" && l.Datatype != XSDString:
		b.WriteString("^^")
		l.Datatype.Key(b)
	}
}

func (l Literal) String() string {
	return Key(l)
}
