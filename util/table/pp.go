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

// Package table formats data into a text-based table for human consumption.
package table

import (
	"bufio"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/ebay/groundset/util/cmp"
	"golang.org/x/text/unicode/norm"
)

// Options represents different ways to control how the table is generated.
type Options int

const (
	// HeaderRow if specified will format the first row in the table
	// as a header (i.e. there is a separator between it and the next row).
	HeaderRow Options = 1 << iota
	// FooterRow if specified will format the last row of the table
	// as a footer (i.e. there is a separator between it and the previous row).
	FooterRow
	// SkipEmpty if specified will cause nothing to be generated in the case
	// that the table has no data (i.e. no rows besides the header & footer rows
	// if they are enabled).
	SkipEmpty
	// RightJustify indicates that cells should have their contents right
	// justified (left padded), rather than the default of left justified.
	RightJustify
)

func (o Options) has(flag Options) bool {
	return o&flag != 0
}

func (o Options) chromeRows() int {
	r := 0
	if o.has(HeaderRow) {
		r++
	}
	if o.has(FooterRow) {
		r++
	}
	return r
}

// PrettyPrint writes 't' as a nicely formatted table to the supplied Writer.
// Every row must have the same number of cells as the first. Cells may span
// multiple lines, using \n as the line break.
func PrettyPrint(dest io.Writer, t [][]string, opts Options) {
	if len(t) == 0 || (opts.has(SkipEmpty) && len(t) <= opts.chromeRows()) {
		return
	}
	w := bufio.NewWriterSize(dest, 256)
	defer w.Flush()

	widths := make([]int, len(t[0]))
	cells := make([][][]string, len(t))
	for ridx, row := range t {
		cells[ridx] = make([][]string, len(row))
		for cidx, c := range row {
			lines := strings.Split(c, "\n")
			cells[ridx][cidx] = lines
			for _, l := range lines {
				widths[cidx] = cmp.MaxInt(widths[cidx], charsWide(l))
			}
		}
	}
	divider := func() {
		for _, width := range widths {
			io.WriteString(w, " ")
			io.WriteString(w, strings.Repeat("-", width))
			io.WriteString(w, " |")
		}
		io.WriteString(w, "\n")
	}
	for ridx, row := range cells {
		height := 0
		for _, lines := range row {
			height = cmp.MaxInt(height, len(lines))
		}
		for lidx := 0; lidx < height; lidx++ {
			for cidx, lines := range row {
				l := ""
				if lidx < len(lines) {
					l = lines[lidx]
				}
				io.WriteString(w, " ")
				io.WriteString(w, pad(l, widths[cidx], opts))
				io.WriteString(w, " |")
			}
			io.WriteString(w, "\n")
		}
		if (opts.has(HeaderRow) && ridx == 0) || (opts.has(FooterRow) && ridx == len(cells)-2) {
			divider()
		}
	}
}

// pad returns s padded with spaces to the given width.
func pad(s string, width int, opts Options) string {
	n := width - charsWide(s)
	if n <= 0 {
		return s
	}
	if opts.has(RightJustify) {
		return strings.Repeat(" ", n) + s
	}
	return s + strings.Repeat(" ", n)
}

// charsWide estimates how wide a string will be on a typical terminal. It
// counts runes after NFC normalization, so combining marks don't count
// separately.
func charsWide(s string) int {
	return utf8.RuneCountInString(norm.NFC.String(s))
}
