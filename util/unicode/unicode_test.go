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

package unicode

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_Normalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		exp  string
	}{
		{"empty", "", ""},
		{"ascii_form", `say "hi"`, `say "hi"`},
		{"combining_acute", "Café", "Café"},
		{"already_composed", "Café", "Café"},
		{"hangul_jamo", "가", "가"},
		{"angstrom_sign", "Å", "Å"},
		{"ohm_sign", "Ω", "Ω"},
		{"mark_order", "ạ̇", "ạ̇"},
		// NFC keeps compatibility characters, unlike NFKC.
		{"ligature", "ﬁne", "ﬁne"},
		{"full_width", "Ａ", "Ａ"},
		{"superscript", "m²", "m²"},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			assert.Equal(t, test.exp, Normalize(test.in))
		})
	}
}

func Test_Normalize_Idempotent(t *testing.T) {
	for _, s := range []string{"Beyoncé", "각", "ẋ̣"} {
		once := Normalize(s)
		assert.Equal(t, once, Normalize(once), "%q", s)
	}
}
