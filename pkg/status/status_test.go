// SPDX-License-Identifier: MIT

package status

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
)

func TestDecode_Strings(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		expected []string
	}{
		{
			name:     "two plain blocks",
			text:     "{abc}{def}",
			expected: []string{"abc", "def"},
		},
		{
			name:     "visibility suffixes stripped",
			text:     "{abc_1}{xy_0}{z_2}",
			expected: []string{"abc", "xy", "z"},
		},
		{
			name:     "empty payload",
			text:     "{}",
			expected: []string{""},
		},
		{
			name:     "suffix only",
			text:     "{_1}",
			expected: []string{""},
		},
		{
			name:     "digit out of range is payload",
			text:     "{_3}",
			expected: []string{"_3"},
		},
		{
			name:     "underscore without digit is payload",
			text:     "{ab_}",
			expected: []string{"ab_"},
		},
		{
			name:     "single block with spaces and commas",
			text:     "{0.5,foo bar,-12}",
			expected: []string{"0.5,foo bar,-12"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Strings(tt.text))
		})
	}
}

func TestDecode_Visibilities(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		expected []Visibility
	}{
		{
			name:     "no suffixes",
			text:     "{abc}{def}",
			expected: []Visibility{Unspecified, Unspecified},
		},
		{
			name:     "all suffixed",
			text:     "{abc_1}{xy_0}{z_2}",
			expected: []Visibility{Disabled, Hidden, Visible},
		},
		{
			name:     "mixed",
			text:     "{a}{b_2}{c}",
			expected: []Visibility{Unspecified, Visible, Unspecified},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Visibilities(tt.text))
		})
	}
}

// Malformed input degrades to an empty sequence in both modes; the
// decoder never reports an error and never yields partial results.
func TestDecode_MalformedYieldsEmpty(t *testing.T) {
	texts := []struct {
		name string
		text string
	}{
		{"empty", ""},
		{"no leading brace", "abc"},
		{"leading garbage", "x{a}"},
		{"unterminated", "{abc"},
		{"stray close", "{a}}"},
		{"close without open", "}"},
		{"open as last char", "{a}{"},
		{"lone open", "{"},
		{"nested open", "{a{b}"},
		{"trailing garbage", "{a}x"},
		{"garbage between blocks", "{a} {b}"},
	}
	for _, tt := range texts {
		t.Run(tt.name, func(t *testing.T) {
			assert.Empty(t, Decode(tt.text, ModeStrings))
			assert.Empty(t, Decode(tt.text, ModeVisibilities))
		})
	}
}

func TestDecode_OrderAndLength(t *testing.T) {
	text := "{p0}{p1_0}{p2}{p3_2}"
	items := Decode(text, ModeStrings)
	assert.Len(t, items, 4)
	for i, it := range items {
		assert.Equal(t, string(rune('0'+i)), it.Text[1:])
	}
	assert.Len(t, Decode(text, ModeVisibilities), 4)
}

func TestDecode_Idempotent(t *testing.T) {
	text := "{abc_1}{}{xy_0}"
	first := Decode(text, ModeStrings)
	second := Decode(text, ModeStrings)
	if diff := cmp.Diff(first, second); diff != "" {
		t.Fatalf("repeated decode differs (-first +second):\n%s", diff)
	}
}

func TestDecode_ArbitraryPayloadBytes(t *testing.T) {
	// Anything but the reserved braces is valid payload content.
	text := "{\x01\xfftab\tnewline\n_9}"
	assert.Equal(t, []string{"\x01\xfftab\tnewline\n_9"}, Strings(text))
	assert.Equal(t, []Visibility{Unspecified}, Visibilities(text))
}
