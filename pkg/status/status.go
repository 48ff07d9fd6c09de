// SPDX-License-Identifier: MIT

// Package status decodes the compact status language an engine run
// returns. The wire format is a flat sequence of brace blocks, each
// carrying a parameter payload and an optional visibility digit:
//
//	{payload}{payload_v}...
//
// where v is a single digit in 0..2 separated from the payload by
// exactly one underscore, immediately before the closing brace.
package status

// Mode selects what Decode extracts from each block.
type Mode int

const (
	// ModeStrings emits one string token per block, with the optional
	// visibility suffix stripped.
	ModeStrings Mode = iota
	// ModeVisibilities emits one visibility code per block; the payload
	// text is ignored.
	ModeVisibilities
)

// Visibility signals how the host should present a parameter widget.
type Visibility int

const (
	Unspecified Visibility = -1
	Hidden      Visibility = 0
	Disabled    Visibility = 1
	Visible     Visibility = 2
)

// Item is one decoded block. Text is populated in ModeStrings,
// Vis in ModeVisibilities.
type Item struct {
	Text string
	Vis  Visibility
}

// Decode scans text as a flat sequence of blocks and returns one item
// per block, in order of appearance.
//
// The scanner is strict: a `{` inside a block, a `{` as the final
// character, a `}` outside a block, any other character outside a
// block, or an unterminated block makes the whole text malformed.
// Malformed input yields an empty sequence, never an error. The
// leniency is part of the engine contract; hosts treat an empty
// sequence as "no status".
func Decode(text string, mode Mode) []Item {
	if text == "" || text[0] != '{' {
		return nil
	}
	var items []Item
	inside := false
	start := 0
	for k := 0; k < len(text); k++ {
		switch text[k] {
		case '{':
			if inside || k == len(text)-1 {
				return nil
			}
			inside = true
			start = k + 1
		case '}':
			if !inside {
				return nil
			}
			inside = false
			payload := text[start:k]
			vis := Unspecified
			if n := len(payload); n >= 2 && payload[n-2] == '_' && payload[n-1] >= '0' && payload[n-1] <= '2' {
				vis = Visibility(payload[n-1] - '0')
				payload = payload[:n-2]
			}
			switch mode {
			case ModeStrings:
				items = append(items, Item{Text: payload, Vis: Unspecified})
			case ModeVisibilities:
				items = append(items, Item{Vis: vis})
			}
		default:
			if !inside {
				return nil
			}
		}
	}
	if inside {
		return nil
	}
	return items
}

// Strings returns the plain string tokens of a status text, or an
// empty slice when the text is malformed.
func Strings(text string) []string {
	items := Decode(text, ModeStrings)
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.Text
	}
	return out
}

// Visibilities returns the per-block visibility codes of a status
// text, Unspecified where a block carries no suffix.
func Visibilities(text string) []Visibility {
	items := Decode(text, ModeVisibilities)
	out := make([]Visibility, len(items))
	for i, it := range items {
		out[i] = it.Vis
	}
	return out
}
