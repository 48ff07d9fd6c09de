// SPDX-License-Identifier: MIT

package procengine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLineRing(t *testing.T) {
	r := NewLineRing(3)

	r.Append("line1")
	r.Append("line2")
	assert.Equal(t, []string{"line1", "line2"}, r.LastN(10))

	r.Append("line3")
	assert.Equal(t, []string{"line1", "line2", "line3"}, r.LastN(10))

	// Oldest entry is evicted once the ring wraps.
	r.Append("line4")
	assert.Equal(t, []string{"line2", "line3", "line4"}, r.LastN(10))
	assert.Equal(t, []string{"line3", "line4"}, r.LastN(2))
}

func TestLineRing_DropsEmptyLines(t *testing.T) {
	r := NewLineRing(4)
	r.Append("")
	r.Append("only")
	assert.Equal(t, []string{"only"}, r.LastN(4))
}

func TestLineRing_Empty(t *testing.T) {
	r := NewLineRing(4)
	assert.Empty(t, r.LastN(4))
}
