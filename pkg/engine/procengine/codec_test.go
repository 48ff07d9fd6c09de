// SPDX-License-Identifier: MIT

package procengine

import (
	"bytes"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mhartig/filterkit/pkg/engine"
)

func TestRequestRoundTrip(t *testing.T) {
	req := &Request{
		Environment: "preview",
		Command:     "v - fx_test 0.5,2",
		Stdlib:      []byte("stdlib blob"),
		Vars: []VarEntry{
			{Name: "_persistent", Kind: engine.VarStore},
			{Name: "_host", Kind: engine.VarString, Data: []byte("filterkit")},
		},
		Images: []engine.Image{
			{Width: 2, Height: 1, Depth: 1, Spectrum: 3, Pix: []float32{0, 0.5, 1, -1, 255, 128}},
			{Width: 1, Height: 1, Depth: 1, Spectrum: 1, Pix: []float32{42}},
		},
		Names: []string{"layer-0", "layer-1"},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteRequest(&buf, req))

	got, err := ReadRequest(&buf)
	require.NoError(t, err)
	if diff := cmp.Diff(req, got); diff != "" {
		t.Fatalf("round trip mismatch (-sent +received):\n%s", diff)
	}
}

func TestResponseRoundTrip(t *testing.T) {
	resp := &Response{
		Status: "{abc_1}{def}",
		Vars:   []VarEntry{{Name: "_persistent", Kind: engine.VarBuffer, Data: []byte("state")}},
		Images: []engine.Image{{Width: 1, Height: 1, Depth: 1, Spectrum: 1, Pix: []float32{7}}},
		Names:  []string{"output"},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteResponse(&buf, resp))

	got, err := ReadResponse(&buf)
	require.NoError(t, err)
	if diff := cmp.Diff(resp, got); diff != "" {
		t.Fatalf("round trip mismatch (-sent +received):\n%s", diff)
	}
}

func TestReadResponse_BadMagic(t *testing.T) {
	_, err := ReadResponse(bytes.NewReader([]byte("NOPE....")))
	assert.Error(t, err)
}

func TestReadResponse_Truncated(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteResponse(&buf, &Response{Status: "{ok}"}))
	full := buf.Bytes()

	_, err := ReadResponse(bytes.NewReader(full[:len(full)-2]))
	assert.Error(t, err)
}

func TestReadCount_RejectsOversizedPrefix(t *testing.T) {
	// Magic followed by an absurd status length must be a protocol
	// error, not an allocation attempt.
	frame := append([]byte(responseMagic), 0xff, 0xff, 0xff, 0xff)
	_, err := ReadResponse(bytes.NewReader(frame))
	assert.ErrorContains(t, err, "protocol limit")
}
