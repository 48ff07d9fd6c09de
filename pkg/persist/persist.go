// SPDX-License-Identifier: MIT

// Package persist models the external persistent-memory provider: a
// single named buffer the engine may read at the start of a run and
// replace afterwards, surviving across separate task runs.
package persist

import (
	"bytes"
	"sync"
)

// StoreMarker is the sentinel content of a buffer that has been handed
// out but never written by the engine. A marker-valued buffer is
// registered with the engine as an empty store; any other content is
// registered as-is.
var StoreMarker = []byte("\x00store\x00")

// IsStoreMarker reports whether b is the uninitialized-store sentinel.
func IsStoreMarker(b []byte) bool {
	return bytes.Equal(b, StoreMarker)
}

// Provider supplies the persistent buffer before a run and receives
// the replacement snapshot after it. A task only ever borrows the
// buffer for reading; it never mutates provider storage directly.
type Provider interface {
	// Buffer returns a copy of the current buffer, nil when absent.
	Buffer() []byte
	// SetBuffer replaces the stored buffer; nil clears it.
	SetBuffer(b []byte)
}

// Memory is the in-process reference Provider.
type Memory struct {
	mu  sync.Mutex
	buf []byte
}

// NewMemory returns an empty provider: Buffer reports absent until the
// host stores something.
func NewMemory() *Memory { return &Memory{} }

// NewUninitialized returns a provider primed with the store marker,
// the state a host hands to its very first run.
func NewUninitialized() *Memory {
	m := &Memory{}
	m.SetBuffer(StoreMarker)
	return m
}

func (m *Memory) Buffer() []byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.buf == nil {
		return nil
	}
	out := make([]byte, len(m.buf))
	copy(out, m.buf)
	return out
}

func (m *Memory) SetBuffer(b []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if b == nil {
		m.buf = nil
		return
	}
	m.buf = append(m.buf[:0:0], b...)
}
