// SPDX-License-Identifier: MIT

package engine

import (
	"math"
	"sync/atomic"
)

// AbortSlot is a lock-free cancellation flag shared between the host,
// the task, and a running engine instance. The engine polls it;
// requesting an abort never interrupts a run by force.
type AbortSlot struct {
	flag atomic.Bool
}

// Request marks the abort as wanted. Idempotent, safe from any goroutine.
func (s *AbortSlot) Request() { s.flag.Store(true) }

// Reset clears the flag before a run.
func (s *AbortSlot) Reset() { s.flag.Store(false) }

// Requested reports whether an abort has been asked for.
func (s *AbortSlot) Requested() bool { return s.flag.Load() }

// ProgressSlot is a lock-free float32 a running engine publishes its
// progress through. Values are clamped to [-1, 1]; -1 means
// indeterminate. The zero value reads as 0.
type ProgressSlot struct {
	bits atomic.Uint32
}

// Set publishes a progress value, clamping it into [-1, 1].
func (s *ProgressSlot) Set(v float32) {
	if v < -1 || v != v { // NaN guard
		v = -1
	}
	if v > 1 {
		v = 1
	}
	s.bits.Store(math.Float32bits(v))
}

// Load returns the last published value.
func (s *ProgressSlot) Load() float32 {
	return math.Float32frombits(s.bits.Load())
}
