// SPDX-License-Identifier: MIT

package procengine

import "sync"

// LineRing keeps the last N lines of engine diagnostics so a failure
// message can quote what the process said before it died.
type LineRing struct {
	mu    sync.Mutex
	lines []string
	next  int
	count int
}

// NewLineRing creates a ring holding at most capacity lines.
func NewLineRing(capacity int) *LineRing {
	if capacity < 1 {
		capacity = 64
	}
	return &LineRing{lines: make([]string, capacity)}
}

// Append records one line; empty lines are dropped.
func (r *LineRing) Append(line string) {
	if line == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lines[r.next] = line
	r.next = (r.next + 1) % len(r.lines)
	if r.count < len(r.lines) {
		r.count++
	}
}

// LastN returns up to n of the most recent lines, oldest first.
func (r *LineRing) LastN(n int) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if n > r.count {
		n = r.count
	}
	out := make([]string, 0, n)
	size := len(r.lines)
	for i := r.count - n; i < r.count; i++ {
		idx := (r.next - r.count + i + 2*size) % size
		out = append(out, r.lines[idx])
	}
	return out
}
