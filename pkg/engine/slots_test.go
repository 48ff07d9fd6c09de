// SPDX-License-Identifier: MIT

package engine

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAbortSlot(t *testing.T) {
	var s AbortSlot
	assert.False(t, s.Requested())

	s.Request()
	s.Request() // idempotent
	assert.True(t, s.Requested())

	s.Reset()
	assert.False(t, s.Requested())
}

func TestAbortSlot_ConcurrentRequest(t *testing.T) {
	var s AbortSlot
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Request()
		}()
	}
	wg.Wait()
	assert.True(t, s.Requested())
}

func TestProgressSlot_Clamping(t *testing.T) {
	tests := []struct {
		name     string
		in       float32
		expected float32
	}{
		{"zero value", 0, 0},
		{"indeterminate", -1, -1},
		{"mid", 0.5, 0.5},
		{"full", 1, 1},
		{"above range", 12.5, 1},
		{"below range", -7, -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var s ProgressSlot
			s.Set(tt.in)
			assert.Equal(t, tt.expected, s.Load())
		})
	}
}

func TestProgressSlot_ZeroValue(t *testing.T) {
	var s ProgressSlot
	assert.Equal(t, float32(0), s.Load())
}

func TestProgressSlot_NaN(t *testing.T) {
	var s ProgressSlot
	nan := float32(0)
	nan /= nan
	s.Set(nan)
	assert.Equal(t, float32(-1), s.Load())
}
