// SPDX-License-Identifier: MIT

// Package engine defines the contract between a filter task and the
// external image-processing engine it drives. The engine is opaque: it
// accepts a composed command line plus two index-aligned buffer lists,
// mutates them in place, and either succeeds with a status text or
// fails with an ExecError.
package engine

import "context"

// Image is a single pixel buffer exchanged with the engine. Pix holds
// Width*Height*Depth*Spectrum samples; the engine owns the layout.
type Image struct {
	Width    int
	Height   int
	Depth    int
	Spectrum int
	Pix      []float32
}

// Options binds a new engine instance to its session inputs: the
// command environment, the engine standard library, and the two live
// slots shared with the host.
type Options struct {
	Environment string // custom command environment, empty for none
	Stdlib      []byte // engine standard library text

	Progress *ProgressSlot // live progress output, may be nil
	Abort    *AbortSlot    // cooperative cancellation input, may be nil
}

// VarKind discriminates session variable flavours.
type VarKind int

const (
	VarString VarKind = iota
	VarBuffer
	// VarStore registers an empty persistent store under the name
	// instead of assigning content.
	VarStore
)

// Variable is a named value placed into an instance's variable space
// before a run.
type Variable struct {
	Kind VarKind
	Data []byte
}

// StringVar builds a string-typed session variable.
func StringVar(s string) Variable { return Variable{Kind: VarString, Data: []byte(s)} }

// BufferVar builds a buffer-typed session variable.
func BufferVar(b []byte) Variable { return Variable{Kind: VarBuffer, Data: b} }

// StoreVar builds an empty-store registration.
func StoreVar() Variable { return Variable{Kind: VarStore} }

// Instance is one bound engine session.
type Instance interface {
	// SetVariable places a variable into the session space. Must be
	// called before Run.
	SetVariable(name string, v Variable)

	// Run executes the command line against the two lists, mutating
	// both in place; entries may be appended or replaced. The returned
	// status is the raw status text. A failed run reports *ExecError.
	Run(ctx context.Context, command string, images *[]Image, names *[]string) (string, error)

	// Variable returns the post-run content of a session variable,
	// nil when unset.
	Variable(name string) []byte
}

// Engine creates instances. Implementations poll Options.Abort and
// publish through Options.Progress during Run when the slots are set.
type Engine interface {
	NewInstance(opts Options) (Instance, error)
}

// ExecError is the single failure kind an engine run can surface. The
// message is free text produced by the engine.
type ExecError struct {
	Message string
}

func (e *ExecError) Error() string { return e.Message }
