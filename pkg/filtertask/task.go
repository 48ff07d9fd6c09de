// SPDX-License-Identifier: MIT

// Package filtertask runs a single engine invocation off the host
// goroutine. A task composes the full command line, hands its image
// buffers to the engine, and exposes progress, cooperative abort, and
// the decoded status once the run completes.
//
// Concurrency contract: exactly one host goroutine and one worker
// goroutine interact. RequestAbort and Progress are safe from any
// goroutine at any time; every other accessor is only valid once the
// host has observed completion through Done.
package filtertask

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/mhartig/filterkit/internal/log"
	"github.com/mhartig/filterkit/pkg/engine"
	"github.com/mhartig/filterkit/pkg/persist"
	"github.com/mhartig/filterkit/pkg/settings"
	"github.com/mhartig/filterkit/pkg/status"
)

// persistentVar is the session variable the engine reads and writes
// its cross-run store through.
const persistentVar = "_persistent"

// Config describes one filter invocation.
type Config struct {
	Command     string // filter command
	Arguments   string // rendered parameter list
	Environment string // custom command environment, empty for none

	OutputMode settings.OutputMessageMode
	Stdlib     []byte // engine standard library text

	Persistent persist.Provider // optional cross-run store

	HostTag string // identifies the hosting application to the engine
	ToolTag string // identifies the toolkit flavour to the engine
}

// Task owns the image buffers and run state of one engine invocation.
// A task runs exactly once; construct a new one per invocation.
type Task struct {
	id     string
	eng    engine.Engine
	cfg    Config
	logger zerolog.Logger

	images        []engine.Image
	names         []string
	persistentOut []byte

	abort    engine.AbortSlot
	progress engine.ProgressSlot

	// Monotonic offset from clockBase, written once when the run
	// starts; the host polls Elapsed against it while running.
	startNanos atomic.Int64

	// Written by the worker only; the host reads them after observing
	// Done.
	statusText string
	errMessage string
	failed     bool

	logSuffix string

	runOnce sync.Once
	done    chan struct{}
}

// New prepares a task for the given engine. Buffers are handed in
// separately before Start.
func New(eng engine.Engine, cfg Config) *Task {
	if cfg.HostTag == "" {
		cfg.HostTag = "filterkit"
	}
	if cfg.ToolTag == "" {
		cfg.ToolTag = "go"
	}
	t := &Task{
		id:   uuid.NewString(),
		eng:  eng,
		cfg:  cfg,
		done: make(chan struct{}),
	}
	t.logger = log.WithComponent("filtertask").With().Str("task", t.id).Logger()
	return t
}

// ID returns the task's correlation id.
func (t *Task) ID() string { return t.id }

// SetInputImages replaces the task's image list. Must not be called
// once the task has started; the buffers are exclusively owned by the
// task for the run's duration.
func (t *Task) SetInputImages(images []engine.Image) {
	t.images = images
}

// SetImageNames replaces the index-aligned name list. Same ownership
// rule as SetInputImages.
func (t *Task) SetImageNames(names []string) {
	t.names = names
}

// SwapImages exchanges image ownership with the caller without
// copying: the task takes *images and the caller is left holding the
// task's previous list.
func (t *Task) SwapImages(images *[]engine.Image) {
	t.images, *images = *images, t.images
}

// Images returns the engine-produced list. Empty after a failed run.
func (t *Task) Images() []engine.Image { return t.images }

// ImageNames returns the engine-produced name list. Empty after a
// failed run.
func (t *Task) ImageNames() []string { return t.names }

// PersistentOutput returns the engine's cross-run store snapshot, nil
// when the run produced none.
func (t *Task) PersistentOutput() []byte { return t.persistentOut }

// Run executes the engine invocation on the calling goroutine and
// closes Done. Subsequent calls are no-ops. Every failure path ends in
// a normal return: callers observe the outcome through Failed,
// ErrorMessage, and the buffer state, never through a panic or error.
func (t *Task) Run(ctx context.Context) {
	t.runOnce.Do(func() {
		defer close(t.done)
		t.execute(ctx)
	})
}

// Start launches Run on a worker goroutine.
func (t *Task) Start(ctx context.Context) {
	go t.Run(ctx)
}

// Done is closed when the run has completed, success or failure.
// Observing it is the happens-before edge that makes the post-run
// accessors safe.
func (t *Task) Done() <-chan struct{} { return t.done }

// clockBase anchors task timestamps to one monotonic reading, so
// Elapsed stays immune to wall-clock steps.
var clockBase = time.Now()

func (t *Task) execute(ctx context.Context) {
	start := time.Since(clockBase)
	if start == 0 {
		start = 1 // zero is the not-started sentinel
	}
	t.startNanos.Store(int64(start))
	t.errMessage = ""
	t.failed = false

	full := appendWithSpace(t.cfg.OutputMode.PreambleCommand(), t.cfg.Command, t.cfg.Arguments)

	t.abort.Reset()
	t.progress.Set(-1)

	t.logger.Info().Str("command", full).Str("suffix", t.logSuffix).Msg("running filter")
	runStarted.Inc()

	if err := t.invoke(ctx, full); err != nil {
		// Partial engine output must never surface to the host.
		t.images = nil
		t.names = nil
		t.errMessage = failureMessage(err)
		t.failed = true
		t.logger.Error().Str("command", full).Str("error", t.errMessage).Msg("filter run failed")
		runTotal.WithLabelValues("failed").Inc()
	} else {
		runTotal.WithLabelValues("ok").Inc()
	}
	runSeconds.Observe((time.Since(clockBase) - start).Seconds())
}

func (t *Task) invoke(ctx context.Context, command string) error {
	inst, err := t.eng.NewInstance(engine.Options{
		Environment: t.cfg.Environment,
		Stdlib:      t.cfg.Stdlib,
		Progress:    &t.progress,
		Abort:       &t.abort,
	})
	if err != nil {
		return fmt.Errorf("engine instance: %w", err)
	}

	if t.cfg.Persistent != nil {
		if buf := t.cfg.Persistent.Buffer(); buf != nil {
			if persist.IsStoreMarker(buf) {
				inst.SetVariable(persistentVar, engine.StoreVar())
			} else {
				inst.SetVariable(persistentVar, engine.BufferVar(buf))
			}
		}
	}
	inst.SetVariable("_host", engine.StringVar(t.cfg.HostTag))
	inst.SetVariable("_tk", engine.StringVar(t.cfg.ToolTag))

	statusText, err := inst.Run(ctx, command, &t.images, &t.names)
	if err != nil {
		return err
	}
	t.statusText = statusText
	t.persistentOut = inst.Variable(persistentVar)
	return nil
}

// RequestAbort asks the engine to stop early. Advisory and idempotent,
// safe from any goroutine at any time: the engine polls the flag, so
// the run may still complete normally.
func (t *Task) RequestAbort() {
	abortRequests.Inc()
	t.abort.Request()
}

// Aborted reports whether an abort was requested, not whether the
// engine actually stopped early.
func (t *Task) Aborted() bool { return t.abort.Requested() }

// Progress returns the engine's current progress in [-1, 1]; -1 means
// indeterminate. Safe from any goroutine while running.
func (t *Task) Progress() float32 { return t.progress.Load() }

// Elapsed returns the monotonic time since the run started, zero
// before it has. Safe from any goroutine while running; the start
// timestamp is written once, atomically.
func (t *Task) Elapsed() time.Duration {
	start := t.startNanos.Load()
	if start == 0 {
		return 0
	}
	return time.Since(clockBase) - time.Duration(start)
}

// Failed reports whether the engine raised during the run.
func (t *Task) Failed() bool { return t.failed }

// ErrorMessage returns the engine's failure message, empty for a
// successful run.
func (t *Task) ErrorMessage() string { return t.errMessage }

// Status returns the raw status text of a completed run.
func (t *Task) Status() string { return t.statusText }

// StatusStringItems returns the decoded string tokens of the status.
func (t *Task) StatusStringItems() []string {
	return status.Strings(t.statusText)
}

// StatusVisibilityItems returns the per-parameter visibility codes of
// the status.
func (t *Task) StatusVisibilityItems() []status.Visibility {
	return status.Visibilities(t.statusText)
}

// FullCommand returns command and arguments joined, without the
// output-mode preamble.
func (t *Task) FullCommand() string {
	return appendWithSpace(t.cfg.Command, t.cfg.Arguments)
}

// SetLogSuffix tags this task's log lines, e.g. with the preview slot
// it renders for.
func (t *Task) SetLogSuffix(s string) { t.logSuffix = s }

func failureMessage(err error) string {
	var execErr *engine.ExecError
	if errors.As(err, &execErr) {
		return execErr.Message
	}
	return err.Error()
}

// appendWithSpace joins the non-empty parts with single spaces. No
// escaping happens here; the engine defines its own quoting.
func appendWithSpace(parts ...string) string {
	var b strings.Builder
	for _, p := range parts {
		if p == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(p)
	}
	return b.String()
}
