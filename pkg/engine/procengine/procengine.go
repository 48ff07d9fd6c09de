// SPDX-License-Identifier: MIT

// Package procengine adapts an external engine binary to the engine
// contract. Each run spawns one process: the command line, session
// variables, and input buffers are framed onto stdin, the status text
// and output buffers come back on stdout, and stderr carries progress
// lines plus diagnostics.
package procengine

import (
	"bufio"
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/mhartig/filterkit/internal/log"
	"github.com/mhartig/filterkit/internal/procgroup"
	"github.com/mhartig/filterkit/pkg/engine"
)

// abortPollInterval is how often a running instance checks the shared
// abort flag.
const abortPollInterval = 100 * time.Millisecond

// Engine spawns one engine process per run.
type Engine struct {
	BinPath     string
	Args        []string // fixed args placed before the framed request
	KillTimeout time.Duration
}

// New returns an Engine for the given binary. An empty binPath falls
// back to "filter-engine" on PATH.
func New(binPath string, args []string, killTimeout time.Duration) *Engine {
	if binPath == "" {
		binPath = "filter-engine"
	}
	if killTimeout <= 0 {
		killTimeout = 5 * time.Second
	}
	return &Engine{BinPath: binPath, Args: args, KillTimeout: killTimeout}
}

// NewInstance implements engine.Engine.
func (e *Engine) NewInstance(opts engine.Options) (engine.Instance, error) {
	return &instance{
		eng:  e,
		opts: opts,
		ring: NewLineRing(64),
	}, nil
}

type instance struct {
	eng  *Engine
	opts engine.Options
	ring *LineRing

	vars []VarEntry // insertion-ordered session variables
	out  []VarEntry // post-run variable space
}

func (in *instance) SetVariable(name string, v engine.Variable) {
	for i := range in.vars {
		if in.vars[i].Name == name {
			in.vars[i].Kind = v.Kind
			in.vars[i].Data = v.Data
			return
		}
	}
	in.vars = append(in.vars, VarEntry{Name: name, Kind: v.Kind, Data: v.Data})
}

func (in *instance) Variable(name string) []byte {
	for _, v := range in.out {
		if v.Name == name {
			return v.Data
		}
	}
	return nil
}

func (in *instance) Run(ctx context.Context, command string, images *[]engine.Image, names *[]string) (string, error) {
	logger := log.WithComponent("procengine")

	req := &Request{
		Environment: in.opts.Environment,
		Command:     command,
		Stdlib:      in.opts.Stdlib,
		Vars:        in.vars,
		Images:      *images,
		Names:       *names,
	}

	cmd := exec.CommandContext(ctx, in.eng.BinPath, in.eng.Args...) // #nosec G204 -- host-configured binary
	procgroup.Set(cmd)

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return "", &engine.ExecError{Message: fmt.Sprintf("engine stdin: %v", err)}
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return "", &engine.ExecError{Message: fmt.Sprintf("engine stdout: %v", err)}
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return "", &engine.ExecError{Message: fmt.Sprintf("engine stderr: %v", err)}
	}

	if err := cmd.Start(); err != nil {
		return "", &engine.ExecError{Message: fmt.Sprintf("engine start: %v", err)}
	}
	logger.Debug().Str("bin", in.eng.BinPath).Str("command", command).Msg("engine process started")

	var ioWg sync.WaitGroup

	ioWg.Add(1)
	go func() {
		defer ioWg.Done()
		w := bufio.NewWriter(stdin)
		if err := WriteRequest(w, req); err == nil {
			_ = w.Flush()
		}
		_ = stdin.Close()
	}()

	ioWg.Add(1)
	go func() {
		defer ioWg.Done()
		scanner := bufio.NewScanner(stderr)
		for scanner.Scan() {
			line := scanner.Text()
			if v, ok := parseProgress(line); ok {
				if in.opts.Progress != nil {
					in.opts.Progress.Set(v)
				}
				continue
			}
			in.ring.Append(line)
		}
	}()

	pollDone := make(chan struct{})
	var pollWg sync.WaitGroup
	pollWg.Add(1)
	go func() {
		defer pollWg.Done()
		ticker := time.NewTicker(abortPollInterval)
		defer ticker.Stop()
		for {
			select {
			case <-pollDone:
				return
			case <-ctx.Done():
				_ = procgroup.KillGroup(cmd.Process.Pid, in.eng.KillTimeout)
				return
			case <-ticker.C:
				if in.opts.Abort != nil && in.opts.Abort.Requested() {
					logger.Debug().Msg("abort requested, terminating engine process")
					_ = procgroup.KillGroup(cmd.Process.Pid, in.eng.KillTimeout)
					return
				}
			}
		}
	}()

	resp, decErr := ReadResponse(bufio.NewReader(stdout))
	if decErr != nil {
		// The process may still be alive and streaming; without a reap
		// the stderr drain below would never see EOF.
		_ = procgroup.KillGroup(cmd.Process.Pid, in.eng.KillTimeout)
	}

	ioWg.Wait()
	waitErr := cmd.Wait()
	close(pollDone)
	pollWg.Wait()

	if waitErr != nil {
		return "", &engine.ExecError{Message: failureMessage(waitErr, in.ring)}
	}
	if decErr != nil {
		return "", &engine.ExecError{Message: fmt.Sprintf("engine protocol: %v", decErr)}
	}

	*images = resp.Images
	*names = resp.Names
	in.out = resp.Vars
	return resp.Status, nil
}

// failureMessage prefers the engine's own stderr tail over the bare
// exit error.
func failureMessage(waitErr error, ring *LineRing) string {
	lines := ring.LastN(10)
	if len(lines) == 0 {
		return waitErr.Error()
	}
	return strings.Join(lines, "\n")
}

// parseProgress recognises the stderr progress protocol: a line of the
// form "progress <fraction>" with the fraction in [0, 1].
func parseProgress(line string) (float32, bool) {
	rest, ok := strings.CutPrefix(line, "progress ")
	if !ok {
		return 0, false
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(rest), 32)
	if err != nil {
		return 0, false
	}
	return float32(v), true
}
