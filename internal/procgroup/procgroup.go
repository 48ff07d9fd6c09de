// SPDX-License-Identifier: MIT

// Package procgroup places child processes in their own process group
// so an abort can reap the whole tree, not just the direct child.
package procgroup

import (
	"errors"
	"os/exec"
	"time"
)

// ErrKillFailed reports that the group could not be signalled.
var ErrKillFailed = errors.New("kill operation failed")

// Set configures cmd to start in a new process group. Required for
// KillGroup to reach the child's descendants.
func Set(cmd *exec.Cmd) {
	set(cmd)
}

// KillGroup terminates the process group of pid: TERM first, then KILL
// once the grace window has elapsed without the group exiting.
func KillGroup(pid int, grace time.Duration) error {
	return killGroup(pid, grace)
}
