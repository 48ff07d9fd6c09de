// SPDX-License-Identifier: MIT

//go:build unix

package procgroup

import (
	"os/exec"
	"syscall"
	"time"
)

func set(cmd *exec.Cmd) {
	if cmd.SysProcAttr == nil {
		cmd.SysProcAttr = &syscall.SysProcAttr{}
	}
	cmd.SysProcAttr.Setpgid = true
}

func killGroup(pid int, grace time.Duration) error {
	if err := syscall.Kill(-pid, syscall.SIGTERM); err != nil {
		if err == syscall.ESRCH {
			return nil
		}
		return ErrKillFailed
	}

	deadline := time.Now().Add(grace)
	for time.Now().Before(deadline) {
		// Signal 0 probes for liveness without delivering anything.
		if err := syscall.Kill(-pid, 0); err == syscall.ESRCH {
			return nil
		}
		time.Sleep(50 * time.Millisecond)
	}

	if err := syscall.Kill(-pid, syscall.SIGKILL); err != nil && err != syscall.ESRCH {
		return ErrKillFailed
	}
	return nil
}
