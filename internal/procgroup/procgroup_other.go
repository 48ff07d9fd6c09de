// SPDX-License-Identifier: MIT

//go:build !unix

package procgroup

import (
	"os"
	"os/exec"
	"time"
)

func set(_ *exec.Cmd) {}

// Without process groups the best available behaviour is a hard kill
// of the direct child.
func killGroup(pid int, _ time.Duration) error {
	p, err := os.FindProcess(pid)
	if err != nil {
		return nil
	}
	if err := p.Kill(); err != nil {
		return ErrKillFailed
	}
	return nil
}
