//go:build unix

package tools

import (
	"os/exec"
	"syscall"
)

// configureProcess starts cmd in its own process group and kills the whole
// group on cancellation, so helpers spawned by wrapper scripts die with it.
func configureProcess(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		return syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
	}
}
