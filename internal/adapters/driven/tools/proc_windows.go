//go:build windows

package tools

import (
	"os/exec"
	"syscall"
)

// createNoWindow keeps console tools from flashing a window.
const createNoWindow = 0x08000000

func configureProcess(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{CreationFlags: createNoWindow}
}
