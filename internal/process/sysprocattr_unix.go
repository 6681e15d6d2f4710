//go:build !windows

package process

import (
	"os/exec"
	"syscall"
)

// Blocking and redirected children stay in the caller's process group so a
// terminal Ctrl-C reaches them too. Detached children get their own group.
func configureSysProcAttr(cmd *exec.Cmd, mode Mode) {
	if mode != ModeDetached {
		return
	}
	if cmd.SysProcAttr == nil {
		cmd.SysProcAttr = &syscall.SysProcAttr{}
	}
	cmd.SysProcAttr.Setpgid = true
}
