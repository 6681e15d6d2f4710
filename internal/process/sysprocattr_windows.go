//go:build windows

package process

import (
	"os/exec"
	"syscall"

	"golang.org/x/sys/windows"
)

// Children run at idle priority so long builds do not starve the desktop.
// Detached children are cut off from the console.
func configureSysProcAttr(cmd *exec.Cmd, mode Mode) {
	if cmd.SysProcAttr == nil {
		cmd.SysProcAttr = &syscall.SysProcAttr{}
	}
	flags := uint32(windows.IDLE_PRIORITY_CLASS)
	if mode == ModeDetached {
		flags |= windows.DETACHED_PROCESS
		cmd.SysProcAttr.HideWindow = true
	}
	cmd.SysProcAttr.CreationFlags |= flags
}
