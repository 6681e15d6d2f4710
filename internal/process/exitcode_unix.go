//go:build !windows

package process

import (
	"os"
	"syscall"
)

// exitCode follows the shell convention of 128+N for a child killed by
// signal N.
func exitCode(state *os.ProcessState) int {
	if state == nil {
		return StreamErrorExitCode
	}
	if ws, ok := state.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
		return 128 + int(ws.Signal())
	}
	return state.ExitCode()
}
