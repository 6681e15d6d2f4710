//go:build windows

package process

import (
	"os"
	"syscall"
)

// exitCode returns the raw exit status, including NTSTATUS values such as
// 0xC000013A for a child ended by Ctrl-C.
func exitCode(state *os.ProcessState) int {
	if state == nil {
		return StreamErrorExitCode
	}
	if ws, ok := state.Sys().(syscall.WaitStatus); ok {
		return int(int32(ws.ExitCode))
	}
	return state.ExitCode()
}
