//go:build windows

package process

import (
	"os"

	"golang.org/x/sys/windows"
)

// markNonInheritable clears HANDLE_FLAG_INHERIT on the parent's end of a
// pipe.
func markNonInheritable(f *os.File) error {
	return windows.SetHandleInformation(windows.Handle(f.Fd()), windows.HANDLE_FLAG_INHERIT, 0)
}
