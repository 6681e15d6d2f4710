//go:build !windows

package process

import (
	"os"

	"golang.org/x/sys/unix"
)

// markNonInheritable sets FD_CLOEXEC on the parent's end of a pipe.
func markNonInheritable(f *os.File) error {
	raw, err := f.SyscallConn()
	if err != nil {
		return err
	}
	var opErr error
	if err := raw.Control(func(fd uintptr) {
		_, opErr = unix.FcntlInt(fd, unix.F_SETFD, unix.FD_CLOEXEC)
	}); err != nil {
		return err
	}
	return opErr
}
