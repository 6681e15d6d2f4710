package process

import (
	"errors"
	"syscall"
)

func osErrorCode(err error) (int, bool) {
	var errno syscall.Errno
	if errors.As(err, &errno) {
		return int(errno), true
	}
	return 0, false
}
