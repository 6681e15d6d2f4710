//go:build !windows

package interrupt

import (
	"os"
	"syscall"
)

func notifySignals() []os.Signal {
	return []os.Signal{os.Interrupt, syscall.SIGTERM}
}
