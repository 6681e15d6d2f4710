//go:build windows

package interrupt

import "os"

// Ctrl-C and Ctrl-Break both arrive as os.Interrupt.
func notifySignals() []os.Signal {
	return []os.Signal{os.Interrupt}
}
