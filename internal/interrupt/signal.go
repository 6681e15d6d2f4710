package interrupt

import (
	"os"
	"os/signal"
)

// Install routes interrupt signals to HandleInterrupt. The receiving
// goroutine performs that single transition and nothing else. The returned
// function stops delivery.
func (c *Coordinator) Install() (stop func()) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, notifySignals()...)

	done := make(chan struct{})
	go func() {
		for {
			select {
			case <-sigCh:
				c.HandleInterrupt()
			case <-done:
				return
			}
		}
	}()

	return func() {
		signal.Stop(sigCh)
		close(done)
	}
}
