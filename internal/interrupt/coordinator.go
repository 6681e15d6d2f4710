// Package interrupt arbitrates between asynchronous interrupt signals and
// child processes that block the calling goroutine.
//
// All state lives in one signed counter. Non-negative values count the
// children currently being waited on. Once an interrupt is observed the
// counter is shifted into the negative range below math.MinInt32+n, where n
// is the number of children still outstanding. The program then exits as
// soon as the last of those children has been waited on, or immediately if
// there were none.
package interrupt

import (
	"math"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/Paintersrp/procwarden/internal/logging"
	"github.com/Paintersrp/procwarden/internal/metrics"
)

const (
	// ExitCode is the status the program exits with after an interrupt.
	ExitCode = 1

	// DefaultNoticeInterval is how often a parked goroutine reports that it
	// is still waiting for other children.
	DefaultNoticeInterval = 10 * time.Second

	interruptedBase = math.MinInt32
)

// Coordinator is the interrupt state machine. The zero value is not usable;
// construct one with New.
type Coordinator struct {
	state atomic.Int32

	exit   func(code int)
	park   func()
	notice time.Duration
	logger zerolog.Logger

	cleanupMu sync.Mutex
	cleanups  []func()
	shutdown  sync.Once
}

// Option customises a Coordinator.
type Option func(*Coordinator)

// WithExit replaces os.Exit as the termination function.
func WithExit(fn func(code int)) Option {
	return func(c *Coordinator) {
		if fn != nil {
			c.exit = fn
		}
	}
}

// WithPark replaces the indefinite wait entered by goroutines that must not
// proceed once an interrupt is in flight. The default never returns.
func WithPark(fn func()) Option {
	return func(c *Coordinator) {
		if fn != nil {
			c.park = fn
		}
	}
}

// WithNoticeInterval sets how often the default park loop logs.
func WithNoticeInterval(d time.Duration) Option {
	return func(c *Coordinator) {
		if d > 0 {
			c.notice = d
		}
	}
}

// WithLogger sets the logger for wait notices and shutdown messages.
func WithLogger(l zerolog.Logger) Option {
	return func(c *Coordinator) {
		c.logger = l
	}
}

// New constructs an idle Coordinator.
func New(opts ...Option) *Coordinator {
	c := &Coordinator{
		exit:   os.Exit,
		notice: DefaultNoticeInterval,
		logger: logging.Default(),
	}
	c.park = c.waitForever
	for _, opt := range opts {
		opt(c)
	}
	return c
}

var defaultCoordinator = sync.OnceValue(func() *Coordinator { return New() })

// Default returns the process-wide Coordinator.
func Default() *Coordinator {
	return defaultCoordinator()
}

// State returns the raw counter value.
func (c *Coordinator) State() int32 {
	return c.state.Load()
}

// Interrupted reports whether an interrupt has been observed.
func (c *Coordinator) Interrupted() bool {
	return c.state.Load() < 0
}

// Outstanding returns the number of children still being waited on.
func (c *Coordinator) Outstanding() int {
	return outstanding(c.state.Load())
}

func outstanding(v int32) int {
	if v < 0 {
		return int(v - interruptedBase)
	}
	return int(v)
}

// OnShutdown registers fn to run once, before the program exits because of
// an interrupt. Hooks run in reverse registration order.
func (c *Coordinator) OnShutdown(fn func()) {
	if fn == nil {
		return
	}
	c.cleanupMu.Lock()
	c.cleanups = append(c.cleanups, fn)
	c.cleanupMu.Unlock()
}

// BeginSpawn must be called before creating a child that the caller will
// wait on. If an interrupt is already in flight the calling goroutine parks
// instead: another goroutine's child is responsible for ending the program.
// BeginSpawn reports false only when a custom park function returns; the
// caller must not spawn in that case.
func (c *Coordinator) BeginSpawn() bool {
	for {
		cur := c.state.Load()
		if cur < 0 {
			c.park()
			return false
		}
		if c.state.CompareAndSwap(cur, cur+1) {
			metrics.SetOutstanding(int(cur) + 1)
			return true
		}
	}
}

// EndSpawn must be called once a child started after BeginSpawn has been
// waited on. If an interrupt arrived meanwhile, the goroutine finishing the
// last outstanding child terminates the program and every other one parks.
func (c *Coordinator) EndSpawn() {
	for {
		cur := c.state.Load()
		if cur == 0 || cur == interruptedBase {
			panic("interrupt: EndSpawn without matching BeginSpawn")
		}
		if !c.state.CompareAndSwap(cur, cur-1) {
			continue
		}
		metrics.SetOutstanding(outstanding(cur - 1))
		switch {
		case cur == interruptedBase+1:
			c.terminate("interrupted; last child process exited")
		case cur < 0:
			c.park()
		}
		return
	}
}

// HandleInterrupt records an interrupt. With no children outstanding the
// program exits immediately; otherwise exit is deferred to EndSpawn.
// Repeated interrupts are ignored.
func (c *Coordinator) HandleInterrupt() {
	metrics.InterruptObserved()
	for {
		cur := c.state.Load()
		if cur < 0 {
			return
		}
		if !c.state.CompareAndSwap(cur, cur+interruptedBase) {
			continue
		}
		if cur == 0 {
			c.terminate("interrupted")
		}
		return
	}
}

func (c *Coordinator) terminate(reason string) {
	c.shutdown.Do(func() {
		c.logger.Debug().Msg(reason)
		c.cleanupMu.Lock()
		hooks := append([]func(){}, c.cleanups...)
		c.cleanupMu.Unlock()
		for i := len(hooks) - 1; i >= 0; i-- {
			hooks[i]()
		}
		c.exit(ExitCode)
	})
}

func (c *Coordinator) waitForever() {
	ticker := time.NewTicker(c.notice)
	defer ticker.Stop()
	for range ticker.C {
		c.logger.Warn().Int("outstanding", c.Outstanding()).Msg("Waiting for child processes to exit...")
	}
}
