package process

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/Paintersrp/procwarden/internal/environment"
	"github.com/Paintersrp/procwarden/internal/interrupt"
	"github.com/Paintersrp/procwarden/internal/logging"
	"github.com/Paintersrp/procwarden/internal/metrics"
)

// Mode selects how a child is created.
type Mode int

const (
	// ModeDetached starts the child in the background and forgets it.
	ModeDetached Mode = iota
	// ModeBlocking starts the child on the caller's standard streams.
	ModeBlocking
	// ModeRedirected merges the child's stdout and stderr into one pipe and
	// connects its stdin to another.
	ModeRedirected
)

func (m Mode) String() string {
	switch m {
	case ModeDetached:
		return "detached"
	case ModeBlocking:
		return "blocking"
	case ModeRedirected:
		return "redirected"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// ShellFunc wraps a command line in an invocation of the platform command
// interpreter.
type ShellFunc func(cmdLine string) *exec.Cmd

// Runner creates children and waits for them.
type Runner struct {
	logger      zerolog.Logger
	coordinator *interrupt.Coordinator
	shell       ShellFunc
	exit        func(code int)

	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer

	chunkSize int
}

// Option customises a Runner.
type Option func(*Runner)

// WithLogger sets the debug and diagnostic logger.
func WithLogger(l zerolog.Logger) Option {
	return func(r *Runner) { r.logger = l }
}

// WithCoordinator sets the interrupt coordinator blocking children are
// registered with.
func WithCoordinator(c *interrupt.Coordinator) Option {
	return func(r *Runner) {
		if c != nil {
			r.coordinator = c
		}
	}
}

// WithShell replaces the platform command interpreter.
func WithShell(fn ShellFunc) Option {
	return func(r *Runner) {
		if fn != nil {
			r.shell = fn
		}
	}
}

// WithExit replaces os.Exit for fatal errors.
func WithExit(fn func(code int)) Option {
	return func(r *Runner) {
		if fn != nil {
			r.exit = fn
		}
	}
}

// WithStdio sets the streams blocking children inherit.
func WithStdio(stdin io.Reader, stdout, stderr io.Writer) Option {
	return func(r *Runner) {
		r.stdin = stdin
		r.stdout = stdout
		r.stderr = stderr
	}
}

// WithChunkSize sets the read size used when streaming output.
func WithChunkSize(n int) Option {
	return func(r *Runner) {
		if n > 0 {
			r.chunkSize = n
		}
	}
}

// New constructs a Runner.
func New(opts ...Option) *Runner {
	r := &Runner{
		logger:    logging.Default(),
		shell:     shellCommand,
		exit:      os.Exit,
		stdin:     os.Stdin,
		stdout:    os.Stdout,
		stderr:    os.Stderr,
		chunkSize: 4096,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.coordinator == nil {
		r.coordinator = interrupt.Default()
	}
	return r
}

var defaultRunner = sync.OnceValue(func() *Runner { return New() })

// Default returns the process-wide Runner.
func Default() *Runner {
	return defaultRunner()
}

// Handle is a started child. It is owned by the goroutine that created it
// and must be waited on exactly once.
type Handle struct {
	runner  *Runner
	cmd     *exec.Cmd
	mode    Mode
	started time.Time
	done    bool
}

// Pid returns the child's process id.
func (h *Handle) Pid() int {
	return h.cmd.Process.Pid
}

// Mode returns the mode the child was created with.
func (h *Handle) Mode() Mode {
	return h.mode
}

// Wait blocks until the child exits, releases its OS resources and returns
// its exit code.
func (h *Handle) Wait() int {
	if h.done {
		panic("process: Wait called on a released handle")
	}
	h.done = true

	err := h.cmd.Wait()
	var exitErr *exec.ExitError
	if err != nil && !errors.As(err, &exitErr) {
		h.runner.fatalf(err, "waiting for child process %d failed", h.cmd.Process.Pid)
	}
	code := exitCode(h.cmd.ProcessState)
	metrics.ChildExited(h.mode.String(), code, time.Since(h.started))
	return code
}

// Pipes are the parent's ends of a redirected child's standard streams.
type Pipes struct {
	// Stdin feeds the child's standard input. Close it when no input is
	// needed.
	Stdin *os.File
	// Output yields the child's merged stdout and stderr.
	Output *os.File
}

// Close releases both parent ends.
func (p *Pipes) Close() {
	if p.Stdin != nil {
		_ = p.Stdin.Close()
	}
	if p.Output != nil {
		_ = p.Output.Close()
	}
}

// Spawn starts cmdLine through the platform shell. Detached children are
// released immediately and the returned handle must not be waited on.
// Use SpawnWithPipes for ModeRedirected.
func (r *Runner) Spawn(cmdLine string, env *environment.Environment, mode Mode) *Handle {
	if mode == ModeRedirected {
		panic("process: use SpawnWithPipes for redirected children")
	}
	cmd := r.command(cmdLine, env, mode)
	if mode == ModeBlocking {
		cmd.Stdin = r.stdin
		cmd.Stdout = r.stdout
		cmd.Stderr = r.stderr
	}
	h := r.start(cmd, cmdLine, mode)
	if mode == ModeDetached {
		if err := cmd.Process.Release(); err != nil {
			r.logger.Debug().Err(err).Msg("release detached process")
		}
		h.done = true
	}
	return h
}

// SpawnWithPipes starts cmdLine with stdout and stderr merged into one pipe
// and stdin connected to another. The caller owns the returned pipes.
func (r *Runner) SpawnWithPipes(cmdLine string, env *environment.Environment) (*Handle, *Pipes) {
	outR, outW, err := os.Pipe()
	if err != nil {
		r.fatalf(err, "creating output pipe failed")
	}
	inR, inW, err := os.Pipe()
	if err != nil {
		closeFiles(outR, outW)
		r.fatalf(err, "creating input pipe failed")
	}
	if err := markNonInheritable(outR); err != nil {
		closeFiles(outR, outW, inR, inW)
		r.fatalf(err, "marking output pipe non-inheritable failed")
	}
	if err := markNonInheritable(inW); err != nil {
		closeFiles(outR, outW, inR, inW)
		r.fatalf(err, "marking input pipe non-inheritable failed")
	}

	cmd := r.command(cmdLine, env, ModeRedirected)
	cmd.Stdin = inR
	cmd.Stdout = outW
	cmd.Stderr = outW

	h := r.start(cmd, cmdLine, ModeRedirected, outR, outW, inR, inW)

	// The child holds its own copies now.
	closeFiles(inR, outW)
	return h, &Pipes{Stdin: inW, Output: outR}
}

// Execute runs cmdLine on the caller's standard streams and returns its
// exit code.
func (r *Runner) Execute(cmdLine string, env *environment.Environment) int {
	started := time.Now()
	if !r.coordinator.BeginSpawn() {
		return interrupt.ExitCode
	}
	h := r.Spawn(cmdLine, env, ModeBlocking)
	code := h.Wait()
	r.coordinator.EndSpawn()

	r.logger.Debug().
		Int("exit_code", code).
		Int64("us", time.Since(started).Microseconds()).
		Msg("execute returned")
	return code
}

// ExecuteNoWait starts cmdLine in the background with the inherited
// environment and returns without waiting.
func (r *Runner) ExecuteNoWait(cmdLine string) {
	started := time.Now()
	r.Spawn(cmdLine, nil, ModeDetached)
	r.logger.Debug().
		Int64("us", time.Since(started).Microseconds()).
		Msg("execute_no_wait took")
}

func (r *Runner) command(cmdLine string, env *environment.Environment, mode Mode) *exec.Cmd {
	cmd := r.shell(cmdLine)
	cmd.Env = env.Slice()
	configureSysProcAttr(cmd, mode)
	return cmd
}

// start launches cmd. On failure the given files are closed before the
// program terminates.
func (r *Runner) start(cmd *exec.Cmd, cmdLine string, mode Mode, files ...*os.File) *Handle {
	r.logger.Debug().
		Str("mode", mode.String()).
		Str("cmd", logging.RedactSecrets(cmdLine)).
		Msg("spawn")

	r.flushStdout()
	if err := cmd.Start(); err != nil {
		closeFiles(files...)
		r.fatalf(err, "process creation failed for %q", logging.RedactSecrets(cmdLine))
	}
	metrics.ChildSpawned(mode.String())
	return &Handle{runner: r, cmd: cmd, mode: mode, started: time.Now()}
}

type flusher interface {
	Flush() error
}

type syncer interface {
	Sync() error
}

// flushStdout keeps the parent's buffered output ahead of the child's.
func (r *Runner) flushStdout() {
	switch w := r.stdout.(type) {
	case flusher:
		_ = w.Flush()
	case syncer:
		_ = w.Sync()
	}
}

// fatalf reports an infrastructure failure and terminates the program.
func (r *Runner) fatalf(err error, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	ev := r.logger.Error()
	if err != nil {
		ev = ev.Err(err)
		if code, ok := osErrorCode(err); ok {
			ev = ev.Int("os_error_code", code)
			msg = fmt.Sprintf("%s with error code: %d", msg, code)
		}
	}
	ev.Msg(msg)
	r.exit(1)
	panic("process: exit function returned after fatal error: " + msg)
}

func closeFiles(files ...*os.File) {
	for _, f := range files {
		if f != nil {
			_ = f.Close()
		}
	}
}
