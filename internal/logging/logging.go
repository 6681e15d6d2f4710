// Package logging configures the zerolog loggers used for diagnostics.
//
// Diagnostics always go to a dedicated writer (stderr by default) and never
// mix with output captured from child processes.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/term"
)

const (
	FormatConsole = "console"
	FormatJSON    = "json"

	OutputStderr = "stderr"
	OutputStdout = "stdout"
)

// Config controls logger construction.
type Config struct {
	Level     string
	Format    string
	Output    string
	NoColor   bool
	Timestamp bool
}

// ApplyDefaults fills unset fields.
func (c *Config) ApplyDefaults() {
	if c.Level == "" {
		c.Level = "info"
	}
	if c.Format == "" {
		c.Format = FormatConsole
	}
	if c.Output == "" {
		c.Output = OutputStderr
	}
}

// Validate reports configuration errors.
func (c Config) Validate() error {
	if _, err := zerolog.ParseLevel(strings.ToLower(c.Level)); err != nil {
		return fmt.Errorf("invalid log level %q", c.Level)
	}
	switch strings.ToLower(c.Format) {
	case "", FormatConsole, FormatJSON:
	default:
		return fmt.Errorf("invalid log format %q (expected console or json)", c.Format)
	}
	switch strings.ToLower(c.Output) {
	case "", OutputStderr, OutputStdout:
	default:
		return fmt.Errorf("invalid log output %q (expected stderr or stdout)", c.Output)
	}
	return nil
}

// New builds a logger writing to the configured output.
func New(cfg Config) zerolog.Logger {
	cfg.ApplyDefaults()
	return NewWithWriter(cfg, outputWriter(cfg.Output))
}

// NewWithWriter builds a logger writing to w. Console formatting uses color
// only when w is a terminal.
func NewWithWriter(cfg Config, w io.Writer) zerolog.Logger {
	cfg.ApplyDefaults()
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil {
		level = zerolog.InfoLevel
	}

	out := w
	if strings.ToLower(cfg.Format) == FormatConsole {
		out = zerolog.ConsoleWriter{
			Out:        w,
			NoColor:    cfg.NoColor || !isTerminal(w),
			TimeFormat: time.TimeOnly,
		}
	}

	zc := zerolog.New(out).Level(level).With()
	if cfg.Timestamp {
		zc = zc.Timestamp()
	}
	return zc.Logger()
}

func outputWriter(output string) io.Writer {
	if strings.ToLower(output) == OutputStdout {
		return os.Stdout
	}
	return os.Stderr
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}

var current atomic.Pointer[zerolog.Logger]

func init() {
	l := New(Config{Level: "info", Timestamp: true})
	current.Store(&l)
}

// SetDefault replaces the process-wide logger.
func SetDefault(l zerolog.Logger) {
	current.Store(&l)
}

// Default returns the process-wide logger.
func Default() zerolog.Logger {
	return *current.Load()
}
