package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Paintersrp/procwarden/internal/environment"
	"github.com/Paintersrp/procwarden/internal/interrupt"
	"github.com/Paintersrp/procwarden/internal/logging"
)

// Duration wraps time.Duration for YAML and TOML unmarshalling.
type Duration struct {
	time.Duration
	explicit bool
}

// UnmarshalText parses a textual duration, accepting empty strings.
func (d *Duration) UnmarshalText(text []byte) error {
	d.explicit = true
	if len(text) == 0 {
		d.Duration = 0
		return nil
	}
	dur, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", string(text), err)
	}
	d.Duration = dur
	return nil
}

// MarshalText renders the duration using time.Duration formatting.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// IsSet reports whether the duration was explicitly provided or non-zero.
func (d Duration) IsSet() bool {
	return d.explicit || d.Duration != 0
}

// File mirrors the procwarden.yaml / procwarden.toml document.
type File struct {
	Environment EnvironmentSpec `yaml:"environment" toml:"environment"`
	Logging     LoggingSpec     `yaml:"logging" toml:"logging"`
	Interrupt   InterruptSpec   `yaml:"interrupt" toml:"interrupt"`
	Metrics     MetricsSpec     `yaml:"metrics" toml:"metrics"`

	// Path is the absolute location the file was loaded from.
	Path string `yaml:"-" toml:"-"`
}

// EnvironmentSpec controls how child environments are built.
type EnvironmentSpec struct {
	// Inherit passes the whole current environment to children unchanged.
	Inherit    bool              `yaml:"inherit" toml:"inherit"`
	PathPrefix string            `yaml:"path_prefix" toml:"path_prefix"`
	Keep       []string          `yaml:"keep" toml:"keep"`
	Vars       map[string]string `yaml:"vars" toml:"vars"`
	EnvFile    string            `yaml:"env_file" toml:"env_file"`
}

// LoggingSpec configures diagnostics.
type LoggingSpec struct {
	Level   string `yaml:"level" toml:"level"`
	Format  string `yaml:"format" toml:"format"`
	Output  string `yaml:"output" toml:"output"`
	NoColor bool   `yaml:"no_color" toml:"no_color"`
}

// InterruptSpec tunes the interrupt coordinator.
type InterruptSpec struct {
	NoticeInterval Duration `yaml:"notice_interval" toml:"notice_interval"`
}

// MetricsSpec configures metric export.
type MetricsSpec struct {
	// Textfile receives the Prometheus text exposition on exit.
	Textfile string `yaml:"textfile" toml:"textfile"`
}

// Default returns the configuration used when no file is given.
func Default() *File {
	f := &File{}
	f.ApplyDefaults()
	return f
}

// ApplyDefaults fills unset fields.
func (f *File) ApplyDefaults() {
	f.Logging.Level = strings.ToLower(strings.TrimSpace(f.Logging.Level))
	f.Logging.Format = strings.ToLower(strings.TrimSpace(f.Logging.Format))
	f.Logging.Output = strings.ToLower(strings.TrimSpace(f.Logging.Output))
	cfg := f.LoggingConfig()
	cfg.ApplyDefaults()
	f.Logging.Level = cfg.Level
	f.Logging.Format = cfg.Format
	f.Logging.Output = cfg.Output

	if !f.Interrupt.NoticeInterval.IsSet() {
		f.Interrupt.NoticeInterval = Duration{Duration: interrupt.DefaultNoticeInterval}
	}
}

// Validate reports the first configuration error found.
func (f *File) Validate() error {
	for i, entry := range f.Environment.Keep {
		if strings.TrimSpace(entry) == "" {
			return fmt.Errorf("%s: must not be empty", fieldPath("environment", fmt.Sprintf("keep[%d]", i)))
		}
		if err := environment.ValidatePattern(entry); err != nil {
			return fmt.Errorf("%s: %w", fieldPath("environment", fmt.Sprintf("keep[%d]", i)), err)
		}
	}
	for name := range f.Environment.Vars {
		if name == "" || strings.ContainsAny(name, "=\x00") {
			return fmt.Errorf("%s: invalid variable name %q", fieldPath("environment", "vars"), name)
		}
	}
	if f.Environment.Inherit {
		if f.Environment.PathPrefix != "" {
			return fmt.Errorf("%s: cannot be combined with environment.inherit", fieldPath("environment", "path_prefix"))
		}
		if len(f.Environment.Vars) > 0 {
			return fmt.Errorf("%s: cannot be combined with environment.inherit", fieldPath("environment", "vars"))
		}
	}
	if err := f.LoggingConfig().Validate(); err != nil {
		return fmt.Errorf("%s: %w", fieldPath("logging"), err)
	}
	if f.Interrupt.NoticeInterval.IsSet() && f.Interrupt.NoticeInterval.Duration <= 0 {
		return fmt.Errorf("%s: must be positive", fieldPath("interrupt", "notice_interval"))
	}
	return nil
}

// LoggingConfig converts the logging section for the logging package.
func (f *File) LoggingConfig() logging.Config {
	return logging.Config{
		Level:   f.Logging.Level,
		Format:  f.Logging.Format,
		Output:  f.Logging.Output,
		NoColor: f.Logging.NoColor,
	}
}

// Builder returns an environment builder seeded with the configured keep
// list.
func (f *File) Builder() *environment.Builder {
	b := environment.NewBuilder()
	b.Keep = append(b.Keep, f.Environment.Keep...)
	return b
}

// ErrInheritOverrides is returned when per-call variables or a path prefix
// are requested while environment.inherit is set.
var ErrInheritOverrides = errors.New("environment.inherit is set; variables and path prefix cannot be applied")

// ChildEnvironment builds the environment for children, applying extra on
// top of the configured vars. It returns nil, meaning inherit, when the
// file asks for it, and ErrInheritOverrides if extra or pathPrefix would
// then be dropped.
func (f *File) ChildEnvironment(extra map[string]string, pathPrefix string) (*environment.Environment, error) {
	if f.Environment.Inherit {
		if len(extra) > 0 || pathPrefix != "" {
			return nil, ErrInheritOverrides
		}
		return nil, nil
	}
	merged := make(map[string]string, len(f.Environment.Vars)+len(extra))
	for k, v := range f.Environment.Vars {
		merged[k] = v
	}
	for k, v := range extra {
		merged[k] = v
	}
	if pathPrefix == "" {
		pathPrefix = f.Environment.PathPrefix
	}
	return f.Builder().Build(merged, pathPrefix), nil
}

func fieldPath(parts ...string) string {
	return strings.Join(parts, ".")
}
