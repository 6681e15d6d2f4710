package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/Paintersrp/procwarden/internal/config"
	"github.com/Paintersrp/procwarden/internal/interrupt"
	"github.com/Paintersrp/procwarden/internal/logging"
	"github.com/Paintersrp/procwarden/internal/metrics"
	"github.com/Paintersrp/procwarden/internal/process"
)

const (
	envLogLevel    = "PROCWARDEN_LOG_LEVEL"
	envMetricsFile = "PROCWARDEN_METRICS_FILE"
)

// exitError carries a child's exit code out of a command.
type exitError struct {
	code int
}

func (e exitError) Error() string {
	return fmt.Sprintf("exit status %d", e.code)
}

func exitWith(code int) error {
	if code == 0 {
		return nil
	}
	return exitError{code: code}
}

func NewRootCmd() *cobra.Command {
	root, _ := newRootCommand()
	return root
}

func newRootCommand() (*cobra.Command, *context) {
	settings := settingsFromEnv()
	ctx := &context{configFile: new(string), settings: &settings}

	root := &cobra.Command{
		Use:   "procwarden",
		Short: "Run build tool commands with a controlled environment and interrupt-safe exit",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return ctx.setup(cmd)
		},
	}

	root.PersistentFlags().StringVarP(ctx.configFile, "config", "f", "", "Path to procwarden.yaml or procwarden.toml (default: discovered in the working directory)")
	root.PersistentFlags().BoolVar(&settings.Debug, "debug", settings.Debug, "Log spawned command lines and timings")
	root.PersistentFlags().StringVar(&settings.MetricsFile, "metrics-file", settings.MetricsFile, "Write Prometheus metrics to this file on exit")

	root.AddCommand(newExecCmd(ctx))
	root.AddCommand(newCaptureCmd(ctx))
	root.AddCommand(newStreamCmd(ctx))
	root.AddCommand(newSpawnCmd(ctx))
	root.AddCommand(newEnvCmd(ctx))
	root.AddCommand(newConfigCmd(ctx))

	root.SilenceUsage = true
	root.SilenceErrors = true

	return root, ctx
}

// Execute runs the CLI entrypoint.
func Execute() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr, true))
}

// run executes the CLI and returns the process exit code. Signal handlers
// are only installed when installSignals is set.
func run(args []string, stdin io.Reader, stdout, stderr io.Writer, installSignals bool) int {
	root, ctx := newRootCommand()
	ctx.installSignals = installSignals
	root.SetArgs(args)
	root.SetIn(stdin)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.Execute()
	ctx.finish()

	var exitErr exitError
	switch {
	case err == nil:
		return 0
	case errors.As(err, &exitErr):
		return exitErr.code
	default:
		fmt.Fprintln(stderr, "error:", err)
		return 1
	}
}

type context struct {
	configFile     *string
	settings       *settings
	installSignals bool

	cfg         *config.File
	logger      zerolog.Logger
	coordinator *interrupt.Coordinator
	runner      *process.Runner
	stopSignals func()
}

type settings struct {
	LogLevel    string
	MetricsFile string
	Debug       bool
}

func settingsFromEnv() settings {
	return settings{
		LogLevel:    strings.TrimSpace(os.Getenv(envLogLevel)),
		MetricsFile: strings.TrimSpace(os.Getenv(envMetricsFile)),
	}
}

// loadConfig reads the explicit config file, or the one discovered in the
// working directory, or falls back to defaults.
func (c *context) loadConfig() (*config.File, error) {
	path := *c.configFile
	if path == "" {
		if wd, err := os.Getwd(); err == nil {
			path = config.Discover(wd)
		}
	}
	if path == "" {
		return config.Default(), nil
	}
	return config.Load(path)
}

func (c *context) setup(cmd *cobra.Command) error {
	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	if c.settings.LogLevel != "" {
		cfg.Logging.Level = strings.ToLower(c.settings.LogLevel)
	}
	if c.settings.Debug {
		cfg.Logging.Level = "debug"
	}
	if c.settings.MetricsFile != "" {
		cfg.Metrics.Textfile = c.settings.MetricsFile
	}
	logCfg := cfg.LoggingConfig()
	if err := logCfg.Validate(); err != nil {
		return fmt.Errorf("%s: %w", envLogLevel, err)
	}
	c.cfg = cfg

	logOut := cmd.ErrOrStderr()
	if strings.ToLower(logCfg.Output) == logging.OutputStdout {
		logOut = cmd.OutOrStdout()
	}
	c.logger = logging.NewWithWriter(logCfg, logOut)
	logging.SetDefault(c.logger)

	c.coordinator = interrupt.New(
		interrupt.WithLogger(c.logger),
		interrupt.WithNoticeInterval(cfg.Interrupt.NoticeInterval.Duration),
	)
	c.coordinator.OnShutdown(c.writeMetrics)
	if c.installSignals {
		c.stopSignals = c.coordinator.Install()
	}

	c.runner = process.New(
		process.WithLogger(c.logger),
		process.WithCoordinator(c.coordinator),
		process.WithStdio(cmd.InOrStdin(), cmd.OutOrStdout(), cmd.ErrOrStderr()),
	)
	return nil
}

func (c *context) finish() {
	if c.stopSignals != nil {
		c.stopSignals()
		c.stopSignals = nil
	}
	c.writeMetrics()
}

func (c *context) writeMetrics() {
	if c.cfg == nil || c.cfg.Metrics.Textfile == "" {
		return
	}
	if err := metrics.WriteTextfile(c.cfg.Metrics.Textfile); err != nil {
		c.logger.Warn().Err(err).Str("path", c.cfg.Metrics.Textfile).Msg("write metrics textfile")
	}
}
