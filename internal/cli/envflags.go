package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Paintersrp/procwarden/internal/environment"
)

// envFlags are shared by every command that starts a child.
type envFlags struct {
	set        []string
	pathPrefix string
	inherit    bool
	setup      string
}

func (f *envFlags) register(cmd *cobra.Command) {
	// Everything after the command name belongs to the child.
	cmd.Flags().SetInterspersed(false)
	cmd.Flags().StringArrayVar(&f.set, "set", nil, "Set a variable in the child environment (NAME=VALUE, repeatable)")
	cmd.Flags().StringVar(&f.pathPrefix, "path-prefix", "", "Directories placed ahead of the system search path")
	cmd.Flags().BoolVar(&f.inherit, "inherit", false, "Pass the current environment through unchanged")
	cmd.Flags().StringVar(&f.setup, "setup", "", "Run this command first and use the environment it leaves behind")
}

func parseAssignments(values []string) (map[string]string, error) {
	if len(values) == 0 {
		return nil, nil
	}
	out := make(map[string]string, len(values))
	for _, kv := range values {
		sep := strings.IndexByte(kv, '=')
		if sep <= 0 {
			return nil, fmt.Errorf("invalid --set value %q (expected NAME=VALUE)", kv)
		}
		out[kv[:sep]] = kv[sep+1:]
	}
	return out, nil
}

// environment resolves the child environment for a command. A nil result
// means inherit.
func (c *context) environment(f envFlags) (*environment.Environment, error) {
	extra, err := parseAssignments(f.set)
	if err != nil {
		return nil, err
	}
	if f.inherit {
		if len(extra) > 0 || f.pathPrefix != "" {
			return nil, fmt.Errorf("--inherit cannot be combined with --set or --path-prefix")
		}
		return c.withSetup(nil, f.setup), nil
	}
	env, err := c.cfg.ChildEnvironment(extra, f.pathPrefix)
	if err != nil {
		return nil, fmt.Errorf("--set and --path-prefix cannot be used: %w", err)
	}
	return c.withSetup(env, f.setup), nil
}

func (c *context) withSetup(env *environment.Environment, setup string) *environment.Environment {
	if setup == "" {
		return env
	}
	return c.runner.ModifyEnvironment(setup, env)
}

func commandLine(args []string) string {
	return strings.Join(args, " ")
}
