package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Paintersrp/procwarden/internal/environment"
)

func newEnvCmd(ctx *context) *cobra.Command {
	var (
		set        []string
		pathPrefix string
		clean      bool
		asJSON     bool
	)
	cmd := &cobra.Command{
		Use:   "env",
		Short: "Print the environment children would receive",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var env *environment.Environment
			if clean {
				if len(set) > 0 || pathPrefix != "" {
					return fmt.Errorf("--clean cannot be combined with --set or --path-prefix")
				}
				env = environment.Clean()
			} else {
				extra, err := parseAssignments(set)
				if err != nil {
					return err
				}
				env, err = ctx.cfg.ChildEnvironment(extra, pathPrefix)
				if err != nil {
					return fmt.Errorf("--set and --path-prefix cannot be used: %w", err)
				}
			}
			if env.Inherit() {
				fmt.Fprintln(cmd.ErrOrStderr(), "children inherit the current environment unchanged")
				return nil
			}
			return printEnvironment(cmd.OutOrStdout(), env, asJSON)
		},
	}
	cmd.Flags().StringArrayVar(&set, "set", nil, "Set a variable (NAME=VALUE, repeatable)")
	cmd.Flags().StringVar(&pathPrefix, "path-prefix", "", "Directories placed ahead of the system search path")
	cmd.Flags().BoolVar(&clean, "clean", false, "Print the shared clean baseline, ignoring configured variables")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print a JSON object")

	cmd.AddCommand(newEnvDiffCmd(ctx))
	return cmd
}

func printEnvironment(w io.Writer, env *environment.Environment, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(env.Map())
	}
	for _, name := range env.Names() {
		value, _ := env.Lookup(name)
		if _, err := fmt.Fprintf(w, "%s=%s\n", name, value); err != nil {
			return err
		}
	}
	return nil
}

func newEnvDiffCmd(ctx *context) *cobra.Command {
	var flags envFlags
	cmd := &cobra.Command{
		Use:   "diff [flags] -- <setup command line>",
		Short: "Show the variables a setup command adds, changes or removes",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if flags.setup != "" {
				return fmt.Errorf("--setup cannot be used with env diff")
			}
			base, err := ctx.environment(flags)
			if err != nil {
				return err
			}
			derived := ctx.runner.ModifyEnvironment(commandLine(args), base)
			if base.Inherit() {
				base = environment.Current()
			}
			for _, line := range diffEnvironments(base, derived) {
				fmt.Fprintln(cmd.OutOrStdout(), line)
			}
			return nil
		},
	}
	flags.register(cmd)
	return cmd
}

// diffEnvironments lists additions (+), changes (~) and removals (-),
// ordered by name.
func diffEnvironments(before, after *environment.Environment) []string {
	var out []string
	for _, name := range after.Names() {
		newValue, _ := after.Lookup(name)
		oldValue, existed := before.Lookup(name)
		switch {
		case !existed:
			out = append(out, fmt.Sprintf("+%s=%s", name, newValue))
		case oldValue != newValue:
			out = append(out, fmt.Sprintf("~%s=%s", name, newValue))
		}
	}
	for _, name := range before.Names() {
		if _, ok := after.Lookup(name); !ok {
			out = append(out, "-"+name)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return diffName(out[i]) < diffName(out[j])
	})
	return out
}

func diffName(line string) string {
	name := line[1:]
	if sep := strings.IndexByte(name, '='); sep >= 0 {
		name = name[:sep]
	}
	return name
}
