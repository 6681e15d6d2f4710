package cli

import (
	"github.com/spf13/cobra"
)

func newExecCmd(ctx *context) *cobra.Command {
	var flags envFlags
	cmd := &cobra.Command{
		Use:   "exec [flags] -- <command line>",
		Short: "Run a command on the terminal and exit with its status",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := ctx.environment(flags)
			if err != nil {
				return err
			}
			return exitWith(ctx.runner.Execute(commandLine(args), env))
		},
	}
	flags.register(cmd)
	return cmd
}
