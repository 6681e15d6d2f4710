package cli

import (
	"github.com/spf13/cobra"
)

func newSpawnCmd(ctx *context) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "spawn -- <command line>",
		Short: "Start a command in the background with the current environment and return",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx.runner.ExecuteNoWait(commandLine(args))
			return nil
		},
	}
	cmd.Flags().SetInterspersed(false)
	return cmd
}
