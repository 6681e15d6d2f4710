package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Paintersrp/procwarden/internal/config"
)

func newConfigCmd(ctx *context) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Work with procwarden configuration files",
		// Lint loads the file itself so load errors are its result.
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return nil
		},
	}
	cmd.AddCommand(newConfigLintCmd(ctx))
	return cmd
}

func newConfigLintCmd(ctx *context) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lint",
		Short: "Validate a configuration file and report suspicious settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := *ctx.configFile
			if path == "" {
				wd, err := os.Getwd()
				if err != nil {
					return err
				}
				path = config.Discover(wd)
				if path == "" {
					return fmt.Errorf("no configuration file found in %s", wd)
				}
			}

			doc, err := config.Load(path)
			if err != nil {
				return err
			}
			for _, warning := range doc.Warnings(nil) {
				fmt.Fprintf(cmd.ErrOrStderr(), "warning: %s\n", warning)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: OK\n", doc.Path)
			return nil
		},
	}
	return cmd
}
