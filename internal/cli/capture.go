package cli

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/Paintersrp/procwarden/internal/cliutil"
	"github.com/Paintersrp/procwarden/internal/logging"
)

func newCaptureCmd(ctx *context) *cobra.Command {
	var (
		flags  envFlags
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "capture [flags] -- <command line>",
		Short: "Run a command and print its combined output once it exits",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := ctx.environment(flags)
			if err != nil {
				return err
			}
			cmdLine := commandLine(args)
			code, output := ctx.runner.Capture(cmdLine, env)
			if asJSON {
				cliutil.EncodeResult(json.NewEncoder(cmd.OutOrStdout()), cmd.ErrOrStderr(), cliutil.ResultRecord{
					Command:  logging.RedactSecrets(cmdLine),
					ExitCode: code,
					Output:   string(output),
				})
			} else if _, err := cmd.OutOrStdout().Write(output); err != nil {
				return err
			}
			return exitWith(code)
		},
	}
	flags.register(cmd)
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print a JSON record with the exit code and output")
	return cmd
}
