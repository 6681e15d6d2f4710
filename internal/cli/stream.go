package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Paintersrp/procwarden/internal/cliutil"
	"github.com/Paintersrp/procwarden/internal/logging"
)

func newStreamCmd(ctx *context) *cobra.Command {
	var (
		flags  envFlags
		lines  bool
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "stream [flags] -- <command line>",
		Short: "Run a command and relay its combined output as it is produced",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := ctx.environment(flags)
			if err != nil {
				return err
			}
			cmdLine := commandLine(args)
			out := cmd.OutOrStdout()

			if asJSON {
				enc := json.NewEncoder(out)
				index := 0
				code := ctx.runner.StreamLines(cmdLine, env, func(line string) {
					cliutil.EncodeLine(enc, cmd.ErrOrStderr(), index, line)
					index++
				})
				cliutil.EncodeResult(enc, cmd.ErrOrStderr(), cliutil.ResultRecord{
					Command:  logging.RedactSecrets(cmdLine),
					ExitCode: code,
					Lines:    index,
				})
				return exitWith(code)
			}

			if lines {
				index := 0
				code := ctx.runner.StreamLines(cmdLine, env, func(line string) {
					fmt.Fprintf(out, "%4d | %s\n", index+1, line)
					index++
				})
				return exitWith(code)
			}

			var writeErr error
			code := ctx.runner.Stream(cmdLine, env, func(chunk []byte) {
				if writeErr == nil {
					_, writeErr = out.Write(chunk)
				}
			})
			if writeErr != nil {
				ctx.logger.Warn().Err(writeErr).Msg("relaying child output")
			}
			return exitWith(code)
		},
	}
	flags.register(cmd)
	cmd.Flags().BoolVar(&lines, "lines", false, "Number each line of output")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit one JSON record per line, then a result record")
	return cmd
}
