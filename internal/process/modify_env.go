package process

import (
	"strings"

	"github.com/google/uuid"

	"github.com/Paintersrp/procwarden/internal/environment"
	"github.com/Paintersrp/procwarden/internal/logging"
)

// ModifyEnvironment runs a setup command (for example a toolchain's
// vcvars script) and returns the complete environment it leaves behind.
// The setup command must exit with status zero.
func (r *Runner) ModifyEnvironment(cmdLine string, env *environment.Environment) *environment.Environment {
	sentinel := newSentinel()
	code, output := r.Capture(cmdLine+dumpSuffix(sentinel), env)
	if code != 0 {
		r.fatalf(nil, "environment setup command %q exited with code %d", logging.RedactSecrets(cmdLine), code)
	}

	derived, err := environment.ParseDump(string(output), sentinel, environment.DumpNewline)
	if err != nil {
		r.fatalf(err, "could not extract environment from %q", logging.RedactSecrets(cmdLine))
	}
	r.logger.Debug().Int("vars", derived.Len()).Msg("environment extracted")
	return derived
}

func newSentinel() string {
	return "procwarden" + strings.ReplaceAll(uuid.NewString(), "-", "")
}
