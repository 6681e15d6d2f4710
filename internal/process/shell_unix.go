//go:build !windows

package process

import "os/exec"

func shellCommand(cmdLine string) *exec.Cmd {
	return exec.Command("/bin/sh", "-c", cmdLine)
}

// dumpSuffix prints token and then the full environment once the setup
// command has succeeded.
func dumpSuffix(token string) string {
	return " && echo " + token + " && env"
}
