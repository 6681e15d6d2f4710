//go:build windows

package process

import (
	"os"
	"os/exec"
	"path/filepath"
	"syscall"
)

func shellCommand(cmdLine string) *exec.Cmd {
	comspec := os.Getenv("ComSpec")
	if comspec == "" {
		comspec = filepath.Join(os.Getenv("SystemRoot"), "System32", "cmd.exe")
	}
	cmd := exec.Command(comspec)
	// CmdLine replaces the whole command line, argv[0] included. cmd.exe
	// strips the outer quotes and parses the rest itself.
	cmd.SysProcAttr = &syscall.SysProcAttr{
		CmdLine: `"` + comspec + `" /c "` + cmdLine + `"`,
	}
	return cmd
}

// dumpSuffix prints token and then the full environment once the setup
// command has succeeded. No space before && keeps echo from emitting a
// trailing blank.
func dumpSuffix(token string) string {
	return " && echo " + token + "&& set"
}
