package environment

import (
	"errors"
	"strings"
)

// ErrSentinelNotFound is returned when a variable dump does not contain
// the expected sentinel line.
var ErrSentinelNotFound = errors.New("environment: sentinel not found in command output")

// ParseDump extracts the NAME=VALUE lines printed after sentinel in output.
// The sentinel must appear on its own, immediately followed by newline.
// Parsing stops at the first line without '=' or at a trailing fragment
// with no terminator. Dumps are line oriented, so a value containing
// newline ends the block at its first continuation line that lacks '='
// and the variables after it are not recovered.
func ParseDump(output, sentinel, newline string) (*Environment, error) {
	marker := sentinel + newline
	start := strings.Index(output, marker)
	if sentinel == "" || start < 0 {
		return nil, ErrSentinelNotFound
	}
	rest := output[start+len(marker):]

	env := newEnvironment(foldCase)
	for {
		end := strings.Index(rest, newline)
		if end < 0 {
			break
		}
		line := rest[:end]
		sep := strings.IndexByte(line, '=')
		if sep < 0 {
			break
		}
		if sep > 0 {
			env.set(line[:sep], line[sep+1:])
		}
		rest = rest[end+len(newline):]
	}
	return env, nil
}
