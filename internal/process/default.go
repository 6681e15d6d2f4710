package process

import "github.com/Paintersrp/procwarden/internal/environment"

// Execute runs cmdLine with the default Runner.
func Execute(cmdLine string, env *environment.Environment) int {
	return Default().Execute(cmdLine, env)
}

// ExecuteNoWait starts cmdLine in the background with the default Runner.
func ExecuteNoWait(cmdLine string) {
	Default().ExecuteNoWait(cmdLine)
}

// Capture runs cmdLine with the default Runner and returns its output.
func Capture(cmdLine string, env *environment.Environment) (int, []byte) {
	return Default().Capture(cmdLine, env)
}

// Stream runs cmdLine with the default Runner, delivering output chunks.
func Stream(cmdLine string, env *environment.Environment, onChunk func([]byte)) int {
	return Default().Stream(cmdLine, env, onChunk)
}

// StreamLines runs cmdLine with the default Runner, delivering output lines.
func StreamLines(cmdLine string, env *environment.Environment, onLine func(string)) int {
	return Default().StreamLines(cmdLine, env, onLine)
}

// ModifyEnvironment extracts the environment left by a setup command using
// the default Runner.
func ModifyEnvironment(cmdLine string, env *environment.Environment) *environment.Environment {
	return Default().ModifyEnvironment(cmdLine, env)
}
