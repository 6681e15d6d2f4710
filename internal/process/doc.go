// Package process launches external programs through the platform shell and
// reports their exit codes, optionally capturing or streaming their combined
// output.
//
// Every blocking child is registered with an interrupt.Coordinator, so an
// interrupt never ends the program while a child that was already started is
// still running, and children are never killed by this package. On POSIX
// systems a terminal Ctrl-C reaches the child directly because it shares the
// caller's process group; on Windows the console delivers the event to every
// attached process in the same way.
//
// Infrastructure failures (the shell cannot be started, pipes cannot be set
// up, a setup command's environment cannot be extracted) terminate the
// program with a diagnostic. A child that runs and fails is reported through
// its exit code only.
package process
