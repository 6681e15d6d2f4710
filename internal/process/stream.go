package process

import (
	"bytes"
	"errors"
	"io"
	"time"

	"github.com/Paintersrp/procwarden/internal/environment"
	"github.com/Paintersrp/procwarden/internal/interrupt"
	"github.com/Paintersrp/procwarden/internal/metrics"
)

// StreamErrorExitCode is returned when the child's output could not be read
// to the end. Output delivered before the failure is not retracted.
const StreamErrorExitCode = -1

// Stream runs cmdLine with stdout and stderr merged and calls onChunk with
// each block read, in order, on the calling goroutine. The slice passed to
// onChunk is reused after it returns. Stream returns the child's exit code.
func (r *Runner) Stream(cmdLine string, env *environment.Environment, onChunk func([]byte)) int {
	code, _ := r.stream(cmdLine, env, onChunk)
	return code
}

// stream reports whether a child was spawned alongside its exit code.
func (r *Runner) stream(cmdLine string, env *environment.Environment, onChunk func([]byte)) (int, bool) {
	started := time.Now()
	if !r.coordinator.BeginSpawn() {
		return interrupt.ExitCode, false
	}
	h, pipes := r.SpawnWithPipes(cmdLine, env)
	code := r.drain(h, pipes, onChunk)
	r.coordinator.EndSpawn()

	r.logger.Debug().
		Int("exit_code", code).
		Int64("us", time.Since(started).Microseconds()).
		Msg("stream returned")
	return code, true
}

func (r *Runner) drain(h *Handle, pipes *Pipes, onChunk func([]byte)) int {
	_ = pipes.Stdin.Close()

	var readErr error
	buf := make([]byte, r.chunkSize)
	for {
		n, err := pipes.Output.Read(buf)
		if n > 0 {
			onChunk(buf[:n])
		}
		if err != nil {
			if !errors.Is(err, io.EOF) {
				readErr = err
			}
			break
		}
	}
	_ = pipes.Output.Close()

	code := h.Wait()
	if readErr != nil {
		r.logger.Error().Err(readErr).Int("exit_code", code).Msg("reading child output failed")
		metrics.StreamFailed(h.mode.String())
		return StreamErrorExitCode
	}
	return code
}

// StreamLines runs cmdLine like Stream and calls onLine once per line of
// output, without the terminating '\n'. The remainder after the last
// terminator is always delivered as a final line, even when empty. When no
// child is spawned because an interrupt is pending, onLine is never called.
func (r *Runner) StreamLines(cmdLine string, env *environment.Environment, onLine func(string)) int {
	lines := NewLineSplitter(onLine)
	code, spawned := r.stream(cmdLine, env, lines.Write)
	if spawned {
		lines.Flush()
	}
	return code
}

// Capture runs cmdLine and returns its exit code and combined output.
func (r *Runner) Capture(cmdLine string, env *environment.Environment) (int, []byte) {
	var out bytes.Buffer
	code := r.Stream(cmdLine, env, func(chunk []byte) {
		out.Write(chunk)
	})
	return code, out.Bytes()
}

// LineSplitter turns arbitrary chunks of output into lines.
type LineSplitter struct {
	buf    []byte
	emit   func(string)
	closed bool
}

// NewLineSplitter returns a splitter delivering lines to emit.
func NewLineSplitter(emit func(string)) *LineSplitter {
	return &LineSplitter{emit: emit}
}

// Write appends chunk and emits every line it completes.
func (s *LineSplitter) Write(chunk []byte) {
	scanFrom := len(s.buf)
	s.buf = append(s.buf, chunk...)
	for {
		i := bytes.IndexByte(s.buf[scanFrom:], '\n')
		if i < 0 {
			return
		}
		end := scanFrom + i
		s.emit(string(s.buf[:end]))
		s.buf = s.buf[end+1:]
		scanFrom = 0
	}
}

// Flush emits the buffered remainder as the last line. Later calls are
// no-ops.
func (s *LineSplitter) Flush() {
	if s.closed {
		return
	}
	s.closed = true
	s.emit(string(s.buf))
	s.buf = nil
}
