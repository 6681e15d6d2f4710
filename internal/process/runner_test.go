package process

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	stdruntime "runtime"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/Paintersrp/procwarden/internal/environment"
	"github.com/Paintersrp/procwarden/internal/interrupt"
)

type exitCalled struct{ code int }

func skipOnWindows(t *testing.T) {
	t.Helper()
	if stdruntime.GOOS == "windows" {
		t.Skip("process tests use /bin/sh")
	}
}

func newTestRunner(t *testing.T, opts ...Option) (*Runner, *interrupt.Coordinator, *bytes.Buffer) {
	t.Helper()
	coord := interrupt.New(
		interrupt.WithExit(func(int) {}),
		interrupt.WithPark(func() {}),
		interrupt.WithLogger(zerolog.Nop()),
	)
	var stdout bytes.Buffer
	base := []Option{
		WithLogger(zerolog.Nop()),
		WithCoordinator(coord),
		WithStdio(strings.NewReader(""), &stdout, &stdout),
		WithExit(func(code int) { panic(exitCalled{code}) }),
	}
	return New(append(base, opts...)...), coord, &stdout
}

// expectFatal runs fn and reports whether it went through the fatal path.
func expectFatal(t *testing.T, fn func()) {
	t.Helper()
	defer func() {
		r := recover()
		ec, ok := r.(exitCalled)
		if !ok {
			t.Fatalf("expected fatal exit, recovered %v", r)
		}
		if ec.code != 1 {
			t.Fatalf("fatal exit code = %d, want 1", ec.code)
		}
	}()
	fn()
}

func testEnv(extra map[string]string) *environment.Environment {
	return environment.NewBuilder().Build(extra, "")
}

func TestExecuteReturnsExitCode(t *testing.T) {
	skipOnWindows(t)
	r, coord, _ := newTestRunner(t)

	if code := r.Execute("exit 42", testEnv(nil)); code != 42 {
		t.Fatalf("exit code = %d, want 42", code)
	}
	if code := r.Execute("true", testEnv(nil)); code != 0 {
		t.Fatalf("exit code = %d, want 0", code)
	}
	if coord.State() != 0 {
		t.Fatalf("coordinator state = %d after execute, want 0", coord.State())
	}
}

func TestExecuteUsesCallerStreams(t *testing.T) {
	skipOnWindows(t)
	r, _, stdout := newTestRunner(t)

	if code := r.Execute("echo out; echo err >&2", testEnv(nil)); code != 0 {
		t.Fatalf("exit code = %d", code)
	}
	got := stdout.String()
	if !strings.Contains(got, "out\n") || !strings.Contains(got, "err\n") {
		t.Fatalf("unexpected output %q", got)
	}
}

func TestExecuteSignaledChild(t *testing.T) {
	skipOnWindows(t)
	r, _, _ := newTestRunner(t)

	if code := r.Execute("kill -TERM $$", testEnv(nil)); code != 143 {
		t.Fatalf("exit code = %d, want 143", code)
	}
}

func TestExecuteAfterInterruptDoesNotSpawn(t *testing.T) {
	skipOnWindows(t)
	r, coord, _ := newTestRunner(t)
	dir := t.TempDir()
	marker := filepath.Join(dir, "ran")

	coord.HandleInterrupt()
	if code := r.Execute("touch "+marker, testEnv(nil)); code != interrupt.ExitCode {
		t.Fatalf("exit code = %d, want %d", code, interrupt.ExitCode)
	}
	if _, err := os.Stat(marker); !os.IsNotExist(err) {
		t.Fatalf("child ran after interrupt: %v", err)
	}
}

func TestCaptureReturnsExactOutput(t *testing.T) {
	skipOnWindows(t)
	r, coord, _ := newTestRunner(t)

	code, out := r.Capture(`printf 'hello\nworld'`, testEnv(nil))
	if code != 0 {
		t.Fatalf("exit code = %d", code)
	}
	if string(out) != "hello\nworld" {
		t.Fatalf("output = %q", out)
	}
	if coord.State() != 0 {
		t.Fatalf("coordinator state = %d, want 0", coord.State())
	}
}

func TestCaptureMergesStderr(t *testing.T) {
	skipOnWindows(t)
	r, _, _ := newTestRunner(t)

	code, out := r.Capture("echo a; echo b >&2; exit 3", testEnv(nil))
	if code != 3 {
		t.Fatalf("exit code = %d, want 3", code)
	}
	if string(out) != "a\nb\n" {
		t.Fatalf("output = %q", out)
	}
}

func TestCaptureClosesChildStdin(t *testing.T) {
	skipOnWindows(t)
	r, _, _ := newTestRunner(t)

	done := make(chan struct{})
	var code int
	var out []byte
	go func() {
		code, out = r.Capture("cat", testEnv(nil))
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(10 * time.Second):
		t.Fatal("cat did not see end of input")
	}
	if code != 0 || len(out) != 0 {
		t.Fatalf("code=%d output=%q", code, out)
	}
}

func TestCaptureAppliesEnvironment(t *testing.T) {
	skipOnWindows(t)
	r, _, _ := newTestRunner(t)
	t.Setenv("PROCWARDEN_TEST_LEAK", "leaked")

	env := testEnv(map[string]string{"PROCWARDEN_TEST_VALUE": "applied"})
	code, out := r.Capture(`printf '%s|%s' "$PROCWARDEN_TEST_VALUE" "$PROCWARDEN_TEST_LEAK"`, env)
	if code != 0 {
		t.Fatalf("exit code = %d", code)
	}
	if string(out) != "applied|" {
		t.Fatalf("output = %q", out)
	}
}

func TestStreamDeliversChunksInOrder(t *testing.T) {
	skipOnWindows(t)
	r, _, _ := newTestRunner(t, WithChunkSize(7))

	var want strings.Builder
	for i := 1; i <= 500; i++ {
		fmt.Fprintf(&want, "%d\n", i)
	}

	var got bytes.Buffer
	chunks := 0
	code := r.Stream("i=1; while [ $i -le 500 ]; do echo $i; i=$((i+1)); done", testEnv(nil), func(b []byte) {
		if len(b) > 7 {
			t.Errorf("chunk of %d bytes exceeds chunk size", len(b))
		}
		chunks++
		got.Write(b)
	})
	if code != 0 {
		t.Fatalf("exit code = %d", code)
	}
	if got.String() != want.String() {
		t.Fatalf("streamed output differs from expected")
	}
	if chunks < 2 {
		t.Fatalf("expected several chunks, got %d", chunks)
	}
}

func TestStreamLines(t *testing.T) {
	skipOnWindows(t)
	r, _, _ := newTestRunner(t)

	cases := []struct {
		name string
		cmd  string
		want []string
	}{
		{name: "unterminated", cmd: `printf 'hello\nworld'`, want: []string{"hello", "world"}},
		{name: "terminated", cmd: `printf 'hello\nworld\n'`, want: []string{"hello", "world", ""}},
		{name: "no output", cmd: "true", want: []string{""}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var got []string
			code := r.StreamLines(tc.cmd, testEnv(nil), func(line string) {
				got = append(got, line)
			})
			if code != 0 {
				t.Fatalf("exit code = %d", code)
			}
			if strings.Join(got, "|") != strings.Join(tc.want, "|") || len(got) != len(tc.want) {
				t.Fatalf("lines = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestModifyEnvironment(t *testing.T) {
	skipOnWindows(t)
	r, coord, _ := newTestRunner(t)

	derived := r.ModifyEnvironment("export PROCWARDEN_DERIVED=from-setup; echo noise", testEnv(nil))
	if v, ok := derived.Lookup("PROCWARDEN_DERIVED"); !ok || v != "from-setup" {
		t.Fatalf("PROCWARDEN_DERIVED = %q, %v", v, ok)
	}
	if _, ok := derived.Lookup("PATH"); !ok {
		t.Fatal("derived environment lost PATH")
	}
	if _, ok := derived.Lookup("noise"); ok {
		t.Fatal("output before the sentinel leaked into the environment")
	}
	if coord.State() != 0 {
		t.Fatalf("coordinator state = %d, want 0", coord.State())
	}

	code, out := r.Capture(`printf '%s' "$PROCWARDEN_DERIVED"`, derived)
	if code != 0 || string(out) != "from-setup" {
		t.Fatalf("derived env not applied: code=%d output=%q", code, out)
	}
}

func TestModifyEnvironmentFailingSetupIsFatal(t *testing.T) {
	skipOnWindows(t)
	r, _, _ := newTestRunner(t)

	expectFatal(t, func() {
		r.ModifyEnvironment("exit 3", testEnv(nil))
	})
}

func TestUnstartableShellIsFatal(t *testing.T) {
	skipOnWindows(t)
	r, _, _ := newTestRunner(t, WithShell(func(cmdLine string) *exec.Cmd {
		return exec.Command(filepath.Join(t.TempDir(), "missing-shell"), "-c", cmdLine)
	}))

	expectFatal(t, func() {
		r.Execute("true", testEnv(nil))
	})
	expectFatal(t, func() {
		r.Capture("true", testEnv(nil))
	})
}

func TestExecuteNoWaitStartsDetachedChild(t *testing.T) {
	skipOnWindows(t)
	r, coord, _ := newTestRunner(t)
	marker := filepath.Join(t.TempDir(), "detached")

	r.ExecuteNoWait("touch " + marker)
	if coord.State() != 0 {
		t.Fatalf("detached child registered with coordinator: state %d", coord.State())
	}

	deadline := time.Now().Add(10 * time.Second)
	for {
		if _, err := os.Stat(marker); err == nil {
			return
		}
		if time.Now().After(deadline) {
			t.Fatal("detached child never ran")
		}
		time.Sleep(20 * time.Millisecond)
	}
}

func TestModeString(t *testing.T) {
	if ModeRedirected.String() != "redirected" || Mode(9).String() != "mode(9)" {
		t.Fatalf("unexpected mode names %q %q", ModeRedirected, Mode(9))
	}
}

func TestStreamLinesAfterInterruptEmitsNothing(t *testing.T) {
	skipOnWindows(t)
	r, coord, _ := newTestRunner(t)

	coord.HandleInterrupt()
	var got []string
	code := r.StreamLines("echo never", testEnv(nil), func(line string) {
		got = append(got, line)
	})
	if code != interrupt.ExitCode {
		t.Fatalf("exit code = %d, want %d", code, interrupt.ExitCode)
	}
	if len(got) != 0 {
		t.Fatalf("lines emitted without a child: %q", got)
	}
}

func TestDrainReadFailureReapsChild(t *testing.T) {
	skipOnWindows(t)
	r, _, _ := newTestRunner(t)

	h, pipes := r.SpawnWithPipes("echo first; sleep 0.2; echo second", testEnv(nil))
	var out bytes.Buffer
	code := r.drain(h, pipes, func(chunk []byte) {
		out.Write(chunk)
		// Closing our end makes the next Read fail with os.ErrClosed.
		_ = pipes.Output.Close()
	})
	if code != StreamErrorExitCode {
		t.Fatalf("exit code = %d, want %d", code, StreamErrorExitCode)
	}
	if !strings.HasPrefix(out.String(), "first") || strings.Contains(out.String(), "second") {
		t.Fatalf("delivered output = %q", out.String())
	}
	if !h.done || h.cmd.ProcessState == nil {
		t.Fatal("child was not waited for after the read failure")
	}
}
