package environment

import (
	"errors"
	"reflect"
	"testing"
)

func TestParseDumpStopsAtMalformedLine(t *testing.T) {
	output := "setting up toolchain\r\n" +
		"token123\r\n" +
		"VAR1=A\r\n" +
		"VAR2=B\r\n" +
		"not a variable\r\n" +
		"VAR3=C\r\n"

	env, err := ParseDump(output, "token123", "\r\n")
	if err != nil {
		t.Fatalf("parse dump: %v", err)
	}
	want := map[string]string{"VAR1": "A", "VAR2": "B"}
	if got := env.Map(); !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestParseDumpMultiLineValueEndsBlock(t *testing.T) {
	output := "token123\n" +
		"BEFORE=1\n" +
		"MULTI=first line\n" +
		"second line\n" +
		"AFTER=2\n"

	env, err := ParseDump(output, "token123", "\n")
	if err != nil {
		t.Fatalf("parse dump: %v", err)
	}
	want := map[string]string{"BEFORE": "1", "MULTI": "first line"}
	if got := env.Map(); !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestParseDumpRequiresSentinelLine(t *testing.T) {
	tests := []struct {
		name   string
		output string
	}{
		{name: "missing", output: "VAR1=A\n"},
		{name: "not followed by newline", output: "echo token123& set"},
		{name: "empty", output: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseDump(tt.output, "token123", "\n"); !errors.Is(err, ErrSentinelNotFound) {
				t.Fatalf("expected ErrSentinelNotFound, got %v", err)
			}
		})
	}
}

func TestParseDumpSkipsEchoedCommandLine(t *testing.T) {
	// The command line containing the sentinel may be echoed before the
	// sentinel line itself is printed.
	output := "C:\\> setup.bat && echo token123&& set\ntoken123\nA=1\nB==2\n"

	env, err := ParseDump(output, "token123", "\n")
	if err != nil {
		t.Fatalf("parse dump: %v", err)
	}
	want := map[string]string{"A": "1", "B": "=2"}
	if got := env.Map(); !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestParseDumpIgnoresUnterminatedTail(t *testing.T) {
	env, err := ParseDump("token123\nA=1\nB=2", "token123", "\n")
	if err != nil {
		t.Fatalf("parse dump: %v", err)
	}
	if got := env.Names(); !reflect.DeepEqual(got, []string{"A"}) {
		t.Fatalf("expected only A, got %v", got)
	}
}

func TestParseDumpEmptyBlock(t *testing.T) {
	env, err := ParseDump("token123\n", "token123", "\n")
	if err != nil {
		t.Fatalf("parse dump: %v", err)
	}
	if env.Inherit() {
		t.Fatalf("expected an explicit, empty environment")
	}
	if env.Len() != 0 {
		t.Fatalf("expected no variables, got %v", env.Slice())
	}
}
