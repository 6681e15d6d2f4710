package cliutil

import (
	"encoding/json"
	"fmt"
	"io"
	"regexp"
	"strings"
	"time"
)

// SourceChild marks records carrying output produced by a child process.
const SourceChild = "child"

// LineRecord is one line of child output ready for JSON encoding.
type LineRecord struct {
	Timestamp time.Time `json:"ts"`
	Line      int       `json:"line"`
	Level     string    `json:"level"`
	Message   string    `json:"msg"`
	Source    string    `json:"source"`
}

// NewLineRecord wraps a line of output. The level is inferred from the
// first error/warn/info token in the text and defaults to info.
func NewLineRecord(index int, text string) LineRecord {
	level := inferLogLevel(text)
	if level == "" {
		level = "info"
	}
	return LineRecord{
		Line:    index,
		Level:   level,
		Message: strings.TrimSuffix(text, "\r"),
		Source:  SourceChild,
	}
}

// ResultRecord summarises a finished child.
type ResultRecord struct {
	Command  string `json:"command"`
	ExitCode int    `json:"exit_code"`
	Output   string `json:"output,omitempty"`
	Lines    int    `json:"lines,omitempty"`
}

var levelTokenPattern = regexp.MustCompile(`(?i)\b(error|warn|warning|info)\b`)

func inferLogLevel(message string) string {
	matches := levelTokenPattern.FindStringSubmatch(message)
	if len(matches) < 2 {
		return ""
	}
	switch strings.ToLower(matches[1]) {
	case "error":
		return "error"
	case "warn", "warning":
		return "warn"
	case "info":
		return "info"
	default:
		return ""
	}
}

// EncodeLine encodes a line record, reporting errors to stderr if needed.
func EncodeLine(enc *json.Encoder, stderr io.Writer, index int, text string) {
	if enc == nil {
		return
	}
	record := NewLineRecord(index, text)
	record.Timestamp = time.Now()
	if err := enc.Encode(&record); err != nil {
		fmt.Fprintf(stderr, "error: encode line: %v\n", err)
	}
}

// EncodeResult encodes a result record, reporting errors to stderr if needed.
func EncodeResult(enc *json.Encoder, stderr io.Writer, record ResultRecord) {
	if enc == nil {
		return
	}
	if err := enc.Encode(&record); err != nil {
		fmt.Fprintf(stderr, "error: encode result: %v\n", err)
	}
}
