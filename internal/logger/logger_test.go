package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func captureJSON(t *testing.T, detailed bool) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	InitWithWriter(LogConfig{Level: "DEBUG", Format: "json", DetailedLogging: detailed}, &buf)
	return &buf
}

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var m map[string]any
		if err := json.Unmarshal([]byte(line), &m); err != nil {
			t.Fatalf("invalid JSON log line %q: %v", line, err)
		}
		out = append(out, m)
	}
	return out
}

func TestParseLogLevel(t *testing.T) {
	tests := map[string]string{
		"debug": "DEBUG",
		"INFO":  "INFO",
		"Warn":  "WARN",
		"error": "ERROR",
		"bogus": "INFO",
	}
	for in, want := range tests {
		if got := parseLogLevel(in).String(); got != want {
			t.Errorf("parseLogLevel(%q) = %s, want %s", in, got, want)
		}
	}
}

func TestDocumentEvent(t *testing.T) {
	buf := captureJSON(t, false)

	Document(context.Background(), "downloaded", "https://example.com/a.pdf", "attempts", 2)

	lines := decodeLines(t, buf)
	if len(lines) != 1 {
		t.Fatalf("Expected 1 log line, got %d", len(lines))
	}
	rec := lines[0]
	if rec["type"] != "DOCUMENT" {
		t.Errorf("Expected type DOCUMENT, got %v", rec["type"])
	}
	if rec["stage"] != "downloaded" {
		t.Errorf("Expected stage downloaded, got %v", rec["stage"])
	}
	if rec["attempts"] != float64(2) {
		t.Errorf("Expected attempts 2, got %v", rec["attempts"])
	}
}

func TestDebugRequiresDetailedLogging(t *testing.T) {
	buf := captureJSON(t, false)
	Debug(context.Background(), "hidden")
	if buf.Len() != 0 {
		t.Errorf("Expected no debug output, got %s", buf.String())
	}

	buf = captureJSON(t, true)
	Debug(context.Background(), "shown")
	lines := decodeLines(t, buf)
	if len(lines) != 1 {
		t.Fatalf("Expected 1 log line, got %d", len(lines))
	}
	if _, ok := lines[0]["source"]; !ok {
		t.Error("Expected source group with detailed logging")
	}
}

func TestErrorWithErrAndRunSummary(t *testing.T) {
	buf := captureJSON(t, false)

	ErrorWithErr(context.Background(), "download failed", errors.New("boom"), "url", "u")
	Run(context.Background(), "run-1", 5, 3)

	lines := decodeLines(t, buf)
	if len(lines) != 2 {
		t.Fatalf("Expected 2 log lines, got %d", len(lines))
	}
	if lines[0]["error"] != "boom" {
		t.Errorf("Expected error boom, got %v", lines[0]["error"])
	}
	if lines[1]["dropped"] != float64(2) {
		t.Errorf("Expected dropped 2, got %v", lines[1]["dropped"])
	}
}

func TestOperationTimer(t *testing.T) {
	buf := captureJSON(t, true)

	op := StartOperation(context.Background(), "extract", "url", "u")
	if op.GetContext() == nil {
		t.Fatal("Expected operation context")
	}
	op.EndWithError(errors.New("corrupt"))

	lines := decodeLines(t, buf)
	last := lines[len(lines)-1]
	if last["msg"] != "Operation failed" {
		t.Errorf("Expected Operation failed, got %v", last["msg"])
	}
	if last["operation"] != "extract" {
		t.Errorf("Expected operation extract, got %v", last["operation"])
	}
}
