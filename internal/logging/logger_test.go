package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNewAppendsToLogFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "homework.log")
	logger, err := New(path)
	if err != nil {
		t.Fatalf("new logger: %v", err)
	}
	logger.Printf("first %d\n", 1)
	logger.With("transport").Printf("second")
	if err := logger.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d: %q", len(lines), data)
	}
	if !strings.HasSuffix(lines[0], "] first 1") {
		t.Fatalf("unexpected first line %q", lines[0])
	}
	if !strings.HasSuffix(lines[1], "] transport: second") {
		t.Fatalf("unexpected second line %q", lines[1])
	}
}

func TestNilLoggerIsSafe(t *testing.T) {
	var logger *Logger
	logger.Printf("ignored")
	if logger.With("x") != nil {
		t.Fatalf("expected nil derived logger")
	}
	if err := logger.Close(); err != nil {
		t.Fatalf("close nil: %v", err)
	}
}

func TestNewWriter(t *testing.T) {
	var buf bytes.Buffer
	NewWriter(&buf).Printf("stub: listening on %s", "127.0.0.1:1")
	if !strings.Contains(buf.String(), "stub: listening on 127.0.0.1:1") {
		t.Fatalf("unexpected output %q", buf.String())
	}
}
