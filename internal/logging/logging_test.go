package logging_test

import (
	"os"
	"strings"
	"testing"

	"moshpit/internal/logging"
)

func readFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	return string(data), err
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := logging.New(logging.Options{Format: "yaml"}); err == nil {
		t.Fatal("expected error for unknown format")
	}
}

func TestNewConsoleAndJSON(t *testing.T) {
	for _, format := range []string{"console", "json", ""} {
		logger, err := logging.New(logging.Options{Level: "debug", Format: format})
		if err != nil {
			t.Fatalf("New(%q): %v", format, err)
		}
		if logger == nil {
			t.Fatalf("New(%q) returned nil logger", format)
		}
	}
}

func TestFileOutput(t *testing.T) {
	path := t.TempDir() + "/logs/moshpit.log"
	logger, err := logging.New(logging.Options{Level: "info", Format: "console", OutputPaths: []string{path}})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	logger.Info("session opened", logging.String("path", "demo.mosh"))

	data, err := readFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if !strings.Contains(data, "session opened") || !strings.Contains(data, "demo.mosh") {
		t.Fatalf("log line missing content: %q", data)
	}
}

func TestComponentLoggerTagsLines(t *testing.T) {
	path := t.TempDir() + "/c.log"
	base, err := logging.New(logging.Options{Format: "console", OutputPaths: []string{path}})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	logging.NewComponentLogger(base, "preview").Info("ready")

	data, err := readFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if !strings.Contains(data, "[preview]") {
		t.Fatalf("component tag missing: %q", data)
	}
}

func TestNopLoggerIsSilent(t *testing.T) {
	logger := logging.NewNop()
	logger.Error("should vanish")
	if logger.Enabled(nil, 8) {
		t.Fatal("no-op logger must report disabled")
	}
}
