package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeTestConfig(t *testing.T) string {
	t.Helper()
	base := t.TempDir()
	cfgPath := filepath.Join(base, "config.toml")
	content := "[paths]\n" +
		"session_dir = \"" + filepath.Join(base, "sessions") + "\"\n" +
		"log_dir = \"" + filepath.Join(base, "logs") + "\"\n"
	if err := os.WriteFile(cfgPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return cfgPath
}

func runCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestConfigInitWritesSample(t *testing.T) {
	target := filepath.Join(t.TempDir(), "config.toml")
	out, err := runCommand(t, "config", "init", "--path", target)
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	if !strings.Contains(out, target) {
		t.Fatalf("output %q does not mention target", out)
	}
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("sample not written: %v", err)
	}

	if _, err := runCommand(t, "config", "init", "--path", target); err == nil {
		t.Fatal("second init should refuse to overwrite")
	}
}

func TestConfigShowRendersDefaults(t *testing.T) {
	out, err := runCommand(t, "config", "show", "--path", filepath.Join(t.TempDir(), "missing.toml"))
	if err != nil {
		t.Fatalf("config show: %v", err)
	}
	if !strings.Contains(out, "preview.default_quality") || !strings.Contains(out, "50") {
		t.Fatalf("output missing defaults:\n%s", out)
	}
}

func TestStatusCreatesAndReadsEmptySession(t *testing.T) {
	cfgPath := writeTestConfig(t)
	out, err := runCommand(t, "--config", cfgPath, "status", "scratch")
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if !strings.Contains(out, "Timeline is empty.") {
		t.Fatalf("unexpected output:\n%s", out)
	}
	if !strings.Contains(out, "clip mode") {
		t.Fatalf("missing settings line:\n%s", out)
	}
}

func TestMoshWipeFailsWithoutClips(t *testing.T) {
	cfgPath := writeTestConfig(t)
	if _, err := runCommand(t, "--config", cfgPath, "mosh", "wipe", "scratch", "2s"); err == nil {
		t.Fatal("wipe on an empty timeline should fail")
	}
}
