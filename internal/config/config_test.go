package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	def := Default()
	if cfg.Preview.Workers != def.Preview.Workers {
		t.Fatalf("workers = %d, want default %d", cfg.Preview.Workers, def.Preview.Workers)
	}
	if cfg.Logging.Format != "console" {
		t.Fatalf("format = %q, want console", cfg.Logging.Format)
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
[preview]
workers = 4
default_quality = 100

[logging]
level = "DEBUG"
format = "json"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Preview.Workers != 4 {
		t.Fatalf("workers = %d, want 4", cfg.Preview.Workers)
	}
	if cfg.Preview.DefaultQuality != 100 {
		t.Fatalf("quality = %d, want 100", cfg.Preview.DefaultQuality)
	}
	if cfg.Logging.Level != "debug" {
		t.Fatalf("level = %q, want debug (lowercased)", cfg.Logging.Level)
	}
	if cfg.Snap.GridUnitMillis != 1000 {
		t.Fatalf("grid unit = %d, want default 1000", cfg.Snap.GridUnitMillis)
	}
}

func TestLoadRejectsInvalidQuality(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[preview]\ndefault_quality = 60\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := Load(path); err == nil || !strings.Contains(err.Error(), "default_quality") {
		t.Fatalf("expected default_quality error, got %v", err)
	}
}

func TestValidateCatchesBadValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"empty session dir", func(c *Config) { c.SessionDir = "" }, "session_dir"},
		{"bad level", func(c *Config) { c.Logging.Level = "verbose" }, "logging.level"},
		{"bad format", func(c *Config) { c.Logging.Format = "yaml" }, "logging.format"},
		{"zero workers", func(c *Config) { c.Preview.Workers = 0 }, "preview.workers"},
		{"negative radius", func(c *Config) { c.Snap.RadiusMillis = -1 }, "radius_millis"},
		{"empty ffmpeg", func(c *Config) { c.Media.FFmpegBinary = " " }, "ffmpeg_binary"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected error mentioning %q, got %v", tc.want, err)
			}
		})
	}
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}
	got := expandPath("~/sessions")
	if got != filepath.Join(home, "sessions") {
		t.Fatalf("expandPath = %q", got)
	}
	if expandPath("/abs/path") != "/abs/path" {
		t.Fatal("absolute path should pass through")
	}
}

func TestWriteSampleRefusesOverwrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := WriteSample(path); err != nil {
		t.Fatalf("first WriteSample: %v", err)
	}
	if err := WriteSample(path); err == nil {
		t.Fatal("second WriteSample should fail")
	}
	// The sample must itself survive a round trip through Load.
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load sample: %v", err)
	}
	if cfg.Preview.DefaultQuality != 50 {
		t.Fatalf("sample quality = %d, want 50", cfg.Preview.DefaultQuality)
	}
}
