package testsupport

import (
	"path/filepath"
	"testing"

	"moshpit/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.SessionDir = filepath.Join(base, "sessions")
	cfg.LogDir = filepath.Join(base, "logs")
	cfg.WatchDirs = []string{filepath.Join(base, "watch")}

	for _, opt := range opts {
		opt(&cfg)
	}

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure config directories: %v", err)
	}
	return &cfg
}

// WithPreviewWorkers overrides the compositor worker count.
func WithPreviewWorkers(workers int) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Preview.Workers = workers
	}
}

// WithWatchDirs replaces the relink watch directories.
func WithWatchDirs(dirs ...string) ConfigOption {
	return func(cfg *config.Config) {
		cfg.WatchDirs = dirs
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.SessionDir)
}
