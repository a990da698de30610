package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	SessionDir string   `toml:"session_dir"`
	LogDir     string   `toml:"log_dir"`
	WatchDirs  []string `toml:"watch_dirs"`
}

// Logging contains log output configuration.
type Logging struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// Media contains the external decode tool configuration.
type Media struct {
	FFprobeBinary string `toml:"ffprobe_binary"`
	FFmpegBinary  string `toml:"ffmpeg_binary"`
}

// Preview contains compositor and cache configuration.
type Preview struct {
	Workers        int `toml:"workers"`
	DefaultQuality int `toml:"default_quality"`
	CacheMaxMiB    int `toml:"cache_max_mib"`
}

// Snap contains the default snap toggles and geometry.
type Snap struct {
	Grid           bool `toml:"grid"`
	ClipEdge       bool `toml:"clip_edge"`
	IFrame         bool `toml:"iframe"`
	GridUnitMillis int  `toml:"grid_unit_millis"`
	RadiusMillis   int  `toml:"radius_millis"`
}

// Config centralizes every knob the CLI and engine need.
type Config struct {
	Paths   `toml:"paths"`
	Logging Logging `toml:"logging"`
	Media   Media   `toml:"media"`
	Preview Preview `toml:"preview"`
	Snap    Snap    `toml:"snap"`
}

// DefaultConfigPath returns the canonical config file location.
func DefaultConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(home, ".config", "moshpit", "config.toml"), nil
}

// Load reads configuration from path, falling back to defaults when the file
// does not exist. An empty path uses the canonical location.
func Load(path string) (*Config, error) {
	cfg := Default()

	if strings.TrimSpace(path) == "" {
		canonical, err := DefaultConfigPath()
		if err != nil {
			return nil, err
		}
		path = canonical
	}

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		// Defaults apply.
	case err != nil:
		return nil, fmt.Errorf("read config %s: %w", path, err)
	default:
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// WriteSample writes the embedded sample config to path, refusing to
// overwrite an existing file.
func WriteSample(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("ensure config directory: %w", err)
	}
	return os.WriteFile(path, []byte(sampleConfig), 0o644)
}

// EnsureDirectories creates the session and log directories.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.SessionDir, c.LogDir} {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}
	return nil
}

func (c *Config) normalize() {
	c.SessionDir = expandPath(c.SessionDir)
	c.LogDir = expandPath(c.LogDir)
	for i, dir := range c.WatchDirs {
		c.WatchDirs[i] = expandPath(dir)
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
}

func expandPath(path string) string {
	path = strings.TrimSpace(path)
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(path, "~"))
		}
	}
	return path
}
