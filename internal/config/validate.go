package config

import (
	"fmt"
	"strings"
)

var validQualities = map[int]struct{}{25: {}, 50: {}, 75: {}, 100: {}}

// Validate reports the first problem with the configuration, phrased so the
// user can fix it without reading source.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.SessionDir) == "" {
		return fmt.Errorf("paths.session_dir must not be empty")
	}
	if strings.TrimSpace(c.LogDir) == "" {
		return fmt.Errorf("paths.log_dir must not be empty")
	}

	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level %q is not one of debug, info, warn, error", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format %q is not one of console, json", c.Logging.Format)
	}

	if strings.TrimSpace(c.Media.FFprobeBinary) == "" {
		return fmt.Errorf("media.ffprobe_binary must not be empty")
	}
	if strings.TrimSpace(c.Media.FFmpegBinary) == "" {
		return fmt.Errorf("media.ffmpeg_binary must not be empty")
	}

	if c.Preview.Workers < 1 {
		return fmt.Errorf("preview.workers must be at least 1, got %d", c.Preview.Workers)
	}
	if _, ok := validQualities[c.Preview.DefaultQuality]; !ok {
		return fmt.Errorf("preview.default_quality %d is not one of 25, 50, 75, 100", c.Preview.DefaultQuality)
	}
	if c.Preview.CacheMaxMiB < 1 {
		return fmt.Errorf("preview.cache_max_mib must be at least 1, got %d", c.Preview.CacheMaxMiB)
	}

	if c.Snap.GridUnitMillis < 1 {
		return fmt.Errorf("snap.grid_unit_millis must be at least 1, got %d", c.Snap.GridUnitMillis)
	}
	if c.Snap.RadiusMillis < 0 {
		return fmt.Errorf("snap.radius_millis must not be negative, got %d", c.Snap.RadiusMillis)
	}
	return nil
}
