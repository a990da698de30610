package config

import (
	"os"
	"path/filepath"
)

// Default returns the built-in configuration.
func Default() Config {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	base := filepath.Join(home, ".local", "share", "moshpit")

	return Config{
		Paths: Paths{
			SessionDir: filepath.Join(base, "sessions"),
			LogDir:     filepath.Join(base, "logs"),
		},
		Logging: Logging{
			Level:  "info",
			Format: "console",
		},
		Media: Media{
			FFprobeBinary: "ffprobe",
			FFmpegBinary:  "ffmpeg",
		},
		Preview: Preview{
			Workers:        2,
			DefaultQuality: 50,
			CacheMaxMiB:    256,
		},
		Snap: Snap{
			Grid:           true,
			ClipEdge:       true,
			IFrame:         true,
			GridUnitMillis: 1000,
			RadiusMillis:   250,
		},
	}
}
