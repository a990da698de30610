// Package deps verifies the external tools the engine shells out to.
package deps

import (
	"fmt"
	"os/exec"
	"strings"

	"moshpit/internal/config"
)

// Requirement defines an external binary dependency.
type Requirement struct {
	Name        string
	Command     string
	Description string
}

// Status reports the availability of a dependency.
type Status struct {
	Name        string
	Command     string
	Description string
	Available   bool
	Detail      string
}

// Requirements returns the binaries the given configuration needs.
func Requirements(cfg *config.Config) []Requirement {
	return []Requirement{
		{
			Name:        "ffprobe",
			Command:     cfg.Media.FFprobeBinary,
			Description: "source probing and frame classification",
		},
		{
			Name:        "ffmpeg",
			Command:     cfg.Media.FFmpegBinary,
			Description: "preview frame decoding",
		},
	}
}

// CheckBinaries evaluates the provided requirements and reports availability.
func CheckBinaries(requirements []Requirement) []Status {
	results := make([]Status, 0, len(requirements))
	for _, req := range requirements {
		cmd := strings.TrimSpace(req.Command)
		status := Status{
			Name:        req.Name,
			Command:     cmd,
			Description: req.Description,
		}
		switch {
		case cmd == "":
			status.Detail = "command not configured"
		default:
			if _, err := exec.LookPath(cmd); err != nil {
				status.Detail = fmt.Sprintf("binary %q not found", cmd)
			} else {
				status.Available = true
			}
		}
		results = append(results, status)
	}
	return results
}

// Missing filters statuses down to unavailable dependencies.
func Missing(statuses []Status) []Status {
	var missing []Status
	for _, status := range statuses {
		if !status.Available {
			missing = append(missing, status)
		}
	}
	return missing
}
