package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/mattn/go-isatty"

	"moshpit/internal/session"
	"moshpit/internal/timeline"
)

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}

// formatTimecode renders a duration as m:ss.mmm for table display.
func formatTimecode(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	minutes := int(d / time.Minute)
	d -= time.Duration(minutes) * time.Minute
	seconds := int(d / time.Second)
	millis := int((d % time.Second) / time.Millisecond)
	return fmt.Sprintf("%d:%02d.%03d", minutes, seconds, millis)
}

// parseTimecode accepts Go duration syntax ("2s", "1m30s", "250ms").
func parseTimecode(value string) (time.Duration, error) {
	d, err := time.ParseDuration(strings.TrimSpace(value))
	if err != nil {
		return 0, fmt.Errorf("invalid time %q: use duration syntax like 2s or 1m30s", value)
	}
	if d < 0 {
		return 0, fmt.Errorf("time %q must not be negative", value)
	}
	return d, nil
}

// shortID abbreviates a UUID for table display.
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// findClip resolves a full or abbreviated clip ID against the session.
func findClip(sess *session.Session, ref string) (timeline.Clip, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return timeline.Clip{}, fmt.Errorf("clip ID is required")
	}
	var matches []timeline.Clip
	for _, clip := range sess.Clips() {
		if clip.ID == ref {
			return clip, nil
		}
		if strings.HasPrefix(clip.ID, ref) {
			matches = append(matches, clip)
		}
	}
	switch len(matches) {
	case 1:
		return matches[0], nil
	case 0:
		return timeline.Clip{}, fmt.Errorf("no clip matches %q", ref)
	default:
		return timeline.Clip{}, fmt.Errorf("clip ID %q is ambiguous (%d matches)", ref, len(matches))
	}
}

func stdoutIsTerminal() bool {
	fd := os.Stdout.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
