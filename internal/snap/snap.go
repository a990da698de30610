// Package snap resolves raw drag positions against the active snap targets.
package snap

import (
	"time"

	"moshpit/internal/frameindex"
	"moshpit/internal/timeline"
)

// Config holds the user's snap toggles and geometry.
type Config struct {
	Grid     bool
	ClipEdge bool
	IFrame   bool
	GridUnit time.Duration
	Radius   time.Duration
}

// DefaultConfig mirrors the editor defaults: every target on, a one second
// grid, and a quarter second capture radius.
func DefaultConfig() Config {
	return Config{
		Grid:     true,
		ClipEdge: true,
		IFrame:   true,
		GridUnit: time.Second,
		Radius:   250 * time.Millisecond,
	}
}

// Kind reports which target a resolution landed on.
type Kind int

const (
	KindNone Kind = iota
	KindGrid
	KindClipEdge
	KindIFrame
)

// Result is a resolved position and the target that captured it.
type Result struct {
	Time time.Duration
	Kind Kind
}

// Resolve snaps a raw time against the timeline. Snapping only applies to
// interactive drags; during playback the raw value passes through untouched.
// When several targets sit inside the radius the most semantically
// significant wins: i-frame, then clip edge, then grid.
func Resolve(raw time.Duration, tl *timeline.Timeline, cfg Config, dragging bool) Result {
	if !dragging || tl == nil {
		return Result{Time: raw, Kind: KindNone}
	}

	best := Result{Time: raw, Kind: KindNone}
	radius := cfg.Radius
	if radius <= 0 {
		return best
	}

	if cfg.Grid && cfg.GridUnit > 0 {
		if candidate, ok := nearestGridLine(raw, cfg.GridUnit, radius); ok {
			best = Result{Time: candidate, Kind: KindGrid}
		}
	}
	if cfg.ClipEdge {
		if candidate, ok := nearestClipEdge(raw, tl, radius); ok {
			best = Result{Time: candidate, Kind: KindClipEdge}
		}
	}
	if cfg.IFrame {
		if candidate, ok := nearestIFrameTime(raw, tl, radius); ok {
			best = Result{Time: candidate, Kind: KindIFrame}
		}
	}
	return best
}

func nearestGridLine(raw, unit, radius time.Duration) (time.Duration, bool) {
	lower := (raw / unit) * unit
	upper := lower + unit
	candidate := lower
	if raw-lower > upper-raw {
		candidate = upper
	}
	if candidate < 0 {
		candidate = 0
	}
	if absDuration(raw-candidate) > radius {
		return 0, false
	}
	return candidate, true
}

func nearestClipEdge(raw time.Duration, tl *timeline.Timeline, radius time.Duration) (time.Duration, bool) {
	var best time.Duration
	found := false
	consider := func(edge time.Duration) {
		d := absDuration(raw - edge)
		if d > radius {
			return
		}
		if !found || d < absDuration(raw-best) {
			best = edge
			found = true
		}
	}
	for _, clip := range tl.Clips() {
		consider(clip.TrackPosition)
		consider(clip.End())
	}
	return best, found
}

func nearestIFrameTime(raw time.Duration, tl *timeline.Timeline, radius time.Duration) (time.Duration, bool) {
	var best time.Duration
	found := false
	for _, clip := range tl.Intersecting(raw-radius, raw+radius) {
		if clip.Index == nil {
			continue
		}
		frame, ok := clip.Index.NearestIFrame(clip.ToLocal(raw), frameindex.Nearest)
		if !ok {
			continue
		}
		candidate := clip.ToTimeline(frame.Timestamp)
		if !clip.Contains(candidate) && candidate != clip.End() {
			continue
		}
		d := absDuration(raw - candidate)
		if d > radius {
			continue
		}
		if !found || d < absDuration(raw-best) {
			best = candidate
			found = true
		}
	}
	return best, found
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}
