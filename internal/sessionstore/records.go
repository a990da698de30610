package sessionstore

import "time"

// ClipRecord is the persisted form of a timeline clip. Frame indexes are not
// stored; callers rebuild them from the source file after loading. Missing is
// set on load when the source file cannot be found on disk.
type ClipRecord struct {
	ID            string
	Source        string
	TrackPosition time.Duration
	InPoint       time.Duration
	OutPoint      time.Duration
	Missing       bool
}

// TargetRecord identifies one keyframe claimed by a modifier.
type TargetRecord struct {
	ClipID     string
	FrameIndex int
}

// ModifierRecord is the persisted form of a mosh modifier.
type ModifierRecord struct {
	ID      string
	Kind    string
	Start   time.Duration
	End     time.Duration
	Targets []TargetRecord
}

// Settings holds the per-session user preferences stored alongside the
// timeline.
type Settings struct {
	Playhead       time.Duration `json:"playhead"`
	SelectionMode  string        `json:"selection_mode"`
	PreviewQuality int           `json:"preview_quality"`
	SnapGrid       bool          `json:"snap_grid"`
	SnapClipEdge   bool          `json:"snap_clip_edge"`
	SnapIFrame     bool          `json:"snap_iframe"`
	SnapGridUnit   time.Duration `json:"snap_grid_unit"`
	SnapRadius     time.Duration `json:"snap_radius"`
}

// Snapshot is everything a session file contains.
type Snapshot struct {
	Clips     []ClipRecord
	Modifiers []ModifierRecord
	Settings  Settings
}
