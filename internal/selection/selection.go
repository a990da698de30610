package selection

import (
	"sort"
	"time"

	"moshpit/internal/snap"
	"moshpit/internal/timeline"
)

// Mode is the user's persistent selection mode, orthogonal to what is
// currently selected.
type Mode string

const (
	ClipMode Mode = "clip"
	TimeMode Mode = "time"
)

// State describes what kind of selection is active.
type State string

const (
	StateNone         State = "none"
	StateClipSelected State = "clip"
	StateTimeSelected State = "time"
)

// ActionLabel is the affordance the context-sensitive mosh button shows.
type ActionLabel string

const (
	ActionDisabled             ActionLabel = "disabled"
	ActionInsertWipeMosh       ActionLabel = "insert_wipe_mosh"
	ActionInsertPersistentMosh ActionLabel = "insert_persistent_mosh"
)

// Selection is the current selection as a tagged value.
type Selection struct {
	State   State
	ClipIDs []string      // clip selection
	Start   time.Duration // time selection
	End     time.Duration
}

// Engine tracks selection state against a timeline. Illegal transitions for
// the active mode normalize to no selection instead of failing.
type Engine struct {
	timeline *timeline.Timeline
	mode     Mode
	state    State
	clips    map[string]struct{}
	start    time.Duration
	end      time.Duration
}

// NewEngine starts in clip mode with nothing selected.
func NewEngine(tl *timeline.Timeline) *Engine {
	return &Engine{
		timeline: tl,
		mode:     ClipMode,
		state:    StateNone,
		clips:    make(map[string]struct{}),
	}
}

// Mode returns the active selection mode.
func (e *Engine) Mode() Mode { return e.mode }

// State returns the current selection state.
func (e *Engine) State() State { return e.state }

// Selection returns a copy of the current selection.
func (e *Engine) Selection() Selection {
	sel := Selection{State: e.state}
	switch e.state {
	case StateClipSelected:
		sel.ClipIDs = e.sortedClipIDs()
	case StateTimeSelected:
		sel.Start = e.start
		sel.End = e.end
	}
	return sel
}

// SelectClip selects a clip, optionally adding to the current set. Only legal
// in clip mode; in time mode the selection normalizes to none.
func (e *Engine) SelectClip(clipID string, additive bool) {
	if e.mode != ClipMode {
		e.Clear()
		return
	}
	if _, ok := e.timeline.Clip(clipID); !ok {
		e.Clear()
		return
	}
	if !additive || e.state != StateClipSelected {
		e.clips = make(map[string]struct{})
	}
	e.clips[clipID] = struct{}{}
	e.state = StateClipSelected
	e.start, e.end = 0, 0
}

// SelectTimeRange selects a snapped time range. Only legal in time mode.
// Empty ranges after snapping normalize to none.
func (e *Engine) SelectTimeRange(start, end time.Duration, cfg snap.Config) {
	if e.mode != TimeMode {
		e.Clear()
		return
	}
	if end < start {
		start, end = end, start
	}
	snappedStart := snap.Resolve(start, e.timeline, cfg, true).Time
	snappedEnd := snap.Resolve(end, e.timeline, cfg, true).Time
	if snappedEnd <= snappedStart {
		e.Clear()
		return
	}
	e.start, e.end = snappedStart, snappedEnd
	e.state = StateTimeSelected
	e.clips = make(map[string]struct{})
}

// ToggleMode flips between clip and time mode, converting the current
// selection: a clip selection becomes the time span from the earliest
// selected clip start to the latest selected clip end, gaps included; a time
// selection becomes every clip intersecting the range.
func (e *Engine) ToggleMode() {
	if e.mode == ClipMode {
		e.mode = TimeMode
		if e.state != StateClipSelected || len(e.clips) == 0 {
			e.Clear()
			return
		}
		first := true
		var start, end time.Duration
		for id := range e.clips {
			clip, ok := e.timeline.Clip(id)
			if !ok {
				continue
			}
			if first || clip.TrackPosition < start {
				start = clip.TrackPosition
			}
			if first || clip.End() > end {
				end = clip.End()
			}
			first = false
		}
		if first || end <= start {
			e.Clear()
			return
		}
		e.clips = make(map[string]struct{})
		e.start, e.end = start, end
		e.state = StateTimeSelected
		return
	}

	e.mode = ClipMode
	if e.state != StateTimeSelected {
		e.Clear()
		return
	}
	clips := e.timeline.Intersecting(e.start, e.end)
	e.clips = make(map[string]struct{}, len(clips))
	for _, clip := range clips {
		e.clips[clip.ID] = struct{}{}
	}
	e.start, e.end = 0, 0
	if len(e.clips) == 0 {
		e.state = StateNone
		return
	}
	e.state = StateClipSelected
}

// Clear drops the selection. The mode is untouched.
func (e *Engine) Clear() {
	e.state = StateNone
	e.clips = make(map[string]struct{})
	e.start, e.end = 0, 0
}

// Restore reinstates a previously captured selection. Used by undo.
func (e *Engine) Restore(mode Mode, sel Selection) {
	e.mode = mode
	e.Clear()
	switch sel.State {
	case StateClipSelected:
		for _, id := range sel.ClipIDs {
			e.clips[id] = struct{}{}
		}
		if len(e.clips) > 0 {
			e.state = StateClipSelected
		}
	case StateTimeSelected:
		if sel.End > sel.Start {
			e.start, e.end = sel.Start, sel.End
			e.state = StateTimeSelected
		}
	}
}

// ActionLabel derives the mosh button affordance from the current selection
// and playhead. Pure: no state is touched.
//
// Insert-wipe requires clip mode, a selected clip, and the playhead sitting
// on one of that clip's i-frames. Insert-persistent requires only a
// non-empty time selection, regardless of mode or playhead.
func (e *Engine) ActionLabel(playhead time.Duration) ActionLabel {
	if e.state == StateTimeSelected && e.end > e.start {
		return ActionInsertPersistentMosh
	}
	if e.mode != ClipMode || e.state != StateClipSelected {
		return ActionDisabled
	}
	for id := range e.clips {
		clip, ok := e.timeline.Clip(id)
		if !ok || clip.Index == nil || !clip.Contains(playhead) {
			continue
		}
		frame := clip.Index.FrameAt(clip.ToLocal(playhead))
		if frame.Type.Valid() && clip.Index.IsIFrame(frame.Index) {
			return ActionInsertWipeMosh
		}
	}
	return ActionDisabled
}

func (e *Engine) sortedClipIDs() []string {
	out := make([]string, 0, len(e.clips))
	for id := range e.clips {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}
