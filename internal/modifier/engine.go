package modifier

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"moshpit/internal/timeline"
)

var (
	// ErrNotAnIFrame rejects a wipe mosh aimed at a delta frame.
	ErrNotAnIFrame = errors.New("target frame is not an i-frame")
	// ErrAlreadyModified rejects stacking a second modifier on one frame.
	ErrAlreadyModified = errors.New("frame already carries a modifier")
	// ErrBelowMinimumRange rejects a persistent mosh spanning fewer than two
	// i-frames.
	ErrBelowMinimumRange = errors.New("range spans fewer than two i-frames")
	// ErrNotFound indicates an unknown modifier ID.
	ErrNotFound = errors.New("modifier not found")
)

// minimumPersistentIFrames is the smallest i-frame population a persistent
// mosh may cover. One i-frame alone is a wipe, not a sustained effect.
const minimumPersistentIFrames = 2

// Engine applies and removes modifiers against a timeline. Original frame
// data is never touched; the engine only tracks which frames are overridden,
// so removal is exact.
type Engine struct {
	timeline *timeline.Timeline
	mods     map[string]Modifier
	byTarget map[Target]string // frame -> owning modifier ID
}

// NewEngine builds an engine bound to the given timeline.
func NewEngine(tl *timeline.Timeline) *Engine {
	return &Engine{
		timeline: tl,
		mods:     make(map[string]Modifier),
		byTarget: make(map[Target]string),
	}
}

// InsertWipe creates a single-frame mosh on the given clip frame.
func (e *Engine) InsertWipe(clipID string, frameIdx int) (Modifier, error) {
	clip, ok := e.timeline.Clip(clipID)
	if !ok {
		return Modifier{}, fmt.Errorf("%w: clip %s", ErrNotFound, clipID)
	}
	if clip.Index == nil || !clip.Index.IsIFrame(frameIdx) {
		return Modifier{}, fmt.Errorf("%w: clip %s frame %d", ErrNotAnIFrame, clipID, frameIdx)
	}
	target := Target{ClipID: clipID, FrameIndex: frameIdx}
	if owner, taken := e.byTarget[target]; taken {
		return Modifier{}, fmt.Errorf("%w: frame %d held by %s", ErrAlreadyModified, frameIdx, owner)
	}
	mod := newWipe(target)
	e.mods[mod.ID] = mod
	e.byTarget[target] = mod.ID
	return mod, nil
}

// InsertPersistent creates a ranged mosh over [start, end) timeline time.
// Every i-frame in range across all intersected clips is captured. Existing
// single-frame modifiers inside the range are superseded, not stacked; the
// removed modifiers are returned so the caller can record their reversal.
func (e *Engine) InsertPersistent(start, end time.Duration) (Modifier, []Modifier, error) {
	if end <= start {
		return Modifier{}, nil, fmt.Errorf("%w: empty range %v..%v", ErrBelowMinimumRange, start, end)
	}

	var targets []Target
	for _, clip := range e.timeline.Intersecting(start, end) {
		for _, frame := range clip.IFramesBetween(start, end) {
			targets = append(targets, Target{ClipID: clip.ID, FrameIndex: frame.Index})
		}
	}
	if len(targets) < minimumPersistentIFrames {
		return Modifier{}, nil, fmt.Errorf("%w: found %d in %v..%v", ErrBelowMinimumRange, len(targets), start, end)
	}

	// A persistent mosh already live on any of these frames is a conflict;
	// contained wipes are absorbed instead.
	var superseded []Modifier
	supersededIDs := make(map[string]struct{})
	for _, target := range targets {
		owner, taken := e.byTarget[target]
		if !taken {
			continue
		}
		existing := e.mods[owner]
		if existing.Kind != KindWipe {
			return Modifier{}, nil, fmt.Errorf("%w: frame %d held by persistent mosh %s", ErrAlreadyModified, target.FrameIndex, owner)
		}
		if _, seen := supersededIDs[owner]; !seen {
			supersededIDs[owner] = struct{}{}
			superseded = append(superseded, existing)
		}
	}
	for id := range supersededIDs {
		e.removeLocked(id)
	}

	mod := newPersistent(start, end, targets)
	e.mods[mod.ID] = mod
	for _, target := range targets {
		e.byTarget[target] = mod.ID
	}
	return mod, superseded, nil
}

// Remove deletes a modifier, restoring original classification for every
// frame it targeted.
func (e *Engine) Remove(id string) (Modifier, error) {
	mod, ok := e.mods[id]
	if !ok {
		return Modifier{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	e.removeLocked(id)
	return mod, nil
}

// Restore reinstates a previously removed modifier verbatim. Used by undo.
func (e *Engine) Restore(mod Modifier) error {
	if _, exists := e.mods[mod.ID]; exists {
		return fmt.Errorf("%w: %s already present", ErrAlreadyModified, mod.ID)
	}
	for _, target := range mod.Targets {
		if owner, taken := e.byTarget[target]; taken {
			return fmt.Errorf("%w: frame %d held by %s", ErrAlreadyModified, target.FrameIndex, owner)
		}
	}
	e.mods[mod.ID] = mod
	for _, target := range mod.Targets {
		e.byTarget[target] = mod.ID
	}
	return nil
}

// Modifier returns the modifier with the given ID.
func (e *Engine) Modifier(id string) (Modifier, bool) {
	mod, ok := e.mods[id]
	return mod, ok
}

// At returns the modifier covering a frame, if any.
func (e *Engine) At(target Target) (Modifier, bool) {
	id, ok := e.byTarget[target]
	if !ok {
		return Modifier{}, false
	}
	return e.mods[id], true
}

// Modified reports whether the frame carries any modifier.
func (e *Engine) Modified(target Target) bool {
	_, ok := e.byTarget[target]
	return ok
}

// All returns every active modifier, ordered by kind then start time for
// stable listings.
func (e *Engine) All() []Modifier {
	out := make([]Modifier, 0, len(e.mods))
	for _, mod := range e.mods {
		out = append(out, mod)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Start != out[j].Start {
			return out[i].Start < out[j].Start
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// Len returns the number of active modifiers.
func (e *Engine) Len() int { return len(e.mods) }

// DropClip removes every modifier touching the given clip and returns them.
// Used when a clip is deleted from the timeline.
func (e *Engine) DropClip(clipID string) []Modifier {
	var dropped []Modifier
	for id, mod := range e.mods {
		for _, target := range mod.Targets {
			if target.ClipID == clipID {
				dropped = append(dropped, mod)
				e.removeLocked(id)
				break
			}
		}
	}
	sort.Slice(dropped, func(i, j int) bool { return dropped[i].ID < dropped[j].ID })
	return dropped
}

func (e *Engine) removeLocked(id string) {
	mod, ok := e.mods[id]
	if !ok {
		return
	}
	for _, target := range mod.Targets {
		if e.byTarget[target] == id {
			delete(e.byTarget, target)
		}
	}
	delete(e.mods, id)
}
