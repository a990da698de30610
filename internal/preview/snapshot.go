package preview

import (
	"sort"
	"time"

	"moshpit/internal/frameindex"
	"moshpit/internal/modifier"
	"moshpit/internal/timeline"
)

// Snapshot is the immutable timeline+modifier state a preview request is
// composited against. Workers read it freely; nothing here is shared with
// the live model.
type Snapshot struct {
	Generation uint64
	Clips      []timeline.Clip
	Modifiers  []modifier.Modifier
}

// NewSnapshot captures the current state of a timeline and modifier engine.
func NewSnapshot(generation uint64, tl *timeline.Timeline, mods *modifier.Engine) Snapshot {
	snap := Snapshot{Generation: generation}
	if tl != nil {
		snap.Clips = tl.Clips()
	}
	if mods != nil {
		snap.Modifiers = mods.All()
	}
	return snap
}

func (s Snapshot) modified(target modifier.Target) bool {
	for _, mod := range s.Modifiers {
		if mod.Covers(target) {
			return true
		}
	}
	return false
}

// slot is one unit of composition work: either a real clip frame or a
// synthesized gap frame sustaining a mosh through empty timeline.
type slot struct {
	clipID     string
	source     string // empty for gap slots and missing sources
	frameIndex int
	time       time.Duration
	moshed     bool
	refSource  string // carried-forward reference, when moshed
	refIndex   int
	hasRef     bool
}

// defaultFrameInterval is used when a clip's own cadence cannot be derived.
const defaultFrameInterval = time.Second / 30

// flatten walks the snapshot in timeline order and produces the composite
// frame sequence, resolving each frame's effective content per the modifier
// set. A moshed i-frame carries forward the last unmodified i-frame before
// it; the effect persists across delta frames and through gaps until the
// next unmodified i-frame (spillover).
func (s Snapshot) flatten() []slot {
	clips := append([]timeline.Clip(nil), s.Clips...)
	sort.SliceStable(clips, func(i, j int) bool {
		return clips[i].TrackPosition < clips[j].TrackPosition
	})

	var slots []slot
	active := false
	var refSource string
	var refIndex int
	hasRef := false

	for pos, clip := range clips {
		if clip.Index == nil {
			// Missing source: emit placeholder slots is pointless without a
			// frame table; the clip simply contributes nothing.
			continue
		}
		interval := clipFrameInterval(clip)
		localStart := clip.InPoint
		localEnd := clip.OutPoint

		first := clip.Index.FrameAt(localStart).Index
		var lastEmitted *slot
		for i := first; i < clip.Index.Len(); i++ {
			frame, ok := clip.Index.Frame(i)
			if !ok || frame.Timestamp >= localEnd {
				break
			}
			if frame.Timestamp < localStart {
				continue
			}
			target := modifier.Target{ClipID: clip.ID, FrameIndex: frame.Index}
			sl := slot{
				clipID:     clip.ID,
				source:     clip.Source,
				frameIndex: frame.Index,
				time:       clip.ToTimeline(frame.Timestamp),
			}
			switch {
			case frame.Type == frameindex.TypeI && !s.modified(target):
				active = false
				refSource = clip.Source
				refIndex = frame.Index
				hasRef = true
			case frame.Type == frameindex.TypeI:
				active = true
				sl.moshed = true
				sl.refSource, sl.refIndex, sl.hasRef = refSource, refIndex, hasRef
			case active:
				sl.moshed = true
				sl.refSource, sl.refIndex, sl.hasRef = refSource, refIndex, hasRef
			}
			slots = append(slots, sl)
			lastEmitted = &slots[len(slots)-1]
		}

		// Spillover: if the clip ends moshed, the effect reads forward
		// through the gap until the next clip begins.
		if active && lastEmitted != nil && pos+1 < len(clips) {
			gapStart := clip.End()
			gapEnd := clips[pos+1].TrackPosition
			seq := 0
			for t := gapStart; t < gapEnd; t += interval {
				slots = append(slots, slot{
					clipID:     "gap:" + clip.ID,
					frameIndex: seq,
					time:       t,
					moshed:     true,
					refSource:  refSource,
					refIndex:   refIndex,
					hasRef:     hasRef,
				})
				seq++
			}
		}
	}
	return slots
}

func clipFrameInterval(clip timeline.Clip) time.Duration {
	if clip.Index == nil || clip.Index.Len() < 2 {
		return defaultFrameInterval
	}
	a, _ := clip.Index.Frame(0)
	b, _ := clip.Index.Frame(1)
	if d := b.Timestamp - a.Timestamp; d > 0 {
		return d
	}
	return defaultFrameInterval
}
