package timeline

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"moshpit/internal/frameindex"
)

// ErrClipNotFound indicates an operation referenced an unknown clip ID.
var ErrClipNotFound = errors.New("clip not found")

// Timeline arranges clips on a single track. It is not safe for concurrent
// mutation; the session serializes writes through one coordinator.
type Timeline struct {
	clips []Clip
}

// New returns an empty timeline.
func New() *Timeline {
	return &Timeline{}
}

// Add places a clip. Clips keep track order sorted by position.
func (tl *Timeline) Add(clip Clip) {
	tl.clips = append(tl.clips, clip)
	tl.sortClips()
}

// Remove deletes the clip with the given ID and returns it.
func (tl *Timeline) Remove(clipID string) (Clip, error) {
	for i, clip := range tl.clips {
		if clip.ID == clipID {
			tl.clips = append(tl.clips[:i], tl.clips[i+1:]...)
			return clip, nil
		}
	}
	return Clip{}, fmt.Errorf("%w: %s", ErrClipNotFound, clipID)
}

// Move repositions a clip on the track.
func (tl *Timeline) Move(clipID string, position time.Duration) error {
	for i := range tl.clips {
		if tl.clips[i].ID == clipID {
			tl.clips[i].TrackPosition = position
			tl.sortClips()
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrClipNotFound, clipID)
}

// Trim adjusts a clip's in/out points into its source.
func (tl *Timeline) Trim(clipID string, in, out time.Duration) error {
	if in < 0 || out <= in {
		return fmt.Errorf("invalid trim range %v..%v", in, out)
	}
	for i := range tl.clips {
		if tl.clips[i].ID == clipID {
			if ix := tl.clips[i].Index; ix != nil && out > ix.Duration() {
				return fmt.Errorf("trim out point %v beyond source end %v", out, ix.Duration())
			}
			tl.clips[i].InPoint = in
			tl.clips[i].OutPoint = out
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrClipNotFound, clipID)
}

// Relink swaps a clip's source handle and frame index in place, preserving
// the clip ID so modifier targets keyed by (clip, frame) stay valid.
func (tl *Timeline) Relink(clipID, source string, index *frameindex.Index) error {
	for i := range tl.clips {
		if tl.clips[i].ID == clipID {
			tl.clips[i].Source = source
			tl.clips[i].Index = index
			if index != nil && tl.clips[i].OutPoint > index.Duration() {
				tl.clips[i].OutPoint = index.Duration()
			}
			if tl.clips[i].OutPoint == 0 && index != nil {
				tl.clips[i].OutPoint = index.Duration()
			}
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrClipNotFound, clipID)
}

// Clip returns the clip with the given ID.
func (tl *Timeline) Clip(clipID string) (Clip, bool) {
	for _, clip := range tl.clips {
		if clip.ID == clipID {
			return clip, true
		}
	}
	return Clip{}, false
}

// Clips returns the clips in track order. The slice is a copy; the frame
// indexes it references are immutable.
func (tl *Timeline) Clips() []Clip {
	out := make([]Clip, len(tl.clips))
	copy(out, tl.clips)
	return out
}

// Len returns the number of clips.
func (tl *Timeline) Len() int { return len(tl.clips) }

// End returns the timeline time at which the last clip stops.
func (tl *Timeline) End() time.Duration {
	var end time.Duration
	for _, clip := range tl.clips {
		if clipEnd := clip.End(); clipEnd > end {
			end = clipEnd
		}
	}
	return end
}

// ClipAt returns the clip covering timeline time t, if any.
func (tl *Timeline) ClipAt(t time.Duration) (Clip, bool) {
	for _, clip := range tl.clips {
		if clip.Contains(t) {
			return clip, true
		}
	}
	return Clip{}, false
}

// Intersecting returns every clip overlapping [start, end), in track order.
func (tl *Timeline) Intersecting(start, end time.Duration) []Clip {
	var out []Clip
	for _, clip := range tl.clips {
		if clip.Intersects(start, end) {
			out = append(out, clip)
		}
	}
	return out
}

func (tl *Timeline) sortClips() {
	sort.SliceStable(tl.clips, func(i, j int) bool {
		return tl.clips[i].TrackPosition < tl.clips[j].TrackPosition
	})
}
