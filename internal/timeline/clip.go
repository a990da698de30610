package timeline

import (
	"time"

	"github.com/google/uuid"

	"moshpit/internal/frameindex"
)

// Clip places a trimmed view of a source on the timeline. The source media
// itself is owned by the media provider; the clip holds only the handle.
type Clip struct {
	ID            string
	Source        string
	TrackPosition time.Duration
	InPoint       time.Duration
	OutPoint      time.Duration
	Index         *frameindex.Index
}

// NewClip builds a clip covering the full source, placed at position.
func NewClip(source string, position time.Duration, index *frameindex.Index) Clip {
	out := time.Duration(0)
	if index != nil {
		out = index.Duration()
	}
	return Clip{
		ID:            uuid.NewString(),
		Source:        source,
		TrackPosition: position,
		InPoint:       0,
		OutPoint:      out,
		Index:         index,
	}
}

// Duration is the trimmed length of the clip on the timeline.
func (c Clip) Duration() time.Duration {
	if c.OutPoint < c.InPoint {
		return 0
	}
	return c.OutPoint - c.InPoint
}

// End is the timeline time at which the clip stops.
func (c Clip) End() time.Duration {
	return c.TrackPosition + c.Duration()
}

// Contains reports whether timeline time t falls inside the clip.
func (c Clip) Contains(t time.Duration) bool {
	return t >= c.TrackPosition && t < c.End()
}

// Intersects reports whether the clip overlaps [start, end).
func (c Clip) Intersects(start, end time.Duration) bool {
	return c.TrackPosition < end && c.End() > start
}

// ToLocal converts a timeline time into source time for this clip.
func (c Clip) ToLocal(t time.Duration) time.Duration {
	return t - c.TrackPosition + c.InPoint
}

// ToTimeline converts a source time into timeline time for this clip.
func (c Clip) ToTimeline(local time.Duration) time.Duration {
	return local - c.InPoint + c.TrackPosition
}

// Missing reports whether the clip's source could not be found when the
// session was loaded. Such clips keep their identity and modifier targets but
// cannot be decoded until relinked.
func (c Clip) Missing() bool {
	return c.Index == nil
}

// IFramesBetween returns the clip's i-frames whose timeline timestamps fall
// in [start, end), clamped to the clip's trimmed range.
func (c Clip) IFramesBetween(start, end time.Duration) []frameindex.Frame {
	if c.Index == nil {
		return nil
	}
	lo := max(start, c.TrackPosition)
	hi := min(end, c.End())
	if lo >= hi {
		return nil
	}
	return c.Index.IFramesBetween(c.ToLocal(lo), c.ToLocal(hi))
}
