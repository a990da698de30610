package frameindex

import (
	"errors"
	"fmt"
	"sort"
	"time"
)

// Type classifies a frame by its encoding role.
type Type string

const (
	TypeI Type = "I"
	TypeP Type = "P"
	TypeB Type = "B"
)

// Valid reports whether the type is one of the known frame classes.
func (t Type) Valid() bool {
	switch t {
	case TypeI, TypeP, TypeB:
		return true
	}
	return false
}

// Frame is an immutable record of one frame in a source clip.
type Frame struct {
	Index     int
	Timestamp time.Duration
	Type      Type
}

// Direction selects which side of a timestamp NearestIFrame searches.
type Direction int

const (
	Before Direction = iota
	After
	Nearest
)

// ErrNoIFrames indicates the source has no reference frames at all. Such
// sources cannot be moshed and are rejected at import.
var ErrNoIFrames = errors.New("source contains no i-frames")

// Index is the per-clip frame table. It is built once at import and never
// mutated afterwards; all methods are safe for concurrent use.
type Index struct {
	frames  []Frame
	iframes []int // positions into frames, ascending
}

// New builds an index from a frame scan. Frames must be in index order.
func New(frames []Frame) (*Index, error) {
	if len(frames) == 0 {
		return nil, errors.New("empty frame scan")
	}
	owned := make([]Frame, len(frames))
	copy(owned, frames)
	var iframes []int
	for i, frame := range owned {
		if frame.Index != i {
			return nil, fmt.Errorf("frame scan out of order at position %d (index %d)", i, frame.Index)
		}
		if !frame.Type.Valid() {
			return nil, fmt.Errorf("frame %d: unknown type %q", i, frame.Type)
		}
		if i > 0 && frame.Timestamp < owned[i-1].Timestamp {
			return nil, fmt.Errorf("frame %d: timestamp regresses", i)
		}
		if frame.Type == TypeI {
			iframes = append(iframes, i)
		}
	}
	if len(iframes) == 0 {
		return nil, ErrNoIFrames
	}
	return &Index{frames: owned, iframes: iframes}, nil
}

// Len returns the number of frames in the clip.
func (ix *Index) Len() int { return len(ix.frames) }

// defaultFrameInterval approximates the display time of the final frame when
// the scan has too few frames to derive the cadence.
const defaultFrameInterval = time.Second / 30

// Duration returns the total display time of the source: the final frame's
// timestamp plus one frame interval, so the last frame sits inside the range.
func (ix *Index) Duration() time.Duration {
	last := ix.frames[len(ix.frames)-1]
	interval := defaultFrameInterval
	if len(ix.frames) > 1 {
		if d := ix.frames[1].Timestamp - ix.frames[0].Timestamp; d > 0 {
			interval = d
		}
	}
	return last.Timestamp + interval
}

// Frame returns the frame at the given index.
func (ix *Index) Frame(index int) (Frame, bool) {
	if index < 0 || index >= len(ix.frames) {
		return Frame{}, false
	}
	return ix.frames[index], true
}

// FrameAt returns the frame whose display interval covers t, i.e. the last
// frame with Timestamp <= t. Times before the first frame map to frame 0.
func (ix *Index) FrameAt(t time.Duration) Frame {
	pos := sort.Search(len(ix.frames), func(i int) bool {
		return ix.frames[i].Timestamp > t
	})
	if pos == 0 {
		return ix.frames[0]
	}
	return ix.frames[pos-1]
}

// NearestIFrame finds the i-frame closest to t in the requested direction.
// Before and After are inclusive of an i-frame landing exactly on t.
func (ix *Index) NearestIFrame(t time.Duration, dir Direction) (Frame, bool) {
	// First i-frame with Timestamp > t.
	pos := sort.Search(len(ix.iframes), func(i int) bool {
		return ix.frames[ix.iframes[i]].Timestamp > t
	})
	switch dir {
	case Before:
		if pos == 0 {
			return Frame{}, false
		}
		return ix.frames[ix.iframes[pos-1]], true
	case After:
		if pos > 0 && ix.frames[ix.iframes[pos-1]].Timestamp == t {
			return ix.frames[ix.iframes[pos-1]], true
		}
		if pos >= len(ix.iframes) {
			return Frame{}, false
		}
		return ix.frames[ix.iframes[pos]], true
	case Nearest:
		before, okBefore := ix.NearestIFrame(t, Before)
		after, okAfter := ix.NearestIFrame(t, After)
		switch {
		case okBefore && okAfter:
			if t-before.Timestamp <= after.Timestamp-t {
				return before, true
			}
			return after, true
		case okBefore:
			return before, true
		case okAfter:
			return after, true
		}
		return Frame{}, false
	}
	return Frame{}, false
}

// IFramesBetween returns every i-frame with start <= Timestamp < end.
func (ix *Index) IFramesBetween(start, end time.Duration) []Frame {
	var out []Frame
	for _, pos := range ix.iframes {
		frame := ix.frames[pos]
		if frame.Timestamp < start {
			continue
		}
		if frame.Timestamp >= end {
			break
		}
		out = append(out, frame)
	}
	return out
}

// IFrameCount returns the number of i-frames in the clip.
func (ix *Index) IFrameCount() int { return len(ix.iframes) }

// IsIFrame reports whether the frame at index is a reference frame.
func (ix *Index) IsIFrame(index int) bool {
	frame, ok := ix.Frame(index)
	return ok && frame.Type == TypeI
}
