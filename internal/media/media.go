package media

import (
	"context"
	"errors"
	"time"

	"moshpit/internal/frameindex"
)

var (
	// ErrUnreadableSource indicates the source could not be probed at all.
	// Imports are rejected wholesale, never partially admitted.
	ErrUnreadableSource = errors.New("source cannot be read")
	// ErrUnsupportedFrameRate rejects variable frame rate sources at import.
	ErrUnsupportedFrameRate = errors.New("variable frame rate is not supported")
	// ErrDecode indicates a single frame failed to decode. The preview
	// degrades that frame instead of aborting.
	ErrDecode = errors.New("frame decode failed")
)

// Info is the probe result for a source.
type Info struct {
	FrameCount int
	FrameRate  float64
	Duration   time.Duration
	Width      int
	Height     int
}

// PixelBuffer holds one decoded or composited frame.
type PixelBuffer struct {
	Width  int
	Height int
	Data   []byte
}

// Placeholder reports whether the buffer stands in for a failed decode.
func (b PixelBuffer) Placeholder() bool { return len(b.Data) == 0 }

// Quality levels supported by the preview pipeline, as percentages of full
// resolution.
var QualityLevels = []int{25, 50, 75, 100}

// ValidQuality reports whether q is a supported preview quality.
func ValidQuality(q int) bool {
	for _, level := range QualityLevels {
		if q == level {
			return true
		}
	}
	return false
}

// Provider is the decode-side collaborator. The engine never touches encoded
// bytes itself; everything flows through this contract.
type Provider interface {
	// Probe inspects a source. Variable frame rate or unreadable sources
	// fail with the import errors above.
	Probe(ctx context.Context, path string) (Info, error)
	// ScanFrames classifies every frame of the source in index order.
	ScanFrames(ctx context.Context, path string) ([]frameindex.Frame, error)
	// DecodeFrame decodes one frame scaled to the given quality level.
	DecodeFrame(ctx context.Context, path string, index int, quality int) (PixelBuffer, error)
}
