package testsupport

import (
	"context"
	"fmt"
	"sync"
	"time"

	"moshpit/internal/frameindex"
	"moshpit/internal/media"
)

// FakeSource scripts one source for the fake provider.
type FakeSource struct {
	FrameCount     int
	FrameRate      float64
	IFrameInterval int // an i-frame every N frames, frame 0 included
	Width          int
	Height         int
	VFR            bool // probe rejects with ErrUnsupportedFrameRate
}

// DecodeCall records one DecodeFrame invocation for order assertions.
type DecodeCall struct {
	Path    string
	Index   int
	Quality int
}

// FakeProvider is a deterministic in-memory media.Provider for tests.
type FakeProvider struct {
	mu         sync.Mutex
	sources    map[string]FakeSource
	failFrames map[string]map[int]struct{}
	calls      []DecodeCall

	// DecodeHook, when set, runs before every decode. Tests use it to
	// trigger cancellation mid-composition.
	DecodeHook func(path string, index int)
}

// NewFakeProvider returns an empty provider; add sources before use.
func NewFakeProvider() *FakeProvider {
	return &FakeProvider{
		sources:    make(map[string]FakeSource),
		failFrames: make(map[string]map[int]struct{}),
	}
}

// AddSource registers a scripted source under the given path.
func (p *FakeProvider) AddSource(path string, src FakeSource) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if src.FrameRate == 0 {
		src.FrameRate = 30
	}
	if src.IFrameInterval == 0 {
		src.IFrameInterval = 30
	}
	if src.Width == 0 {
		src.Width = 64
	}
	if src.Height == 0 {
		src.Height = 36
	}
	p.sources[path] = src
}

// FailFrame makes DecodeFrame fail for one frame of one source.
func (p *FakeProvider) FailFrame(path string, index int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.failFrames[path] == nil {
		p.failFrames[path] = make(map[int]struct{})
	}
	p.failFrames[path][index] = struct{}{}
}

// DecodeCalls returns every decode in invocation order.
func (p *FakeProvider) DecodeCalls() []DecodeCall {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]DecodeCall, len(p.calls))
	copy(out, p.calls)
	return out
}

// Probe implements media.Provider.
func (p *FakeProvider) Probe(_ context.Context, path string) (media.Info, error) {
	p.mu.Lock()
	src, ok := p.sources[path]
	p.mu.Unlock()
	if !ok {
		return media.Info{}, fmt.Errorf("%w: %s", media.ErrUnreadableSource, path)
	}
	if src.VFR {
		return media.Info{}, fmt.Errorf("%w: %s", media.ErrUnsupportedFrameRate, path)
	}
	duration := time.Duration(float64(src.FrameCount) / src.FrameRate * float64(time.Second))
	return media.Info{
		FrameCount: src.FrameCount,
		FrameRate:  src.FrameRate,
		Duration:   duration,
		Width:      src.Width,
		Height:     src.Height,
	}, nil
}

// ScanFrames implements media.Provider.
func (p *FakeProvider) ScanFrames(ctx context.Context, path string) ([]frameindex.Frame, error) {
	if _, err := p.Probe(ctx, path); err != nil {
		return nil, err
	}
	p.mu.Lock()
	src := p.sources[path]
	p.mu.Unlock()
	frames := make([]frameindex.Frame, 0, src.FrameCount)
	for i := 0; i < src.FrameCount; i++ {
		typ := frameindex.TypeP
		if i%src.IFrameInterval == 0 {
			typ = frameindex.TypeI
		}
		frames = append(frames, frameindex.Frame{
			Index:     i,
			Timestamp: time.Duration(float64(i) / src.FrameRate * float64(time.Second)),
			Type:      typ,
		})
	}
	return frames, nil
}

// DecodeFrame implements media.Provider. Buffers carry a deterministic
// per-frame byte pattern so tests can tell frames apart.
func (p *FakeProvider) DecodeFrame(_ context.Context, path string, index int, quality int) (media.PixelBuffer, error) {
	if hook := p.DecodeHook; hook != nil {
		hook(path, index)
	}
	p.mu.Lock()
	src, ok := p.sources[path]
	if ok {
		p.calls = append(p.calls, DecodeCall{Path: path, Index: index, Quality: quality})
	}
	_, fail := p.failFrames[path][index]
	p.mu.Unlock()

	if !ok {
		return media.PixelBuffer{}, fmt.Errorf("%w: %s", media.ErrUnreadableSource, path)
	}
	if fail {
		return media.PixelBuffer{}, fmt.Errorf("%w: %s frame %d", media.ErrDecode, path, index)
	}
	width := src.Width * quality / 100
	height := src.Height * quality / 100
	data := make([]byte, width*height*3)
	for i := range data {
		data[i] = byte(index)
	}
	return media.PixelBuffer{Width: width, Height: height, Data: data}, nil
}
