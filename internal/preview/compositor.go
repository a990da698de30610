package preview

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"moshpit/internal/framecache"
	"moshpit/internal/logging"
	"moshpit/internal/media"
)

var (
	// ErrCancelled marks a preview request that was stopped by the caller.
	ErrCancelled = errors.New("preview cancelled")
	// ErrStale marks a preview whose model state has moved on.
	ErrStale = errors.New("preview stale")
	// ErrInvalidQuality rejects quality levels outside the supported tiers.
	ErrInvalidQuality = errors.New("unsupported preview quality")
)

// DefaultWorkers is the progressive-fill worker count when the config does
// not say otherwise.
const DefaultWorkers = 2

// Compositor renders flattened, quality-scaled previews of a snapshot into
// the frame cache. It never mutates model state; the session hands it
// immutable snapshots and tells it when generations move.
type Compositor struct {
	provider media.Provider
	cache    *framecache.Cache
	logger   *slog.Logger
	workers  int

	mu      sync.Mutex
	handles []*Handle
}

// New builds a compositor. workers <= 0 uses DefaultWorkers.
func New(provider media.Provider, cache *framecache.Cache, logger *slog.Logger, workers int) *Compositor {
	if workers <= 0 {
		workers = DefaultWorkers
	}
	return &Compositor{
		provider: provider,
		cache:    cache,
		logger:   logging.NewComponentLogger(logger, "preview"),
		workers:  workers,
	}
}

// Cache exposes the read side of the frame store for playback surfaces.
func (c *Compositor) Cache() *framecache.Cache { return c.cache }

// Request begins progressive composition of the snapshot at the given
// quality, expanding outward from the playhead. It returns immediately; the
// handle surfaces progress, staleness, and cancellation.
//
// Workers claim slots strictly nearest-first, but claims settle
// independently: with N workers a frame can become available up to N-1
// positions ahead of a nearer in-flight one.
func (c *Compositor) Request(ctx context.Context, snap Snapshot, playhead time.Duration, quality int) (*Handle, error) {
	if !media.ValidQuality(quality) {
		return nil, fmt.Errorf("%w: %d", ErrInvalidQuality, quality)
	}

	slots := snap.flatten()
	orderNearestFirst(slots, playhead)

	handle := newHandle(quality, snap.Generation, len(slots))
	c.mu.Lock()
	c.handles = append(c.handles, handle)
	c.mu.Unlock()

	handle.startLoading()
	if len(slots) == 0 {
		handle.finish()
		return handle, nil
	}

	var next atomic.Int64
	var wg sync.WaitGroup
	wg.Add(c.workers)
	for w := 0; w < c.workers; w++ {
		go func() {
			defer wg.Done()
			c.runWorker(ctx, handle, snap, slots, quality, &next)
		}()
	}
	go func() {
		wg.Wait()
		handle.finish()
	}()
	return handle, nil
}

// MarkStale flips every live handle captured before the given generation.
// Stale previews stay stale until the caller requests anew; flipped and
// cancelled handles are dropped from tracking.
func (c *Compositor) MarkStale(generation uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	kept := c.handles[:0]
	for _, handle := range c.handles {
		if handle.Generation() < generation {
			handle.markStale()
		}
		switch handle.Status() {
		case StatusStale, StatusCancelled:
		default:
			kept = append(kept, handle)
		}
	}
	c.handles = kept
}

func (c *Compositor) runWorker(ctx context.Context, handle *Handle, snap Snapshot, slots []slot, quality int, next *atomic.Int64) {
	for {
		if ctx.Err() != nil || handle.isCancelled() {
			return
		}
		i := int(next.Add(1)) - 1
		if i >= len(slots) {
			return
		}
		sl := slots[i]
		key := framecache.Key{ClipID: sl.clipID, FrameIndex: sl.frameIndex, Quality: quality}
		if c.cache.Contains(key) {
			handle.frameProduced()
			continue
		}
		buffer := c.composite(ctx, sl, quality)
		// Workers check their captured generation before writing; the cache
		// discards anything older than what it has already seen.
		if stored := c.cache.Put(key, snap.Generation, buffer); !stored {
			c.logger.DebugContext(ctx, "discarded stale frame write",
				logging.String("clip_id", sl.clipID),
				logging.Int("frame", sl.frameIndex),
				logging.Uint64("generation", snap.Generation))
		}
		handle.frameProduced()
	}
}

// composite resolves one slot's effective content: the original decode for
// unmodified frames, the carried-forward reference for moshed ones, and a
// placeholder when decoding fails or no reference exists yet.
func (c *Compositor) composite(ctx context.Context, sl slot, quality int) media.PixelBuffer {
	if sl.moshed {
		if !sl.hasRef {
			return media.PixelBuffer{}
		}
		refKey := framecache.Key{ClipID: "src:" + sl.refSource, FrameIndex: sl.refIndex, Quality: quality}
		if buffer, ok := c.cache.Get(refKey); ok {
			return buffer
		}
		buffer, err := c.provider.DecodeFrame(ctx, sl.refSource, sl.refIndex, quality)
		if err != nil {
			c.logger.WarnContext(ctx, "reference decode failed, degrading frame",
				logging.String("source", sl.refSource),
				logging.Int("frame", sl.refIndex),
				logging.Error(err))
			return media.PixelBuffer{}
		}
		c.cache.Put(refKey, c.cache.Generation(), buffer)
		return buffer
	}
	if sl.source == "" {
		return media.PixelBuffer{}
	}
	buffer, err := c.provider.DecodeFrame(ctx, sl.source, sl.frameIndex, quality)
	if err != nil {
		// A single bad frame degrades; it never aborts the composition.
		c.logger.WarnContext(ctx, "frame decode failed, degrading frame",
			logging.String("source", sl.source),
			logging.Int("frame", sl.frameIndex),
			logging.Error(err))
		return media.PixelBuffer{}
	}
	return buffer
}

// orderNearestFirst sorts slots by distance from the playhead so the frames
// around the user's position become available before the rest.
func orderNearestFirst(slots []slot, playhead time.Duration) {
	sort.SliceStable(slots, func(i, j int) bool {
		return absDuration(slots[i].time-playhead) < absDuration(slots[j].time-playhead)
	})
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}
