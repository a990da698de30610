package framecache

import (
	"sync"

	"moshpit/internal/media"
)

// Key identifies a cached frame: which clip (or composite region), which
// frame, at which quality tier.
type Key struct {
	ClipID     string
	FrameIndex int
	Quality    int
}

// DefaultMaxBytes bounds the cache when no capacity is configured (256 MiB).
const DefaultMaxBytes = 256 << 20

type entry struct {
	key        Key
	generation uint64
	buffer     media.PixelBuffer
	size       int64
	touched    uint64 // recency serial, larger is fresher
}

// Cache is the bounded store shared by the compositor workers and playback.
// Mutation is serialized internally; settled entries may be read
// concurrently.
type Cache struct {
	mu         sync.RWMutex
	maxBytes   int64
	totalBytes int64
	entries    map[Key]*entry
	clock      uint64
	generation uint64 // latest model generation the cache has been told about
}

// New builds a cache bounded to maxBytes; non-positive uses DefaultMaxBytes.
func New(maxBytes int64) *Cache {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	return &Cache{maxBytes: maxBytes, entries: make(map[Key]*entry)}
}

// Advance tells the cache the model moved to a new generation. Later Put
// calls carrying an older generation are discarded rather than stored.
func (c *Cache) Advance(generation uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if generation > c.generation {
		c.generation = generation
	}
}

// Generation returns the latest model generation the cache has seen.
func (c *Cache) Generation() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.generation
}

// Put stores a composited frame tagged with the producing worker's captured
// generation. Returns false when the write was discarded as stale.
func (c *Cache) Put(key Key, generation uint64, buffer media.PixelBuffer) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if generation < c.generation {
		return false
	}
	if generation > c.generation {
		c.generation = generation
	}

	size := int64(len(buffer.Data))
	if old, ok := c.entries[key]; ok {
		c.totalBytes -= old.size
	}
	c.clock++
	c.entries[key] = &entry{
		key:        key,
		generation: generation,
		buffer:     buffer,
		size:       size,
		touched:    c.clock,
	}
	c.totalBytes += size
	c.evictLocked()
	return true
}

// Get returns a cached frame and refreshes its recency.
func (c *Cache) Get(key Key) (media.PixelBuffer, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	ent, ok := c.entries[key]
	if !ok {
		return media.PixelBuffer{}, false
	}
	c.clock++
	ent.touched = c.clock
	return ent.buffer, true
}

// Contains reports whether the key is cached, without touching recency.
func (c *Cache) Contains(key Key) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.entries[key]
	return ok
}

// InvalidateQuality drops every entry at one quality tier, leaving the other
// tiers alone.
func (c *Cache) InvalidateQuality(quality int) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	dropped := 0
	for key, ent := range c.entries {
		if key.Quality == quality {
			c.totalBytes -= ent.size
			delete(c.entries, key)
			dropped++
		}
	}
	return dropped
}

// InvalidateClip drops every entry for one clip across all qualities.
func (c *Cache) InvalidateClip(clipID string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	dropped := 0
	for key, ent := range c.entries {
		if key.ClipID == clipID {
			c.totalBytes -= ent.size
			delete(c.entries, key)
			dropped++
		}
	}
	return dropped
}

// Stats describes current cache usage.
type Stats struct {
	Entries    int
	TotalBytes int64
	MaxBytes   int64
	Generation uint64
}

// Stats returns current usage counters.
func (c *Cache) Stats() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return Stats{
		Entries:    len(c.entries),
		TotalBytes: c.totalBytes,
		MaxBytes:   c.maxBytes,
		Generation: c.generation,
	}
}

// Len returns the number of cached frames.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// evictLocked shrinks the cache under its byte bound. Entries more than one
// generation behind go first regardless of heat; only then does plain LRU
// apply. Stale data is never preferred over fresh.
func (c *Cache) evictLocked() {
	for c.totalBytes > c.maxBytes && len(c.entries) > 0 {
		victim := c.pickVictimLocked()
		if victim == nil {
			return
		}
		c.totalBytes -= victim.size
		delete(c.entries, victim.key)
	}
}

func (c *Cache) pickVictimLocked() *entry {
	var stale *entry
	var coldest *entry
	for _, ent := range c.entries {
		if c.generation > 0 && ent.generation+1 < c.generation {
			if stale == nil || ent.touched < stale.touched {
				stale = ent
			}
		}
		if coldest == nil || ent.touched < coldest.touched {
			coldest = ent
		}
	}
	if stale != nil {
		return stale
	}
	return coldest
}
