package session

import (
	"context"

	"moshpit/internal/framecache"
	"moshpit/internal/preview"
)

// RequestPreview starts an asynchronous preview render of the current state
// at the active quality. Frames nearest the playhead decode first. The
// returned handle reports progress and goes stale on the next edit.
func (s *Session) RequestPreview(ctx context.Context) (*preview.Handle, error) {
	s.mu.Lock()
	snapshot := preview.NewSnapshot(s.generation, s.timeline, s.mods)
	playhead := s.playhead
	quality := s.quality
	s.mu.Unlock()

	return s.compositor.Request(ctx, snapshot, playhead, quality)
}

// CacheStats reports the decoded-frame cache occupancy.
func (s *Session) CacheStats() framecache.Stats {
	return s.cache.Stats()
}
