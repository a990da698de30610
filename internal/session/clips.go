package session

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"moshpit/internal/frameindex"
	"moshpit/internal/logging"
	"moshpit/internal/snap"
	"moshpit/internal/timeline"
)

// probeSource probes and scans a source, building its frame index. Import and
// relink share this path; a source that cannot be fully indexed is rejected
// wholesale.
func (s *Session) probeSource(ctx context.Context, source string) (*frameindex.Index, error) {
	if _, err := s.provider.Probe(ctx, source); err != nil {
		return nil, err
	}
	frames, err := s.provider.ScanFrames(ctx, source)
	if err != nil {
		return nil, err
	}
	index, err := frameindex.New(frames)
	if err != nil {
		return nil, fmt.Errorf("index %s: %w", source, err)
	}
	return index, nil
}

// ImportClip probes a source and places it on the timeline at position.
func (s *Session) ImportClip(ctx context.Context, source string, position time.Duration) (timeline.Clip, error) {
	index, err := s.probeSource(ctx, source)
	if err != nil {
		return timeline.Clip{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	clip := timeline.NewClip(source, position, index)
	s.timeline.Add(clip)
	s.recordLocked("import clip",
		func() error {
			s.timeline.Add(clip)
			return nil
		},
		func() error {
			_, err := s.timeline.Remove(clip.ID)
			return err
		},
	)
	s.bumpLocked()
	s.logger.Info("imported clip",
		logging.String("clip", clip.ID),
		logging.String("source", source),
		logging.Duration("duration", clip.Duration()))
	return clip, nil
}

// MoveClip repositions a clip. When dragging, the new position snaps against
// the configured targets.
func (s *Session) MoveClip(clipID string, position time.Duration, dragging bool) (snap.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	clip, ok := s.timeline.Clip(clipID)
	if !ok {
		return snap.Result{}, fmt.Errorf("%w: %s", timeline.ErrClipNotFound, clipID)
	}
	resolved := snap.Resolve(position, s.timeline, s.snapCfg, dragging)
	previous := clip.TrackPosition
	if err := s.timeline.Move(clipID, resolved.Time); err != nil {
		return snap.Result{}, err
	}
	s.recordLocked("move clip",
		func() error { return s.timeline.Move(clipID, resolved.Time) },
		func() error { return s.timeline.Move(clipID, previous) },
	)
	s.bumpLocked()
	return resolved, nil
}

// TrimClip adjusts a clip's in and out points in source-local time.
func (s *Session) TrimClip(clipID string, in, out time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	clip, ok := s.timeline.Clip(clipID)
	if !ok {
		return fmt.Errorf("%w: %s", timeline.ErrClipNotFound, clipID)
	}
	prevIn, prevOut := clip.InPoint, clip.OutPoint
	if err := s.timeline.Trim(clipID, in, out); err != nil {
		return err
	}
	s.recordLocked("trim clip",
		func() error { return s.timeline.Trim(clipID, in, out) },
		func() error { return s.timeline.Trim(clipID, prevIn, prevOut) },
	)
	s.bumpLocked()
	return nil
}

// RemoveClip deletes a clip and every modifier targeting it. Undo restores
// both.
func (s *Session) RemoveClip(clipID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	clip, err := s.timeline.Remove(clipID)
	if err != nil {
		return err
	}
	dropped := s.mods.DropClip(clipID)
	s.recordLocked("remove clip",
		func() error {
			if _, err := s.timeline.Remove(clipID); err != nil {
				return err
			}
			s.mods.DropClip(clipID)
			return nil
		},
		func() error {
			s.timeline.Add(clip)
			for _, mod := range dropped {
				if err := s.mods.Restore(mod); err != nil {
					return err
				}
			}
			return nil
		},
	)
	s.cache.InvalidateClip(clipID)
	s.bumpLocked()
	s.logger.Info("removed clip",
		logging.String("clip", clipID),
		logging.Int("modifiers dropped", len(dropped)))
	return nil
}

// RelinkClip points a clip at a new source file, rebuilding its frame index.
// The clip keeps its identity and modifiers; an out point past the new
// source's end is clamped.
func (s *Session) RelinkClip(ctx context.Context, clipID, source string) error {
	index, err := s.probeSource(ctx, source)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	before, ok := s.timeline.Clip(clipID)
	if !ok {
		return fmt.Errorf("%w: %s", timeline.ErrClipNotFound, clipID)
	}
	if err := s.timeline.Relink(clipID, source, index); err != nil {
		return err
	}
	after, _ := s.timeline.Clip(clipID)
	s.recordLocked("relink clip",
		func() error { return s.replaceClipLocked(after) },
		func() error { return s.replaceClipLocked(before) },
	)
	s.cache.InvalidateClip(clipID)
	s.bumpLocked()
	s.logger.Info("relinked clip",
		logging.String("clip", clipID),
		logging.String("source", source))
	return nil
}

func (s *Session) replaceClipLocked(clip timeline.Clip) error {
	if _, err := s.timeline.Remove(clip.ID); err != nil {
		return err
	}
	s.timeline.Add(clip)
	return nil
}

// AutoRelink relinks every missing clip whose source base name matches the
// given path. Used by the watch-directory relinker. Returns the IDs of the
// clips that were relinked.
func (s *Session) AutoRelink(ctx context.Context, path string) ([]string, error) {
	base := baseName(path)

	var candidates []string
	s.mu.Lock()
	for _, clip := range s.timeline.Clips() {
		if clip.Missing() && baseName(clip.Source) == base {
			candidates = append(candidates, clip.ID)
		}
	}
	s.mu.Unlock()

	var relinked []string
	for _, clipID := range candidates {
		if err := s.RelinkClip(ctx, clipID, path); err != nil {
			return relinked, err
		}
		relinked = append(relinked, clipID)
	}
	return relinked, nil
}

func baseName(path string) string {
	return filepath.Base(path)
}
