package session

import (
	"fmt"
	"time"

	"moshpit/internal/logging"
	"moshpit/internal/media"
	"moshpit/internal/selection"
	"moshpit/internal/snap"
)

// Seek moves the playhead. When dragging, the position snaps against the
// configured targets; during playback the raw value passes through.
func (s *Session) Seek(t time.Duration, dragging bool) snap.Result {
	s.mu.Lock()
	defer s.mu.Unlock()

	if t < 0 {
		t = 0
	}
	resolved := snap.Resolve(t, s.timeline, s.snapCfg, dragging)
	s.playhead = resolved.Time
	return resolved
}

// recordSelectionLocked runs one selection mutation and records the
// transition, so undo walks selection changes in the same linear stream as
// edits. A mutation that leaves the selection unchanged is not recorded.
func (s *Session) recordSelectionLocked(kind string, mutate func()) {
	prevMode, prevSel := s.sel.Mode(), s.sel.Selection()
	mutate()
	nextMode, nextSel := s.sel.Mode(), s.sel.Selection()
	if nextMode == prevMode && selectionEqual(nextSel, prevSel) {
		return
	}
	s.recordLocked(kind,
		func() error { s.sel.Restore(nextMode, nextSel); return nil },
		func() error { s.sel.Restore(prevMode, prevSel); return nil },
	)
}

func selectionEqual(a, b selection.Selection) bool {
	if a.State != b.State || a.Start != b.Start || a.End != b.End {
		return false
	}
	if len(a.ClipIDs) != len(b.ClipIDs) {
		return false
	}
	for i := range a.ClipIDs {
		if a.ClipIDs[i] != b.ClipIDs[i] {
			return false
		}
	}
	return true
}

// SelectClip selects a clip, additively when additive is set. Outside clip
// mode the selection clears instead.
func (s *Session) SelectClip(clipID string, additive bool) selection.Selection {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recordSelectionLocked("select clip", func() {
		s.sel.SelectClip(clipID, additive)
	})
	return s.sel.Selection()
}

// SelectTimeRange selects a span of timeline time, snapping both edges. An
// inverted range is swapped. Outside time mode the selection clears instead.
func (s *Session) SelectTimeRange(start, end time.Duration) selection.Selection {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recordSelectionLocked("select time range", func() {
		s.sel.SelectTimeRange(start, end, s.snapCfg)
	})
	return s.sel.Selection()
}

// ToggleSelectionMode switches between clip and time mode, converting any
// active selection to the nearest equivalent in the new mode.
func (s *Session) ToggleSelectionMode() selection.Mode {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recordSelectionLocked("toggle selection mode", func() {
		s.sel.ToggleMode()
	})
	return s.sel.Mode()
}

// ClearSelection drops the active selection but keeps the mode.
func (s *Session) ClearSelection() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recordSelectionLocked("clear selection", func() {
		s.sel.Clear()
	})
}

// Selection returns the current selection.
func (s *Session) Selection() selection.Selection {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sel.Selection()
}

// SelectionMode returns the current selection mode.
func (s *Session) SelectionMode() selection.Mode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sel.Mode()
}

// ActionLabel returns the mosh action available for the current selection
// and playhead.
func (s *Session) ActionLabel() selection.ActionLabel {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sel.ActionLabel(s.playhead)
}

// SnapConfig returns the active snap settings.
func (s *Session) SnapConfig() snap.Config {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapCfg
}

// SetSnapConfig replaces the snap settings. Recorded like any other mutation;
// undo restores the previous settings.
func (s *Session) SetSnapConfig(cfg snap.Config) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if cfg == s.snapCfg {
		return
	}
	prev := s.snapCfg
	s.snapCfg = cfg
	s.recordLocked("change snap settings",
		func() error { s.snapCfg = cfg; return nil },
		func() error { s.snapCfg = prev; return nil },
	)
}

// Quality returns the active preview quality level.
func (s *Session) Quality() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.quality
}

// SetQuality switches the preview quality level. Cached frames at the tier
// being left are dropped; other tiers keep their entries. Recorded; undo
// switches back.
func (s *Session) SetQuality(quality int) error {
	if !media.ValidQuality(quality) {
		return fmt.Errorf("quality %d is not one of %v", quality, media.QualityLevels)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if quality == s.quality {
		return nil
	}
	prev := s.quality
	s.applyQualityLocked(quality)
	s.recordLocked("change preview quality",
		func() error { s.applyQualityLocked(quality); return nil },
		func() error { s.applyQualityLocked(prev); return nil },
	)
	return nil
}

func (s *Session) applyQualityLocked(quality int) {
	if quality == s.quality {
		return
	}
	dropped := s.cache.InvalidateQuality(s.quality)
	s.quality = quality
	s.logger.Debug("switched preview quality",
		logging.Int("quality", quality),
		logging.Int("frames dropped", dropped))
}
