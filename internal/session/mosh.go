package session

import (
	"fmt"

	"moshpit/internal/logging"
	"moshpit/internal/modifier"
	"moshpit/internal/selection"
)

// InsertWipeMosh applies a single-frame mosh at the playhead. Requires clip
// mode, a selected clip containing the playhead, and the playhead sitting on
// one of that clip's keyframes.
func (s *Session) InsertWipeMosh() (modifier.Modifier, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	clipID, frameIdx, ok := s.wipeTargetLocked()
	if !ok {
		return modifier.Modifier{}, fmt.Errorf("%w: wipe mosh needs a selected clip with the playhead on a keyframe", ErrActionUnavailable)
	}
	mod, err := s.mods.InsertWipe(clipID, frameIdx)
	if err != nil {
		return modifier.Modifier{}, err
	}
	s.recordLocked("insert wipe mosh",
		func() error { return s.mods.Restore(mod) },
		func() error {
			_, err := s.mods.Remove(mod.ID)
			return err
		},
	)
	s.bumpLocked()
	s.logger.Info("inserted wipe mosh",
		logging.String("modifier", mod.ID),
		logging.String("clip", clipID),
		logging.Int("frame", frameIdx))
	return mod, nil
}

func (s *Session) wipeTargetLocked() (string, int, bool) {
	sel := s.sel.Selection()
	if s.sel.Mode() != selection.ClipMode || sel.State != selection.StateClipSelected {
		return "", 0, false
	}
	for _, clipID := range sel.ClipIDs {
		clip, ok := s.timeline.Clip(clipID)
		if !ok || clip.Index == nil || !clip.Contains(s.playhead) {
			continue
		}
		frame := clip.Index.FrameAt(clip.ToLocal(s.playhead))
		if clip.Index.IsIFrame(frame.Index) {
			return clipID, frame.Index, true
		}
	}
	return "", 0, false
}

// InsertPersistentMosh applies a ranged mosh over the current time selection.
// Wipe modifiers inside the range are superseded; undo restores them.
func (s *Session) InsertPersistentMosh() (modifier.Modifier, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sel := s.sel.Selection()
	if sel.State != selection.StateTimeSelected || sel.End <= sel.Start {
		return modifier.Modifier{}, fmt.Errorf("%w: persistent mosh needs a time selection", ErrActionUnavailable)
	}
	mod, superseded, err := s.mods.InsertPersistent(sel.Start, sel.End)
	if err != nil {
		return modifier.Modifier{}, err
	}
	s.recordLocked("insert persistent mosh",
		func() error {
			for _, old := range superseded {
				if _, err := s.mods.Remove(old.ID); err != nil {
					return err
				}
			}
			return s.mods.Restore(mod)
		},
		func() error {
			if _, err := s.mods.Remove(mod.ID); err != nil {
				return err
			}
			for _, old := range superseded {
				if err := s.mods.Restore(old); err != nil {
					return err
				}
			}
			return nil
		},
	)
	s.bumpLocked()
	s.logger.Info("inserted persistent mosh",
		logging.String("modifier", mod.ID),
		logging.Duration("start", mod.Start),
		logging.Duration("end", mod.End),
		logging.Int("keyframes", len(mod.Targets)),
		logging.Int("superseded", len(superseded)))
	return mod, nil
}

// RemoveModifier deletes a modifier by ID.
func (s *Session) RemoveModifier(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	mod, err := s.mods.Remove(id)
	if err != nil {
		return err
	}
	s.recordLocked("remove modifier",
		func() error {
			_, err := s.mods.Remove(mod.ID)
			return err
		},
		func() error { return s.mods.Restore(mod) },
	)
	s.bumpLocked()
	s.logger.Info("removed modifier", logging.String("modifier", id))
	return nil
}
