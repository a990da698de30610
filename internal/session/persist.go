package session

import (
	"context"

	"moshpit/internal/frameindex"
	"moshpit/internal/history"
	"moshpit/internal/logging"
	"moshpit/internal/media"
	"moshpit/internal/modifier"
	"moshpit/internal/selection"
	"moshpit/internal/sessionstore"
	"moshpit/internal/snap"
	"moshpit/internal/timeline"
)

// Save writes the timeline, modifiers and settings to the backing store. The
// undo history and the frame cache are never persisted.
func (s *Session) Save(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.store == nil {
		return ErrNoStore
	}

	snapshot := &sessionstore.Snapshot{
		Settings: sessionstore.Settings{
			Playhead:       s.playhead,
			SelectionMode:  string(s.sel.Mode()),
			PreviewQuality: s.quality,
			SnapGrid:       s.snapCfg.Grid,
			SnapClipEdge:   s.snapCfg.ClipEdge,
			SnapIFrame:     s.snapCfg.IFrame,
			SnapGridUnit:   s.snapCfg.GridUnit,
			SnapRadius:     s.snapCfg.Radius,
		},
	}
	for _, clip := range s.timeline.Clips() {
		snapshot.Clips = append(snapshot.Clips, sessionstore.ClipRecord{
			ID:            clip.ID,
			Source:        clip.Source,
			TrackPosition: clip.TrackPosition,
			InPoint:       clip.InPoint,
			OutPoint:      clip.OutPoint,
		})
	}
	for _, mod := range s.mods.All() {
		rec := sessionstore.ModifierRecord{
			ID:    mod.ID,
			Kind:  string(mod.Kind),
			Start: mod.Start,
			End:   mod.End,
		}
		for _, target := range mod.Targets {
			rec.Targets = append(rec.Targets, sessionstore.TargetRecord{
				ClipID:     target.ClipID,
				FrameIndex: target.FrameIndex,
			})
		}
		snapshot.Modifiers = append(snapshot.Modifiers, rec)
	}

	if err := s.store.Save(ctx, snapshot); err != nil {
		return err
	}
	s.logger.Info("saved session",
		logging.String("path", s.store.Path()),
		logging.Int("clips", len(snapshot.Clips)),
		logging.Int("modifiers", len(snapshot.Modifiers)))
	return nil
}

// Load replaces the session state with the contents of the backing store.
// Sources are re-indexed; clips whose source is missing or unreadable load
// offline and render black until relinked. The undo history starts empty.
func (s *Session) Load(ctx context.Context) error {
	s.mu.Lock()
	store := s.store
	s.mu.Unlock()
	if store == nil {
		return ErrNoStore
	}

	stored, err := store.Load(ctx)
	if err != nil {
		return err
	}

	// Index sources before taking the lock; probing shells out per clip.
	clips := make([]timeline.Clip, 0, len(stored.Clips))
	for _, rec := range stored.Clips {
		var index *frameindex.Index
		if !rec.Missing {
			index, err = s.probeSource(ctx, rec.Source)
			if err != nil {
				s.logger.Warn("source unreadable, loading clip offline",
					logging.String("clip", rec.ID),
					logging.String("source", rec.Source),
					logging.Error(err))
				index = nil
			}
		}
		clips = append(clips, timeline.Clip{
			ID:            rec.ID,
			Source:        rec.Source,
			TrackPosition: rec.TrackPosition,
			InPoint:       rec.InPoint,
			OutPoint:      rec.OutPoint,
			Index:         index,
		})
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.timeline = timeline.New()
	for _, clip := range clips {
		s.timeline.Add(clip)
	}
	s.mods = modifier.NewEngine(s.timeline)
	for _, rec := range stored.Modifiers {
		mod := modifier.Modifier{
			ID:    rec.ID,
			Kind:  modifier.Kind(rec.Kind),
			Start: rec.Start,
			End:   rec.End,
		}
		for _, target := range rec.Targets {
			mod.Targets = append(mod.Targets, modifier.Target{
				ClipID:     target.ClipID,
				FrameIndex: target.FrameIndex,
			})
		}
		if err := s.mods.Restore(mod); err != nil {
			s.logger.Warn("dropping unrestorable modifier",
				logging.String("modifier", rec.ID),
				logging.Error(err))
		}
	}
	s.sel = selection.NewEngine(s.timeline)
	s.history = history.NewLog(history.DefaultLimit)

	if stored.Settings != (sessionstore.Settings{}) {
		s.applySettingsLocked(stored.Settings)
	}
	s.bumpLocked()
	s.logger.Info("loaded session",
		logging.String("path", store.Path()),
		logging.Int("clips", len(clips)),
		logging.Int("modifiers", s.mods.Len()))
	return nil
}

func (s *Session) applySettingsLocked(settings sessionstore.Settings) {
	s.playhead = settings.Playhead
	if media.ValidQuality(settings.PreviewQuality) {
		s.quality = settings.PreviewQuality
	}
	if mode := selection.Mode(settings.SelectionMode); mode == selection.ClipMode || mode == selection.TimeMode {
		s.sel.Restore(mode, selection.Selection{})
	}
	s.snapCfg = snap.Config{
		Grid:     settings.SnapGrid,
		ClipEdge: settings.SnapClipEdge,
		IFrame:   settings.SnapIFrame,
		GridUnit: settings.SnapGridUnit,
		Radius:   settings.SnapRadius,
	}
}
