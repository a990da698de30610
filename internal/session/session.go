package session

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"moshpit/internal/config"
	"moshpit/internal/framecache"
	"moshpit/internal/history"
	"moshpit/internal/logging"
	"moshpit/internal/media"
	"moshpit/internal/modifier"
	"moshpit/internal/preview"
	"moshpit/internal/selection"
	"moshpit/internal/sessionstore"
	"moshpit/internal/snap"
	"moshpit/internal/timeline"
)

var (
	// ErrActionUnavailable indicates the current selection and playhead do
	// not permit the requested mosh action.
	ErrActionUnavailable = errors.New("action unavailable for current selection")
	// ErrNoStore indicates the session was opened without a backing file.
	ErrNoStore = errors.New("session has no backing store")
)

// Session coordinates the editing engine. All methods are safe for
// concurrent use; mutations are serialized behind one mutex.
type Session struct {
	mu sync.Mutex

	logger   *slog.Logger
	provider media.Provider
	store    *sessionstore.Store

	timeline   *timeline.Timeline
	mods       *modifier.Engine
	sel        *selection.Engine
	history    *history.Log
	cache      *framecache.Cache
	compositor *preview.Compositor

	snapCfg    snap.Config
	playhead   time.Duration
	quality    int
	generation uint64
}

// New builds a session from config. The store may be nil for an unsaved
// scratch session; Save then fails with ErrNoStore until one is attached.
func New(cfg *config.Config, provider media.Provider, store *sessionstore.Store, logger *slog.Logger) *Session {
	if logger == nil {
		logger = logging.NewNop()
	}
	tl := timeline.New()
	cache := framecache.New(int64(cfg.Preview.CacheMaxMiB) << 20)
	sessionLogger := logging.NewComponentLogger(logger, "session")

	snapCfg := snap.Config{
		Grid:     cfg.Snap.Grid,
		ClipEdge: cfg.Snap.ClipEdge,
		IFrame:   cfg.Snap.IFrame,
		GridUnit: time.Duration(cfg.Snap.GridUnitMillis) * time.Millisecond,
		Radius:   time.Duration(cfg.Snap.RadiusMillis) * time.Millisecond,
	}

	return &Session{
		logger:     sessionLogger,
		provider:   provider,
		store:      store,
		timeline:   tl,
		mods:       modifier.NewEngine(tl),
		sel:        selection.NewEngine(tl),
		history:    history.NewLog(history.DefaultLimit),
		cache:      cache,
		compositor: preview.New(provider, cache, logger, cfg.Preview.Workers),
		snapCfg:    snapCfg,
		quality:    cfg.Preview.DefaultQuality,
	}
}

// bumpLocked advances the generation and propagates the new value to the
// cache and the compositor. Call after every timeline or modifier mutation.
func (s *Session) bumpLocked() {
	s.generation++
	s.cache.Advance(s.generation)
	s.compositor.MarkStale(s.generation)
}

// Generation returns the current edit generation.
func (s *Session) Generation() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generation
}

// Playhead returns the current playhead position.
func (s *Session) Playhead() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.playhead
}

// Clips returns the timeline clips in playback order.
func (s *Session) Clips() []timeline.Clip {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.timeline.Clips()
}

// Clip returns the clip with the given ID.
func (s *Session) Clip(clipID string) (timeline.Clip, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.timeline.Clip(clipID)
}

// Modifiers returns all modifiers ordered by start time.
func (s *Session) Modifiers() []modifier.Modifier {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mods.All()
}

// MissingClips returns the clips whose source media is offline.
func (s *Session) MissingClips() []timeline.Clip {
	s.mu.Lock()
	defer s.mu.Unlock()
	var missing []timeline.Clip
	for _, clip := range s.timeline.Clips() {
		if clip.Missing() {
			missing = append(missing, clip)
		}
	}
	return missing
}

// End returns the timeline end, the right edge of the last clip.
func (s *Session) End() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.timeline.End()
}

// CanUndo reports whether an undo step is available.
func (s *Session) CanUndo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.history.CanUndo()
}

// CanRedo reports whether a redo step is available.
func (s *Session) CanRedo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.history.CanRedo()
}

// Undo reverts the most recent mutation.
func (s *Session) Undo() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cmd, err := s.history.Undo()
	if err != nil {
		return err
	}
	s.bumpLocked()
	s.logger.Info("undid edit", logging.String("kind", cmd.Kind()))
	return nil
}

// Redo reapplies the most recently undone mutation.
func (s *Session) Redo() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cmd, err := s.history.Redo()
	if err != nil {
		return err
	}
	s.bumpLocked()
	s.logger.Info("redid edit", logging.String("kind", cmd.Kind()))
	return nil
}

// HistoryKinds returns the kinds of all recorded commands, oldest first.
// Intended for status display.
func (s *Session) HistoryKinds() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	entries := s.history.Entries()
	kinds := make([]string, len(entries))
	for i, cmd := range entries {
		kinds[i] = cmd.Kind()
	}
	return kinds
}

// Close releases the backing store. The session must not be used afterwards.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.store == nil {
		return nil
	}
	err := s.store.Close()
	s.store = nil
	return err
}
