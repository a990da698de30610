// Package relink watches configured directories for source files that
// reappear after going missing, and points offline clips back at them.
package relink

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"

	"moshpit/internal/logging"
	"moshpit/internal/timeline"
)

// Relinker is the session-side contract the watcher drives.
type Relinker interface {
	MissingClips() []timeline.Clip
	AutoRelink(ctx context.Context, path string) ([]string, error)
}

// Watcher relinks missing clip sources as files appear in watch directories.
type Watcher struct {
	dirs    []string
	session Relinker
	logger  *slog.Logger

	mu      sync.Mutex
	fs      *fsnotify.Watcher
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	running bool
}

// New builds a watcher over the given directories. Nothing happens until
// Start.
func New(dirs []string, session Relinker, logger *slog.Logger) *Watcher {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Watcher{
		dirs:    dirs,
		session: session,
		logger:  logging.NewComponentLogger(logger, "relink"),
	}
}

// Start begins watching. Directories that do not exist are skipped with a
// warning; an empty watch list is not an error.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running {
		return errors.New("relink watcher already running")
	}

	fs, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	for _, dir := range w.dirs {
		info, statErr := os.Stat(dir)
		if statErr != nil || !info.IsDir() {
			w.logger.Warn("skipping watch directory", logging.String("dir", dir))
			continue
		}
		if addErr := fs.Add(dir); addErr != nil {
			_ = fs.Close()
			return addErr
		}
		w.logger.Info("watching directory", logging.String("dir", dir))
	}

	runCtx, cancel := context.WithCancel(ctx)
	w.fs = fs
	w.cancel = cancel
	w.running = true
	w.wg.Add(1)
	go w.run(runCtx, fs)
	return nil
}

// Stop halts watching and waits for the event loop to exit.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	cancel := w.cancel
	fs := w.fs
	w.cancel = nil
	w.fs = nil
	w.mu.Unlock()

	cancel()
	_ = fs.Close()
	w.wg.Wait()
}

func (w *Watcher) run(ctx context.Context, fs *fsnotify.Watcher) {
	defer w.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-fs.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Create|fsnotify.Rename|fsnotify.Write) == 0 {
				continue
			}
			w.handle(ctx, event.Name)
		case err, ok := <-fs.Errors:
			if !ok {
				return
			}
			w.logger.Warn("watch error", logging.Error(err))
		}
	}
}

func (w *Watcher) handle(ctx context.Context, path string) {
	base := filepath.Base(path)
	wanted := false
	for _, clip := range w.session.MissingClips() {
		if filepath.Base(clip.Source) == base {
			wanted = true
			break
		}
	}
	if !wanted {
		return
	}

	relinked, err := w.session.AutoRelink(ctx, path)
	if err != nil {
		// The file may still be mid-copy; a later write event retries.
		w.logger.Warn("relink attempt failed",
			logging.String("path", path),
			logging.Error(err))
		return
	}
	for _, clipID := range relinked {
		w.logger.Info("relinked clip",
			logging.String("clip", clipID),
			logging.String("path", path))
	}
}
