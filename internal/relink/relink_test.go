package relink

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"moshpit/internal/session"
	"moshpit/internal/sessionstore"
	"moshpit/internal/testsupport"
)

func TestWatcherRelinksReappearingSource(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	provider := testsupport.NewFakeProvider()
	base := testsupport.BaseDir(cfg)

	sourcePath := filepath.Join(base, "footage.mp4")
	testsupport.WriteFile(t, sourcePath, 16)
	provider.AddSource(sourcePath, testsupport.FakeSource{FrameCount: 300})

	// Save a session referencing the source, then delete the source so the
	// reload brings the clip up offline.
	dbPath := filepath.Join(cfg.SessionDir, "edit.db")
	store, err := sessionstore.Open(dbPath)
	if err != nil {
		t.Fatalf("Open store: %v", err)
	}
	sess := session.New(cfg, provider, store, nil)
	if _, err := sess.ImportClip(context.Background(), sourcePath, 0); err != nil {
		t.Fatalf("ImportClip: %v", err)
	}
	if err := sess.Save(context.Background()); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := sess.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := os.Remove(sourcePath); err != nil {
		t.Fatalf("remove source: %v", err)
	}

	store, err = sessionstore.Open(dbPath)
	if err != nil {
		t.Fatalf("reopen store: %v", err)
	}
	restored := session.New(cfg, provider, store, nil)
	t.Cleanup(func() { restored.Close() })
	if err := restored.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(restored.MissingClips()) != 1 {
		t.Fatalf("expected one missing clip, got %d", len(restored.MissingClips()))
	}

	watcher := New(cfg.WatchDirs, restored, nil)
	if err := watcher.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(watcher.Stop)

	// The source reappears in a watch directory under the same base name.
	newPath := filepath.Join(cfg.WatchDirs[0], "footage.mp4")
	provider.AddSource(newPath, testsupport.FakeSource{FrameCount: 300})
	testsupport.WriteFile(t, newPath, 16)

	deadline := time.After(5 * time.Second)
	for len(restored.MissingClips()) > 0 {
		select {
		case <-deadline:
			t.Fatal("watcher never relinked the clip")
		case <-time.After(20 * time.Millisecond):
		}
	}
	clips := restored.Clips()
	if len(clips) != 1 || clips[0].Source != newPath {
		t.Fatalf("clips = %+v", clips)
	}
}

func TestStartSkipsMissingDirectories(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	provider := testsupport.NewFakeProvider()
	sess := session.New(cfg, provider, nil, nil)
	t.Cleanup(func() { sess.Close() })

	watcher := New([]string{filepath.Join(testsupport.BaseDir(cfg), "does-not-exist")}, sess, nil)
	if err := watcher.Start(context.Background()); err != nil {
		t.Fatalf("Start with missing dir: %v", err)
	}
	watcher.Stop()
}

func TestStartTwiceFails(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	provider := testsupport.NewFakeProvider()
	sess := session.New(cfg, provider, nil, nil)
	t.Cleanup(func() { sess.Close() })

	watcher := New(cfg.WatchDirs, sess, nil)
	if err := watcher.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(watcher.Stop)
	if err := watcher.Start(context.Background()); err == nil {
		t.Fatal("second Start should fail")
	}
}
