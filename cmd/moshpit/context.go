package main

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"

	"moshpit/internal/config"
	"moshpit/internal/logging"
	"moshpit/internal/media"
	"moshpit/internal/session"
	"moshpit/internal/sessionstore"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) newLogger() (*slog.Logger, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	return logging.New(logging.Options{
		Level:       cfg.Logging.Level,
		Format:      cfg.Logging.Format,
		OutputPaths: []string{filepath.Join(cfg.LogDir, "moshpit.log")},
	})
}

func (c *commandContext) provider() (media.Provider, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	return media.NewFFmpegProvider(cfg.Media.FFprobeBinary, cfg.Media.FFmpegBinary), nil
}

// openSession opens a session file, loads its contents, and returns the
// session with a cleanup function. The name may be a bare session name,
// resolved into the configured session directory, or an explicit path.
func (c *commandContext) openSession(ctx context.Context, name string) (*session.Session, func(), error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, nil, err
	}
	logger, err := c.newLogger()
	if err != nil {
		return nil, nil, err
	}
	provider, err := c.provider()
	if err != nil {
		return nil, nil, err
	}

	store, err := sessionstore.Open(resolveSessionPath(cfg, name))
	if err != nil {
		return nil, nil, err
	}
	sess := session.New(cfg, provider, store, logger)
	if err := sess.Load(ctx); err != nil {
		_ = sess.Close()
		return nil, nil, fmt.Errorf("load session: %w", err)
	}
	cleanup := func() { _ = sess.Close() }
	return sess, cleanup, nil
}

// saveAndClose persists the session and releases its lock, reporting the
// first error.
func saveAndClose(ctx context.Context, sess *session.Session) error {
	saveErr := sess.Save(ctx)
	closeErr := sess.Close()
	if saveErr != nil {
		return saveErr
	}
	return closeErr
}

func resolveSessionPath(cfg *config.Config, name string) string {
	name = strings.TrimSpace(name)
	if strings.ContainsRune(name, filepath.Separator) || strings.HasSuffix(name, ".db") {
		return name
	}
	return filepath.Join(cfg.SessionDir, name+".db")
}
