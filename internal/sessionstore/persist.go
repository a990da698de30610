package sessionstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"
)

const settingsKey = "session"

// Save replaces the session file contents with the given snapshot. The write
// is transactional: a failed save leaves the previous contents intact.
func (s *Store) Save(ctx context.Context, snap *Snapshot) error {
	if snap == nil {
		return errors.New("snapshot is nil")
	}
	ctx = ensureContext(ctx)

	return retryOnBusy(ctx, func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin save tx: %w", err)
		}
		defer func() { _ = tx.Rollback() }()

		for _, table := range []string{"modifier_targets", "modifiers", "clips", "settings"} {
			if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
				return fmt.Errorf("clear %s: %w", table, err)
			}
		}

		for i, clip := range snap.Clips {
			_, err := tx.ExecContext(ctx,
				`INSERT INTO clips (id, position, source, track_position, in_point, out_point)
                 VALUES (?, ?, ?, ?, ?, ?)`,
				clip.ID, i, clip.Source,
				int64(clip.TrackPosition), int64(clip.InPoint), int64(clip.OutPoint),
			)
			if err != nil {
				return fmt.Errorf("insert clip %s: %w", clip.ID, err)
			}
		}

		for _, mod := range snap.Modifiers {
			_, err := tx.ExecContext(ctx,
				`INSERT INTO modifiers (id, kind, start_at, end_at) VALUES (?, ?, ?, ?)`,
				mod.ID, mod.Kind, int64(mod.Start), int64(mod.End),
			)
			if err != nil {
				return fmt.Errorf("insert modifier %s: %w", mod.ID, err)
			}
			for _, target := range mod.Targets {
				_, err := tx.ExecContext(ctx,
					`INSERT INTO modifier_targets (modifier_id, clip_id, frame_index) VALUES (?, ?, ?)`,
					mod.ID, target.ClipID, target.FrameIndex,
				)
				if err != nil {
					return fmt.Errorf("insert modifier target: %w", err)
				}
			}
		}

		settingsJSON, err := json.Marshal(snap.Settings)
		if err != nil {
			return fmt.Errorf("marshal settings: %w", err)
		}
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO settings (key, value) VALUES (?, ?)", settingsKey, string(settingsJSON),
		); err != nil {
			return fmt.Errorf("insert settings: %w", err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit save: %w", err)
		}
		return nil
	})
}

// Load reads the full session snapshot. Clips whose source file no longer
// exists on disk are returned with Missing set rather than dropped.
func (s *Store) Load(ctx context.Context) (*Snapshot, error) {
	ctx = ensureContext(ctx)
	snap := &Snapshot{}

	clips, err := s.loadClips(ctx)
	if err != nil {
		return nil, err
	}
	snap.Clips = clips

	mods, err := s.loadModifiers(ctx)
	if err != nil {
		return nil, err
	}
	snap.Modifiers = mods

	settings, err := s.loadSettings(ctx)
	if err != nil {
		return nil, err
	}
	snap.Settings = settings

	return snap, nil
}

func (s *Store) loadClips(ctx context.Context) ([]ClipRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, source, track_position, in_point, out_point FROM clips ORDER BY position`,
	)
	if err != nil {
		return nil, fmt.Errorf("query clips: %w", err)
	}
	defer rows.Close()

	var clips []ClipRecord
	for rows.Next() {
		var (
			id, source                       string
			trackPosition, inPoint, outPoint int64
		)
		if err := rows.Scan(&id, &source, &trackPosition, &inPoint, &outPoint); err != nil {
			return nil, fmt.Errorf("scan clip: %w", err)
		}
		clip := ClipRecord{
			ID:            id,
			Source:        source,
			TrackPosition: time.Duration(trackPosition),
			InPoint:       time.Duration(inPoint),
			OutPoint:      time.Duration(outPoint),
		}
		if _, statErr := os.Stat(source); statErr != nil {
			clip.Missing = true
		}
		clips = append(clips, clip)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate clips: %w", err)
	}
	return clips, nil
}

func (s *Store) loadModifiers(ctx context.Context) ([]ModifierRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, kind, start_at, end_at FROM modifiers ORDER BY start_at, id`,
	)
	if err != nil {
		return nil, fmt.Errorf("query modifiers: %w", err)
	}
	defer rows.Close()

	var mods []ModifierRecord
	for rows.Next() {
		var (
			id, kind       string
			startAt, endAt int64
		)
		if err := rows.Scan(&id, &kind, &startAt, &endAt); err != nil {
			return nil, fmt.Errorf("scan modifier: %w", err)
		}
		mods = append(mods, ModifierRecord{
			ID:    id,
			Kind:  kind,
			Start: time.Duration(startAt),
			End:   time.Duration(endAt),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate modifiers: %w", err)
	}

	for i := range mods {
		targets, err := s.loadTargets(ctx, mods[i].ID)
		if err != nil {
			return nil, err
		}
		mods[i].Targets = targets
	}
	return mods, nil
}

func (s *Store) loadTargets(ctx context.Context, modifierID string) ([]TargetRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT clip_id, frame_index FROM modifier_targets WHERE modifier_id = ? ORDER BY frame_index`,
		modifierID,
	)
	if err != nil {
		return nil, fmt.Errorf("query modifier targets: %w", err)
	}
	defer rows.Close()

	var targets []TargetRecord
	for rows.Next() {
		var target TargetRecord
		if err := rows.Scan(&target.ClipID, &target.FrameIndex); err != nil {
			return nil, fmt.Errorf("scan modifier target: %w", err)
		}
		targets = append(targets, target)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate modifier targets: %w", err)
	}
	return targets, nil
}

func (s *Store) loadSettings(ctx context.Context) (Settings, error) {
	var raw string
	err := s.db.QueryRowContext(ctx,
		"SELECT value FROM settings WHERE key = ?", settingsKey,
	).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return Settings{}, nil
	}
	if err != nil {
		return Settings{}, fmt.Errorf("query settings: %w", err)
	}
	var settings Settings
	if err := json.Unmarshal([]byte(raw), &settings); err != nil {
		return Settings{}, fmt.Errorf("unmarshal settings: %w", err)
	}
	return settings, nil
}
