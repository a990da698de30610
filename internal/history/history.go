package history

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrNothingToUndo indicates the cursor is at the start of the log.
	ErrNothingToUndo = errors.New("nothing to undo")
	// ErrNothingToRedo indicates the cursor is at the tail of the log.
	ErrNothingToRedo = errors.New("nothing to redo")
)

// DefaultLimit caps the edit history. Evicted commands can no longer be
// undone; this bound is deliberate.
const DefaultLimit = 100

// Command is a self-contained reversible operation. Apply reinstates the
// command's effect, Revert undoes it exactly; neither may re-derive state
// from scratch.
type Command interface {
	Kind() string
	AppliedAt() time.Time
	Apply() error
	Revert() error
}

// Log is a linear undo/redo stream with a cursor separating applied commands
// from undone ones. Not safe for concurrent use; the session serializes
// access.
type Log struct {
	entries []Command
	cursor  int
	limit   int
}

// NewLog builds a log bounded to limit entries; limit <= 0 uses DefaultLimit.
func NewLog(limit int) *Log {
	if limit <= 0 {
		limit = DefaultLimit
	}
	return &Log{limit: limit}
}

// Record appends an already-applied command at the cursor. Any undone tail is
// truncated; if the log exceeds its bound the oldest entry is dropped.
func (l *Log) Record(cmd Command) {
	l.entries = append(l.entries[:l.cursor], cmd)
	if len(l.entries) > l.limit {
		drop := len(l.entries) - l.limit
		l.entries = append(l.entries[:0:0], l.entries[drop:]...)
	}
	l.cursor = len(l.entries)
}

// Undo reverts the command before the cursor and steps back.
func (l *Log) Undo() (Command, error) {
	if l.cursor == 0 {
		return nil, ErrNothingToUndo
	}
	cmd := l.entries[l.cursor-1]
	if err := cmd.Revert(); err != nil {
		return nil, fmt.Errorf("revert %s: %w", cmd.Kind(), err)
	}
	l.cursor--
	return cmd, nil
}

// Redo reapplies the command at the cursor and steps forward.
func (l *Log) Redo() (Command, error) {
	if l.cursor >= len(l.entries) {
		return nil, ErrNothingToRedo
	}
	cmd := l.entries[l.cursor]
	if err := cmd.Apply(); err != nil {
		return nil, fmt.Errorf("apply %s: %w", cmd.Kind(), err)
	}
	l.cursor++
	return cmd, nil
}

// CanUndo reports whether Undo would succeed.
func (l *Log) CanUndo() bool { return l.cursor > 0 }

// CanRedo reports whether Redo would succeed.
func (l *Log) CanRedo() bool { return l.cursor < len(l.entries) }

// Len returns the number of retained commands, applied or undone.
func (l *Log) Len() int { return len(l.entries) }

// Entries returns the retained commands in order, oldest first.
func (l *Log) Entries() []Command {
	out := make([]Command, len(l.entries))
	copy(out, l.entries)
	return out
}

// Cursor returns the position separating applied from undone commands.
func (l *Log) Cursor() int { return l.cursor }
