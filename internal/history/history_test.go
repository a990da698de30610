package history_test

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"moshpit/internal/history"
)

// counterCommand increments a shared counter on apply and decrements on
// revert, tagging itself with a serial so eviction order is observable.
type counterCommand struct {
	serial  int
	counter *int
	at      time.Time
}

func (c *counterCommand) Kind() string         { return fmt.Sprintf("count-%d", c.serial) }
func (c *counterCommand) AppliedAt() time.Time { return c.at }
func (c *counterCommand) Apply() error         { *c.counter++; return nil }
func (c *counterCommand) Revert() error        { *c.counter--; return nil }

func record(l *history.Log, counter *int, serial int) {
	cmd := &counterCommand{serial: serial, counter: counter, at: time.Now()}
	_ = cmd.Apply()
	l.Record(cmd)
}

func TestUndoRedoRoundTrip(t *testing.T) {
	counter := 0
	l := history.NewLog(0)
	record(l, &counter, 1)
	if counter != 1 {
		t.Fatalf("counter = %d, want 1", counter)
	}

	if _, err := l.Undo(); err != nil {
		t.Fatalf("Undo: %v", err)
	}
	if counter != 0 {
		t.Fatalf("after undo counter = %d, want 0", counter)
	}
	if _, err := l.Redo(); err != nil {
		t.Fatalf("Redo: %v", err)
	}
	if counter != 1 {
		t.Fatalf("after redo counter = %d, want 1", counter)
	}
}

func TestUndoAtStartFails(t *testing.T) {
	l := history.NewLog(0)
	if _, err := l.Undo(); !errors.Is(err, history.ErrNothingToUndo) {
		t.Fatalf("expected ErrNothingToUndo, got %v", err)
	}
}

func TestRedoAtTailFails(t *testing.T) {
	counter := 0
	l := history.NewLog(0)
	record(l, &counter, 1)
	if _, err := l.Redo(); !errors.Is(err, history.ErrNothingToRedo) {
		t.Fatalf("expected ErrNothingToRedo, got %v", err)
	}
}

func TestRecordTruncatesUndoneTail(t *testing.T) {
	counter := 0
	l := history.NewLog(0)
	record(l, &counter, 1)
	record(l, &counter, 2)
	if _, err := l.Undo(); err != nil {
		t.Fatalf("Undo: %v", err)
	}
	record(l, &counter, 3)

	if l.Len() != 2 {
		t.Fatalf("Len = %d, want 2 (undone tail truncated)", l.Len())
	}
	if _, err := l.Redo(); !errors.Is(err, history.ErrNothingToRedo) {
		t.Fatalf("truncated command must not be redoable, got %v", err)
	}
	entries := l.Entries()
	if entries[1].Kind() != "count-3" {
		t.Fatalf("tail = %s, want count-3", entries[1].Kind())
	}
}

func TestCapEvictsOldest(t *testing.T) {
	counter := 0
	l := history.NewLog(0)
	for i := 1; i <= history.DefaultLimit+1; i++ {
		record(l, &counter, i)
	}
	if l.Len() != history.DefaultLimit {
		t.Fatalf("Len = %d, want %d", l.Len(), history.DefaultLimit)
	}

	// Undo everything retained; the very first command is gone for good.
	undone := 0
	for l.CanUndo() {
		if _, err := l.Undo(); err != nil {
			t.Fatalf("Undo %d: %v", undone, err)
		}
		undone++
	}
	if undone != history.DefaultLimit {
		t.Fatalf("undid %d commands, want %d", undone, history.DefaultLimit)
	}
	// Command 1's effect is stranded: counter stops at 1, not 0.
	if counter != 1 {
		t.Fatalf("counter = %d, want 1 (evicted command not undoable)", counter)
	}
	if l.Entries()[0].Kind() != "count-2" {
		t.Fatalf("oldest retained = %s, want count-2", l.Entries()[0].Kind())
	}
}

func TestCanUndoCanRedo(t *testing.T) {
	counter := 0
	l := history.NewLog(0)
	if l.CanUndo() || l.CanRedo() {
		t.Fatal("empty log should allow neither")
	}
	record(l, &counter, 1)
	if !l.CanUndo() || l.CanRedo() {
		t.Fatal("after record: undo yes, redo no")
	}
	if _, err := l.Undo(); err != nil {
		t.Fatalf("Undo: %v", err)
	}
	if l.CanUndo() || !l.CanRedo() {
		t.Fatal("after undo: undo no, redo yes")
	}
}
