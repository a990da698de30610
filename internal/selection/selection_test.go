package selection_test

import (
	"testing"
	"time"

	"moshpit/internal/frameindex"
	"moshpit/internal/selection"
	"moshpit/internal/snap"
	"moshpit/internal/timeline"
)

func clipScan(count int) []frameindex.Frame {
	frames := make([]frameindex.Frame, 0, count)
	for i := 0; i < count; i++ {
		typ := frameindex.TypeP
		if i%30 == 0 {
			typ = frameindex.TypeI
		}
		frames = append(frames, frameindex.Frame{
			Index:     i,
			Timestamp: time.Duration(i) * time.Second / 30,
			Type:      typ,
		})
	}
	return frames
}

// twoClips builds a timeline with clip A at 0s and clip B at 20s, each 10s
// long with i-frames every second.
func twoClips(t *testing.T) (*timeline.Timeline, timeline.Clip, timeline.Clip) {
	t.Helper()
	tl := timeline.New()
	ixA, err := frameindex.New(clipScan(300))
	if err != nil {
		t.Fatalf("frameindex.New: %v", err)
	}
	ixB, err := frameindex.New(clipScan(300))
	if err != nil {
		t.Fatalf("frameindex.New: %v", err)
	}
	a := timeline.NewClip("a.mp4", 0, ixA)
	b := timeline.NewClip("b.mp4", 20*time.Second, ixB)
	tl.Add(a)
	tl.Add(b)
	return tl, a, b
}

func noSnap() snap.Config { return snap.Config{} }

func TestSelectClipOnlyLegalInClipMode(t *testing.T) {
	tl, a, _ := twoClips(t)
	eng := selection.NewEngine(tl)

	eng.SelectClip(a.ID, false)
	if eng.State() != selection.StateClipSelected {
		t.Fatalf("state = %s, want clip selected", eng.State())
	}

	eng.ToggleMode() // now time mode, selection converted
	eng.SelectClip(a.ID, false)
	if eng.State() != selection.StateNone {
		t.Fatalf("clip select in time mode should normalize to none, got %s", eng.State())
	}
}

func TestSelectClipAdditive(t *testing.T) {
	tl, a, b := twoClips(t)
	eng := selection.NewEngine(tl)

	eng.SelectClip(a.ID, false)
	eng.SelectClip(b.ID, true)
	sel := eng.Selection()
	if len(sel.ClipIDs) != 2 {
		t.Fatalf("expected 2 clips selected, got %v", sel.ClipIDs)
	}
	// Non-additive replaces.
	eng.SelectClip(b.ID, false)
	if sel := eng.Selection(); len(sel.ClipIDs) != 1 || sel.ClipIDs[0] != b.ID {
		t.Fatalf("expected only clip B, got %v", sel.ClipIDs)
	}
}

func TestSelectUnknownClipNormalizes(t *testing.T) {
	tl, _, _ := twoClips(t)
	eng := selection.NewEngine(tl)
	eng.SelectClip("ghost", false)
	if eng.State() != selection.StateNone {
		t.Fatalf("state = %s, want none", eng.State())
	}
}

func TestClipToTimeConversionSpansGap(t *testing.T) {
	tl, a, b := twoClips(t)
	eng := selection.NewEngine(tl)

	eng.SelectClip(a.ID, false)
	eng.SelectClip(b.ID, true)
	eng.ToggleMode()

	sel := eng.Selection()
	if sel.State != selection.StateTimeSelected {
		t.Fatalf("state = %s, want time selected", sel.State)
	}
	if sel.Start != a.TrackPosition {
		t.Fatalf("start = %v, want %v", sel.Start, a.TrackPosition)
	}
	if sel.End != b.End() {
		t.Fatalf("end = %v, want %v (gap included)", sel.End, b.End())
	}
}

func TestTimeToClipConversionSelectsIntersecting(t *testing.T) {
	tl, a, b := twoClips(t)
	eng := selection.NewEngine(tl)
	eng.ToggleMode() // time mode

	eng.SelectTimeRange(5*time.Second, 25*time.Second, noSnap())
	eng.ToggleMode() // back to clip mode

	sel := eng.Selection()
	if sel.State != selection.StateClipSelected || len(sel.ClipIDs) != 2 {
		t.Fatalf("expected both clips selected, got %+v", sel)
	}
	_ = a
	_ = b
}

func TestTimeSelectionInGapConvertsToNone(t *testing.T) {
	tl, _, _ := twoClips(t)
	eng := selection.NewEngine(tl)
	eng.ToggleMode()

	eng.SelectTimeRange(12*time.Second, 18*time.Second, noSnap())
	eng.ToggleMode()
	if eng.State() != selection.StateNone {
		t.Fatalf("state = %s, want none for gap-only range", eng.State())
	}
}

func TestEmptyRangeNormalizes(t *testing.T) {
	tl, _, _ := twoClips(t)
	eng := selection.NewEngine(tl)
	eng.ToggleMode()
	eng.SelectTimeRange(5*time.Second, 5*time.Second, noSnap())
	if eng.State() != selection.StateNone {
		t.Fatalf("state = %s, want none", eng.State())
	}
}

func TestInvertedRangeIsNormalizedToOrdered(t *testing.T) {
	tl, _, _ := twoClips(t)
	eng := selection.NewEngine(tl)
	eng.ToggleMode()
	eng.SelectTimeRange(8*time.Second, 2*time.Second, noSnap())
	sel := eng.Selection()
	if sel.Start != 2*time.Second || sel.End != 8*time.Second {
		t.Fatalf("range = %v..%v, want 2s..8s", sel.Start, sel.End)
	}
}

func TestActionLabelWipe(t *testing.T) {
	tl, a, _ := twoClips(t)
	eng := selection.NewEngine(tl)

	if got := eng.ActionLabel(time.Second); got != selection.ActionDisabled {
		t.Fatalf("no selection: label = %s, want disabled", got)
	}

	eng.SelectClip(a.ID, false)
	// Playhead on an i-frame of the selected clip.
	if got := eng.ActionLabel(2 * time.Second); got != selection.ActionInsertWipeMosh {
		t.Fatalf("label = %s, want insert wipe", got)
	}
	// Playhead on a delta frame.
	if got := eng.ActionLabel(2*time.Second + 100*time.Millisecond); got != selection.ActionDisabled {
		t.Fatalf("delta frame: label = %s, want disabled", got)
	}
	// Playhead outside the selected clip.
	if got := eng.ActionLabel(15 * time.Second); got != selection.ActionDisabled {
		t.Fatalf("outside clip: label = %s, want disabled", got)
	}
}

func TestActionLabelPersistentIgnoresPlayhead(t *testing.T) {
	tl, _, _ := twoClips(t)
	eng := selection.NewEngine(tl)
	eng.ToggleMode()
	eng.SelectTimeRange(time.Second, 5*time.Second, noSnap())

	for _, playhead := range []time.Duration{0, 3 * time.Second, time.Hour} {
		if got := eng.ActionLabel(playhead); got != selection.ActionInsertPersistentMosh {
			t.Fatalf("playhead %v: label = %s, want insert persistent", playhead, got)
		}
	}
}

func TestClearKeepsMode(t *testing.T) {
	tl, _, _ := twoClips(t)
	eng := selection.NewEngine(tl)
	eng.ToggleMode()
	eng.SelectTimeRange(time.Second, 5*time.Second, noSnap())
	eng.Clear()
	if eng.State() != selection.StateNone || eng.Mode() != selection.TimeMode {
		t.Fatalf("state=%s mode=%s, want none/time", eng.State(), eng.Mode())
	}
}

func TestRestoreRoundTrip(t *testing.T) {
	tl, a, _ := twoClips(t)
	eng := selection.NewEngine(tl)
	eng.SelectClip(a.ID, false)
	captured := eng.Selection()
	mode := eng.Mode()

	eng.ToggleMode()
	eng.SelectTimeRange(time.Second, 2*time.Second, noSnap())

	eng.Restore(mode, captured)
	if eng.Mode() != selection.ClipMode {
		t.Fatalf("mode = %s, want clip", eng.Mode())
	}
	sel := eng.Selection()
	if sel.State != selection.StateClipSelected || len(sel.ClipIDs) != 1 || sel.ClipIDs[0] != a.ID {
		t.Fatalf("restored selection mismatch: %+v", sel)
	}
}
