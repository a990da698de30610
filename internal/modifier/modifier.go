package modifier

import (
	"time"

	"github.com/google/uuid"
)

// Kind distinguishes the two mosh variants.
type Kind string

const (
	// KindWipe replaces exactly one i-frame with a p-frame equivalent.
	KindWipe Kind = "wipe"
	// KindPersistent replaces every i-frame across a timeline range.
	KindPersistent Kind = "persistent"
)

// Target keys a single moshed frame. Modifiers hold keys, never clip
// back-references.
type Target struct {
	ClipID     string
	FrameIndex int
}

// Modifier is an immutable record of one applied mosh. The targets list the
// exact frames whose classification is overridden; how far the visual effect
// reads forward is the compositor's concern, not the record's.
type Modifier struct {
	ID      string
	Kind    Kind
	Start   time.Duration // persistent only, timeline time
	End     time.Duration // persistent only, timeline time
	Targets []Target
}

func newWipe(target Target) Modifier {
	return Modifier{ID: uuid.NewString(), Kind: KindWipe, Targets: []Target{target}}
}

func newPersistent(start, end time.Duration, targets []Target) Modifier {
	return Modifier{ID: uuid.NewString(), Kind: KindPersistent, Start: start, End: end, Targets: targets}
}

// Covers reports whether the modifier targets the given frame.
func (m Modifier) Covers(target Target) bool {
	for _, t := range m.Targets {
		if t == target {
			return true
		}
	}
	return false
}
