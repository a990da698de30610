package session

import "time"

// command adapts a pair of closures to the history log. The closures capture
// the exact values needed to redo and undo one mutation; they run with the
// session mutex held and must not re-derive state.
type command struct {
	kind      string
	appliedAt time.Time
	apply     func() error
	revert    func() error
}

func (c *command) Kind() string         { return c.kind }
func (c *command) AppliedAt() time.Time { return c.appliedAt }
func (c *command) Apply() error         { return c.apply() }
func (c *command) Revert() error        { return c.revert() }

func (s *Session) recordLocked(kind string, apply, revert func() error) {
	s.history.Record(&command{
		kind:      kind,
		appliedAt: time.Now(),
		apply:     apply,
		revert:    revert,
	})
}
