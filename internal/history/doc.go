// Package history records every mutating editor operation as a reversible
// command in one linear undo/redo stream.
//
// The log is runtime-only: it is never persisted, and a session reload
// starts with empty history.
package history
