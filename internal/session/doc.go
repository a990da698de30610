// Package session is the aggregate root of the editing engine. It owns the
// timeline, the modifier and selection engines, the undo log, the playhead
// and the preview pipeline, and serializes every mutation behind one mutex.
//
// Each mutation advances a monotonic generation counter. The frame cache and
// the preview compositor key their staleness off that counter, so a preview
// started before an edit can never publish frames from the stale state.
package session
