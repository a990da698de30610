// Package sessionstore persists editing sessions to SQLite.
//
// A session file holds the timeline, the modifiers and the user settings.
// The undo history and the decoded-frame cache are deliberately not
// persisted: reopening a session starts with a clean history and an empty
// cache. A flock sidecar prevents two processes from editing the same
// session file at once.
package sessionstore
