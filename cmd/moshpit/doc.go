// Package main hosts the moshpit CLI entrypoint and command graph.
//
// The Cobra-based command tree opens session files, applies timeline and
// mosh edits, drives preview renders, and scaffolds configuration. Each
// invocation loads the session, performs its edit, and saves; the heavy
// lifting lives in the internal packages so commands stay declarative.
package main
