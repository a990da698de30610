// Package frameindex holds the per-clip frame classification table.
//
// The table is produced once when a source is imported, from a full frame
// scan of the media, and is read-only afterwards. Everything above it (the
// timeline, moshing, the preview compositor) answers "what kind of frame
// lives at this time" by asking this package.
package frameindex
