// Package timeline models clips arranged on a track.
//
// The timeline owns its clips; clips own their frame indexes. Modifiers and
// selections refer to clips by ID only, which keeps ownership one-directional
// and makes snapshotting for the preview compositor a plain copy.
package timeline
