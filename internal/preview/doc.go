// Package preview composites flattened, quality-scaled views of the
// timeline in the background.
//
// A request snapshots the timeline and modifier state, then workers fill
// the frame cache outward from the playhead. Cancellation is cooperative and
// never discards frames already produced; any model mutation flips completed
// previews to stale rather than re-rendering them silently.
package preview
