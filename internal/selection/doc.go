// Package selection tracks the editor's clip and time selections.
//
// A persistent mode (clip vs. time) sits orthogonal to the selection state;
// toggling the mode converts whatever is selected instead of discarding it.
// The package also derives the context-sensitive mosh button affordance as a
// pure function of selection, mode, and playhead.
package selection
