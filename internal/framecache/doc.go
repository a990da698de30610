// Package framecache is the bounded store of decoded and composited preview
// frames.
//
// Entries are keyed by (clip, frame, quality) and tagged with the model
// generation they were produced against. Eviction prefers entries whose
// generation has fallen more than one step behind, then falls back to least
// recently used. It is the only structure multiple preview workers mutate
// concurrently.
package framecache
