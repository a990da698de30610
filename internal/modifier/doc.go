// Package modifier applies datamosh modifiers to timeline frames without
// mutating source data.
//
// A wipe mosh overrides one i-frame; a persistent mosh overrides every
// i-frame in a timeline range. Each frame carries at most one modifier, and
// removal restores the original classification exactly because the original
// frame table is never rewritten.
package modifier
