// Package memory implements the file-operation contract against a
// snapshot of records held in the caller's execution context.
//
// The snapshot is immutable: mutating operations land in a delta
// (path -> Record) instead of touching shared state. Reads see the
// delta overlaid on the snapshot, so write-then-read holds within one
// instance. The orchestrating caller collects deltas from concurrent
// operations and folds them with Merge, a commutative per-path
// last-writer-wins reducer. That reducer is the only concurrency
// mechanism this package provides; two concurrent edits of the same
// path can lose one update at the merge step.
package memory
