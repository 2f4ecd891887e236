// Package executor runs a dependency graph of pipeline tasks with a bounded
// worker pool. The graph is built once, executed once: root nodes (tasks with
// no dependencies) seed a ready channel, workers pick nodes off it, and a
// completed node unlocks any dependent whose dependency count drops to zero.
// A failed node cancels the run and marks all transitive dependents skipped.
package executor
