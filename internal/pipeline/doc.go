// Package pipeline implements the scene-indexed, incrementally-cached
// computation graph at the heart of cloudmetrics-pipeline.
//
// A Pipeline is an immutable builder: FindScenes starts a chain over a set of
// source files and each of Mask, Tile and ComputeMetrics returns a new
// Pipeline with one more step appended. Execute expands the chain into one
// task node per (step, scene), runs the nodes through a worker pool with
// existence-based memoization, and merges the final outputs along a scene
// axis.
//
// Node identity is deterministic: a step's identifier is derived from its
// kind, parameters and transform name, and the output path composes the
// parent artifact's directory, the identifier and the parent's filename. The
// on-disk layout is the cache key space, so re-running an unchanged pipeline
// recomputes nothing.
package pipeline
