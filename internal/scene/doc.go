// Package scene splits heterogeneous source files into individually
// addressable scenes: one persisted artifact per scene, registered under a
// unique scene ID. Images become one scene each; multi-scene array cubes are
// sliced along their scene_id or time coordinate.
package scene
