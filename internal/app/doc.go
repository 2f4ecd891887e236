// Package app wires the pieces together: it loads a pipeline definition
// through a config.Loader, assembles it into an executable pipeline with the
// registered mask transforms and metrics, runs it, and persists the merged
// result.
package app
