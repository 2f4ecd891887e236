// Package field holds the in-memory and on-disk data model for pipeline
// artifacts: named N-dimensional arrays (Field), multi-variable containers
// (Dataset), and the msgpack codec that persists them.
//
// Every artifact a pipeline step reads or writes is a Data value, which is
// either a single *Field or a *Dataset. The two cases are distinguished by
// the Data interface rather than by inspecting loaded content at runtime.
package field
