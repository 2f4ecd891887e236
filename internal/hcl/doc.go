// Package hcl provides the concrete HCL implementation of the config.Loader
// interface. It is responsible for file discovery, HCL parsing, and the
// translation of pipeline and step blocks into the format-agnostic model.
package hcl
