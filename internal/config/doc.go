// Package config defines the format-agnostic pipeline definition model,
// along with the Loader interface for reading it from various sources.
//
// The config.Model is the single source of truth for the app package, which
// assembles it into an executable pipeline. Concrete loader implementations,
// such as for HCL, are provided in separate packages.
package config
