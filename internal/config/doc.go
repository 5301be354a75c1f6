// Package config defines the pipeline settings shared by the media-release
// binaries and provides helpers to load and validate them.
//
// Settings can be stored as YAML, TOML or HCL; the format is chosen by the
// file extension. Command-line flags are applied on top of the loaded values
// and Validate fills in the defaults.
package config
