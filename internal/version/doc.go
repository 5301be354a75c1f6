// Package version exposes build metadata for the media-release binaries.
//
// Version, Commit and BuildTime are injected at build time via ldflags.
// AttachCobraVersionCommand adds a `version` subcommand to every CLI.
package version
