// Package packager stages build outputs into the canonical package layout.
//
// It resolves the artifact specs for an architecture and build configuration,
// copies headers with their directory structure, flattens the vendored runtime
// and the configuration-specific library outputs into lib/ and bin/, and
// publishes the link metadata consumers build against.
package packager
