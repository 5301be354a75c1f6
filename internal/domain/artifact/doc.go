// Package artifact contains the core domain types of the release pipeline.
//
// A Profile describes the path conventions of one target architecture, a
// BuildConfiguration selects the compiled output tree, and Resolve turns the
// pair into the list of Specs the packager has to copy.
package artifact
