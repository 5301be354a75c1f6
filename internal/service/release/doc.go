// Package release runs the whole post-build pipeline against one package root.
//
// A run takes the workspace lock, stages the artifacts and then signs the
// staged binaries. Signing never starts when staging fails.
package release
