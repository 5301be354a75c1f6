// Package signer signs the executables and dynamic libraries of a packaged tree.
//
// The Signer scans <root>/bin for *.exe and then *.dll files, skips names in
// its ExclusionSet, and calls the injected signing backend up to a bounded
// number of times per file. Files that exhaust their attempts are collected in
// the Report; the Policy decides whether that fails the run.
package signer
