// Package lock guards a package root against concurrent release runs.
//
// The FileLock keeps a YAML marker next to the staged package. A marker left
// behind by a process that no longer runs on this host is treated as stale and
// replaced.
package lock
