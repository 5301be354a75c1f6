// Package lease contains the core types describing who holds a release workspace.
//
// It defines Actor (the user and machine running a tool) and Lease (an actor's
// claim on a package root at a point in time) with Clone helpers to avoid
// leaking internal references.
package lease
