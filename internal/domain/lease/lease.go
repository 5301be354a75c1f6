package lease

import (
	"fmt"
	"time"
)

// Actor identifies who performed an action in the system.
type Actor struct {
	// Hostname is the machine name where the action was performed.
	Hostname string `yaml:"hostname"`
	// Username is the system user who triggered the action.
	Username string `yaml:"username"`
}

// Clone returns a deep copy of the actor.
func (a *Actor) Clone() *Actor {
	if a == nil {
		return nil
	}

	cloned := *a

	return &cloned
}

// String renders the actor as user@host.
func (a *Actor) String() string {
	if a == nil {
		return "unknown"
	}

	return a.Username + "@" + a.Hostname
}

// Lease records that a process is working on a package root.
type Lease struct {
	// PID is the process identifier of the holder.
	PID int `yaml:"pid"`
	// Holder is the user and machine that took the lease.
	Holder *Actor `yaml:"holder"`
	// StartedAt is when the lease was taken.
	StartedAt time.Time `yaml:"started_at"`
}

// Clone returns a copy of the lease to avoid leaking internal references.
func (l *Lease) Clone() *Lease {
	if l == nil {
		return nil
	}

	return &Lease{
		PID:       l.PID,
		Holder:    l.Holder.Clone(),
		StartedAt: l.StartedAt,
	}
}

// String describes the holder for log and error messages.
func (l *Lease) String() string {
	if l == nil {
		return "no lease"
	}

	return fmt.Sprintf("pid %d (%s) since %s", l.PID, l.Holder, l.StartedAt.Format(time.RFC3339))
}
