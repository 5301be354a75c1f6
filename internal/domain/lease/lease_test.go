package lease

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// TestActorClone verifies that Clone returns a deep copy and handles nil safely.
func TestActorClone(t *testing.T) {
	t.Parallel()
	require.Nil(t, (*Actor)(nil).Clone())

	a := &Actor{Hostname: "build-agent-07", Username: "release"}
	c := a.Clone()
	require.Equal(t, a, c)

	c.Hostname = "other"
	require.Equal(t, "build-agent-07", a.Hostname)
}

// TestLeaseClone ensures the holder is copied and not shared.
func TestLeaseClone(t *testing.T) {
	t.Parallel()
	require.Nil(t, (*Lease)(nil).Clone())

	l := &Lease{
		PID:       4242,
		Holder:    &Actor{Hostname: "build-agent-07", Username: "release"},
		StartedAt: time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC),
	}

	c := l.Clone()
	require.Equal(t, l, c)

	c.Holder.Username = "someone"
	require.Equal(t, "release", l.Holder.Username)
}

// TestLeaseString renders the holder for diagnostics.
func TestLeaseString(t *testing.T) {
	t.Parallel()

	l := &Lease{
		PID:       4242,
		Holder:    &Actor{Hostname: "build-agent-07", Username: "release"},
		StartedAt: time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC),
	}

	require.Equal(t, "pid 4242 (release@build-agent-07) since 2024-03-01T10:00:00Z", l.String())
	require.Equal(t, "no lease", (*Lease)(nil).String())
	require.Equal(t, "pid 1 (unknown) since 0001-01-01T00:00:00Z", (&Lease{PID: 1}).String())
}
