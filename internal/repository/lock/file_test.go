package lock

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/oshokin/media-release/internal/domain/lease"
	"github.com/oshokin/media-release/internal/service/common"
)

// writeMarker plants a marker owned by pid on the given host.
func writeMarker(t *testing.T, dir string, pid int, hostname string) {
	t.Helper()

	data, err := yaml.Marshal(&lease.Lease{
		PID:       pid,
		Holder:    &lease.Actor{Hostname: hostname, Username: "ci"},
		StartedAt: time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, Filename), data, 0o644)) //nolint:gosec // Test fixture.
}

func localHostname(t *testing.T) string {
	t.Helper()

	actor, err := common.DetectActor()
	require.NoError(t, err)

	return actor.Hostname
}

// TestFileLock_AcquireRelease creates and removes the marker.
func TestFileLock_AcquireRelease(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	l := NewFileLock(dir)
	ctx := context.Background()

	got, err := l.Acquire(ctx)
	require.NoError(t, err)
	require.Equal(t, os.Getpid(), got.PID)
	require.NotNil(t, got.Holder)
	require.FileExists(t, l.Path())

	stored, err := l.Load(ctx)
	require.NoError(t, err)
	require.Equal(t, got.PID, stored.PID)
	require.Equal(t, got.Holder, stored.Holder)
	require.True(t, got.StartedAt.Equal(stored.StartedAt))

	require.NoError(t, l.Release(ctx))
	require.NoFileExists(t, l.Path())
	require.ErrorIs(t, l.Release(ctx), ErrNotHeld)

	_, err = l.Load(ctx)
	require.ErrorIs(t, err, ErrNotFound)
}

// TestFileLock_SecondAcquireFails keeps a running holder in place.
func TestFileLock_SecondAcquireFails(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	ctx := context.Background()

	first := NewFileLock(dir)
	_, err := first.Acquire(ctx)
	require.NoError(t, err)

	second := NewFileLock(dir)
	_, err = second.Acquire(ctx)
	require.ErrorIs(t, err, ErrLocked)

	_, err = first.Acquire(ctx)
	require.ErrorIs(t, err, ErrLocked)

	require.NoError(t, first.Release(ctx))

	_, err = second.Acquire(ctx)
	require.NoError(t, err)
	require.NoError(t, second.Release(ctx))
}

// TestFileLock_RecoversStaleMarker replaces a marker whose process is gone.
func TestFileLock_RecoversStaleMarker(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeMarker(t, dir, 999999, localHostname(t))

	l := NewFileLock(dir)
	l.isRunning = func(pid int) (bool, error) {
		require.Equal(t, 999999, pid)
		return false, nil
	}

	got, err := l.Acquire(context.Background())
	require.NoError(t, err)
	require.Equal(t, os.Getpid(), got.PID)
}

// TestFileLock_LiveHolderBlocks refuses while the recorded process still runs.
func TestFileLock_LiveHolderBlocks(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeMarker(t, dir, 4242, localHostname(t))

	l := NewFileLock(dir)
	l.isRunning = func(int) (bool, error) { return true, nil }

	_, err := l.Acquire(context.Background())
	require.ErrorIs(t, err, ErrLocked)
	require.ErrorContains(t, err, "pid 4242")
	require.FileExists(t, l.Path())
}

// TestFileLock_RemoteHolderBlocks never probes processes of another host.
func TestFileLock_RemoteHolderBlocks(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeMarker(t, dir, 4242, "some-other-build-agent")

	l := NewFileLock(dir)
	l.isRunning = func(int) (bool, error) {
		t.Fatal("remote holder must not be probed")
		return false, nil
	}

	_, err := l.Acquire(context.Background())
	require.ErrorIs(t, err, ErrLocked)
}

// TestFileLock_UnreadableMarker waits for a fresh marker and replaces an old one.
func TestFileLock_UnreadableMarker(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	marker := filepath.Join(dir, Filename)
	require.NoError(t, os.WriteFile(marker, []byte("pid: [broken"), 0o644)) //nolint:gosec // Test fixture.

	l := NewFileLock(dir)

	_, err := l.Acquire(context.Background())
	require.ErrorIs(t, err, ErrLocked)

	l.now = func() time.Time { return time.Now().Add(time.Minute) }

	_, err = l.Acquire(context.Background())
	require.NoError(t, err)
}

// TestProcessRunning detects the current process and rejects invalid PIDs.
func TestProcessRunning(t *testing.T) {
	t.Parallel()

	running, err := processRunning(os.Getpid())
	require.NoError(t, err)
	require.True(t, running)

	running, err = processRunning(0)
	require.NoError(t, err)
	require.False(t, running)
}
