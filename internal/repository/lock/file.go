package lock

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/mitchellh/go-ps"
	"gopkg.in/yaml.v3"

	"github.com/oshokin/media-release/internal/domain/lease"
	"github.com/oshokin/media-release/internal/logger"
	"github.com/oshokin/media-release/internal/service/common"
)

const (
	// Filename is the marker created in the guarded directory.
	Filename = ".media-release.lock"

	// markerMode is the permission of the marker file.
	markerMode os.FileMode = 0o644

	// unreadableMarkerLifetime is how long an unparsable marker is assumed to be mid-write.
	unreadableMarkerLifetime = 30 * time.Second

	// acquireAttempts bounds stale marker recovery.
	acquireAttempts = 2
)

var (
	// ErrLocked is returned when another live process holds the marker.
	ErrLocked = errors.New("package root is locked by another release run")
	// ErrNotFound is returned by Load when no marker exists.
	ErrNotFound = errors.New("lock marker not found")
	// ErrNotHeld is returned by Release when this FileLock never acquired the marker.
	ErrNotHeld = errors.New("lock is not held")
)

// Repository defines the lease operations the release pipeline depends on.
// FileLock is the implementation used by default.
type Repository interface {
	Acquire(ctx context.Context) (*lease.Lease, error)
	Release(ctx context.Context) error
}

// FileLock stores the lease as a YAML marker on disk.
type FileLock struct {
	// path is the filesystem location of the marker.
	path string
	// mu protects held.
	mu sync.Mutex
	// held reports whether this instance created the current marker.
	held bool
	// isRunning reports whether a process with the given PID exists on this host.
	isRunning func(pid int) (bool, error)
	// now returns the current time.
	now func() time.Time
}

var _ Repository = (*FileLock)(nil)

// NewFileLock creates a lock guarding dir.
func NewFileLock(dir string) *FileLock {
	return &FileLock{
		path:      filepath.Join(filepath.Clean(dir), Filename),
		isRunning: processRunning,
		now:       time.Now,
	}
}

// Path returns the marker location.
func (l *FileLock) Path() string {
	return l.path
}

// Acquire creates the marker for the current process. A marker whose holder no longer
// runs on this host is removed and creation retried once.
func (l *FileLock) Acquire(ctx context.Context) (*lease.Lease, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.held {
		return nil, fmt.Errorf("%w: already held by this process", ErrLocked)
	}

	actor, err := common.DetectActor()
	if err != nil {
		return nil, fmt.Errorf("detect actor: %w", err)
	}

	current := &lease.Lease{
		PID:       os.Getpid(),
		Holder:    actor,
		StartedAt: l.now().UTC().Truncate(time.Second),
	}

	for attempt := 0; attempt < acquireAttempts; attempt++ {
		err = l.create(current)
		if err == nil {
			l.held = true
			logger.DebugKV(ctx, "Lock acquired", "path", l.path)

			return current.Clone(), nil
		}

		if !errors.Is(err, os.ErrExist) {
			return nil, fmt.Errorf("create lock marker: %w", err)
		}

		if err = l.recoverStale(ctx, actor); err != nil {
			return nil, err
		}
	}

	return nil, fmt.Errorf("%w: marker %s keeps reappearing", ErrLocked, l.path)
}

// Release removes the marker created by Acquire.
func (l *FileLock) Release(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.held {
		return ErrNotHeld
	}

	if err := os.Remove(l.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove lock marker: %w", err)
	}

	l.held = false
	logger.DebugKV(ctx, "Lock released", "path", l.path)

	return nil
}

// Load reads the current marker.
func (l *FileLock) Load(_ context.Context) (*lease.Lease, error) {
	return l.read()
}

func (l *FileLock) create(current *lease.Lease) error {
	data, err := yaml.Marshal(current)
	if err != nil {
		return fmt.Errorf("encode lease: %w", err)
	}

	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, markerMode)
	if err != nil {
		return err
	}

	if _, err = f.Write(data); err != nil {
		_ = f.Close()
		_ = os.Remove(l.path)

		return err
	}

	return f.Close()
}

func (l *FileLock) read() (*lease.Lease, error) {
	contents, err := os.ReadFile(l.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNotFound
		}

		return nil, fmt.Errorf("read lock marker: %w", err)
	}

	holder := new(lease.Lease)
	if err = yaml.Unmarshal(contents, holder); err != nil {
		return nil, fmt.Errorf("decode lock marker: %w", err)
	}

	return holder, nil
}

// recoverStale removes the marker when its holder is gone and returns ErrLocked otherwise.
func (l *FileLock) recoverStale(ctx context.Context, self *lease.Actor) error {
	holder, err := l.read()

	switch {
	case errors.Is(err, ErrNotFound):
		return nil
	case err != nil:
		return l.recoverUnreadable(ctx, err)
	}

	// A process on another machine sharing the directory cannot be probed.
	if holder.Holder == nil || holder.Holder.Hostname != self.Hostname {
		return fmt.Errorf("%w: %s", ErrLocked, holder)
	}

	running, err := l.isRunning(holder.PID)
	if err != nil {
		return fmt.Errorf("probe lock holder: %w", err)
	}

	if running {
		return fmt.Errorf("%w: %s", ErrLocked, holder)
	}

	logger.WarnKV(ctx, "Removing stale lock marker", "path", l.path, "holder", holder.String())

	return l.remove()
}

// recoverUnreadable removes a marker that stayed unparsable for too long.
func (l *FileLock) recoverUnreadable(ctx context.Context, readErr error) error {
	info, err := os.Stat(l.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}

	if err != nil {
		return fmt.Errorf("stat lock marker: %w", err)
	}

	if l.now().Sub(info.ModTime()) <= unreadableMarkerLifetime {
		return fmt.Errorf("%w: %w", ErrLocked, readErr)
	}

	logger.WarnKV(ctx, "Removing unreadable lock marker", "path", l.path, "error", readErr)

	return l.remove()
}

func (l *FileLock) remove() error {
	if err := os.Remove(l.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove stale lock marker: %w", err)
	}

	return nil
}

// processRunning looks the PID up in the process table.
func processRunning(pid int) (bool, error) {
	if pid <= 0 {
		return false, nil
	}

	process, err := ps.FindProcess(pid)
	if err != nil {
		return false, err
	}

	return process != nil, nil
}
