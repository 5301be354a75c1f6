package signer

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/oshokin/media-release/internal/domain/artifact"
	"github.com/oshokin/media-release/internal/logger"
	"github.com/oshokin/media-release/internal/signing"
)

const (
	// DefaultMaxAttempts bounds the signing attempts per file.
	DefaultMaxAttempts = 3

	// ExecutableExtension and LibraryExtension select signing candidates in bin/.
	ExecutableExtension = ".exe"
	LibraryExtension    = ".dll"
)

var (
	// ErrSigningExhausted is returned by the strict policies when a file used up its attempts.
	ErrSigningExhausted = errors.New("signing attempts exhausted")

	// errBackendRequired is returned when no signing backend is injected.
	errBackendRequired = errors.New("signing backend must be provided")
	// errInvalidMaxAttempts is returned for a non-positive attempt bound.
	errInvalidMaxAttempts = errors.New("max attempts must be positive")
	// errUnknownPolicy is returned for unsupported policy names.
	errUnknownPolicy = errors.New("unknown exhaustion policy")
)

// DefaultExclusions returns the exclusion set used when none is configured.
func DefaultExclusions() ExclusionSet {
	return NewExclusionSet("test.exe")
}

// Policy decides how exhausted files affect the result of Run.
type Policy string

const (
	// PolicyBestEffort reports exhausted files but never fails the run.
	PolicyBestEffort Policy = "best-effort"
	// PolicyFailAtEnd processes every file and then fails if any file was exhausted.
	PolicyFailAtEnd Policy = "fail-at-end"
	// PolicyFailFast stops at the first exhausted file.
	PolicyFailFast Policy = "fail-fast"
)

// ParsePolicy converts a policy name into a Policy. An empty name selects PolicyBestEffort.
func ParsePolicy(s string) (Policy, error) {
	switch policy := Policy(strings.ToLower(strings.TrimSpace(s))); policy {
	case "":
		return PolicyBestEffort, nil
	case PolicyBestEffort, PolicyFailAtEnd, PolicyFailFast:
		return policy, nil
	default:
		return "", fmt.Errorf("%w: %q", errUnknownPolicy, s)
	}
}

// Signer drives the signing backend over the candidates of one packaged tree.
// Files are processed strictly one at a time.
type Signer struct {
	backend        signing.Backend
	exclusions     ExclusionSet
	maxAttempts    int
	attemptTimeout time.Duration
	backoff        BackoffConfig
	policy         Policy
	rng            *rand.Rand
}

// Option configures a Signer.
type Option func(*Signer)

// WithExclusions replaces the default exclusion set.
func WithExclusions(set ExclusionSet) Option {
	return func(s *Signer) {
		s.exclusions = set
	}
}

// WithMaxAttempts sets the attempt bound per file.
func WithMaxAttempts(n int) Option {
	return func(s *Signer) {
		s.maxAttempts = n
	}
}

// WithAttemptTimeout bounds every backend call. Zero leaves calls unbounded.
func WithAttemptTimeout(timeout time.Duration) Option {
	return func(s *Signer) {
		if timeout > 0 {
			s.attemptTimeout = timeout
		}
	}
}

// WithBackoff sets the wait between failed attempts.
func WithBackoff(cfg BackoffConfig) Option {
	return func(s *Signer) {
		s.backoff = cfg
	}
}

// WithPolicy sets the exhaustion policy.
func WithPolicy(policy Policy) Option {
	return func(s *Signer) {
		s.policy = policy
	}
}

// WithRand sets the jitter source.
func WithRand(rng *rand.Rand) Option {
	return func(s *Signer) {
		s.rng = rng
	}
}

// New creates a Signer around the injected backend.
func New(backend signing.Backend, opts ...Option) (*Signer, error) {
	if backend == nil {
		return nil, errBackendRequired
	}

	s := &Signer{
		backend:     backend,
		exclusions:  DefaultExclusions(),
		maxAttempts: DefaultMaxAttempts,
		policy:      PolicyBestEffort,
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.maxAttempts < 1 {
		return nil, fmt.Errorf("%w: %d", errInvalidMaxAttempts, s.maxAttempts)
	}

	if _, err := ParsePolicy(string(s.policy)); err != nil {
		return nil, err
	}

	if s.exclusions == nil {
		s.exclusions = NewExclusionSet()
	}

	if s.backoff.Jitter && s.rng == nil {
		//nolint:gosec // Jitter does not need a cryptographic source.
		s.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	return s, nil
}

// Discover lists the signing candidates under root/bin: every executable, then every
// dynamic library. Extensions match case-insensitively. A missing bin/ yields no candidates.
func Discover(root string) ([]string, error) {
	binDir := filepath.Join(root, artifact.BinDir)

	entries, err := os.ReadDir(binDir)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}

	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", binDir, err)
	}

	var candidates []string

	// The scans are independent: a name matching both would be listed twice.
	for _, extension := range []string{ExecutableExtension, LibraryExtension} {
		for _, entry := range entries {
			if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), extension) {
				continue
			}

			candidates = append(candidates, filepath.Join(binDir, entry.Name()))
		}
	}

	return candidates, nil
}

// Run signs every non-excluded candidate under root and returns the per-file report.
// Under PolicyBestEffort exhausted files never produce an error.
// A cancelled ctx stops the run with the context error.
func (s *Signer) Run(ctx context.Context, root string) (*Report, error) {
	ctx = logger.WithKV(ctx, "package_root", root)

	candidates, err := Discover(root)
	if err != nil {
		return nil, err
	}

	report := new(Report)

	for _, path := range candidates {
		if err = ctx.Err(); err != nil {
			return report, err
		}

		name := filepath.Base(path)
		if s.exclusions.Contains(name) {
			report.Excluded = append(report.Excluded, name)
			continue
		}

		logger.InfoKV(ctx, "Signing artifact", "file", path)

		job, jobErr := s.signFile(ctx, path)
		report.Jobs = append(report.Jobs, job)

		if jobErr != nil {
			return report, jobErr
		}

		if job.Outcome != OutcomeExhausted {
			continue
		}

		logger.WarnKV(ctx, "Signing attempts exhausted, file left unsigned",
			"file", path, "attempts", job.Attempts, "error", job.LastErr)

		if s.policy == PolicyFailFast {
			return report, fmt.Errorf("%w: %s", ErrSigningExhausted, path)
		}
	}

	exhausted := report.Exhausted()

	logger.InfoKV(ctx, "Signing finished",
		"signed", len(report.Signed()), "exhausted", len(exhausted), "excluded", len(report.Excluded))

	if len(exhausted) > 0 && s.policy == PolicyFailAtEnd {
		return report, fmt.Errorf("%w: %s", ErrSigningExhausted, strings.Join(exhausted, ", "))
	}

	return report, nil
}

// signFile runs the bounded attempt loop for one file.
// The returned error is non-nil only when ctx is cancelled.
func (s *Signer) signFile(ctx context.Context, path string) (Job, error) {
	job := Job{Path: path}

	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		job.Attempts = attempt

		err := s.attempt(ctx, path)
		if err == nil {
			job.Outcome = OutcomeSucceeded
			job.LastErr = nil

			return job, nil
		}

		job.LastErr = err
		job.Outcome = OutcomeExhausted

		if ctxErr := ctx.Err(); ctxErr != nil {
			return job, ctxErr
		}

		logger.WarnKV(ctx, "Signing attempt failed",
			"file", path, "attempt", attempt, "max_attempts", s.maxAttempts, "error", err)

		if attempt == s.maxAttempts {
			break
		}

		if err = wait(ctx, NextBackoffDelay(s.backoff, attempt, s.rng)); err != nil {
			return job, err
		}
	}

	return job, nil
}

// attempt performs one backend call under the per-attempt deadline.
func (s *Signer) attempt(ctx context.Context, path string) error {
	if s.attemptTimeout <= 0 {
		return s.backend.Sign(ctx, path)
	}

	attemptCtx, cancel := context.WithTimeout(ctx, s.attemptTimeout)
	defer cancel()

	return s.backend.Sign(attemptCtx, path)
}

// wait sleeps for d unless ctx is done first.
func wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
