package signer

import (
	"context"
	"errors"
	"fmt"

	"github.com/oshokin/media-release/internal/config"
	"github.com/oshokin/media-release/internal/logger"
	"github.com/oshokin/media-release/internal/signing"
)

// errPackageRootRequired is returned when no package root is given.
var errPackageRootRequired = errors.New("package root must be provided")

// Options contains inputs for the signer entry point.
type Options struct {
	// PackageRoot is the packaged tree; candidates are read from its bin/ directory.
	PackageRoot string
	// Signing holds validated signing settings.
	Signing *config.Signing
}

// NewFromConfig builds the backend and the Signer described by cfg.
func NewFromConfig(cfg *config.Signing) (*Signer, error) {
	policy, err := ParsePolicy(cfg.Policy)
	if err != nil {
		return nil, err
	}

	backend, err := signing.New(signing.Options{
		Kind:                     signing.Kind(cfg.Backend),
		ToolPath:                 cfg.ToolPath,
		Thumbprint:               cfg.Thumbprint,
		DigestAlgorithm:          cfg.DigestAlgorithm,
		TimestampURL:             cfg.TimestampURL,
		TimestampDigestAlgorithm: cfg.TimestampDigestAlgorithm,
		CertificateFile:          cfg.CertificateFile,
		CertificatePassword:      cfg.CertificatePassword,
		KeyFile:                  cfg.KeyFile,
		KeyPassphrase:            cfg.KeyPassphrase,
	})
	if err != nil {
		return nil, fmt.Errorf("initialize signing backend: %w", err)
	}

	return New(backend, ConfigOptions(cfg, policy)...)
}

// ConfigOptions converts signing settings into Signer options.
func ConfigOptions(cfg *config.Signing, policy Policy) []Option {
	return []Option{
		WithExclusions(NewExclusionSet(cfg.Exclude...)),
		WithMaxAttempts(cfg.MaxAttempts),
		WithAttemptTimeout(cfg.AttemptTimeout),
		WithBackoff(BackoffConfig{
			InitialDelay: cfg.RetryDelay,
			Multiplier:   cfg.RetryMultiplier,
			MaxDelay:     cfg.MaxRetryDelay,
			Jitter:       cfg.RetryJitter,
		}),
		WithPolicy(policy),
	}
}

// Run signs the packaged tree described by opts.
func Run(ctx context.Context, opts *Options) (*Report, error) {
	// Set context with logger name for tracking.
	ctx = logger.WithName(ctx, "media-signer")

	if opts.PackageRoot == "" {
		return nil, errPackageRootRequired
	}

	cfg := opts.Signing
	if cfg == nil {
		cfg = &config.Default().Signing
	}

	s, err := NewFromConfig(cfg)
	if err != nil {
		return nil, err
	}

	report, err := s.Run(ctx, opts.PackageRoot)
	if err != nil {
		return report, fmt.Errorf("signer failed: %w", err)
	}

	return report, nil
}
