package release

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/oshokin/media-release/internal/config"
	"github.com/oshokin/media-release/internal/domain/lease"
	"github.com/oshokin/media-release/internal/logger"
	"github.com/oshokin/media-release/internal/repository/lock"
	"github.com/oshokin/media-release/internal/service/packager"
	"github.com/oshokin/media-release/internal/service/signer"
	"github.com/oshokin/media-release/internal/signing"
)

// packageRootMode is used when the package root does not exist yet.
const packageRootMode os.FileMode = 0o755

var errPackageRootRequired = errors.New("package root must be provided")

// Options contains inputs for the release entry point.
type Options struct {
	// SourceRoot is the checked-out source tree holding headers and build outputs.
	SourceRoot string
	// PackageRoot receives the staged package and the lock marker.
	PackageRoot string
	// Architecture and BuildType select the profile and configuration to stage.
	Architecture string
	BuildType    string
	// Signing holds validated signing settings; nil uses the defaults.
	Signing *config.Signing
	// Backend replaces the backend described by Signing when set.
	Backend signing.Backend
	// SkipSigning stops the pipeline after staging.
	SkipSigning bool
	// Lock guards the package root; nil uses a marker file inside it.
	Lock lock.Repository
}

// Result combines the outcome of every stage.
type Result struct {
	// Lease is the lock held for the duration of the run.
	Lease *lease.Lease
	// Package describes the staged files and link metadata.
	Package *packager.Result
	// Signing is nil when signing was skipped.
	Signing *signer.Report
}

// Run executes lock, packaging and signing in order.
func Run(ctx context.Context, opts *Options) (*Result, error) {
	ctx = logger.WithName(ctx, "media-release")

	if opts.PackageRoot == "" {
		return nil, errPackageRootRequired
	}

	// The signer is built first so that bad signing settings fail before anything is staged.
	var (
		s   *signer.Signer
		err error
	)

	if !opts.SkipSigning {
		if s, err = newSigner(opts); err != nil {
			return nil, err
		}
	}

	packageRoot := filepath.Clean(opts.PackageRoot)
	if err = os.MkdirAll(packageRoot, packageRootMode); err != nil {
		return nil, fmt.Errorf("create package root: %w", err)
	}

	workspaceLock := opts.Lock
	if workspaceLock == nil {
		workspaceLock = lock.NewFileLock(packageRoot)
	}

	held, err := workspaceLock.Acquire(ctx)
	if err != nil {
		return nil, err
	}

	defer func() {
		if releaseErr := workspaceLock.Release(ctx); releaseErr != nil {
			logger.WarnKV(ctx, "Unable to release the lock", "error", releaseErr)
		}
	}()

	result := &Result{Lease: held}

	result.Package, err = packager.Run(ctx, &packager.Options{
		SourceRoot:   opts.SourceRoot,
		PackageRoot:  packageRoot,
		Architecture: opts.Architecture,
		BuildType:    opts.BuildType,
	})
	if err != nil {
		return result, err
	}

	if s == nil {
		logger.Info(ctx, "Signing skipped")
		return result, nil
	}

	result.Signing, err = s.Run(logger.WithName(ctx, "signer"), packageRoot)

	// Signing rewrites binaries in place, so their published checksums are stale now.
	if signed := result.Signing.Signed(); len(signed) > 0 {
		link, refreshErr := packager.RefreshLinkInfo(packageRoot, signed)
		if refreshErr != nil {
			return result, errors.Join(err, fmt.Errorf("refresh link metadata: %w", refreshErr))
		}

		result.Package.Link = link
	}

	if err != nil {
		return result, fmt.Errorf("signer failed: %w", err)
	}

	logger.Info(ctx, "Release completed successfully")

	return result, nil
}

func newSigner(opts *Options) (*signer.Signer, error) {
	cfg := opts.Signing
	if cfg == nil {
		cfg = &config.Default().Signing
	}

	if opts.Backend == nil {
		return signer.NewFromConfig(cfg)
	}

	policy, err := signer.ParsePolicy(cfg.Policy)
	if err != nil {
		return nil, err
	}

	return signer.New(opts.Backend, signer.ConfigOptions(cfg, policy)...)
}
