package packager

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/oshokin/media-release/internal/domain/artifact"
	"github.com/oshokin/media-release/internal/logger"
)

var (
	errSourceRootRequired  = errors.New("source root must be provided")
	errPackageRootRequired = errors.New("package root must be provided")
)

// Options contains inputs for the packager entry point.
type Options struct {
	// SourceRoot is the checked-out source tree holding headers and build outputs.
	SourceRoot string
	// PackageRoot is where include/, lib/ and bin/ are created.
	PackageRoot string
	// Architecture selects the target profile (x86 or x64 and their aliases).
	Architecture string
	// BuildType selects the build configuration (Debug or RelWithDebInfo).
	BuildType string
}

// Result summarizes one packaging run.
type Result struct {
	// Link is the metadata written next to the staged files.
	Link *LinkInfo
	// Copied counts files whose destination changed.
	Copied int
	// Unchanged counts files that already held identical content.
	Unchanged int
}

// Run stages the artifacts of one architecture and configuration into opts.PackageRoot.
// Every artifact spec is resolved against the source tree before anything is copied.
func Run(ctx context.Context, opts *Options) (*Result, error) {
	ctx = logger.WithName(ctx, "media-packager")

	if opts.SourceRoot == "" {
		return nil, errSourceRootRequired
	}

	if opts.PackageRoot == "" {
		return nil, errPackageRootRequired
	}

	profile, err := artifact.LookupProfile(opts.Architecture)
	if err != nil {
		return nil, err
	}

	configuration, err := artifact.ParseBuildConfiguration(opts.BuildType)
	if err != nil {
		return nil, err
	}

	ctx = logger.WithFields(ctx, "arch", profile.Name, "build_type", configuration.String())

	result, err := stageAll(ctx, opts, profile, configuration)
	if err != nil {
		return nil, fmt.Errorf("packager failed: %w", err)
	}

	logger.InfoKV(ctx, "Packager completed successfully",
		"copied", result.Copied, "unchanged", result.Unchanged)

	return result, nil
}

func stageAll(
	ctx context.Context,
	opts *Options,
	profile artifact.Profile,
	configuration artifact.BuildConfiguration,
) (*Result, error) {
	specs, err := artifact.Resolve(profile, configuration)
	if err != nil {
		return nil, err
	}

	var (
		operations []copyOperation
		// claimed maps a destination to its index in operations.
		claimed = make(map[string]int)
	)

	for _, spec := range specs {
		var expanded []copyOperation

		if expanded, err = expand(opts.SourceRoot, spec); err != nil {
			return nil, err
		}

		for _, op := range expanded {
			// Header trees may share a file name; the later tree wins, as a plain copy would.
			if index, taken := claimed[op.relative]; taken {
				logger.WarnKV(ctx, "Artifact shadowed by a later source",
					"file", op.relative, "shadowed", operations[index].source, "winner", op.source)

				operations[index] = op

				continue
			}

			claimed[op.relative] = len(operations)
			operations = append(operations, op)
		}
	}

	packageRoot := filepath.Clean(opts.PackageRoot)
	if err = os.MkdirAll(packageRoot, dirMode); err != nil {
		return nil, fmt.Errorf("create package root: %w", err)
	}

	result := &Result{Link: newLinkInfo(profile, configuration)}

	logger.InfoKV(ctx, "Staging artifacts", "files", len(operations), "package_root", packageRoot)

	for _, op := range operations {
		checksum, copied, stageErr := stage(ctx, packageRoot, op)
		if stageErr != nil {
			return nil, stageErr
		}

		if copied {
			result.Copied++
		} else {
			result.Unchanged++
		}

		result.Link.Files[op.relative] = EncodeChecksum(checksum)
	}

	if err = saveLinkInfo(packageRoot, result.Link); err != nil {
		return nil, err
	}

	return result, nil
}
