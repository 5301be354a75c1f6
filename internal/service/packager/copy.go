package packager

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"

	goupdate "github.com/doitdistributed/go-update"

	"github.com/oshokin/media-release/internal/domain/artifact"
	"github.com/oshokin/media-release/internal/logger"
)

var (
	// ErrMissingArtifact is returned when a source directory is absent or matches nothing.
	ErrMissingArtifact = errors.New("missing artifact")
	// ErrAmbiguousArtifact is returned when flattened matches would land on the same destination.
	ErrAmbiguousArtifact = errors.New("ambiguous artifact")
)

// dirMode is used for every directory created under the package root.
const dirMode os.FileMode = 0o755

// copyOperation is one resolved file copy.
type copyOperation struct {
	// source is the absolute path of the file being staged.
	source string
	// relative is the slash-separated destination path below the package root.
	relative string
}

// expand resolves one artifact spec against the source tree. Matches are returned in lexical walk order.
func expand(sourceRoot string, spec artifact.Spec) ([]copyOperation, error) {
	sourceDir := filepath.Join(sourceRoot, filepath.FromSlash(spec.SourceDir))

	info, err := os.Stat(sourceDir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: directory %s not found", ErrMissingArtifact, sourceDir)
		}

		return nil, fmt.Errorf("stat %s: %w", sourceDir, err)
	}

	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", ErrMissingArtifact, sourceDir)
	}

	var (
		operations []copyOperation
		// owners maps a flattened destination to the source that claimed it.
		owners = make(map[string]string)
	)

	err = filepath.WalkDir(sourceDir, func(current string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}

		if d.IsDir() {
			return nil
		}

		matched, matchErr := path.Match(spec.Pattern, d.Name())
		if matchErr != nil {
			return fmt.Errorf("pattern %q: %w", spec.Pattern, matchErr)
		}

		if !matched {
			return nil
		}

		relative := d.Name()

		if spec.PreserveStructure {
			rel, relErr := filepath.Rel(sourceDir, current)
			if relErr != nil {
				return relErr
			}

			relative = filepath.ToSlash(rel)
		} else if owner, taken := owners[relative]; taken {
			return fmt.Errorf("%w: %s and %s both flatten to %s/%s",
				ErrAmbiguousArtifact, owner, current, spec.DestDir, relative)
		}

		owners[relative] = current

		operations = append(operations, copyOperation{
			source:   current,
			relative: path.Join(spec.DestDir, relative),
		})

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", sourceDir, err)
	}

	if len(operations) == 0 {
		return nil, fmt.Errorf("%w: nothing matches %q in %s", ErrMissingArtifact, spec.Pattern, sourceDir)
	}

	return operations, nil
}

// stage copies one file into the package root and returns its checksum.
// It reports false when the destination already held identical content.
func stage(ctx context.Context, packageRoot string, op copyOperation) ([]byte, bool, error) {
	data, err := os.ReadFile(op.source)
	if err != nil {
		return nil, false, fmt.Errorf("read %s: %w", op.source, err)
	}

	info, err := os.Stat(op.source)
	if err != nil {
		return nil, false, fmt.Errorf("stat %s: %w", op.source, err)
	}

	checksum, err := Checksum(data)
	if err != nil {
		return nil, false, err
	}

	target := filepath.Join(packageRoot, filepath.FromSlash(op.relative))

	existing, err := FileChecksum(target)
	if err == nil && bytes.Equal(existing, checksum) {
		logger.DebugKV(ctx, "Artifact is up to date", "file", op.relative)
		return checksum, false, nil
	}

	if err = os.MkdirAll(filepath.Dir(target), dirMode); err != nil {
		return nil, false, fmt.Errorf("create directory for %s: %w", op.relative, err)
	}

	// go-update swaps an existing file, so the target has to be there first.
	if _, err = os.Stat(target); errors.Is(err, os.ErrNotExist) {
		var created *os.File

		if created, err = os.Create(target); err != nil {
			return nil, false, fmt.Errorf("create %s: %w", op.relative, err)
		}

		_ = created.Close()
	}

	options := goupdate.Options{
		TargetPath: target,
		TargetMode: info.Mode().Perm(),
		Checksum:   checksum,
		Hash:       ChecksumFunction,
	}

	if err = goupdate.Apply(bytes.NewReader(data), options); err != nil {
		return nil, false, fmt.Errorf("apply %s: %w", op.relative, err)
	}

	logger.DebugKV(ctx, "Artifact staged", "source", op.source, "file", op.relative)

	return checksum, true, nil
}
