package packager

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/oshokin/media-release/internal/domain/artifact"
)

// LinkInfoFilename is written at the package root after staging.
const LinkInfoFilename = "package-info.yaml"

// linkInfoMode is the permission of the link metadata file.
const linkInfoMode os.FileMode = 0o644

// ErrNoLinkInfo is returned when a package root carries no link metadata.
var ErrNoLinkInfo = errors.New("link metadata not found")

// LinkInfo tells consumers how to build against a staged package.
type LinkInfo struct {
	// PackageName is the distribution name of the package.
	PackageName string `yaml:"package"`
	// Architecture is the canonical profile name.
	Architecture string `yaml:"arch"`
	// BuildType is the configuration the binaries were built with.
	BuildType string `yaml:"build_type"`
	// Libraries lists the link libraries without extension.
	Libraries []string `yaml:"libs"`
	// IncludeDir, LibDir and BinDir are relative to the package root.
	IncludeDir string `yaml:"include_dir"`
	LibDir     string `yaml:"lib_dir"`
	BinDir     string `yaml:"bin_dir"`
	// Files maps every staged file to its base64 SHA-512 checksum.
	Files map[string]string `yaml:"files"`
}

// newLinkInfo produces a LinkInfo for the given profile with an empty file table.
func newLinkInfo(profile artifact.Profile, configuration artifact.BuildConfiguration) *LinkInfo {
	return &LinkInfo{
		PackageName:  profile.PackageName,
		Architecture: profile.Name,
		BuildType:    configuration.String(),
		Libraries:    []string{artifact.LibraryName},
		IncludeDir:   artifact.IncludeDir,
		LibDir:       artifact.LibDir,
		BinDir:       artifact.BinDir,
		Files:        make(map[string]string),
	}
}

// saveLinkInfo writes info to packageRoot. Map keys are emitted sorted, so equal
// packages produce identical files.
func saveLinkInfo(packageRoot string, info *LinkInfo) error {
	data, err := yaml.Marshal(info)
	if err != nil {
		return fmt.Errorf("encode link metadata: %w", err)
	}

	target := filepath.Join(packageRoot, LinkInfoFilename)
	if err = os.WriteFile(target, data, linkInfoMode); err != nil {
		return fmt.Errorf("write link metadata: %w", err)
	}

	return nil
}

// LoadLinkInfo reads the link metadata of a staged package.
func LoadLinkInfo(packageRoot string) (*LinkInfo, error) {
	data, err := os.ReadFile(filepath.Join(filepath.Clean(packageRoot), LinkInfoFilename))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNoLinkInfo
		}

		return nil, fmt.Errorf("read link metadata: %w", err)
	}

	info := new(LinkInfo)
	if err = yaml.Unmarshal(data, info); err != nil {
		return nil, fmt.Errorf("decode link metadata: %w", err)
	}

	return info, nil
}

// RefreshLinkInfo recomputes the checksums of the given files after they were
// modified in place, for example by signing. Paths outside the file table are ignored.
func RefreshLinkInfo(packageRoot string, paths []string) (*LinkInfo, error) {
	info, err := LoadLinkInfo(packageRoot)
	if err != nil {
		return nil, err
	}

	root := filepath.Clean(packageRoot)

	for _, path := range paths {
		rel, relErr := filepath.Rel(root, filepath.Clean(path))
		if relErr != nil {
			return nil, fmt.Errorf("locate %s: %w", path, relErr)
		}

		key := filepath.ToSlash(rel)
		if _, ok := info.Files[key]; !ok {
			continue
		}

		sum, sumErr := FileChecksum(path)
		if sumErr != nil {
			return nil, fmt.Errorf("checksum %s: %w", key, sumErr)
		}

		info.Files[key] = EncodeChecksum(sum)
	}

	if err = saveLinkInfo(root, info); err != nil {
		return nil, err
	}

	return info, nil
}
