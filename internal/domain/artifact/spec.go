package artifact

import (
	"path"
)

const (
	// LibraryName is the logical library name consumers link against.
	LibraryName = "media_player"

	// RuntimeLibrary is the vendored runtime dependency shipped next to the library.
	RuntimeLibrary = "ffmpeg-4.dll"

	// HeaderPattern selects public headers.
	HeaderPattern = "*.h"

	// IncludeDir, LibDir and BinDir are the package subtrees.
	IncludeDir = "include"
	LibDir     = "lib"
	BinDir     = "bin"
)

// Spec describes one group of files to copy into the package.
type Spec struct {
	// Pattern is matched against file base names.
	Pattern string
	// SourceDir is relative to the source root and searched recursively.
	SourceDir string
	// DestDir is relative to the package root.
	DestDir string
	// PreserveStructure keeps the path relative to SourceDir at the destination.
	// When false only the base name is kept.
	PreserveStructure bool
}

// buildOutput pairs a build artifact with its package subtree.
type buildOutput struct {
	name    string
	destDir string
}

// buildOutputs lists the configuration-specific artifacts. Names never depend on the configuration.
func buildOutputs() []buildOutput {
	return []buildOutput{
		{name: LibraryName + ".lib", destDir: LibDir},
		{name: LibraryName + ".dll", destDir: BinDir},
		{name: LibraryName + ".pdb", destDir: BinDir},
	}
}

// Resolve returns the specs to package for a profile and build configuration.
func Resolve(profile Profile, config BuildConfiguration) ([]Spec, error) {
	outputDir, err := config.OutputDir()
	if err != nil {
		return nil, err
	}

	outputs := buildOutputs()
	specs := make([]Spec, 0, len(profile.Headers)+1+len(outputs))

	for _, header := range profile.Headers {
		specs = append(specs, Spec{
			Pattern:           HeaderPattern,
			SourceDir:         header.SourceDir,
			DestDir:           header.DestDir,
			PreserveStructure: true,
		})
	}

	specs = append(specs, Spec{
		Pattern:   RuntimeLibrary,
		SourceDir: profile.RuntimeDir,
		DestDir:   BinDir,
	})

	sourceDir := path.Join(profile.BuildRoot, outputDir)
	for _, output := range outputs {
		specs = append(specs, Spec{
			Pattern:   output.name,
			SourceDir: sourceDir,
			DestDir:   output.destDir,
		})
	}

	return specs, nil
}
