package artifact

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownConfiguration is returned for build configurations outside the output table.
var ErrUnknownConfiguration = errors.New("unknown build configuration")

// BuildConfiguration selects which compiled output tree is packaged.
type BuildConfiguration string

const (
	// Debug packages the unoptimized build.
	Debug BuildConfiguration = "Debug"
	// RelWithDebInfo packages the optimized build that still carries debug symbols.
	RelWithDebInfo BuildConfiguration = "RelWithDebInfo"
)

// outputDirs maps each configuration to its subdirectory under the profile build root.
func outputDirs() map[BuildConfiguration]string {
	return map[BuildConfiguration]string{
		Debug:          "Debug",
		RelWithDebInfo: "RelWithDebInfo",
	}
}

// ParseBuildConfiguration converts a selector into a BuildConfiguration.
// Matching is case-insensitive and "release" is accepted for RelWithDebInfo.
func ParseBuildConfiguration(s string) (BuildConfiguration, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return Debug, nil
	case "relwithdebinfo", "release":
		return RelWithDebInfo, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownConfiguration, s)
	}
}

// OutputDir returns the subdirectory holding the build outputs of c.
func (c BuildConfiguration) OutputDir() (string, error) {
	dir, ok := outputDirs()[c]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownConfiguration, string(c))
	}

	return dir, nil
}

// String implements fmt.Stringer.
func (c BuildConfiguration) String() string {
	return string(c)
}
