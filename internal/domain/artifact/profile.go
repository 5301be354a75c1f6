package artifact

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrUnknownArchitecture is returned when an architecture selector matches no profile.
var ErrUnknownArchitecture = errors.New("unknown architecture")

// HeaderSource maps one source directory of public headers to its include destination.
type HeaderSource struct {
	// SourceDir is relative to the source root.
	SourceDir string
	// DestDir is relative to the package root.
	DestDir string
}

// Profile identifies a target architecture and the paths tied to it.
// Profiles are values and are never modified after lookup.
type Profile struct {
	// Name is the canonical selector (x86 or x64).
	Name string
	// PackageName is the published name of the package for this architecture.
	PackageName string
	// Headers lists the header trees copied into the include directory.
	Headers []HeaderSource
	// RuntimeDir holds the vendored runtime library build for this architecture.
	RuntimeDir string
	// BuildRoot is the build output root; configuration subdirectories live below it.
	BuildRoot string
}

const (
	// ArchX86 is the canonical name of the 32-bit profile.
	ArchX86 = "x86"
	// ArchX64 is the canonical name of the 64-bit profile.
	ArchX64 = "x64"
)

// profiles returns the known architecture profiles keyed by canonical name.
func profiles() map[string]Profile {
	return map[string]Profile{
		ArchX86: {
			Name:        ArchX86,
			PackageName: "Cicada-Player",
			Headers: []HeaderSource{
				{SourceDir: "mediaPlayer", DestDir: "include/cicada"},
			},
			RuntimeDir: "external/install/ffmpeg/win32/i686/bin",
			BuildRoot:  "build32/cmdline/mediaPlayer.out",
		},
		ArchX64: {
			Name:        ArchX64,
			PackageName: "Cicada-Player_x64",
			Headers: []HeaderSource{
				{SourceDir: "mediaPlayer", DestDir: "include"},
				{SourceDir: "framework", DestDir: "include"},
			},
			RuntimeDir: "external/install/ffmpeg/win32/x86_64/bin",
			BuildRoot:  "build64/cmdline/mediaPlayer.out",
		},
	}
}

// architectureAliases maps accepted selector spellings to canonical names.
func architectureAliases() map[string]string {
	return map[string]string{
		"x86":    ArchX86,
		"i686":   ArchX86,
		"win32":  ArchX86,
		"32":     ArchX86,
		"x64":    ArchX64,
		"x86_64": ArchX64,
		"amd64":  ArchX64,
		"64":     ArchX64,
	}
}

// LookupProfile returns the profile for an architecture selector.
func LookupProfile(selector string) (Profile, error) {
	name, ok := architectureAliases()[strings.ToLower(strings.TrimSpace(selector))]
	if !ok {
		return Profile{}, fmt.Errorf("%w: %q (known: %s)",
			ErrUnknownArchitecture, selector, strings.Join(ProfileNames(), ", "))
	}

	return profiles()[name], nil
}

// ProfileNames returns the canonical profile names in sorted order.
func ProfileNames() []string {
	known := profiles()

	names := make([]string, 0, len(known))
	for name := range known {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}
