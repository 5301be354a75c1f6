package artifact

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// TestLookupProfileAliases checks that every accepted spelling resolves to a canonical profile.
func TestLookupProfileAliases(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"x86":    ArchX86,
		"i686":   ArchX86,
		"Win32":  ArchX86,
		"32":     ArchX86,
		"x64":    ArchX64,
		"X86_64": ArchX64,
		" amd64": ArchX64,
		"64":     ArchX64,
	}
	for selector, want := range cases {
		profile, err := LookupProfile(selector)
		require.NoError(t, err, selector)
		require.Equal(t, want, profile.Name, selector)
	}
}

// TestLookupProfileUnknown ensures unsupported selectors are rejected.
func TestLookupProfileUnknown(t *testing.T) {
	t.Parallel()

	_, err := LookupProfile("arm64")
	require.ErrorIs(t, err, ErrUnknownArchitecture)
	require.Contains(t, err.Error(), "x64")
}

// TestProfilePaths pins the per-architecture path conventions.
func TestProfilePaths(t *testing.T) {
	t.Parallel()

	x86, err := LookupProfile(ArchX86)
	require.NoError(t, err)
	require.Equal(t, "Cicada-Player", x86.PackageName)
	require.Equal(t, []HeaderSource{{SourceDir: "mediaPlayer", DestDir: "include/cicada"}}, x86.Headers)
	require.Equal(t, "external/install/ffmpeg/win32/i686/bin", x86.RuntimeDir)
	require.Equal(t, "build32/cmdline/mediaPlayer.out", x86.BuildRoot)

	x64, err := LookupProfile(ArchX64)
	require.NoError(t, err)
	require.Equal(t, "Cicada-Player_x64", x64.PackageName)
	require.Len(t, x64.Headers, 2)
	require.Equal(t, "external/install/ffmpeg/win32/x86_64/bin", x64.RuntimeDir)
	require.Equal(t, "build64/cmdline/mediaPlayer.out", x64.BuildRoot)

	require.Equal(t, []string{ArchX64, ArchX86}, ProfileNames())
}

// TestParseBuildConfiguration covers canonical names, aliases and failures.
func TestParseBuildConfiguration(t *testing.T) {
	t.Parallel()

	cases := map[string]BuildConfiguration{
		"Debug":          Debug,
		"debug":          Debug,
		"RelWithDebInfo": RelWithDebInfo,
		"release":        RelWithDebInfo,
	}
	for s, want := range cases {
		got, err := ParseBuildConfiguration(s)
		require.NoError(t, err, s)
		require.Equal(t, want, got, s)
	}

	_, err := ParseBuildConfiguration("MinSizeRel")
	require.ErrorIs(t, err, ErrUnknownConfiguration)

	_, err = BuildConfiguration("MinSizeRel").OutputDir()
	require.ErrorIs(t, err, ErrUnknownConfiguration)
}
