package artifact

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// TestResolveX64Debug checks the complete spec list for the 64-bit debug package.
func TestResolveX64Debug(t *testing.T) {
	t.Parallel()

	profile, err := LookupProfile(ArchX64)
	require.NoError(t, err)

	specs, err := Resolve(profile, Debug)
	require.NoError(t, err)

	require.Equal(t, []Spec{
		{Pattern: "*.h", SourceDir: "mediaPlayer", DestDir: "include", PreserveStructure: true},
		{Pattern: "*.h", SourceDir: "framework", DestDir: "include", PreserveStructure: true},
		{Pattern: "ffmpeg-4.dll", SourceDir: "external/install/ffmpeg/win32/x86_64/bin", DestDir: "bin"},
		{Pattern: "media_player.lib", SourceDir: "build64/cmdline/mediaPlayer.out/Debug", DestDir: "lib"},
		{Pattern: "media_player.dll", SourceDir: "build64/cmdline/mediaPlayer.out/Debug", DestDir: "bin"},
		{Pattern: "media_player.pdb", SourceDir: "build64/cmdline/mediaPlayer.out/Debug", DestDir: "bin"},
	}, specs)
}

// TestResolveDestinationsAreConfigurationInvariant compares Debug and RelWithDebInfo specs.
func TestResolveDestinationsAreConfigurationInvariant(t *testing.T) {
	t.Parallel()

	for _, name := range ProfileNames() {
		profile, err := LookupProfile(name)
		require.NoError(t, err)

		debug, err := Resolve(profile, Debug)
		require.NoError(t, err)

		release, err := Resolve(profile, RelWithDebInfo)
		require.NoError(t, err)

		require.Len(t, release, len(debug))

		for i := range debug {
			require.Equal(t, debug[i].Pattern, release[i].Pattern)
			require.Equal(t, debug[i].DestDir, release[i].DestDir)
			require.Equal(t, debug[i].PreserveStructure, release[i].PreserveStructure)
		}

		last := len(debug) - 1
		require.Equal(t, profile.BuildRoot+"/Debug", debug[last].SourceDir)
		require.Equal(t, profile.BuildRoot+"/RelWithDebInfo", release[last].SourceDir)
	}
}

// TestResolveUnknownConfiguration ensures the output table rejects unknown configurations.
func TestResolveUnknownConfiguration(t *testing.T) {
	t.Parallel()

	profile, err := LookupProfile(ArchX86)
	require.NoError(t, err)

	_, err = Resolve(profile, BuildConfiguration("Profile"))
	require.ErrorIs(t, err, ErrUnknownConfiguration)
}
