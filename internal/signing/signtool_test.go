package signing

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// fakeToolScript records its arguments and fails for files whose name contains "reject".
const fakeToolScript = `#!/bin/sh
printf '%s\n' "$@" >> "$(dirname "$0")/calls.log"
case "$*" in
  *reject*) echo "SignTool Error: No certificates were found that met all the given criteria."; exit 1 ;;
  *hang*) exec sleep 5 ;;
esac
echo "Successfully signed"
exit 0
`

// installFakeTool writes the fake signing tool into a temp dir and returns its path.
func installFakeTool(t *testing.T) string {
	t.Helper()

	if runtime.GOOS == "windows" {
		t.Skip("shell-script signing tool requires a POSIX shell")
	}

	dir := t.TempDir()
	path := filepath.Join(dir, "signtool")
	require.NoError(t, os.WriteFile(path, []byte(fakeToolScript), 0o755)) //nolint:gosec // Test tool must be executable.

	return path
}

// TestSigntoolArgs pins the command line passed to the tool.
func TestSigntoolArgs(t *testing.T) {
	t.Parallel()

	tool, err := NewSigntool(Options{
		Thumbprint:   "8E49DA40B09490145166EDCD07D7F644C686D341",
		TimestampURL: "http://rfc3161timestamp.globalsign.com/advanced",
	})
	require.NoError(t, err)

	require.Equal(t, []string{
		"sign", "/v",
		"/fd", "sha256",
		"/sha1", "8e49da40b09490145166edcd07d7f644c686d341",
		"/tr", "http://rfc3161timestamp.globalsign.com/advanced",
		"/td", "sha256",
		`C:\pkg\bin\media_player.dll`,
	}, tool.Args(`C:\pkg\bin\media_player.dll`))

	defaults, err := NewSigntool(Options{Thumbprint: "aa", DigestAlgorithm: "sha384"})
	require.NoError(t, err)
	require.Equal(t, []string{
		"sign", "/v",
		"/fd", "sha384",
		"/sha1", "aa",
		"/tr", DefaultTimestampURL,
		"/td", "sha256",
		"app.exe",
	}, defaults.Args("app.exe"))
}

// TestSigntoolSign runs the fake tool for a successful and a failing file.
func TestSigntoolSign(t *testing.T) {
	t.Parallel()

	toolPath := installFakeTool(t)

	tool, err := NewSigntool(Options{ToolPath: toolPath, Thumbprint: "aa", TimestampURL: "http://tsa.local"})
	require.NoError(t, err)

	ctx := context.Background()

	require.NoError(t, tool.Sign(ctx, "app.exe"))

	err = tool.Sign(ctx, "reject.dll")
	require.ErrorIs(t, err, ErrToolFailed)
	require.ErrorContains(t, err, "exit status 1")
	require.ErrorContains(t, err, "No certificates were found")

	calls, err := os.ReadFile(filepath.Join(filepath.Dir(toolPath), "calls.log"))
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(calls)), "\n")
	require.Equal(t, "sign", lines[0])
	require.Contains(t, lines, "app.exe")
	require.Contains(t, lines, "reject.dll")
	require.Contains(t, lines, "http://tsa.local")
}

// TestSigntoolSignHonoursDeadline ensures a hung tool is killed when the attempt deadline passes.
func TestSigntoolSignHonoursDeadline(t *testing.T) {
	t.Parallel()

	toolPath := installFakeTool(t)

	tool, err := NewSigntool(Options{ToolPath: toolPath, Thumbprint: "aa"})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	started := time.Now()
	err = tool.Sign(ctx, "hang.exe")

	require.ErrorIs(t, err, ErrToolFailed)
	require.ErrorIs(t, err, context.DeadlineExceeded)
	require.Less(t, time.Since(started), 4*time.Second)
}

// TestSigntoolMissingTool reports a start failure as a tool failure.
func TestSigntoolMissingTool(t *testing.T) {
	t.Parallel()

	tool, err := NewSigntool(Options{ToolPath: filepath.Join(t.TempDir(), "no-such-signtool"), Thumbprint: "aa"})
	require.NoError(t, err)

	require.ErrorIs(t, tool.Sign(context.Background(), "app.exe"), ErrToolFailed)
}
