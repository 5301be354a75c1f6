package signing

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/oshokin/media-release/internal/logger"
)

// ErrToolFailed is returned when the signing tool exits with a non-zero status.
var ErrToolFailed = errors.New("signing tool failed")

const (
	// DefaultTimestampURL is the RFC 3161 authority used when none is configured.
	DefaultTimestampURL = "http://rfc3161timestamp.globalsign.com/advanced"

	// maxOutputInError limits how much tool output is carried in an error message.
	maxOutputInError = 512

	// waitDelay bounds how long a killed tool may keep its output pipes open.
	waitDelay = 5 * time.Second
)

// Signtool drives the external Authenticode signing tool.
// The tool and the certificate store it reads are not reentrant, so callers must not
// invoke Sign concurrently.
type Signtool struct {
	toolPath                 string
	thumbprint               string
	digestAlgorithm          string
	timestampURL             string
	timestampDigestAlgorithm string
}

// NewSigntool validates opts and returns a signtool backend.
func NewSigntool(opts Options) (*Signtool, error) {
	thumbprint := NormalizeThumbprint(opts.Thumbprint)
	if thumbprint == "" {
		return nil, ErrThumbprintRequired
	}

	return &Signtool{
		toolPath:                 valueOrDefault(opts.ToolPath, "signtool"),
		thumbprint:               thumbprint,
		digestAlgorithm:          valueOrDefault(opts.DigestAlgorithm, "sha256"),
		timestampURL:             valueOrDefault(opts.TimestampURL, DefaultTimestampURL),
		timestampDigestAlgorithm: valueOrDefault(opts.TimestampDigestAlgorithm, "sha256"),
	}, nil
}

// Args returns the tool arguments used to sign path.
func (s *Signtool) Args(path string) []string {
	return []string{
		"sign", "/v",
		"/fd", s.digestAlgorithm,
		"/sha1", s.thumbprint,
		"/tr", s.timestampURL,
		"/td", s.timestampDigestAlgorithm,
		path,
	}
}

// Sign runs the tool once against path. Cancelling ctx kills the tool.
func (s *Signtool) Sign(ctx context.Context, path string) error {
	//nolint:gosec // G204: the tool path and arguments come from the release configuration.
	cmd := exec.CommandContext(ctx, s.toolPath, s.Args(path)...)

	var output bytes.Buffer

	cmd.Stdout = &output
	cmd.Stderr = &output
	cmd.WaitDelay = waitDelay

	err := cmd.Run()

	logger.DebugKV(ctx, "Signing tool finished", "file", path, "output", strings.TrimSpace(output.String()))

	if err == nil {
		return nil
	}

	if ctxErr := ctx.Err(); ctxErr != nil {
		return fmt.Errorf("%w: %s: %w", ErrToolFailed, path, ctxErr)
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return fmt.Errorf("%w: %s: exit status %d: %s",
			ErrToolFailed, path, exitErr.ExitCode(), truncate(output.String(), maxOutputInError))
	}

	return fmt.Errorf("%w: %s: %w", ErrToolFailed, path, err)
}

// NormalizeThumbprint strips separators and lowercases a certificate fingerprint.
func NormalizeThumbprint(thumbprint string) string {
	// Fingerprints copied from the certificate manager start with U+200E.
	replacer := strings.NewReplacer(" ", "", ":", "", "\u200e", "")

	return strings.ToLower(replacer.Replace(strings.TrimSpace(thumbprint)))
}

func valueOrDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}

	return value
}

func truncate(s string, limit int) string {
	s = strings.TrimSpace(s)
	if len(s) <= limit {
		return s
	}

	return s[:limit] + "..."
}
