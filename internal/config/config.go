package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/oshokin/media-release/internal/domain/artifact"
	"github.com/oshokin/media-release/internal/signing"
)

// Config holds the settings of one packaging and signing run.
type Config struct {
	// SourceRoot is the checkout holding build outputs and headers.
	SourceRoot string
	// PackageRoot is where include/, lib/ and bin/ are produced.
	PackageRoot string
	// Architecture selects the artifact profile (x86 or x64).
	Architecture string
	// BuildType selects the build configuration (Debug or RelWithDebInfo).
	BuildType string
	// Signing configures the signer and its backend.
	Signing Signing
}

// Signing holds the signer and signing backend settings.
type Signing struct {
	// Backend is the signing backend kind: signtool, pkcs7 or openpgp.
	Backend string
	// ToolPath is the signtool executable, looked up on PATH when not absolute.
	ToolPath string
	// Thumbprint is the SHA-1 fingerprint of the signing certificate.
	Thumbprint string
	// DigestAlgorithm is the file digest algorithm passed to the tool.
	DigestAlgorithm string
	// TimestampURL is the RFC 3161 timestamp authority.
	TimestampURL string
	// TimestampDigestAlgorithm is the digest requested from the timestamp authority.
	TimestampDigestAlgorithm string
	// CertificateFile is the PFX bundle used by the pkcs7 backend.
	CertificateFile string
	// CertificatePassword unlocks CertificateFile.
	CertificatePassword string
	// KeyFile is the armored OpenPGP private key used by the openpgp backend.
	KeyFile string
	// KeyPassphrase unlocks KeyFile.
	KeyPassphrase string
	// MaxAttempts bounds the signing attempts per file.
	MaxAttempts int
	// AttemptTimeout bounds one signing attempt; zero disables the limit.
	AttemptTimeout time.Duration
	// RetryDelay is the wait before the second attempt; zero retries immediately.
	RetryDelay time.Duration
	// RetryMultiplier grows the delay between later attempts.
	RetryMultiplier float64
	// MaxRetryDelay caps the delay; zero means no cap.
	MaxRetryDelay time.Duration
	// RetryJitter randomizes each delay between 50% and 150%.
	RetryJitter bool
	// Exclude lists file names that are never signed.
	Exclude []string
	// Policy controls how exhausted files affect the run result.
	Policy string
}

const (
	// DefaultArchitecture is used when no architecture is configured.
	DefaultArchitecture = artifact.ArchX64
	// DefaultBuildType is used when no build configuration is configured.
	DefaultBuildType = string(artifact.RelWithDebInfo)

	// DefaultBackend is the signing backend used when none is configured.
	DefaultBackend = "signtool"
	// DefaultToolPath is the signtool executable name.
	DefaultToolPath = "signtool"
	// DefaultDigestAlgorithm is used for file and timestamp digests.
	DefaultDigestAlgorithm = "sha256"
	// DefaultTimestampURL is the timestamp authority used when none is configured.
	DefaultTimestampURL = signing.DefaultTimestampURL
	// DefaultMaxAttempts is the signing attempt bound per file.
	DefaultMaxAttempts = 3
	// DefaultRetryMultiplier keeps the retry delay constant.
	DefaultRetryMultiplier = 1.0
	// DefaultPolicy keeps going after exhausted files and only reports them.
	DefaultPolicy = "best-effort"

	// EnvCertificatePassword overrides Signing.CertificatePassword when set.
	EnvCertificatePassword = "MEDIA_RELEASE_CERTIFICATE_PASSWORD"
	// EnvKeyPassphrase overrides Signing.KeyPassphrase when set.
	EnvKeyPassphrase = "MEDIA_RELEASE_KEY_PASSPHRASE"
)

// DefaultExclusions returns the file names skipped by the signer by default.
func DefaultExclusions() []string {
	return []string{"test.exe"}
}

var (
	// errConfigIsNotSet is returned when a nil configuration is provided.
	errConfigIsNotSet = errors.New("configuration is not set")
	// errInvalidAttempts is returned for a non-positive attempt bound.
	errInvalidAttempts = errors.New("max attempts must be positive")
	// errNegativeDuration is returned for negative timeouts or delays.
	errNegativeDuration = errors.New("duration must not be negative")
	// errInvalidMultiplier is returned for a retry multiplier below one.
	errInvalidMultiplier = errors.New("retry multiplier must be at least 1")
)

// Default returns a validated configuration without any file input.
func Default() *Config {
	cfg := new(Config)

	// Validate only fails on explicit invalid values, never on an empty config.
	_ = Validate(cfg)

	return cfg
}

// Validate fills in defaults and checks the provided settings.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if cfg.Architecture == "" {
		cfg.Architecture = DefaultArchitecture
	}

	if _, err := artifact.LookupProfile(cfg.Architecture); err != nil {
		return err
	}

	if cfg.BuildType == "" {
		cfg.BuildType = DefaultBuildType
	}

	if _, err := artifact.ParseBuildConfiguration(cfg.BuildType); err != nil {
		return err
	}

	return validateSigning(&cfg.Signing)
}

// validateSigning fills signing defaults and rejects invalid bounds.
func validateSigning(s *Signing) error {
	s.Backend = strings.ToLower(strings.TrimSpace(s.Backend))
	if s.Backend == "" {
		s.Backend = DefaultBackend
	}

	if s.ToolPath == "" {
		s.ToolPath = DefaultToolPath
	}

	if s.DigestAlgorithm == "" {
		s.DigestAlgorithm = DefaultDigestAlgorithm
	}

	if s.TimestampURL == "" {
		s.TimestampURL = DefaultTimestampURL
	}

	if s.TimestampDigestAlgorithm == "" {
		s.TimestampDigestAlgorithm = DefaultDigestAlgorithm
	}

	if password, ok := os.LookupEnv(EnvCertificatePassword); ok && s.CertificatePassword == "" {
		s.CertificatePassword = password
	}

	if passphrase, ok := os.LookupEnv(EnvKeyPassphrase); ok && s.KeyPassphrase == "" {
		s.KeyPassphrase = passphrase
	}

	switch {
	case s.MaxAttempts == 0:
		s.MaxAttempts = DefaultMaxAttempts
	case s.MaxAttempts < 0:
		return fmt.Errorf("%w: %d", errInvalidAttempts, s.MaxAttempts)
	}

	for name, d := range map[string]time.Duration{
		"attempt timeout": s.AttemptTimeout,
		"retry delay":     s.RetryDelay,
		"max retry delay": s.MaxRetryDelay,
	} {
		if d < 0 {
			return fmt.Errorf("%s: %w", name, errNegativeDuration)
		}
	}

	switch {
	case s.RetryMultiplier == 0:
		s.RetryMultiplier = DefaultRetryMultiplier
	case s.RetryMultiplier < 1:
		return fmt.Errorf("%w: %v", errInvalidMultiplier, s.RetryMultiplier)
	}

	// A nil list means "not configured"; an explicit empty list disables exclusions.
	if s.Exclude == nil {
		s.Exclude = DefaultExclusions()
	}

	s.Policy = strings.ToLower(strings.TrimSpace(s.Policy))
	if s.Policy == "" {
		s.Policy = DefaultPolicy
	}

	return nil
}
