package config

import (
	"github.com/spf13/pflag"
)

// Flags binds command-line overrides for settings loaded from a file.
// Only flags set explicitly on the command line replace file values.
type Flags struct {
	set    *pflag.FlagSet
	values Config
	// apply maps a flag name to the copy of its value into a Config.
	apply map[string]func(dst *Config)
}

// NewFlags creates overrides registered on set.
func NewFlags(set *pflag.FlagSet) *Flags {
	return &Flags{
		set:   set,
		apply: make(map[string]func(dst *Config)),
	}
}

// BindPackaging registers the architecture and build configuration flags.
func (f *Flags) BindPackaging() *Flags {
	v := &f.values

	f.set.StringVarP(&v.Architecture, "arch", "a", DefaultArchitecture, "target architecture (x86, x64)")
	f.set.StringVarP(&v.BuildType, "build-type", "b", DefaultBuildType, "build configuration (Debug, RelWithDebInfo)")

	f.on("arch", func(dst *Config) { dst.Architecture = v.Architecture })
	f.on("build-type", func(dst *Config) { dst.BuildType = v.BuildType })

	return f
}

// BindSigning registers the signer and backend flags. Secrets are only read from
// the settings file or the environment.
func (f *Flags) BindSigning() *Flags {
	s := &f.values.Signing

	f.set.StringVar(&s.Backend, "backend", DefaultBackend, "signing backend (signtool, pkcs7, openpgp)")
	f.set.StringVar(&s.ToolPath, "tool-path", DefaultToolPath, "signing tool executable")
	f.set.StringVar(&s.Thumbprint, "thumbprint", "", "SHA-1 thumbprint of the signing certificate")
	f.set.StringVar(&s.DigestAlgorithm, "digest", DefaultDigestAlgorithm, "file digest algorithm")
	f.set.StringVar(&s.TimestampURL, "timestamp-url", DefaultTimestampURL, "RFC 3161 timestamp authority")
	f.set.StringVar(&s.TimestampDigestAlgorithm, "timestamp-digest", DefaultDigestAlgorithm,
		"timestamp digest algorithm")
	f.set.StringVar(&s.CertificateFile, "certificate", "", "PFX bundle for the pkcs7 backend")
	f.set.StringVar(&s.KeyFile, "key-file", "", "armored private key for the openpgp backend")
	f.set.IntVar(&s.MaxAttempts, "max-attempts", DefaultMaxAttempts, "signing attempts per file")
	f.set.DurationVar(&s.AttemptTimeout, "attempt-timeout", 0, "time limit of one signing attempt (0 disables)")
	f.set.DurationVar(&s.RetryDelay, "retry-delay", 0, "wait before retrying a failed attempt")
	f.set.Float64Var(&s.RetryMultiplier, "retry-multiplier", DefaultRetryMultiplier, "growth of the retry delay")
	f.set.DurationVar(&s.MaxRetryDelay, "max-retry-delay", 0, "upper bound of the retry delay (0 disables)")
	f.set.BoolVar(&s.RetryJitter, "retry-jitter", false, "randomize retry delays")
	f.set.StringSliceVar(&s.Exclude, "exclude", DefaultExclusions(), "file names that are never signed")
	f.set.StringVar(&s.Policy, "policy", DefaultPolicy, "exhaustion policy (best-effort, fail-at-end, fail-fast)")

	f.on("backend", func(dst *Config) { dst.Signing.Backend = s.Backend })
	f.on("tool-path", func(dst *Config) { dst.Signing.ToolPath = s.ToolPath })
	f.on("thumbprint", func(dst *Config) { dst.Signing.Thumbprint = s.Thumbprint })
	f.on("digest", func(dst *Config) { dst.Signing.DigestAlgorithm = s.DigestAlgorithm })
	f.on("timestamp-url", func(dst *Config) { dst.Signing.TimestampURL = s.TimestampURL })
	f.on("timestamp-digest", func(dst *Config) { dst.Signing.TimestampDigestAlgorithm = s.TimestampDigestAlgorithm })
	f.on("certificate", func(dst *Config) { dst.Signing.CertificateFile = s.CertificateFile })
	f.on("key-file", func(dst *Config) { dst.Signing.KeyFile = s.KeyFile })
	f.on("max-attempts", func(dst *Config) { dst.Signing.MaxAttempts = s.MaxAttempts })
	f.on("attempt-timeout", func(dst *Config) { dst.Signing.AttemptTimeout = s.AttemptTimeout })
	f.on("retry-delay", func(dst *Config) { dst.Signing.RetryDelay = s.RetryDelay })
	f.on("retry-multiplier", func(dst *Config) { dst.Signing.RetryMultiplier = s.RetryMultiplier })
	f.on("max-retry-delay", func(dst *Config) { dst.Signing.MaxRetryDelay = s.MaxRetryDelay })
	f.on("retry-jitter", func(dst *Config) { dst.Signing.RetryJitter = s.RetryJitter })
	f.on("exclude", func(dst *Config) { dst.Signing.Exclude = append([]string{}, s.Exclude...) })
	f.on("policy", func(dst *Config) { dst.Signing.Policy = s.Policy })

	return f
}

func (f *Flags) on(name string, apply func(dst *Config)) {
	f.apply[name] = apply
}

// Resolve loads settings from path, applies the changed flags and validates the result.
func (f *Flags) Resolve(path string) (*Config, error) {
	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}

	f.set.Visit(func(flag *pflag.Flag) {
		if apply, ok := f.apply[flag.Name]; ok {
			apply(cfg)
		}
	})

	if err = Validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}
