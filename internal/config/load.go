package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"gopkg.in/yaml.v3"
)

// errUnsupportedFormat is returned for settings files with an unknown extension.
var errUnsupportedFormat = errors.New("unsupported settings format")

// fileConfig is the on-disk shape of Config shared by every supported format.
type fileConfig struct {
	SourceRoot   string       `yaml:"source_root"  toml:"source_root"  hcl:"source_root,optional"`
	PackageRoot  string       `yaml:"package_root" toml:"package_root" hcl:"package_root,optional"`
	Architecture string       `yaml:"arch"         toml:"arch"         hcl:"arch,optional"`
	BuildType    string       `yaml:"build_type"   toml:"build_type"   hcl:"build_type,optional"`
	Signing      *fileSigning `yaml:"signing"      toml:"signing"      hcl:"signing,block"`
}

// fileSigning keeps durations as strings so all formats share one parser.
type fileSigning struct {
	Backend                  string   `yaml:"backend"                    toml:"backend"                    hcl:"backend,optional"`
	ToolPath                 string   `yaml:"tool_path"                  toml:"tool_path"                  hcl:"tool_path,optional"`
	Thumbprint               string   `yaml:"thumbprint"                 toml:"thumbprint"                 hcl:"thumbprint,optional"`
	DigestAlgorithm          string   `yaml:"digest_algorithm"           toml:"digest_algorithm"           hcl:"digest_algorithm,optional"`
	TimestampURL             string   `yaml:"timestamp_url"              toml:"timestamp_url"              hcl:"timestamp_url,optional"`
	TimestampDigestAlgorithm string   `yaml:"timestamp_digest_algorithm" toml:"timestamp_digest_algorithm" hcl:"timestamp_digest_algorithm,optional"`
	CertificateFile          string   `yaml:"certificate_file"           toml:"certificate_file"           hcl:"certificate_file,optional"`
	CertificatePassword      string   `yaml:"certificate_password"       toml:"certificate_password"       hcl:"certificate_password,optional"`
	KeyFile                  string   `yaml:"key_file"                   toml:"key_file"                   hcl:"key_file,optional"`
	KeyPassphrase            string   `yaml:"key_passphrase"             toml:"key_passphrase"             hcl:"key_passphrase,optional"`
	MaxAttempts              int      `yaml:"max_attempts"               toml:"max_attempts"               hcl:"max_attempts,optional"`
	AttemptTimeout           string   `yaml:"attempt_timeout"            toml:"attempt_timeout"            hcl:"attempt_timeout,optional"`
	RetryDelay               string   `yaml:"retry_delay"                toml:"retry_delay"                hcl:"retry_delay,optional"`
	RetryMultiplier          float64  `yaml:"retry_multiplier"           toml:"retry_multiplier"           hcl:"retry_multiplier,optional"`
	MaxRetryDelay            string   `yaml:"max_retry_delay"            toml:"max_retry_delay"            hcl:"max_retry_delay,optional"`
	RetryJitter              bool     `yaml:"retry_jitter"               toml:"retry_jitter"               hcl:"retry_jitter,optional"`
	Exclude                  []string `yaml:"exclude"                    toml:"exclude"                    hcl:"exclude,optional"`
	Policy                   string   `yaml:"policy"                     toml:"policy"                     hcl:"policy,optional"`
}

// Load reads settings from path, applies defaults and validates them.
// An empty path returns the defaults.
func Load(path string) (*Config, error) {
	if path == "" {
		cfg := new(Config)
		if err := Validate(cfg); err != nil {
			return nil, err
		}

		return cfg, nil
	}

	path = filepath.Clean(path)

	contents, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read settings: %w", err)
	}

	raw, err := decode(path, contents)
	if err != nil {
		return nil, err
	}

	cfg, err := raw.toConfig()
	if err != nil {
		return nil, err
	}

	if err = Validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// decode picks the decoder by file extension.
func decode(path string, contents []byte) (*fileConfig, error) {
	var raw fileConfig

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(contents, &raw); err != nil {
			return nil, fmt.Errorf("unmarshal yaml settings: %w", err)
		}
	case ".toml":
		if err := toml.Unmarshal(contents, &raw); err != nil {
			return nil, fmt.Errorf("unmarshal toml settings: %w", err)
		}
	case ".hcl":
		parser := hclparse.NewParser()

		file, diags := parser.ParseHCL(contents, path)
		if diags.HasErrors() {
			return nil, fmt.Errorf("parse hcl settings: %w", diags)
		}

		if diags = gohcl.DecodeBody(file.Body, nil, &raw); diags.HasErrors() {
			return nil, fmt.Errorf("decode hcl settings: %w", diags)
		}
	default:
		return nil, fmt.Errorf("%w: %q", errUnsupportedFormat, ext)
	}

	return &raw, nil
}

// toConfig converts the on-disk shape into Config.
func (f *fileConfig) toConfig() (*Config, error) {
	cfg := &Config{
		SourceRoot:   f.SourceRoot,
		PackageRoot:  f.PackageRoot,
		Architecture: f.Architecture,
		BuildType:    f.BuildType,
	}

	if f.Signing == nil {
		return cfg, nil
	}

	s := f.Signing
	cfg.Signing = Signing{
		Backend:                  s.Backend,
		ToolPath:                 s.ToolPath,
		Thumbprint:               s.Thumbprint,
		DigestAlgorithm:          s.DigestAlgorithm,
		TimestampURL:             s.TimestampURL,
		TimestampDigestAlgorithm: s.TimestampDigestAlgorithm,
		CertificateFile:          s.CertificateFile,
		CertificatePassword:      s.CertificatePassword,
		KeyFile:                  s.KeyFile,
		KeyPassphrase:            s.KeyPassphrase,
		MaxAttempts:              s.MaxAttempts,
		RetryMultiplier:          s.RetryMultiplier,
		RetryJitter:              s.RetryJitter,
		Exclude:                  s.Exclude,
		Policy:                   s.Policy,
	}

	durations := []struct {
		name  string
		value string
		dst   *time.Duration
	}{
		{name: "attempt_timeout", value: s.AttemptTimeout, dst: &cfg.Signing.AttemptTimeout},
		{name: "retry_delay", value: s.RetryDelay, dst: &cfg.Signing.RetryDelay},
		{name: "max_retry_delay", value: s.MaxRetryDelay, dst: &cfg.Signing.MaxRetryDelay},
	}

	for _, d := range durations {
		if strings.TrimSpace(d.value) == "" {
			continue
		}

		parsed, err := time.ParseDuration(strings.TrimSpace(d.value))
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", d.name, err)
		}

		*d.dst = parsed
	}

	return cfg, nil
}
