package signing

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Backend signs one file. A nil error means the file is signed.
type Backend interface {
	Sign(ctx context.Context, path string) error
}

// BackendFunc adapts a function to Backend.
type BackendFunc func(ctx context.Context, path string) error

// Sign implements Backend.
func (f BackendFunc) Sign(ctx context.Context, path string) error {
	return f(ctx, path)
}

// Kind names a backend implementation.
type Kind string

const (
	// KindSigntool runs the external signtool binary.
	KindSigntool Kind = "signtool"
	// KindPKCS7 writes a detached CMS signature using a PFX identity.
	KindPKCS7 Kind = "pkcs7"
	// KindOpenPGP writes an armored detached OpenPGP signature.
	KindOpenPGP Kind = "openpgp"
)

var (
	// ErrUnknownBackend is returned for unsupported backend kinds.
	ErrUnknownBackend = errors.New("unknown signing backend")
	// ErrThumbprintRequired is returned when signtool has no certificate to select.
	ErrThumbprintRequired = errors.New("certificate thumbprint must be provided")
	// ErrCertificateRequired is returned when the pkcs7 backend has no PFX file.
	ErrCertificateRequired = errors.New("certificate file must be provided")
	// ErrKeyRequired is returned when the openpgp backend has no key file.
	ErrKeyRequired = errors.New("key file must be provided")
)

// Options holds the settings of every backend kind; each kind reads its own subset.
type Options struct {
	Kind Kind

	// ToolPath, Thumbprint, DigestAlgorithm, TimestampURL and TimestampDigestAlgorithm
	// parameterize the signtool command line.
	ToolPath                 string
	Thumbprint               string
	DigestAlgorithm          string
	TimestampURL             string
	TimestampDigestAlgorithm string

	// CertificateFile and CertificatePassword locate the PFX identity for pkcs7.
	CertificateFile     string
	CertificatePassword string

	// KeyFile and KeyPassphrase locate the armored private key for openpgp.
	KeyFile       string
	KeyPassphrase string
}

// New builds the backend selected by opts.Kind.
func New(opts Options) (Backend, error) {
	switch Kind(strings.ToLower(string(opts.Kind))) {
	case KindSigntool, "":
		return NewSigntool(opts)
	case KindPKCS7:
		return NewPKCS7(opts)
	case KindOpenPGP:
		return NewOpenPGP(opts)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, opts.Kind)
	}
}
