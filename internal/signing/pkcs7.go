package signing

import (
	"context"
	"crypto"
	"crypto/sha1" //nolint:gosec // Certificate thumbprints are SHA-1 by definition.
	"crypto/x509"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"go.mozilla.org/pkcs7"
	gop12 "software.sslmate.com/src/go-pkcs12"
)

// ErrThumbprintMismatch is returned when the PFX certificate is not the configured one.
var ErrThumbprintMismatch = errors.New("certificate thumbprint mismatch")

const (
	// SignatureExtensionPKCS7 is appended to the signed file name.
	SignatureExtensionPKCS7 = ".p7s"

	// detachedSignatureMode is the permission of written signature files.
	detachedSignatureMode os.FileMode = 0o644
)

// PKCS7 writes a detached CMS signature next to each file.
type PKCS7 struct {
	certificate *x509.Certificate
	chain       []*x509.Certificate
	privateKey  crypto.PrivateKey
}

// NewPKCS7 loads the PFX identity and checks its thumbprint when one is configured.
func NewPKCS7(opts Options) (*PKCS7, error) {
	if opts.CertificateFile == "" {
		return nil, ErrCertificateRequired
	}

	pfxData, err := os.ReadFile(filepath.Clean(opts.CertificateFile))
	if err != nil {
		return nil, fmt.Errorf("read certificate file: %w", err)
	}

	privateKey, certificate, caCerts, err := gop12.DecodeChain(pfxData, opts.CertificatePassword)
	if err != nil {
		return nil, fmt.Errorf("decode certificate file: %w", err)
	}

	if want := NormalizeThumbprint(opts.Thumbprint); want != "" {
		if got := Thumbprint(certificate); got != want {
			return nil, fmt.Errorf("%w: want %s, got %s", ErrThumbprintMismatch, want, got)
		}
	}

	return &PKCS7{
		certificate: certificate,
		chain:       caCerts,
		privateKey:  privateKey,
	}, nil
}

// Thumbprint returns the lowercase hex SHA-1 fingerprint of a certificate.
func Thumbprint(certificate *x509.Certificate) string {
	//nolint:gosec // Certificate thumbprints are SHA-1 by definition.
	sum := sha1.Sum(certificate.Raw)

	return hex.EncodeToString(sum[:])
}

// Sign writes <path>.p7s with a detached SHA-256 signature over the file content.
func (p *PKCS7) Sign(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	content, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}

	signedData, err := pkcs7.NewSignedData(content)
	if err != nil {
		return fmt.Errorf("create signed data: %w", err)
	}

	signedData.SetDigestAlgorithm(pkcs7.OIDDigestAlgorithmSHA256)

	if err = signedData.AddSignerChain(p.certificate, p.privateKey, p.chain, pkcs7.SignerInfoConfig{}); err != nil {
		return fmt.Errorf("add signer: %w", err)
	}

	signedData.Detach()

	signature, err := signedData.Finish()
	if err != nil {
		return fmt.Errorf("finish signature: %w", err)
	}

	if err = os.WriteFile(path+SignatureExtensionPKCS7, signature, detachedSignatureMode); err != nil {
		return fmt.Errorf("write signature: %w", err)
	}

	return nil
}
