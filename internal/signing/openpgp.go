package signing

import (
	"context"
	"crypto"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ProtonMail/go-crypto/openpgp"
	"github.com/ProtonMail/go-crypto/openpgp/packet"
)

// errNoSigningKey is returned when the key file has no usable private key.
var errNoSigningKey = errors.New("no private signing key in key file")

// SignatureExtensionOpenPGP is appended to the signed file name.
const SignatureExtensionOpenPGP = ".asc"

// OpenPGP writes an armored detached OpenPGP signature next to each file.
type OpenPGP struct {
	signer *openpgp.Entity
	config *packet.Config
}

// NewOpenPGP reads the armored key ring and unlocks the first private key.
func NewOpenPGP(opts Options) (*OpenPGP, error) {
	if opts.KeyFile == "" {
		return nil, ErrKeyRequired
	}

	f, err := os.Open(filepath.Clean(opts.KeyFile))
	if err != nil {
		return nil, fmt.Errorf("open key file: %w", err)
	}

	defer func() {
		_ = f.Close()
	}()

	entities, err := openpgp.ReadArmoredKeyRing(f)
	if err != nil {
		return nil, fmt.Errorf("read key file: %w", err)
	}

	var signer *openpgp.Entity

	for _, entity := range entities {
		if entity.PrivateKey != nil {
			signer = entity
			break
		}
	}

	if signer == nil {
		return nil, errNoSigningKey
	}

	if err = decryptKeys(signer, []byte(opts.KeyPassphrase)); err != nil {
		return nil, err
	}

	return &OpenPGP{
		signer: signer,
		config: &packet.Config{DefaultHash: crypto.SHA256},
	}, nil
}

// decryptKeys unlocks the primary key and every encrypted signing subkey.
func decryptKeys(entity *openpgp.Entity, passphrase []byte) error {
	if entity.PrivateKey.Encrypted {
		if err := entity.PrivateKey.Decrypt(passphrase); err != nil {
			return fmt.Errorf("decrypt private key: %w", err)
		}
	}

	for i := range entity.Subkeys {
		subkey := entity.Subkeys[i].PrivateKey
		if subkey == nil || !subkey.Encrypted {
			continue
		}

		if err := subkey.Decrypt(passphrase); err != nil {
			return fmt.Errorf("decrypt subkey: %w", err)
		}
	}

	return nil
}

// Sign writes <path>.asc with an armored detached signature over the file content.
func (o *OpenPGP) Sign(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	content, err := os.Open(filepath.Clean(path))
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}

	defer func() {
		_ = content.Close()
	}()

	signaturePath := path + SignatureExtensionOpenPGP

	out, err := os.OpenFile(signaturePath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, detachedSignatureMode)
	if err != nil {
		return fmt.Errorf("create signature: %w", err)
	}

	if err = openpgp.ArmoredDetachSign(out, o.signer, content, o.config); err != nil {
		_ = out.Close()
		_ = os.Remove(signaturePath)

		return fmt.Errorf("sign %s: %w", path, err)
	}

	if err = out.Close(); err != nil {
		return fmt.Errorf("close signature: %w", err)
	}

	return nil
}
