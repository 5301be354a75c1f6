package signing

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/ProtonMail/go-crypto/openpgp"
	"github.com/ProtonMail/go-crypto/openpgp/armor"
	"github.com/stretchr/testify/require"
)

// writeTestKey generates an unencrypted OpenPGP key and stores it armored.
func writeTestKey(t *testing.T) (string, *openpgp.Entity) {
	t.Helper()

	entity, err := openpgp.NewEntity("Cicada Release", "test", "release@example.com", nil)
	require.NoError(t, err)

	var buf bytes.Buffer

	w, err := armor.Encode(&buf, openpgp.PrivateKeyType, nil)
	require.NoError(t, err)
	require.NoError(t, entity.SerializePrivate(w, nil))
	require.NoError(t, w.Close())

	path := filepath.Join(t.TempDir(), "release-key.asc")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o600))

	return path, entity
}

// TestOpenPGPSignWritesArmoredSignature signs a file and verifies the detached signature.
func TestOpenPGPSignWritesArmoredSignature(t *testing.T) {
	t.Parallel()

	keyPath, entity := writeTestKey(t)

	backend, err := NewOpenPGP(Options{KeyFile: keyPath})
	require.NoError(t, err)

	target := filepath.Join(t.TempDir(), "app.exe")
	content := []byte("MZ fake executable")
	require.NoError(t, os.WriteFile(target, content, 0o644)) //nolint:gosec // Test fixture.

	require.NoError(t, backend.Sign(context.Background(), target))

	signature, err := os.Open(target + SignatureExtensionOpenPGP)
	require.NoError(t, err)

	defer func() {
		_ = signature.Close()
	}()

	signer, err := openpgp.CheckArmoredDetachedSignature(
		openpgp.EntityList{entity}, bytes.NewReader(content), signature, nil)
	require.NoError(t, err)
	require.Equal(t, entity.PrimaryKey.KeyId, signer.PrimaryKey.KeyId)
}

// TestOpenPGPLoadErrors covers a missing file and a file without private keys.
func TestOpenPGPLoadErrors(t *testing.T) {
	t.Parallel()

	_, err := NewOpenPGP(Options{KeyFile: filepath.Join(t.TempDir(), "missing.asc")})
	require.ErrorIs(t, err, os.ErrNotExist)

	_, entity := writeTestKey(t)

	var buf bytes.Buffer

	w, err := armor.Encode(&buf, openpgp.PublicKeyType, nil)
	require.NoError(t, err)
	require.NoError(t, entity.Serialize(w))
	require.NoError(t, w.Close())

	publicOnly := filepath.Join(t.TempDir(), "public.asc")
	require.NoError(t, os.WriteFile(publicOnly, buf.Bytes(), 0o600))

	_, err = NewOpenPGP(Options{KeyFile: publicOnly})
	require.ErrorIs(t, err, errNoSigningKey)
}

// TestOpenPGPSignCancelled refuses to sign once the context is done.
func TestOpenPGPSignCancelled(t *testing.T) {
	t.Parallel()

	keyPath, _ := writeTestKey(t)

	backend, err := NewOpenPGP(Options{KeyFile: keyPath})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.ErrorIs(t, backend.Sign(ctx, filepath.Join(t.TempDir(), "app.exe")), context.Canceled)
}
