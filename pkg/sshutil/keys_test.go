package sshutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadSigner(t *testing.T) {
	dir := t.TempDir()
	_, plain, plainKey := keyPair(t, dir, "id_plain", "")
	_, locked, lockedKey := keyPair(t, dir, "id_locked", "estus")

	t.Run("unencrypted", func(t *testing.T) {
		signer, err := LoadSigner(plain, "")
		require.NoError(t, err)
		assert.Equal(t, plainKey.Marshal(), signer.PublicKey().Marshal())
	})

	t.Run("encrypted with passphrase", func(t *testing.T) {
		signer, err := LoadSigner(locked, "estus")
		require.NoError(t, err)
		assert.Equal(t, lockedKey.Marshal(), signer.PublicKey().Marshal())
	})

	t.Run("encrypted without passphrase", func(t *testing.T) {
		_, err := LoadSigner(locked, "")
		var encrypted *EncryptedKeyError
		require.ErrorAs(t, err, &encrypted)
		assert.Equal(t, locked, encrypted.Path)
	})

	t.Run("wrong passphrase", func(t *testing.T) {
		_, err := LoadSigner(locked, "humanity")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "decrypting private key")
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadSigner(filepath.Join(dir, "nope"), "")
		require.Error(t, err)
		assert.ErrorIs(t, err, os.ErrNotExist)
	})

	t.Run("not a key", func(t *testing.T) {
		junk := filepath.Join(dir, "junk")
		require.NoError(t, os.WriteFile(junk, []byte("not a key"), 0o600))
		_, err := LoadSigner(junk, "")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "parsing private key")
	})
}

func TestLoadKeyPair(t *testing.T) {
	dir := t.TempDir()
	pub, priv, _ := keyPair(t, dir, "id_ed25519", "")
	otherPub, _, _ := keyPair(t, dir, "id_other", "")

	_, err := LoadKeyPair(pub, priv, "")
	require.NoError(t, err)

	_, err = LoadKeyPair("", priv, "")
	require.NoError(t, err, "public key is optional")

	_, err = LoadKeyPair(otherPub, priv, "")
	var mismatch *KeyMismatchError
	require.ErrorAs(t, err, &mismatch)
	assert.Equal(t, otherPub, mismatch.PublicKeyPath)
	assert.Equal(t, priv, mismatch.PrivateKeyPath)

	garbled := filepath.Join(dir, "garbled.pub")
	require.NoError(t, os.WriteFile(garbled, []byte("ssh-ed25519 !!!"), 0o600))
	_, err = LoadKeyPair(garbled, priv, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing public key")
}
