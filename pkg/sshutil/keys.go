package sshutil

import (
	"bytes"
	stderrors "errors"
	"fmt"
	"os"

	"golang.org/x/crypto/ssh"
)

// EncryptedKeyError is returned when a private key needs a passphrase that
// was not supplied.
type EncryptedKeyError struct {
	Path string
}

func (e *EncryptedKeyError) Error() string {
	return fmt.Sprintf("SSH key at %s is encrypted (passphrase protected)", e.Path)
}

// KeyMismatchError is returned when the public key file does not belong to
// the private key.
type KeyMismatchError struct {
	PublicKeyPath  string
	PrivateKeyPath string
}

func (e *KeyMismatchError) Error() string {
	return fmt.Sprintf("public key %s does not match private key %s", e.PublicKeyPath, e.PrivateKeyPath)
}

// LoadSigner reads a private key, decrypting it with passphrase when one is given.
func LoadSigner(privateKeyPath, passphrase string) (ssh.Signer, error) {
	data, err := os.ReadFile(privateKeyPath)
	if err != nil {
		return nil, fmt.Errorf("reading private key: %w", err)
	}

	if passphrase != "" {
		signer, err := ssh.ParsePrivateKeyWithPassphrase(data, []byte(passphrase))
		if err != nil {
			return nil, fmt.Errorf("decrypting private key %s: %w", privateKeyPath, err)
		}
		return signer, nil
	}

	signer, err := ssh.ParsePrivateKey(data)
	if err != nil {
		var missing *ssh.PassphraseMissingError
		if stderrors.As(err, &missing) || isEncryptedPEM(data) {
			return nil, &EncryptedKeyError{Path: privateKeyPath}
		}
		return nil, fmt.Errorf("parsing private key %s: %w", privateKeyPath, err)
	}
	return signer, nil
}

// LoadKeyPair loads the private key and, when publicKeyPath is set, checks the
// public key file belongs to it.
func LoadKeyPair(publicKeyPath, privateKeyPath, passphrase string) (ssh.Signer, error) {
	signer, err := LoadSigner(privateKeyPath, passphrase)
	if err != nil {
		return nil, err
	}
	if publicKeyPath == "" {
		return signer, nil
	}

	data, err := os.ReadFile(publicKeyPath)
	if err != nil {
		return nil, fmt.Errorf("reading public key: %w", err)
	}
	pub, _, _, _, err := ssh.ParseAuthorizedKey(data)
	if err != nil {
		return nil, fmt.Errorf("parsing public key %s: %w", publicKeyPath, err)
	}

	if !bytes.Equal(pub.Marshal(), signer.PublicKey().Marshal()) {
		return nil, &KeyMismatchError{PublicKeyPath: publicKeyPath, PrivateKeyPath: privateKeyPath}
	}
	return signer, nil
}

func isEncryptedPEM(data []byte) bool {
	return bytes.Contains(data, []byte("ENCRYPTED"))
}
