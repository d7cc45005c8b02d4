package secrets

import (
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/crypto/hkdf"
	"golang.org/x/crypto/nacl/secretbox"

	"reelpost/internal/services"
)

const (
	nonceSize = 24
	keySize   = 32
	hkdfInfo  = "reelpost site credentials v1"
)

// Cipher is the encrypt/decrypt collaborator used by the credential store.
type Cipher interface {
	Encrypt(plaintext string) ([]byte, error)
	Decrypt(token []byte) (string, error)
}

// Box implements Cipher with NaCl secretbox.
type Box struct {
	key [keySize]byte
}

// NewBox derives a box key from passphrase.
func NewBox(passphrase string) (*Box, error) {
	passphrase = strings.TrimSpace(passphrase)
	if passphrase == "" {
		return nil, services.Wrap(services.ErrConfiguration, "secrets", "derive key", "Encryption key is empty", nil)
	}
	box := &Box{}
	reader := hkdf.New(sha256.New, []byte(passphrase), nil, []byte(hkdfInfo))
	if _, err := io.ReadFull(reader, box.key[:]); err != nil {
		return nil, fmt.Errorf("derive key: %w", err)
	}
	return box, nil
}

// Encrypt seals plaintext under a fresh random nonce.
func (b *Box) Encrypt(plaintext string) ([]byte, error) {
	var nonce [nonceSize]byte
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return nil, fmt.Errorf("generate nonce: %w", err)
	}
	return secretbox.Seal(nonce[:], []byte(plaintext), &nonce, &b.key), nil
}

// Decrypt opens a token produced by Encrypt. Malformed or tampered tokens, and
// tokens sealed under another key, return an error wrapping
// services.ErrSecretUnavailable.
func (b *Box) Decrypt(token []byte) (string, error) {
	if len(token) < nonceSize+secretbox.Overhead {
		return "", services.Wrap(services.ErrSecretUnavailable, "secrets", "decrypt", "Token too short", errors.New("malformed token"))
	}
	var nonce [nonceSize]byte
	copy(nonce[:], token[:nonceSize])
	plain, ok := secretbox.Open(nil, token[nonceSize:], &nonce, &b.key)
	if !ok {
		return "", services.Wrap(services.ErrSecretUnavailable, "secrets", "decrypt", "Token could not be authenticated", errors.New("secretbox open failed"))
	}
	return string(plain), nil
}
