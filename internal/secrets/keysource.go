package secrets

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/zalando/go-keyring"

	"reelpost/internal/config"
	"reelpost/internal/services"
)

const (
	keyringService = "reelpost"
	keyringUser    = "encryption-key"
)

// LoadPassphrase returns the encryption passphrase from the configured source.
// The keyring source generates and stores a random passphrase on first use.
func LoadPassphrase(cfg *config.Config) (string, error) {
	if cfg == nil {
		return "", errors.New("config required")
	}
	switch cfg.Secrets.KeySource {
	case "keyring":
		return keyringPassphrase()
	default:
		key := strings.TrimSpace(cfg.Secrets.EncryptionKey)
		if key == "" {
			return "", services.Wrap(
				services.ErrConfiguration,
				"secrets",
				"load key",
				"secrets.encryption_key (or REELPOST_ENCRYPTION_KEY) is not set",
				nil,
			)
		}
		return key, nil
	}
}

// NewFromConfig builds a Box from the configured key source.
func NewFromConfig(cfg *config.Config) (*Box, error) {
	passphrase, err := LoadPassphrase(cfg)
	if err != nil {
		return nil, err
	}
	return NewBox(passphrase)
}

func keyringPassphrase() (string, error) {
	value, err := keyring.Get(keyringService, keyringUser)
	if err == nil && strings.TrimSpace(value) != "" {
		return value, nil
	}
	if err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return "", services.Wrap(services.ErrSecretUnavailable, "secrets", "keyring get", "Keyring unavailable", err)
	}

	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("generate passphrase: %w", err)
	}
	generated := base64.RawStdEncoding.EncodeToString(raw)
	if err := keyring.Set(keyringService, keyringUser, generated); err != nil {
		return "", services.Wrap(services.ErrSecretUnavailable, "secrets", "keyring set", "Keyring unavailable", err)
	}
	return generated, nil
}
