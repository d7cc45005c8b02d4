package credentials

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"reelpost/internal/logging"
	"reelpost/internal/queue"
	"reelpost/internal/secrets"
	"reelpost/internal/services"
)

// Credential is a decrypted site login.
type Credential struct {
	Domain    string
	AccountID string
	Secret    string
}

// Store is the subset of the record store the resolver reads and writes.
type Store interface {
	SiteCredential(ctx context.Context, domain string) (*queue.SiteCredential, error)
	PutSiteCredential(ctx context.Context, domain, accountID string, secretEnc []byte) error
}

// Resolver looks up and decrypts site credentials by source URL.
type Resolver struct {
	store  Store
	cipher secrets.Cipher
	logger *slog.Logger
}

// NewResolver constructs a Resolver.
func NewResolver(store Store, cipher secrets.Cipher, logger *slog.Logger) *Resolver {
	return &Resolver{store: store, cipher: cipher, logger: logging.NewComponentLogger(logger, "credentials")}
}

// Resolve returns the credential stored for the URL's domain, or nil, nil when
// none exists. When the secret cannot be decrypted the returned credential
// still carries Domain and AccountID alongside an error wrapping
// services.ErrSecretUnavailable.
func (r *Resolver) Resolve(ctx context.Context, sourceURL string) (*Credential, error) {
	domain, err := NormalizeDomain(sourceURL)
	if err != nil {
		return nil, services.Wrap(services.ErrResolution, "credentials", "normalize", "Invalid source URL", err)
	}
	stored, err := r.store.SiteCredential(ctx, domain)
	if err != nil {
		return nil, fmt.Errorf("load credential for %s: %w", domain, err)
	}
	if stored == nil {
		return nil, nil
	}
	cred := &Credential{Domain: stored.Domain, AccountID: stored.AccountID}
	if r.cipher == nil {
		return cred, services.Wrap(services.ErrSecretUnavailable, "credentials", "decrypt", "No cipher configured", nil)
	}
	secret, err := r.cipher.Decrypt(stored.SecretEnc)
	if err != nil {
		if !errors.Is(err, services.ErrSecretUnavailable) {
			err = services.Wrap(services.ErrSecretUnavailable, "credentials", "decrypt", "Decrypt failed", err)
		}
		r.logger.Warn("site credential unavailable",
			logging.String("domain", domain),
			logging.String(logging.FieldEventType, "credential_unavailable"),
			logging.Error(err),
		)
		return cred, err
	}
	cred.Secret = secret
	return cred, nil
}

// Save encrypts and stores a credential for the normalized domain of target.
func (r *Resolver) Save(ctx context.Context, target, accountID, secret string) (string, error) {
	domain, err := NormalizeDomain(target)
	if err != nil {
		return "", err
	}
	accountID = strings.TrimSpace(accountID)
	if accountID == "" {
		return "", errors.New("account id required")
	}
	if r.cipher == nil {
		return "", errors.New("no cipher configured")
	}
	token, err := r.cipher.Encrypt(secret)
	if err != nil {
		return "", fmt.Errorf("encrypt secret: %w", err)
	}
	if err := r.store.PutSiteCredential(ctx, domain, accountID, token); err != nil {
		return "", err
	}
	return domain, nil
}

// MaskAccountID hides the middle of an account id for listings. Email
// addresses keep their domain.
func MaskAccountID(accountID string) string {
	accountID = strings.TrimSpace(accountID)
	if accountID == "" {
		return "N/A"
	}
	if local, domain, ok := strings.Cut(accountID, "@"); ok {
		return maskEnds(local, false) + "@" + domain
	}
	return maskEnds(accountID, true)
}

func maskEnds(value string, hideShort bool) string {
	runes := []rune(value)
	switch {
	case len(runes) == 0:
		return "***"
	case len(runes) <= 2 && hideShort:
		return "***"
	case len(runes) == 1:
		return string(runes[0]) + "***"
	default:
		return string(runes[0]) + "***" + string(runes[len(runes)-1])
	}
}
