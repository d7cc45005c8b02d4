package acquire

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"reelpost/internal/credentials"
	"reelpost/internal/logging"
	"reelpost/internal/services"
	"reelpost/internal/sites"
)

// Strategy names the acquisition path chosen for a URL.
type Strategy string

const (
	StrategyAdapter Strategy = "adapter"
	StrategyGeneric Strategy = "generic"
	StrategyDirect  Strategy = "direct"
)

// CredentialResolver resolves stored site logins by URL.
type CredentialResolver interface {
	Resolve(ctx context.Context, sourceURL string) (*credentials.Credential, error)
}

// AllowList reports generic downloader eligibility.
type AllowList interface {
	IsDomainAllowed(ctx context.Context, domain string) (bool, error)
}

// GenericDownloader fetches media on its own and reports the final path.
type GenericDownloader interface {
	Download(ctx context.Context, sourceURL, dest, accountID, secret string) (string, error)
}

// Options wires the Selector's collaborators.
type Options struct {
	Adapters    *sites.Registry
	Credentials CredentialResolver
	AllowList   AllowList
	Generic     GenericDownloader
	// GenericEnabled gates the generic downloader globally.
	GenericEnabled bool
	// GenericAnonymous lets the generic downloader run when a stored secret
	// cannot be decrypted.
	GenericAnonymous bool
	Transfer         *Transfer
	Logger           *slog.Logger
}

// Selector chooses and runs an acquisition strategy.
type Selector struct {
	opts   Options
	logger *slog.Logger
}

// NewSelector constructs a Selector.
func NewSelector(opts Options) *Selector {
	if opts.Transfer == nil {
		opts.Transfer = NewTransfer(nil)
	}
	if opts.Adapters == nil {
		opts.Adapters = sites.NewRegistry()
	}
	return &Selector{opts: opts, logger: logging.NewComponentLogger(opts.Logger, "acquire")}
}

// Choose returns the strategy for sourceURL. The adapter path always wins
// over the generic downloader.
func (s *Selector) Choose(ctx context.Context, sourceURL string) (Strategy, sites.Adapter, error) {
	domain, err := credentials.NormalizeDomain(sourceURL)
	if err != nil {
		return "", nil, services.Wrap(services.ErrTransfer, "acquire", "normalize", "Invalid source URL", err)
	}
	if adapter, ok := s.opts.Adapters.Lookup(domain); ok {
		return StrategyAdapter, adapter, nil
	}
	if s.opts.GenericEnabled && s.opts.Generic != nil && s.opts.AllowList != nil {
		allowed, err := s.opts.AllowList.IsDomainAllowed(ctx, domain)
		if err != nil {
			return "", nil, fmt.Errorf("check allow-list: %w", err)
		}
		if allowed {
			return StrategyGeneric, nil, nil
		}
	}
	return StrategyDirect, nil, nil
}

// Acquire materializes sourceURL at destPath (or, for the generic
// downloader, at the path it reports) and returns the local path.
func (s *Selector) Acquire(ctx context.Context, sourceURL, destPath string) (string, error) {
	strategy, adapter, err := s.Choose(ctx, sourceURL)
	if err != nil {
		return "", err
	}
	logger := logging.WithContext(ctx, s.logger)
	logger.Info("acquisition strategy selected",
		logging.String("strategy", string(strategy)),
		logging.String(logging.FieldEventType, "acquire_strategy"),
	)

	switch strategy {
	case StrategyAdapter:
		accountID, secret, err := s.credentialsFor(ctx, sourceURL, sites.AllowsAnonymous(adapter))
		if err != nil {
			return "", err
		}
		task, err := adapter.PrepareDownload(ctx, sourceURL, accountID, secret)
		if err != nil {
			return "", err
		}
		return s.opts.Transfer.Fetch(ctx, task.DirectURL, destPath, task.Headers, task.Cookies)
	case StrategyGeneric:
		accountID, secret, err := s.credentialsFor(ctx, sourceURL, s.opts.GenericAnonymous)
		if err != nil {
			return "", err
		}
		return s.opts.Generic.Download(ctx, sourceURL, destPath, accountID, secret)
	default:
		return s.opts.Transfer.Fetch(ctx, sourceURL, destPath, nil, nil)
	}
}

// credentialsFor resolves the stored login. An undecryptable secret is
// tolerated only when anonymous access is allowed.
func (s *Selector) credentialsFor(ctx context.Context, sourceURL string, anonymousOK bool) (string, string, error) {
	if s.opts.Credentials == nil {
		return "", "", nil
	}
	cred, err := s.opts.Credentials.Resolve(ctx, sourceURL)
	if err != nil {
		if errors.Is(err, services.ErrSecretUnavailable) && anonymousOK {
			logging.WarnWithContext(logging.WithContext(ctx, s.logger), "credential unavailable; continuing anonymously", "acquire_anonymous",
				logging.String(logging.FieldErrorHint, "re-add the site credential with 'reelpost sitecred add'"),
			)
			return "", "", nil
		}
		return "", "", err
	}
	if cred == nil {
		return "", "", nil
	}
	return cred.AccountID, cred.Secret, nil
}
