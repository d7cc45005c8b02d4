package queue

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// AllowDomain adds a lower-cased domain to the generic downloader allow-list.
func (s *Store) AllowDomain(ctx context.Context, domain string) error {
	domain = strings.ToLower(strings.TrimSpace(domain))
	if domain == "" {
		return errors.New("domain required")
	}
	if err := s.execWithoutResultRetry(ctx,
		`INSERT INTO allowed_domains (domain, created_at) VALUES (?, ?) ON CONFLICT (domain) DO NOTHING`,
		domain, timestamp(time.Now()),
	); err != nil {
		return fmt.Errorf("allow domain: %w", err)
	}
	return nil
}

// DisallowDomain removes a domain; missing rows return ErrNotFound.
func (s *Store) DisallowDomain(ctx context.Context, domain string) error {
	domain = strings.ToLower(strings.TrimSpace(domain))
	res, err := s.execWithRetry(ctx, `DELETE FROM allowed_domains WHERE domain = ?`, domain)
	if err != nil {
		return fmt.Errorf("disallow domain: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, domain)
	}
	return nil
}

// IsDomainAllowed reports whether domain is on the allow-list. The list is
// read on every call so CLI edits apply to the next acquisition.
func (s *Store) IsDomainAllowed(ctx context.Context, domain string) (bool, error) {
	var count int
	row := s.db.QueryRowContext(ensureContext(ctx),
		`SELECT COUNT(1) FROM allowed_domains WHERE domain = ?`,
		strings.ToLower(strings.TrimSpace(domain)),
	)
	if err := row.Scan(&count); err != nil {
		return false, fmt.Errorf("check allowed domain: %w", err)
	}
	return count > 0, nil
}

// ListAllowedDomains returns the allow-list ordered by domain.
func (s *Store) ListAllowedDomains(ctx context.Context) ([]AllowedDomain, error) {
	rows, err := s.db.QueryContext(ensureContext(ctx), `SELECT domain, created_at FROM allowed_domains ORDER BY domain`)
	if err != nil {
		return nil, fmt.Errorf("list allowed domains: %w", err)
	}
	defer rows.Close()

	var domains []AllowedDomain
	for rows.Next() {
		var (
			entry      AllowedDomain
			createdRaw string
		)
		if err := rows.Scan(&entry.Domain, &createdRaw); err != nil {
			return nil, fmt.Errorf("scan allowed domain: %w", err)
		}
		if created, err := parseTimeString(createdRaw); err == nil {
			entry.CreatedAt = created
		}
		domains = append(domains, entry)
	}
	return domains, rows.Err()
}
