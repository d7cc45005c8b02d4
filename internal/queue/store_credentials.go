package queue

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// PutSiteCredential inserts or replaces the encrypted secret for
// (domain, accountID). The domain must already be normalized.
func (s *Store) PutSiteCredential(ctx context.Context, domain, accountID string, secretEnc []byte) error {
	domain = strings.TrimSpace(domain)
	accountID = strings.TrimSpace(accountID)
	if domain == "" || accountID == "" {
		return errors.New("domain and account id required")
	}
	if len(secretEnc) == 0 {
		return errors.New("encrypted secret required")
	}
	now := timestamp(time.Now())
	if err := s.execWithoutResultRetry(ctx,
		`INSERT INTO site_credentials (domain, account_id, secret_enc, created_at, updated_at)
         VALUES (?, ?, ?, ?, ?)
         ON CONFLICT (domain, account_id) DO UPDATE SET secret_enc = excluded.secret_enc, updated_at = excluded.updated_at`,
		domain, accountID, secretEnc, now, now,
	); err != nil {
		return fmt.Errorf("put site credential: %w", err)
	}
	return nil
}

// SiteCredential returns the most recently updated credential for domain, or
// nil, nil when none is stored.
func (s *Store) SiteCredential(ctx context.Context, domain string) (*SiteCredential, error) {
	row := s.db.QueryRowContext(ensureContext(ctx),
		`SELECT domain, account_id, secret_enc, created_at, updated_at
         FROM site_credentials WHERE domain = ?
         ORDER BY updated_at DESC, account_id LIMIT 1`,
		strings.TrimSpace(domain),
	)
	cred, err := scanCredential(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get site credential: %w", err)
	}
	return cred, nil
}

// ListSiteCredentials returns every stored credential ordered by domain.
func (s *Store) ListSiteCredentials(ctx context.Context) ([]*SiteCredential, error) {
	rows, err := s.db.QueryContext(ensureContext(ctx),
		`SELECT domain, account_id, secret_enc, created_at, updated_at
         FROM site_credentials ORDER BY domain, account_id`,
	)
	if err != nil {
		return nil, fmt.Errorf("list site credentials: %w", err)
	}
	defer rows.Close()

	var creds []*SiteCredential
	for rows.Next() {
		cred, err := scanCredential(rows)
		if err != nil {
			return nil, fmt.Errorf("scan site credential: %w", err)
		}
		creds = append(creds, cred)
	}
	return creds, rows.Err()
}

// DeleteSiteCredential removes a credential; missing rows return ErrNotFound.
func (s *Store) DeleteSiteCredential(ctx context.Context, domain, accountID string) error {
	res, err := s.execWithRetry(ctx,
		`DELETE FROM site_credentials WHERE domain = ? AND account_id = ?`,
		strings.TrimSpace(domain), strings.TrimSpace(accountID),
	)
	if err != nil {
		return fmt.Errorf("delete site credential: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return fmt.Errorf("%w: %s/%s", ErrNotFound, domain, accountID)
	}
	return nil
}

func scanCredential(scanner interface{ Scan(dest ...any) error }) (*SiteCredential, error) {
	var (
		cred       SiteCredential
		createdRaw string
		updatedRaw string
	)
	if err := scanner.Scan(&cred.Domain, &cred.AccountID, &cred.SecretEnc, &createdRaw, &updatedRaw); err != nil {
		return nil, err
	}
	if created, err := parseTimeString(createdRaw); err == nil {
		cred.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw); err == nil {
		cred.UpdatedAt = updated
	}
	return &cred, nil
}
