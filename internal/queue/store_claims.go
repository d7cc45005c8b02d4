package queue

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Claim takes a lease on an unprocessed episode for owner. It is a single
// compare-and-set UPDATE: it succeeds only when the episode is unprocessed and
// either unclaimed, already owned by owner, or holding an expired lease.
func (s *Store) Claim(ctx context.Context, id int64, owner string, ttl time.Duration) (bool, error) {
	if strings.TrimSpace(owner) == "" {
		return false, errors.New("claim owner required")
	}
	now := time.Now()
	res, err := s.execWithRetry(ctx,
		`UPDATE episodes
         SET claim_owner = ?, claim_expires_at = ?, updated_at = ?
         WHERE id = ? AND processed = 0
           AND (claim_owner IS NULL OR claim_owner = ? OR claim_expires_at IS NULL OR claim_expires_at <= ?)`,
		owner, now.Add(ttl).UnixMilli(), timestamp(now),
		id, owner, now.UnixMilli(),
	)
	if err != nil {
		return false, fmt.Errorf("claim episode: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("claim rows affected: %w", err)
	}
	return affected == 1, nil
}

// ExtendClaim pushes the lease expiry forward while owner still holds it.
// It returns ErrClaimLost when the lease has been taken over or released.
func (s *Store) ExtendClaim(ctx context.Context, id int64, owner string, ttl time.Duration) error {
	now := time.Now()
	res, err := s.execWithRetry(ctx,
		`UPDATE episodes SET claim_expires_at = ?, updated_at = ?
         WHERE id = ? AND processed = 0 AND claim_owner = ?`,
		now.Add(ttl).UnixMilli(), timestamp(now), id, owner,
	)
	if err != nil {
		return fmt.Errorf("extend claim: %w", err)
	}
	return requireOneRow(res, id)
}

// MarkDownloadStarted stamps download_started_at while owner holds the claim.
func (s *Store) MarkDownloadStarted(ctx context.Context, id int64, owner string) error {
	now := timestamp(time.Now())
	res, err := s.execWithRetry(ctx,
		`UPDATE episodes SET download_started_at = ?, updated_at = ?
         WHERE id = ? AND processed = 0 AND claim_owner = ?`,
		now, now, id, owner,
	)
	if err != nil {
		return fmt.Errorf("mark download started: %w", err)
	}
	return requireOneRow(res, id)
}

// MarkProcessed records completion: processed, the published reference, and
// processed_at are written together with the claim cleared, in one UPDATE
// conditioned on owner still holding the claim.
func (s *Store) MarkProcessed(ctx context.Context, id int64, owner, reference string) error {
	reference = strings.TrimSpace(reference)
	if reference == "" {
		return errors.New("published reference required")
	}
	now := timestamp(time.Now())
	res, err := s.execWithRetry(ctx,
		`UPDATE episodes
         SET processed = 1, published_reference = ?, processed_at = ?, updated_at = ?,
             last_error = NULL, claim_owner = NULL, claim_expires_at = NULL
         WHERE id = ? AND processed = 0 AND claim_owner = ?`,
		reference, now, now, id, owner,
	)
	if err != nil {
		return fmt.Errorf("mark processed: %w", err)
	}
	return requireOneRow(res, id)
}

// RecordFailure stores the failure message, increments attempts, and releases
// the claim so a later pass can retry the episode.
func (s *Store) RecordFailure(ctx context.Context, id int64, owner, message string) error {
	res, err := s.execWithRetry(ctx,
		`UPDATE episodes
         SET last_error = ?, attempts = attempts + 1, updated_at = ?,
             claim_owner = NULL, claim_expires_at = NULL
         WHERE id = ? AND processed = 0 AND claim_owner = ?`,
		nullableString(truncate(message, maxErrorLength)), timestamp(time.Now()), id, owner,
	)
	if err != nil {
		return fmt.Errorf("record failure: %w", err)
	}
	return requireOneRow(res, id)
}

// ReleaseClaim drops owner's lease without recording a failure.
func (s *Store) ReleaseClaim(ctx context.Context, id int64, owner string) error {
	if err := s.execWithoutResultRetry(ctx,
		`UPDATE episodes SET claim_owner = NULL, claim_expires_at = NULL, updated_at = ?
         WHERE id = ? AND claim_owner = ?`,
		timestamp(time.Now()), id, owner,
	); err != nil {
		return fmt.Errorf("release claim: %w", err)
	}
	return nil
}

const maxErrorLength = 2000

func truncate(value string, limit int) string {
	if len(value) <= limit {
		return value
	}
	return value[:limit]
}

func requireOneRow(res interface{ RowsAffected() (int64, error) }, id int64) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected != 1 {
		return fmt.Errorf("%w: episode %d", ErrClaimLost, id)
	}
	return nil
}
