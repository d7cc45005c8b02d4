package queue

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// NewEpisode describes an episode to insert. Kind defaults to KindEpisode.
type NewEpisode struct {
	Kind           Kind
	SeriesKey      string
	SequenceNumber int
	SourceURL      string
	Metadata       map[string]string
	PublishChannel string
	StorageBackend string
}

// AddEpisode inserts a new unprocessed episode. A duplicate
// (series_key, sequence_number) returns ErrDuplicate.
func (s *Store) AddEpisode(ctx context.Context, in NewEpisode) (*Episode, error) {
	series := strings.TrimSpace(in.SeriesKey)
	if series == "" {
		return nil, errors.New("series key required")
	}
	kind := in.Kind
	switch kind {
	case "":
		kind = KindEpisode
	case KindEpisode:
	case KindUpload:
		if in.SequenceNumber != 0 {
			return nil, fmt.Errorf("upload %q must not carry a sequence number", series)
		}
	default:
		return nil, fmt.Errorf("unknown kind %q", kind)
	}
	if in.SequenceNumber < 0 {
		return nil, fmt.Errorf("sequence number %d must not be negative", in.SequenceNumber)
	}
	sourceURL := strings.TrimSpace(in.SourceURL)
	if sourceURL == "" {
		return nil, errors.New("source url required")
	}
	metadata, err := encodeMetadata(in.Metadata)
	if err != nil {
		return nil, fmt.Errorf("marshal metadata: %w", err)
	}

	now := timestamp(time.Now())
	res, err := s.execWithRetry(ctx,
		`INSERT INTO episodes (kind, series_key, sequence_number, source_url, processed, metadata_json,
                               publish_channel_id, storage_backend, created_at, updated_at)
         VALUES (?, ?, ?, ?, 0, ?, ?, ?, ?, ?)`,
		string(kind), series, in.SequenceNumber, sourceURL, metadata,
		nullableString(strings.TrimSpace(in.PublishChannel)),
		nullableString(strings.ToLower(strings.TrimSpace(in.StorageBackend))),
		now, now,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("%w: %s episode %d", ErrDuplicate, series, in.SequenceNumber)
		}
		return nil, fmt.Errorf("insert episode: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetEpisode(ctx, id)
}

// GetEpisode fetches an episode by identifier; it returns nil, nil when absent.
func (s *Store) GetEpisode(ctx context.Context, id int64) (*Episode, error) {
	row := s.db.QueryRowContext(ensureContext(ctx), `SELECT `+episodeColumns+` FROM episodes WHERE id = ?`, id)
	episode, err := scanEpisode(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get episode: %w", err)
	}
	return episode, nil
}

// FindEpisode looks up an episode by its natural key; it returns nil, nil when absent.
func (s *Store) FindEpisode(ctx context.Context, seriesKey string, number int) (*Episode, error) {
	row := s.db.QueryRowContext(ensureContext(ctx),
		`SELECT `+episodeColumns+` FROM episodes WHERE series_key = ? AND sequence_number = ?`,
		strings.TrimSpace(seriesKey), number,
	)
	episode, err := scanEpisode(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find episode: %w", err)
	}
	return episode, nil
}

// ListUnprocessed returns episodes with processed=false in insertion order.
// Callers must still Claim an episode before working on it.
func (s *Store) ListUnprocessed(ctx context.Context) ([]*Episode, error) {
	return s.queryEpisodes(ctx, `SELECT `+episodeColumns+` FROM episodes WHERE processed = 0 ORDER BY id`)
}

// ListFilter narrows ListEpisodes.
type ListFilter struct {
	SeriesKey string
	// Processed filters by completion when non-nil.
	Processed *bool
	Limit     int
}

// ListEpisodes returns episodes matching filter, newest first.
func (s *Store) ListEpisodes(ctx context.Context, filter ListFilter) ([]*Episode, error) {
	query := `SELECT ` + episodeColumns + ` FROM episodes`
	var (
		clauses []string
		args    []any
	)
	if series := strings.TrimSpace(filter.SeriesKey); series != "" {
		clauses = append(clauses, "series_key = ?")
		args = append(args, series)
	}
	if filter.Processed != nil {
		clauses = append(clauses, "processed = ?")
		if *filter.Processed {
			args = append(args, 1)
		} else {
			args = append(args, 0)
		}
	}
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY id DESC"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}
	return s.queryEpisodes(ctx, query, args...)
}

func (s *Store) queryEpisodes(ctx context.Context, query string, args ...any) ([]*Episode, error) {
	rows, err := s.db.QueryContext(ensureContext(ctx), query, args...)
	if err != nil {
		return nil, fmt.Errorf("query episodes: %w", err)
	}
	defer rows.Close()

	var episodes []*Episode
	for rows.Next() {
		episode, err := scanEpisode(rows)
		if err != nil {
			return nil, fmt.Errorf("scan episode: %w", err)
		}
		episodes = append(episodes, episode)
	}
	return episodes, rows.Err()
}

// Stats aggregates episode counts.
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	var stats Stats
	row := s.db.QueryRowContext(ensureContext(ctx),
		`SELECT
            COUNT(1),
            COALESCE(SUM(CASE WHEN processed = 1 THEN 1 ELSE 0 END), 0),
            COALESCE(SUM(CASE WHEN processed = 0 AND attempts > 0 THEN 1 ELSE 0 END), 0),
            COALESCE(SUM(CASE WHEN processed = 0 AND claim_owner IS NOT NULL AND claim_expires_at > ? THEN 1 ELSE 0 END), 0)
         FROM episodes`,
		time.Now().UnixMilli(),
	)
	if err := row.Scan(&stats.Total, &stats.Processed, &stats.Failing, &stats.Claimed); err != nil {
		return Stats{}, fmt.Errorf("episode stats: %w", err)
	}
	stats.Pending = stats.Total - stats.Processed
	return stats, nil
}
