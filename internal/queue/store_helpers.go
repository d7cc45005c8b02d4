package queue

import (
	"database/sql"
	"encoding/json"
	"errors"
	"strings"
	"time"
)

const (
	sqliteConstraintPrimaryKey = 1555
	sqliteConstraintUnique     = 2067
)

const episodeColumns = "id, series_key, sequence_number, source_url, processed, published_reference, metadata_json, attempts, last_error, claim_owner, claim_expires_at, created_at, updated_at, processed_at, download_started_at, kind, publish_channel_id, storage_backend"

func scanEpisode(scanner interface{ Scan(dest ...any) error }) (*Episode, error) {
	var (
		id             int64
		seriesKey      string
		sequenceNumber int
		sourceURL      string
		processed      int64
		reference      sql.NullString
		metadataRaw    sql.NullString
		attempts       int
		lastError      sql.NullString
		claimOwner     sql.NullString
		claimExpires   sql.NullInt64
		createdRaw     sql.NullString
		updatedRaw     sql.NullString
		processedRaw   sql.NullString
		downloadRaw    sql.NullString
		kind           string
		publishChannel sql.NullString
		storageBackend sql.NullString
	)

	if err := scanner.Scan(
		&id,
		&seriesKey,
		&sequenceNumber,
		&sourceURL,
		&processed,
		&reference,
		&metadataRaw,
		&attempts,
		&lastError,
		&claimOwner,
		&claimExpires,
		&createdRaw,
		&updatedRaw,
		&processedRaw,
		&downloadRaw,
		&kind,
		&publishChannel,
		&storageBackend,
	); err != nil {
		return nil, err
	}

	episode := &Episode{
		ID:                 id,
		Kind:               Kind(kind),
		SeriesKey:          seriesKey,
		SequenceNumber:     sequenceNumber,
		SourceURL:          sourceURL,
		PublishChannel:     publishChannel.String,
		StorageBackend:     storageBackend.String,
		Processed:          processed != 0,
		PublishedReference: reference.String,
		Attempts:           attempts,
		LastError:          lastError.String,
		ClaimOwner:         claimOwner.String,
		Metadata:           decodeMetadata(metadataRaw.String),
	}
	if claimExpires.Valid {
		expires := time.UnixMilli(claimExpires.Int64).UTC()
		episode.ClaimExpiresAt = &expires
	}
	if created, err := parseTimeString(createdRaw.String); err == nil {
		episode.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw.String); err == nil {
		episode.UpdatedAt = updated
	}
	if processedRaw.Valid {
		if at, err := parseTimeString(processedRaw.String); err == nil {
			episode.ProcessedAt = &at
		}
	}
	if downloadRaw.Valid {
		if at, err := parseTimeString(downloadRaw.String); err == nil {
			episode.DownloadStartedAt = &at
		}
	}
	return episode, nil
}

func encodeMetadata(metadata map[string]string) (any, error) {
	if len(metadata) == 0 {
		return nil, nil
	}
	data, err := json.Marshal(metadata)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

func decodeMetadata(raw string) map[string]string {
	if strings.TrimSpace(raw) == "" {
		return map[string]string{}
	}
	out := map[string]string{}
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return map[string]string{}
	}
	return out
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func timestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02 15:04:05", value)
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	var coder interface{ Code() int }
	if errors.As(err, &coder) && (coder.Code() == sqliteConstraintUnique || coder.Code() == sqliteConstraintPrimaryKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") || strings.Contains(msg, "constraint failed: UNIQUE")
}
