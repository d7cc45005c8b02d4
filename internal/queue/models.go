package queue

import (
	"fmt"
	"time"
)

// Kind separates series episodes from one-off uploads.
type Kind string

const (
	KindEpisode Kind = "episode"
	// KindUpload is a single titled item; SeriesKey holds the title and
	// SequenceNumber is 0.
	KindUpload Kind = "upload"
)

// Episode is one unit of work: a single remote media item of a series, or a
// one-off upload. PublishChannel and StorageBackend override the configured
// defaults when set.
type Episode struct {
	ID                 int64
	Kind               Kind
	SeriesKey          string
	SequenceNumber     int
	SourceURL          string
	PublishChannel     string
	StorageBackend     string
	Processed          bool
	PublishedReference string
	Metadata           map[string]string
	Attempts           int
	LastError          string
	ClaimOwner         string
	ClaimExpiresAt     *time.Time
	CreatedAt          time.Time
	UpdatedAt          time.Time
	ProcessedAt        *time.Time
	DownloadStartedAt  *time.Time
}

// Label renders the episode for logs and file names, e.g. "show_E3". An
// upload is labelled by its title alone.
func (e *Episode) Label() string {
	if e == nil {
		return ""
	}
	if e.Kind == KindUpload {
		return e.SeriesKey
	}
	return fmt.Sprintf("%s_E%d", e.SeriesKey, e.SequenceNumber)
}

// Claimed reports whether the episode holds an unexpired lease at now.
func (e *Episode) Claimed(now time.Time) bool {
	if e == nil || e.ClaimOwner == "" || e.ClaimExpiresAt == nil {
		return false
	}
	return e.ClaimExpiresAt.After(now)
}

// SiteCredential is an encrypted login for a media site.
type SiteCredential struct {
	Domain    string
	AccountID string
	SecretEnc []byte
	CreatedAt time.Time
	UpdatedAt time.Time
}

// AllowedDomain is a domain the generic downloader may handle.
type AllowedDomain struct {
	Domain    string
	CreatedAt time.Time
}

// Stats aggregates episode counts for status output.
type Stats struct {
	Total     int
	Processed int
	Pending   int
	Failing   int
	Claimed   int
}
