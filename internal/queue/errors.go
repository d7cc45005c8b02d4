package queue

import "errors"

var (
	// ErrSchemaMismatch indicates the database schema version doesn't match the expected version.
	ErrSchemaMismatch = errors.New("schema version mismatch")
	// ErrDuplicate is returned when an episode with the same series and number already exists.
	ErrDuplicate = errors.New("episode already exists")
	// ErrClaimLost is returned when a claim-conditioned write finds another owner (or none).
	ErrClaimLost = errors.New("episode claim lost")
	// ErrNotFound is returned when a keyed record does not exist.
	ErrNotFound = errors.New("record not found")
)
