// Package queue persists episodes, site credentials, and the generic
// downloader allow-list in SQLite.
//
// The Store manages the database connection, schema initialization, busy
// retries, and the claim/lease protocol the pipeline uses so that an episode
// is processed by at most one pass at a time. Completion is a single
// conditional UPDATE that flips processed and stores the published reference
// together; the pipeline never deletes episode rows.
//
// Schema changes bump schemaVersion in schema.go; users clear the database to
// adopt the new schema.
package queue
