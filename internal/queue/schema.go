package queue

import (
	"context"
	_ "embed"
	"fmt"
)

//go:embed schema.sql
var schemaSQL string

// schemaVersion is stored in PRAGMA user_version. A fresh database reports 0
// and gets schema.sql as a whole; older databases step through migrations.
const schemaVersion = 2

// migrations[v] upgrades a version v-1 database to v.
var migrations = map[int]string{
	2: `ALTER TABLE episodes ADD COLUMN kind TEXT NOT NULL DEFAULT 'episode' CHECK (kind IN ('episode', 'upload'));
ALTER TABLE episodes ADD COLUMN publish_channel_id TEXT;
ALTER TABLE episodes ADD COLUMN storage_backend TEXT;`,
}

func (s *Store) initSchema(ctx context.Context) error {
	var version int
	if err := s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	switch {
	case version == 0:
		return s.applySchema(ctx, schemaSQL)
	case version == schemaVersion:
		return nil
	case version < schemaVersion:
		return s.migrate(ctx, version)
	default:
		return fmt.Errorf("%w: database has version %d, expected %d (delete the database at %s)",
			ErrSchemaMismatch, version, schemaVersion, s.path)
	}
}

func (s *Store) migrate(ctx context.Context, from int) error {
	script := ""
	for v := from + 1; v <= schemaVersion; v++ {
		step, ok := migrations[v]
		if !ok {
			return fmt.Errorf("%w: no migration to version %d (delete the database at %s)", ErrSchemaMismatch, v, s.path)
		}
		script += step + "\n"
	}
	return s.applySchema(ctx, script)
}

// applySchema runs script and stamps the version in one transaction, so a
// crash mid-way leaves the previous version in place.
func (s *Store) applySchema(ctx context.Context, script string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, script); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	if _, err := tx.ExecContext(ctx, fmt.Sprintf("PRAGMA user_version = %d", schemaVersion)); err != nil {
		return fmt.Errorf("record schema version: %w", err)
	}
	return tx.Commit()
}
