package store

import (
	"context"
	"database/sql"
)

// sqliteSchema contains the DDL for the SQLite entries table.
// Each statement uses IF NOT EXISTS for idempotency.
var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS entries (
		id          TEXT PRIMARY KEY,
		status      TEXT NOT NULL DEFAULT 'PENDING',
		payload_ref TEXT NOT NULL DEFAULT '',
		result      TEXT NOT NULL DEFAULT '',
		error       TEXT NOT NULL DEFAULT '',
		created_at  TEXT NOT NULL,
		updated_at  TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_entries_status ON entries(status)`,
}

// migrate executes all schema DDL statements in order.
func migrate(ctx context.Context, db *sql.DB, schema []string) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
