package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/me/prodigy/pkg/model"

	_ "modernc.org/sqlite"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewSQLiteStore opens (or creates) a SQLite database at dbPath and returns a Store.
// Use ":memory:" for an in-memory database (useful in tests).
func NewSQLiteStore(dbPath string, logger *slog.Logger) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", dbPath, err)
	}
	// SQLite allows a single writer, and a ":memory:" database exists only
	// on the connection that created it.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("pragma wal: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout=5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("pragma busy_timeout: %w", err)
	}

	return &SQLiteStore{
		db:     db,
		logger: logger.With("component", "store", "driver", "sqlite"),
	}, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Ping verifies the database is reachable.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Migrate creates all required tables and indexes.
func (s *SQLiteStore) Migrate(ctx context.Context) error {
	s.logger.Debug("sql", "op", "migrate")
	return migrate(ctx, s.db, sqliteSchema)
}

func (s *SQLiteStore) GetEntry(ctx context.Context, id string) (*model.Entry, error) {
	s.logger.Debug("sql", "op", "select", "table", "entries", "id", id)

	var e model.Entry
	var status, createdAt, updatedAt string

	err := s.db.QueryRowContext(ctx,
		`SELECT id, status, payload_ref, result, error, created_at, updated_at
		 FROM entries WHERE id = ?`, id,
	).Scan(&e.ID, &status, &e.PayloadRef, &e.Result, &e.Error, &createdAt, &updatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	e.Status = model.EntryStatus(status)
	if err := parseTimestamps(&e, createdAt, updatedAt); err != nil {
		return nil, err
	}
	return &e, nil
}

func (s *SQLiteStore) PutEntry(ctx context.Context, e *model.Entry) error {
	s.logger.Debug("sql", "op", "upsert", "table", "entries", "id", e.ID, "status", e.Status)

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO entries (id, status, payload_ref, result, error, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   status = excluded.status,
		   result = excluded.result,
		   error = excluded.error,
		   updated_at = excluded.updated_at`,
		e.ID, string(e.Status), e.PayloadRef, e.Result, e.Error,
		e.CreatedAt.UTC().Format(time.RFC3339Nano), e.UpdatedAt.UTC().Format(time.RFC3339Nano),
	)
	return err
}

// ListEntries reads all rows in a single statement, which SQLite executes
// against one consistent snapshot.
func (s *SQLiteStore) ListEntries(ctx context.Context) ([]*model.Entry, error) {
	s.logger.Debug("sql", "op", "list", "table", "entries")

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, status, payload_ref, result, error, created_at, updated_at FROM entries`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []*model.Entry
	for rows.Next() {
		var e model.Entry
		var status, createdAt, updatedAt string
		if err := rows.Scan(&e.ID, &status, &e.PayloadRef, &e.Result, &e.Error, &createdAt, &updatedAt); err != nil {
			return nil, err
		}
		e.Status = model.EntryStatus(status)
		if err := parseTimestamps(&e, createdAt, updatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, &e)
	}
	return entries, rows.Err()
}

func parseTimestamps(e *model.Entry, createdAt, updatedAt string) error {
	var err error
	if e.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		return fmt.Errorf("entry %s: parse created_at: %w", e.ID, err)
	}
	if e.UpdatedAt, err = time.Parse(time.RFC3339Nano, updatedAt); err != nil {
		return fmt.Errorf("entry %s: parse updated_at: %w", e.ID, err)
	}
	return nil
}
