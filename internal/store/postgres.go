package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/me/prodigy/pkg/model"
)

// postgresSchema contains the DDL for the PostgreSQL entries table.
var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS prodigy_entries (
		id          TEXT PRIMARY KEY,
		status      TEXT NOT NULL DEFAULT 'PENDING',
		payload_ref TEXT NOT NULL DEFAULT '',
		result      TEXT NOT NULL DEFAULT '',
		error       TEXT NOT NULL DEFAULT '',
		created_at  TIMESTAMPTZ NOT NULL,
		updated_at  TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_prodigy_entries_status ON prodigy_entries(status)`,
}

// PostgresStore implements Store on a pgx connection pool.
type PostgresStore struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// NewPostgresStore connects a pool to dsn. The connection is established
// lazily; use Ping to verify reachability.
func NewPostgresStore(ctx context.Context, dsn string, logger *slog.Logger) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	return &PostgresStore{
		pool:   pool,
		logger: logger.With("component", "store", "driver", "postgres"),
	}, nil
}

// Close releases every pooled connection.
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

// Ping verifies the database is reachable.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Migrate creates all required tables and indexes.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	s.logger.Debug("sql", "op", "migrate")
	for _, stmt := range postgresSchema {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

func (s *PostgresStore) GetEntry(ctx context.Context, id string) (*model.Entry, error) {
	s.logger.Debug("sql", "op", "select", "table", "prodigy_entries", "id", id)

	var e model.Entry
	var status string
	err := s.pool.QueryRow(ctx,
		`SELECT id, status, payload_ref, result, error, created_at, updated_at
		 FROM prodigy_entries WHERE id = $1`, id,
	).Scan(&e.ID, &status, &e.PayloadRef, &e.Result, &e.Error, &e.CreatedAt, &e.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	e.Status = model.EntryStatus(status)
	e.CreatedAt = e.CreatedAt.UTC()
	e.UpdatedAt = e.UpdatedAt.UTC()
	return &e, nil
}

func (s *PostgresStore) PutEntry(ctx context.Context, e *model.Entry) error {
	s.logger.Debug("sql", "op", "upsert", "table", "prodigy_entries", "id", e.ID, "status", e.Status)

	_, err := s.pool.Exec(ctx,
		`INSERT INTO prodigy_entries (id, status, payload_ref, result, error, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 ON CONFLICT (id) DO UPDATE SET
		   status = EXCLUDED.status,
		   result = EXCLUDED.result,
		   error = EXCLUDED.error,
		   updated_at = EXCLUDED.updated_at`,
		e.ID, string(e.Status), e.PayloadRef, e.Result, e.Error, e.CreatedAt, e.UpdatedAt,
	)
	return err
}

// ListEntries runs one SELECT, which PostgreSQL evaluates against a single
// statement snapshot.
func (s *PostgresStore) ListEntries(ctx context.Context) ([]*model.Entry, error) {
	s.logger.Debug("sql", "op", "list", "table", "prodigy_entries")

	rows, err := s.pool.Query(ctx,
		`SELECT id, status, payload_ref, result, error, created_at, updated_at FROM prodigy_entries`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []*model.Entry
	for rows.Next() {
		var e model.Entry
		var status string
		var createdAt, updatedAt time.Time
		if err := rows.Scan(&e.ID, &status, &e.PayloadRef, &e.Result, &e.Error, &createdAt, &updatedAt); err != nil {
			return nil, err
		}
		e.Status = model.EntryStatus(status)
		e.CreatedAt = createdAt.UTC()
		e.UpdatedAt = updatedAt.UTC()
		entries = append(entries, &e)
	}
	return entries, rows.Err()
}
