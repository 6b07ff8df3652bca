package store

import (
	"context"

	"github.com/me/prodigy/pkg/model"
)

// Store defines the persistence layer for Prodigy entries.
//
// Implementations must be safe for concurrent use. GetEntry reports a missing
// id as (nil, nil) so callers can tell absence from failure. PutEntry is an
// upsert keyed by Entry.ID. ListEntries returns a point-in-time snapshot in
// which every entry appears exactly once; order is unspecified.
type Store interface {
	GetEntry(ctx context.Context, id string) (*model.Entry, error)
	PutEntry(ctx context.Context, e *model.Entry) error
	ListEntries(ctx context.Context) ([]*model.Entry, error)

	// Lifecycle
	Ping(ctx context.Context) error
	Migrate(ctx context.Context) error
	Close() error
}
