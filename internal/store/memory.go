package store

import (
	"context"
	"log/slog"
	"sync"

	"github.com/me/prodigy/pkg/model"
)

// MemoryStore is the default in-process Store. Entries are copied on the way
// in and on the way out, so no caller ever holds a reference to stored state.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]*model.Entry
	logger  *slog.Logger
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore(logger *slog.Logger) *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]*model.Entry),
		logger:  logger.With("component", "store", "driver", "memory"),
	}
}

func (m *MemoryStore) GetEntry(_ context.Context, id string) (*model.Entry, error) {
	m.logger.Debug("get", "op", "get", "id", id)
	m.mu.RLock()
	defer m.mu.RUnlock()

	e, ok := m.entries[id]
	if !ok {
		return nil, nil
	}
	cp := *e
	return &cp, nil
}

func (m *MemoryStore) PutEntry(_ context.Context, e *model.Entry) error {
	m.logger.Debug("put", "op", "put", "id", e.ID, "status", e.Status)
	cp := *e
	m.mu.Lock()
	m.entries[e.ID] = &cp
	m.mu.Unlock()
	return nil
}

// ListEntries copies the live set under a read lock; the critical section is
// bounded by the number of entries.
func (m *MemoryStore) ListEntries(_ context.Context) ([]*model.Entry, error) {
	m.mu.RLock()
	out := make([]*model.Entry, 0, len(m.entries))
	for _, e := range m.entries {
		cp := *e
		out = append(out, &cp)
	}
	m.mu.RUnlock()

	m.logger.Debug("list", "op", "list", "count", len(out))
	return out, nil
}

// Ping always succeeds for the memory store.
func (m *MemoryStore) Ping(context.Context) error { return nil }

// Migrate is a no-op for the memory store.
func (m *MemoryStore) Migrate(context.Context) error { return nil }

// Close is a no-op for the memory store.
func (m *MemoryStore) Close() error { return nil }
