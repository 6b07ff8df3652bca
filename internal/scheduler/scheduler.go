package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/me/prodigy/internal/store"
	"github.com/me/prodigy/pkg/model"
)

const entity = "entry"

// DefaultStoreTimeout bounds every store round trip.
const DefaultStoreTimeout = 5 * time.Second

// Scheduler owns every Entry and the legal transitions between statuses.
//
// All methods are safe for concurrent use. Advance calls on the same id are
// serialized; calls on unrelated ids do not share a lock. Callers only ever
// receive value copies of entries.
type Scheduler struct {
	store   store.Store
	locks   *keyedMutex
	newID   func() (string, error)
	clock   *clock
	timeout time.Duration
	logger  *slog.Logger
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithStoreTimeout overrides DefaultStoreTimeout.
func WithStoreTimeout(d time.Duration) Option {
	return func(s *Scheduler) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithIDGenerator replaces the UUIDv7 id generator.
func WithIDGenerator(fn func() (string, error)) Option {
	return func(s *Scheduler) { s.newID = fn }
}

// WithClock replaces time.Now as the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(s *Scheduler) { s.clock = newClock(now) }
}

// New creates a Scheduler backed by st.
func New(st store.Store, logger *slog.Logger, opts ...Option) *Scheduler {
	s := &Scheduler{
		store:   st,
		locks:   newKeyedMutex(),
		newID:   NewEntryID,
		clock:   newClock(time.Now),
		timeout: DefaultStoreTimeout,
		logger:  logger.With("component", "scheduler"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create allocates a PENDING entry for payloadRef and returns its id.
// The only possible failure is a *model.StorageError.
func (s *Scheduler) Create(ctx context.Context, payloadRef string) (string, error) {
	id, err := s.newID()
	if err != nil {
		return "", &model.StorageError{Op: "allocate id", Err: err}
	}

	now := s.clock.Now()
	e := &model.Entry{
		ID:         id,
		Status:     model.EntryStatusPending,
		PayloadRef: payloadRef,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.put(ctx, e); err != nil {
		return "", err
	}

	s.logger.Info("entry created", "entry_id", id, "payload_ref", payloadRef)
	return id, nil
}

// Advance moves entry id to next. It returns *model.NotFoundError for an
// unknown id and *model.InvalidTransitionError when next is not reachable
// from the current status; in both cases the entry is left unchanged.
// outcome is recorded only when next is terminal.
func (s *Scheduler) Advance(ctx context.Context, id string, next model.EntryStatus, outcome model.Outcome) (model.Entry, error) {
	unlock := s.locks.Lock(id)
	defer unlock()

	cur, err := s.get(ctx, id)
	if err != nil {
		return model.Entry{}, err
	}

	if !cur.Status.CanTransitionTo(next) {
		s.logger.Warn("rejected transition", "entry_id", id, "from", cur.Status, "to", next)
		return model.Entry{}, &model.InvalidTransitionError{
			Entity: entity,
			ID:     id,
			From:   cur.Status.String(),
			To:     next.String(),
		}
	}

	updated := *cur
	updated.Status = next
	updated.UpdatedAt = s.clock.Now()
	if updated.UpdatedAt.Before(cur.UpdatedAt) {
		// Wall clock moved backwards since the last write (e.g. another host).
		updated.UpdatedAt = cur.UpdatedAt
	}
	if next.IsTerminal() {
		updated.Result = outcome.Result
		updated.Error = outcome.Error
	}

	if err := s.put(ctx, &updated); err != nil {
		return model.Entry{}, err
	}

	s.logger.Info("entry advanced", "entry_id", id, "from", cur.Status, "to", next)
	return updated, nil
}

// Cancel is Advance to CANCELLED with no outcome. It only records the
// terminal status; stopping the underlying work is the caller's concern.
func (s *Scheduler) Cancel(ctx context.Context, id string) (model.Entry, error) {
	return s.Advance(ctx, id, model.EntryStatusCancelled, model.Outcome{})
}

// Get returns a snapshot of entry id or *model.NotFoundError.
func (s *Scheduler) Get(ctx context.Context, id string) (model.Entry, error) {
	e, err := s.get(ctx, id)
	if err != nil {
		return model.Entry{}, err
	}
	return *e, nil
}

// List returns every entry ordered by creation time, ties broken by id.
// The result is never nil.
func (s *Scheduler) List(ctx context.Context) ([]model.Entry, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	stored, err := s.store.ListEntries(ctx)
	if err != nil {
		return nil, &model.StorageError{Op: "list", Err: err}
	}

	entries := make([]model.Entry, 0, len(stored))
	for _, e := range stored {
		entries = append(entries, *e)
	}
	model.SortEntries(entries)
	return entries, nil
}

// ListByStatus is List filtered to entries currently in status.
func (s *Scheduler) ListByStatus(ctx context.Context, status model.EntryStatus) ([]model.Entry, error) {
	all, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	filtered := make([]model.Entry, 0, len(all))
	for _, e := range all {
		if e.Status == status {
			filtered = append(filtered, e)
		}
	}
	return filtered, nil
}

func (s *Scheduler) get(ctx context.Context, id string) (*model.Entry, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	e, err := s.store.GetEntry(ctx, id)
	if err != nil {
		return nil, &model.StorageError{Op: "get", Err: err}
	}
	if e == nil {
		return nil, &model.NotFoundError{Entity: entity, ID: id}
	}
	return e, nil
}

func (s *Scheduler) put(ctx context.Context, e *model.Entry) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if err := s.store.PutEntry(ctx, e); err != nil {
		s.logger.Error("store put failed", "entry_id", e.ID, "error", err)
		return &model.StorageError{Op: "put", Err: fmt.Errorf("entry %s: %w", e.ID, err)}
	}
	return nil
}
