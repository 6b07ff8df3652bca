package store

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/me/prodigy/internal/config"
	"github.com/me/prodigy/internal/logging"
	"github.com/me/prodigy/pkg/model"
)

func sampleEntry(id string, created time.Time) *model.Entry {
	return &model.Entry{
		ID:         id,
		Status:     model.EntryStatusPending,
		PayloadRef: "faults/" + id + ".json",
		CreatedAt:  created,
		UpdatedAt:  created,
	}
}

// testContract exercises the behaviour every Store implementation must share.
func testContract(t *testing.T, st Store) {
	t.Helper()
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Microsecond)
	// Unique per run so shared Redis/PostgreSQL instances do not interfere.
	run := uuid.NewString()[:8]
	id := func(n int) string { return fmt.Sprintf("flt_%s_%d", run, n) }

	t.Run("get missing", func(t *testing.T) {
		got, err := st.GetEntry(ctx, id(0))
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		if got != nil {
			t.Fatalf("got %+v, want nil", got)
		}
	})

	t.Run("put then get", func(t *testing.T) {
		e := sampleEntry(id(1), now)
		if err := st.PutEntry(ctx, e); err != nil {
			t.Fatalf("put: %v", err)
		}
		got, err := st.GetEntry(ctx, e.ID)
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		if got == nil {
			t.Fatal("got nil entry")
		}
		if got.Status != model.EntryStatusPending {
			t.Errorf("status = %q, want PENDING", got.Status)
		}
		if got.PayloadRef != e.PayloadRef {
			t.Errorf("payloadRef = %q, want %q", got.PayloadRef, e.PayloadRef)
		}
		if !got.CreatedAt.Equal(e.CreatedAt) {
			t.Errorf("createdAt = %v, want %v", got.CreatedAt, e.CreatedAt)
		}
	})

	t.Run("put is upsert", func(t *testing.T) {
		e := sampleEntry(id(2), now)
		if err := st.PutEntry(ctx, e); err != nil {
			t.Fatalf("put: %v", err)
		}
		e.Status = model.EntryStatusFailed
		e.Error = "boom"
		e.UpdatedAt = now.Add(time.Second)
		if err := st.PutEntry(ctx, e); err != nil {
			t.Fatalf("second put: %v", err)
		}
		got, err := st.GetEntry(ctx, e.ID)
		if err != nil || got == nil {
			t.Fatalf("get: %v, %v", got, err)
		}
		if got.Status != model.EntryStatusFailed || got.Error != "boom" {
			t.Errorf("got %+v", got)
		}
		if !got.UpdatedAt.Equal(e.UpdatedAt) {
			t.Errorf("updatedAt = %v, want %v", got.UpdatedAt, e.UpdatedAt)
		}
	})

	t.Run("returned entry is a copy", func(t *testing.T) {
		got, _ := st.GetEntry(ctx, id(1))
		got.Status = model.EntryStatusCancelled
		again, _ := st.GetEntry(ctx, id(1))
		if again.Status != model.EntryStatusPending {
			t.Errorf("status = %q after mutating a returned copy", again.Status)
		}
	})

	t.Run("list contains each entry once", func(t *testing.T) {
		entries, err := st.ListEntries(ctx)
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		counts := map[string]int{}
		for _, e := range entries {
			counts[e.ID]++
		}
		for _, want := range []string{id(1), id(2)} {
			if counts[want] != 1 {
				t.Errorf("entry %s listed %d times, want 1", want, counts[want])
			}
		}
	})
}

func TestMemoryStore_Contract(t *testing.T) {
	testContract(t, NewMemoryStore(logging.Discard()))
}

func TestMemoryStore_Lifecycle(t *testing.T) {
	s := NewMemoryStore(logging.Discard())
	ctx := context.Background()
	for name, fn := range map[string]func() error{
		"Migrate": func() error { return s.Migrate(ctx) },
		"Ping":    func() error { return s.Ping(ctx) },
		"Close":   s.Close,
	} {
		if err := fn(); err != nil {
			t.Errorf("%s returned error: %v", name, err)
		}
	}
}

func TestMemoryStore_ConcurrentPutAndList(t *testing.T) {
	s := NewMemoryStore(logging.Discard())
	ctx := context.Background()
	now := time.Now().UTC()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			s.PutEntry(ctx, sampleEntry(fmt.Sprintf("flt_%03d", i), now))
		}(i)
		go func() {
			defer wg.Done()
			s.ListEntries(ctx)
		}()
	}
	wg.Wait()

	entries, _ := s.ListEntries(ctx)
	if len(entries) != 50 {
		t.Fatalf("len = %d, want 50", len(entries))
	}
	ids := make([]string, len(entries))
	for i, e := range entries {
		ids[i] = e.ID
	}
	sort.Strings(ids)
	for i := 1; i < len(ids); i++ {
		if ids[i] == ids[i-1] {
			t.Fatalf("duplicate id %s", ids[i])
		}
	}
}

func testSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	st, err := NewSQLiteStore(":memory:", logging.Discard())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	if err := st.Migrate(context.Background()); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return st
}

func TestSQLiteStore_Contract(t *testing.T) {
	testContract(t, testSQLiteStore(t))
}

func TestSQLiteStore_MigrateIdempotent(t *testing.T) {
	st := testSQLiteStore(t)
	// Migrate a second time — should not error.
	if err := st.Migrate(context.Background()); err != nil {
		t.Fatalf("second migrate: %v", err)
	}
}

func TestSQLiteStore_CorruptTimestamp(t *testing.T) {
	st := testSQLiteStore(t)
	ctx := context.Background()
	_, err := st.db.ExecContext(ctx,
		`INSERT INTO entries (id, status, payload_ref, result, error, created_at, updated_at)
		 VALUES ('flt_bad', 'PENDING', 'p', '', '', 'garbage', 'garbage')`)
	if err != nil {
		t.Fatal(err)
	}

	got, err := st.GetEntry(ctx, "flt_bad")
	if err == nil {
		t.Fatalf("GetEntry = %+v, want parse error", got)
	}
	if !strings.Contains(err.Error(), "created_at") {
		t.Errorf("GetEntry error = %v, want created_at mention", err)
	}
	if _, err := st.ListEntries(ctx); err == nil {
		t.Error("ListEntries: want parse error")
	}
}

func TestSQLiteStore_SurvivesReopen(t *testing.T) {
	path := t.TempDir() + "/prodigy.db"
	ctx := context.Background()
	now := time.Now().UTC()

	st, err := NewSQLiteStore(path, logging.Discard())
	if err != nil {
		t.Fatal(err)
	}
	if err := st.Migrate(ctx); err != nil {
		t.Fatal(err)
	}
	if err := st.PutEntry(ctx, sampleEntry("flt_persist", now)); err != nil {
		t.Fatal(err)
	}
	st.Close()

	st, err = NewSQLiteStore(path, logging.Discard())
	if err != nil {
		t.Fatal(err)
	}
	defer st.Close()
	got, err := st.GetEntry(ctx, "flt_persist")
	if err != nil || got == nil {
		t.Fatalf("get after reopen: %v, %v", got, err)
	}
}

func TestRedisStore_Contract(t *testing.T) {
	addr := os.Getenv("PRODIGY_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("PRODIGY_TEST_REDIS_ADDR not set")
	}
	st := NewRedisStore(RedisOptions{Addr: addr}, logging.Discard())
	t.Cleanup(func() { st.Close() })
	if err := st.Ping(context.Background()); err != nil {
		t.Fatalf("ping: %v", err)
	}
	testContract(t, st)
}

func TestPostgresStore_Contract(t *testing.T) {
	dsn := os.Getenv("PRODIGY_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("PRODIGY_TEST_POSTGRES_DSN not set")
	}
	ctx := context.Background()
	st, err := NewPostgresStore(ctx, dsn, logging.Discard())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	if err := st.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	testContract(t, st)
}

func TestOpen(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		name    string
		cfg     config.StoreConfig
		wantErr bool
	}{
		{"default", config.StoreConfig{}, false},
		{"memory", config.StoreConfig{Driver: "memory"}, false},
		{"sqlite", config.StoreConfig{Driver: "sqlite", SQLitePath: ":memory:"}, false},
		{"redis", config.StoreConfig{Driver: "redis", RedisAddr: "localhost:6379"}, false},
		{"unknown", config.StoreConfig{Driver: "etcd"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st, err := Open(ctx, tt.cfg, logging.Discard())
			if (err != nil) != tt.wantErr {
				t.Fatalf("Open err = %v, wantErr %v", err, tt.wantErr)
			}
			if st != nil {
				st.Close()
			}
		})
	}
}

func sampleTime() time.Time {
	return time.Date(2026, 3, 4, 5, 6, 7, 8, time.UTC)
}
