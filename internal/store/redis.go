package store

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/me/prodigy/pkg/model"
)

// Redis key layout. Every entry is a Hash; entryIDsKey is a Sorted Set of
// ids scored by creation time and used for enumeration.
const redisKeyPrefix = "prodigy:"

const entryIDsKey = redisKeyPrefix + "entry_ids"

// entryKey returns the key for an entry: prodigy:entry:{id}
func entryKey(id string) string { return redisKeyPrefix + "entry:" + id }

// RedisOptions configures the client created by NewRedisStore.
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
}

// RedisStore implements Store backed by Redis.
type RedisStore struct {
	client    redis.Cmdable
	closeFunc func() error
	logger    *slog.Logger
}

// NewRedisStore creates a client for opts and a store that owns it.
func NewRedisStore(opts RedisOptions, logger *slog.Logger) *RedisStore {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	s := NewRedisStoreWithClient(client, logger)
	s.closeFunc = client.Close
	return s
}

// NewRedisStoreWithClient wraps an existing client. The caller owns the
// client lifecycle.
func NewRedisStoreWithClient(client redis.Cmdable, logger *slog.Logger) *RedisStore {
	return &RedisStore{
		client: client,
		logger: logger.With("component", "store", "driver", "redis"),
	}
}

// Close closes the client if this store created it.
func (s *RedisStore) Close() error {
	if s.closeFunc != nil {
		return s.closeFunc()
	}
	return nil
}

// Ping verifies the Redis connection is alive.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Migrate is a no-op for Redis (schemaless).
func (s *RedisStore) Migrate(context.Context) error { return nil }

func (s *RedisStore) GetEntry(ctx context.Context, id string) (*model.Entry, error) {
	s.logger.Debug("redis", "op", "hgetall", "id", id)

	fields, err := s.client.HGetAll(ctx, entryKey(id)).Result()
	if err != nil {
		return nil, fmt.Errorf("hgetall %s: %w", id, err)
	}
	if len(fields) == 0 {
		return nil, nil
	}
	return entryFromMap(fields)
}

// PutEntry writes the hash and indexes the id in one MULTI/EXEC.
func (s *RedisStore) PutEntry(ctx context.Context, e *model.Entry) error {
	s.logger.Debug("redis", "op", "hset", "id", e.ID, "status", e.Status)

	pipe := s.client.TxPipeline()
	pipe.HSet(ctx, entryKey(e.ID), entryToMap(e))
	pipe.ZAddNX(ctx, entryIDsKey, redis.Z{Score: float64(e.CreatedAt.UnixNano()), Member: e.ID})
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("put entry %s: %w", e.ID, err)
	}
	return nil
}

// ListEntries reads the id index, then every hash in one pipeline. Ids are
// unique members of the sorted set, so no entry can appear twice.
func (s *RedisStore) ListEntries(ctx context.Context) ([]*model.Entry, error) {
	ids, err := s.client.ZRange(ctx, entryIDsKey, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("zrange: %w", err)
	}
	s.logger.Debug("redis", "op", "list", "count", len(ids))
	if len(ids) == 0 {
		return nil, nil
	}

	cmds := make([]*redis.MapStringStringCmd, len(ids))
	_, err = s.client.Pipelined(ctx, func(p redis.Pipeliner) error {
		for i, id := range ids {
			cmds[i] = p.HGetAll(ctx, entryKey(id))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}

	entries := make([]*model.Entry, 0, len(ids))
	for i, cmd := range cmds {
		fields := cmd.Val()
		if len(fields) == 0 {
			// Indexed before the hash became visible to this pipeline.
			s.logger.Warn("indexed entry has no hash", "id", ids[i])
			continue
		}
		e, err := entryFromMap(fields)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, nil
}

func entryToMap(e *model.Entry) map[string]any {
	return map[string]any{
		"id":          e.ID,
		"status":      string(e.Status),
		"payload_ref": e.PayloadRef,
		"result":      e.Result,
		"error":       e.Error,
		"created_at":  e.CreatedAt.UTC().Format(time.RFC3339Nano),
		"updated_at":  e.UpdatedAt.UTC().Format(time.RFC3339Nano),
	}
}

func entryFromMap(m map[string]string) (*model.Entry, error) {
	e := &model.Entry{
		ID:         m["id"],
		Status:     model.EntryStatus(m["status"]),
		PayloadRef: m["payload_ref"],
		Result:     m["result"],
		Error:      m["error"],
	}
	var err error
	if e.CreatedAt, err = time.Parse(time.RFC3339Nano, m["created_at"]); err != nil {
		return nil, fmt.Errorf("entry %s: parse created_at: %w", e.ID, err)
	}
	if e.UpdatedAt, err = time.Parse(time.RFC3339Nano, m["updated_at"]); err != nil {
		return nil, fmt.Errorf("entry %s: parse updated_at: %w", e.ID, err)
	}
	return e, nil
}
