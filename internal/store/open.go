package store

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/me/prodigy/internal/config"
)

// Open constructs the Store selected by cfg.Driver. The caller is responsible
// for calling Migrate (the warm-up hook does) and Close.
func Open(ctx context.Context, cfg config.StoreConfig, logger *slog.Logger) (Store, error) {
	driver := strings.ToLower(strings.TrimSpace(cfg.Driver))
	switch driver {
	case "", config.DriverMemory:
		return NewMemoryStore(logger), nil
	case config.DriverSQLite:
		return NewSQLiteStore(cfg.SQLitePath, logger)
	case config.DriverPostgres:
		return NewPostgresStore(ctx, cfg.PostgresDSN, logger)
	case config.DriverRedis:
		return NewRedisStore(RedisOptions{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		}, logger), nil
	case config.DriverS3:
		return NewS3StoreFromConfig(ctx, cfg.S3Bucket, cfg.S3Prefix, cfg.S3Region, logger)
	default:
		return nil, fmt.Errorf("unknown store driver: %s", cfg.Driver)
	}
}
