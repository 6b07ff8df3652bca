// Package app holds the process-wide configuration and the dependency
// container. Entry points construct one App and pass it down explicitly.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/me/prodigy/internal/config"
	"github.com/me/prodigy/internal/scheduler"
	"github.com/me/prodigy/internal/store"
)

// Container exposes the wired store and scheduler.
type Container struct {
	Store     store.Store
	Scheduler *scheduler.Scheduler
}

// NewContainer wires a Scheduler over st using the configured store timeout.
func NewContainer(st store.Store, cfg config.Config, logger *slog.Logger) *Container {
	return &Container{
		Store:     st,
		Scheduler: scheduler.New(st, logger, scheduler.WithStoreTimeout(cfg.Store.Timeout)),
	}
}

// App is the configuration and container holder. Both may be replaced
// wholesale at any time; readers always see one complete value.
type App struct {
	mu        sync.RWMutex
	cfg       config.Config
	container *Container

	warmOnce sync.Once
	warmErr  error

	logger *slog.Logger
}

// New returns an App holding cfg and c.
func New(cfg config.Config, c *Container, logger *slog.Logger) *App {
	return &App{
		cfg:       cfg,
		container: c,
		logger:    logger.With("component", "app"),
	}
}

// Open builds an App from cfg, opening the configured store.
func Open(ctx context.Context, cfg config.Config, logger *slog.Logger) (*App, error) {
	st, err := store.Open(ctx, cfg.Store, logger)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	return New(cfg, NewContainer(st, cfg, logger), logger), nil
}

// Config returns the current configuration.
func (a *App) Config() config.Config {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.cfg
}

// SetConfig replaces the configuration. Nothing is merged.
func (a *App) SetConfig(cfg config.Config) {
	a.mu.Lock()
	a.cfg = cfg
	a.mu.Unlock()
	a.logger.Info("configuration replaced", "store_driver", cfg.Store.Driver, "triggers", len(cfg.Triggers))
}

// Container returns the current container.
func (a *App) Container() *Container {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.container
}

// SetContainer replaces the container. The previous container is not closed.
func (a *App) SetContainer(c *Container) {
	a.mu.Lock()
	a.container = c
	a.mu.Unlock()
}

// Warmup initializes the store and scheduler before the first request:
// it pings the store, applies migrations and performs one full list.
// Only the first call does any work; later calls return its result.
func (a *App) Warmup(ctx context.Context) error {
	a.warmOnce.Do(func() {
		a.warmErr = a.warmup(ctx)
	})
	return a.warmErr
}

func (a *App) warmup(ctx context.Context) error {
	c := a.Container()
	if c == nil {
		return errors.New("warm-up: no container")
	}
	if err := c.Store.Ping(ctx); err != nil {
		return fmt.Errorf("warm-up ping: %w", err)
	}
	if err := c.Store.Migrate(ctx); err != nil {
		return fmt.Errorf("warm-up migrate: %w", err)
	}
	entries, err := c.Scheduler.List(ctx)
	if err != nil {
		return fmt.Errorf("warm-up list: %w", err)
	}
	a.logger.Info("warm-up complete", "entries", len(entries))
	return nil
}

// Close releases the current container's store.
func (a *App) Close() error {
	c := a.Container()
	if c == nil || c.Store == nil {
		return nil
	}
	return c.Store.Close()
}

// Create forwards to the current container's Scheduler, so callers holding
// the App keep working after SetContainer.
func (a *App) Create(ctx context.Context, payloadRef string) (string, error) {
	c := a.Container()
	if c == nil || c.Scheduler == nil {
		return "", errors.New("scheduler not initialized")
	}
	return c.Scheduler.Create(ctx, payloadRef)
}
