package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"
	"github.com/me/prodigy/internal/app"
	"github.com/me/prodigy/internal/config"
	"github.com/me/prodigy/internal/logging"
	"github.com/me/prodigy/internal/server"
	"github.com/me/prodigy/internal/trigger"
	"golang.org/x/sync/errgroup"
)

func main() {
	configFile, ov, err := parseFlags(flag.CommandLine, os.Args[1:])
	if err != nil {
		os.Exit(2)
	}

	cfg, err := config.LoadWithOverrides(configFile, ov)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	level := new(slog.LevelVar)
	level.Set(logging.ParseLevel(cfg.LogLevel))
	logger := logging.NewLogger(level, cfg.LogFormat)

	if err := run(cfg, configFile, ov, level, logger); err != nil {
		logger.Error("server failed", "error", err)
		os.Exit(1)
	}
	logger.Info("server stopped")
}

func run(cfg config.Config, configFile string, ov config.Overrides, level *slog.LevelVar, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.Open(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.Warmup(ctx); err != nil {
		return err
	}
	logger.Info("store ready", "driver", cfg.Store.Driver)

	srv := server.New(a, logger)

	trig := trigger.New(a, logger)
	if err := trig.Apply(cfg.Triggers, cfg.Timezone); err != nil {
		return fmt.Errorf("triggers: %w", err)
	}

	ln, err := net.Listen("tcp", cfg.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", cfg.Addr, err)
	}
	httpServer := &http.Server{
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("server starting", "addr", ln.Addr().String())
		if err := httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		notify(logger, daemon.SdNotifyStopping)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	g.Go(func() error {
		return trig.Run(gctx)
	})

	if configFile != "" {
		w := config.NewWatcher(configFile, ov, logger, func(next config.Config) {
			if err := trig.Apply(next.Triggers, next.Timezone); err != nil {
				logger.Error("config reload rejected", "error", err)
				return
			}
			prev := a.Config()
			if prev.Store != next.Store {
				logger.Warn("store settings changed; restart to apply", "driver", next.Store.Driver)
			}
			if prev.Addr != next.Addr {
				logger.Warn("listen address changed; restart to apply", "addr", next.Addr)
			}
			level.Set(logging.ParseLevel(next.LogLevel))
			srv.SetRateLimit(next.RateLimit, next.RateBurst)
			a.SetConfig(next)
		})
		g.Go(func() error {
			return w.Watch(gctx)
		})
	}

	notify(logger, daemon.SdNotifyReady)
	return g.Wait()
}

// parseFlags reads the command line into a config path and the overrides
// for every flag that was set explicitly. Flags given on the command line
// win over the config file, on every reload.
func parseFlags(fs *flag.FlagSet, args []string) (string, config.Overrides, error) {
	defaults := config.DefaultConfig()

	configFile := fs.String("config", os.Getenv("PRODIGY_CONFIG"), "Path to YAML config file (or PRODIGY_CONFIG env)")
	addr := fs.String("addr", defaults.Addr, "Listen address")
	logLevel := fs.String("log-level", defaults.LogLevel, "Log level (debug, info, warn, error)")
	logFormat := fs.String("log-format", defaults.LogFormat, "Log format (text, json)")
	driver := fs.String("store", defaults.Store.Driver, "Store driver: memory, sqlite, postgres, redis, s3")
	sqlitePath := fs.String("db", "", "SQLite database path (store=sqlite)")
	debug := fs.Bool("debug", false, "Shorthand for --log-level=debug")
	if err := fs.Parse(args); err != nil {
		return "", config.Overrides{}, err
	}

	var ov config.Overrides
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "addr":
			ov.Addr = addr
		case "log-level":
			ov.LogLevel = logLevel
		case "log-format":
			ov.LogFormat = logFormat
		case "store":
			ov.StoreDriver = driver
		case "db":
			ov.SQLitePath = sqlitePath
		}
	})
	if *debug {
		level := "debug"
		ov.LogLevel = &level
	}
	return *configFile, ov, nil
}

// notify reports state to systemd when running under a Type=notify unit.
func notify(logger *slog.Logger, state string) {
	sent, err := daemon.SdNotify(false, state)
	if err != nil {
		logger.Warn("sd_notify failed", "state", state, "error", err)
		return
	}
	if sent {
		logger.Debug("sd_notify sent", "state", state)
	}
}
