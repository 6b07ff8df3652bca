package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Addr != ":8080" {
		t.Errorf("Addr = %q, want :8080", cfg.Addr)
	}
	if cfg.Store.Driver != DriverMemory {
		t.Errorf("Store.Driver = %q, want memory", cfg.Store.Driver)
	}
	if cfg.Store.Timeout != 5*time.Second {
		t.Errorf("Store.Timeout = %v, want 5s", cfg.Store.Timeout)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config invalid: %v", err)
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prodigy.yaml")
	content := `
addr: ":9090"
log_level: debug
store:
  driver: sqlite
  sqlite_path: /tmp/prodigy.db
  timeout: 2s
rate_limit: 5
triggers:
  - name: nightly-latency
    schedule: "0 0 3 * * *"
    payload_ref: faults/latency.json
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Addr != ":9090" {
		t.Errorf("Addr = %q", cfg.Addr)
	}
	if cfg.LogFormat != "text" {
		t.Errorf("LogFormat = %q, want default text", cfg.LogFormat)
	}
	if cfg.Store.Driver != DriverSQLite || cfg.Store.SQLitePath != "/tmp/prodigy.db" {
		t.Errorf("Store = %+v", cfg.Store)
	}
	if cfg.Store.Timeout != 2*time.Second {
		t.Errorf("Store.Timeout = %v, want 2s", cfg.Store.Timeout)
	}
	if len(cfg.Triggers) != 1 || cfg.Triggers[0].PayloadRef != "faults/latency.json" {
		t.Errorf("Triggers = %+v", cfg.Triggers)
	}
}

func TestParse_Empty(t *testing.T) {
	cfg, err := Parse(nil)
	if err != nil {
		t.Fatalf("Parse(empty): %v", err)
	}
	if cfg.Addr != ":8080" {
		t.Errorf("Addr = %q, want default", cfg.Addr)
	}
}

func TestParse_UnknownField(t *testing.T) {
	if _, err := Parse([]byte("adress: \":80\"\n")); err == nil {
		t.Fatal("expected error for unknown field")
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"unknown driver", func(c *Config) { c.Store.Driver = "cassandra" }, "unknown store.driver"},
		{"sqlite without path", func(c *Config) { c.Store.Driver = DriverSQLite }, "sqlite_path"},
		{"postgres without dsn", func(c *Config) { c.Store.Driver = DriverPostgres }, "postgres_dsn"},
		{"redis without addr", func(c *Config) { c.Store.Driver = DriverRedis }, "redis_addr"},
		{"s3 without bucket", func(c *Config) { c.Store.Driver = DriverS3 }, "s3_bucket"},
		{"zero timeout", func(c *Config) { c.Store.Timeout = 0 }, "timeout"},
		{"negative rate", func(c *Config) { c.RateLimit = -1 }, "rate_limit"},
		{"rate without burst", func(c *Config) { c.RateLimit = 5; c.RateBurst = 0 }, "rate_burst"},
		{"trigger without schedule", func(c *Config) {
			c.Triggers = []TriggerConfig{{Name: "a"}}
		}, "schedule is required"},
		{"duplicate trigger", func(c *Config) {
			c.Triggers = []TriggerConfig{{Name: "a", Schedule: "@every 1m"}, {Name: "a", Schedule: "@every 1m"}}
		}, "duplicate trigger"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %q, want substring %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoadWithOverrides_FlagCompletesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prodigy.yaml")
	if err := os.WriteFile(path, []byte("store:\n  driver: sqlite\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("Load without sqlite_path: want error")
	}

	db := "/var/lib/prodigy/prodigy.db"
	cfg, err := LoadWithOverrides(path, Overrides{SQLitePath: &db})
	if err != nil {
		t.Fatalf("LoadWithOverrides: %v", err)
	}
	if cfg.Store.Driver != DriverSQLite || cfg.Store.SQLitePath != db {
		t.Errorf("Store = %+v", cfg.Store)
	}
}

func TestLoadWithOverrides_FlagsWinOverFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prodigy.yaml")
	content := "addr: \":9090\"\nlog_level: warn\nlog_format: json\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	addr, level := ":7070", "debug"
	cfg, err := LoadWithOverrides(path, Overrides{Addr: &addr, LogLevel: &level})
	if err != nil {
		t.Fatalf("LoadWithOverrides: %v", err)
	}
	if cfg.Addr != addr || cfg.LogLevel != level {
		t.Errorf("Addr, LogLevel = %q, %q; want %q, %q", cfg.Addr, cfg.LogLevel, addr, level)
	}
	if cfg.LogFormat != "json" {
		t.Errorf("LogFormat = %q, want json from file", cfg.LogFormat)
	}
}

func TestLoadWithOverrides_NoFile(t *testing.T) {
	driver := DriverSQLite
	if _, err := LoadWithOverrides("", Overrides{StoreDriver: &driver}); err == nil {
		t.Error("sqlite driver without path: want validation error")
	}
	db := ":memory:"
	cfg, err := LoadWithOverrides("", Overrides{StoreDriver: &driver, SQLitePath: &db})
	if err != nil {
		t.Fatalf("LoadWithOverrides: %v", err)
	}
	if cfg.Addr != ":8080" {
		t.Errorf("Addr = %q, want default", cfg.Addr)
	}
}

func TestDecode_DoesNotValidate(t *testing.T) {
	cfg, err := Decode([]byte("store:\n  driver: bogus\n"))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if cfg.Store.Driver != "bogus" {
		t.Errorf("Driver = %q", cfg.Store.Driver)
	}
	if _, err := Decode([]byte("adress: x\n")); err == nil {
		t.Error("unknown field: want error")
	}
}
