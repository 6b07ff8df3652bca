package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Store drivers accepted in StoreConfig.Driver.
const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverRedis    = "redis"
	DriverS3       = "s3"
)

// Config holds configuration for the Prodigy server, Lambda handler and CLI.
type Config struct {
	Addr      string `yaml:"addr"`       // Listen address (default ":8080")
	LogLevel  string `yaml:"log_level"`  // Log level: debug, info, warn, error
	LogFormat string `yaml:"log_format"` // Log format: text, json

	Store StoreConfig `yaml:"store"`

	// RateLimit caps mutating API requests per second; 0 disables limiting.
	RateLimit float64 `yaml:"rate_limit"`
	RateBurst int     `yaml:"rate_burst"`

	// Timezone used to evaluate trigger schedules (IANA name, default UTC).
	Timezone string          `yaml:"timezone"`
	Triggers []TriggerConfig `yaml:"triggers"`
}

// StoreConfig selects and configures the entry store.
type StoreConfig struct {
	Driver  string        `yaml:"driver"`
	Timeout time.Duration `yaml:"timeout"` // bound on every store round trip

	SQLitePath string `yaml:"sqlite_path"` // ":memory:" for testing

	PostgresDSN string `yaml:"postgres_dsn"`

	RedisAddr     string `yaml:"redis_addr"`
	RedisPassword string `yaml:"redis_password"`
	RedisDB       int    `yaml:"redis_db"`

	S3Bucket string `yaml:"s3_bucket"`
	S3Prefix string `yaml:"s3_prefix"`
	S3Region string `yaml:"s3_region"`
}

// TriggerConfig schedules periodic entry creation.
type TriggerConfig struct {
	Name       string `yaml:"name"`
	Schedule   string `yaml:"schedule"` // cron spec, optional seconds field, or @every/@hourly descriptors
	PayloadRef string `yaml:"payload_ref"`
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		Addr:      ":8080",
		LogLevel:  "info",
		LogFormat: "text",
		Store: StoreConfig{
			Driver:   DriverMemory,
			Timeout:  5 * time.Second,
			S3Prefix: "prodigy/entries/",
		},
		RateBurst: 10,
		Timezone:  "UTC",
	}
}

// Load reads a YAML config file on top of DefaultConfig and validates it.
// Unknown keys are rejected.
func Load(path string) (Config, error) {
	return LoadWithOverrides(path, Overrides{})
}

// LoadWithOverrides reads path (skipped when empty), applies o and only then
// validates, so a flag can supply a setting the file leaves out.
func LoadWithOverrides(path string, o Overrides) (Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		var err error
		if cfg, err = DecodeFile(path); err != nil {
			return cfg, err
		}
	}
	cfg = o.Apply(cfg)
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Parse decodes YAML config bytes on top of DefaultConfig and validates the result.
func Parse(b []byte) (Config, error) {
	cfg, err := Decode(b)
	if err != nil {
		return cfg, err
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// DecodeFile reads and decodes a config file without validating it.
func DecodeFile(path string) (Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return DefaultConfig(), fmt.Errorf("read config %s: %w", path, err)
	}
	return Decode(b)
}

// Decode decodes YAML config bytes on top of DefaultConfig without validating.
func Decode(b []byte) (Config, error) {
	cfg := DefaultConfig()
	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

// Overrides carries settings given on the command line. Nil fields keep the
// value from the file.
type Overrides struct {
	Addr        *string
	LogLevel    *string
	LogFormat   *string
	StoreDriver *string
	SQLitePath  *string
}

// Apply returns cfg with every non-nil override set.
func (o Overrides) Apply(cfg Config) Config {
	set := func(dst *string, v *string) {
		if v != nil {
			*dst = *v
		}
	}
	set(&cfg.Addr, o.Addr)
	set(&cfg.LogLevel, o.LogLevel)
	set(&cfg.LogFormat, o.LogFormat)
	set(&cfg.Store.Driver, o.StoreDriver)
	set(&cfg.Store.SQLitePath, o.SQLitePath)
	return cfg
}

// Validate checks driver-specific requirements and trigger definitions.
func (c Config) Validate() error {
	var problems []string

	switch c.Store.Driver {
	case DriverMemory:
	case DriverSQLite:
		if c.Store.SQLitePath == "" {
			problems = append(problems, "store.sqlite_path is required for the sqlite driver")
		}
	case DriverPostgres:
		if c.Store.PostgresDSN == "" {
			problems = append(problems, "store.postgres_dsn is required for the postgres driver")
		}
	case DriverRedis:
		if c.Store.RedisAddr == "" {
			problems = append(problems, "store.redis_addr is required for the redis driver")
		}
	case DriverS3:
		if c.Store.S3Bucket == "" {
			problems = append(problems, "store.s3_bucket is required for the s3 driver")
		}
	default:
		problems = append(problems, fmt.Sprintf("unknown store.driver %q", c.Store.Driver))
	}
	if c.Store.Timeout <= 0 {
		problems = append(problems, "store.timeout must be positive")
	}
	if c.RateLimit < 0 {
		problems = append(problems, "rate_limit must not be negative")
	}
	if c.RateLimit > 0 && c.RateBurst < 1 {
		problems = append(problems, "rate_burst must be at least 1 when rate_limit is set")
	}

	seen := make(map[string]bool)
	for i, tr := range c.Triggers {
		if tr.Name == "" {
			problems = append(problems, fmt.Sprintf("triggers[%d].name is required", i))
		} else if seen[tr.Name] {
			problems = append(problems, fmt.Sprintf("duplicate trigger name %q", tr.Name))
		}
		seen[tr.Name] = true
		if strings.TrimSpace(tr.Schedule) == "" {
			problems = append(problems, fmt.Sprintf("triggers[%d].schedule is required", i))
		}
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid config: %s", strings.Join(problems, "; "))
	}
	return nil
}
