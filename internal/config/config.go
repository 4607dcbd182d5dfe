package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"mrfetch/internal/progress"
)

// Config defines configuration for the mrfetch CLI.
type Config struct {
	Manifest  string        // path to the CSV manifest
	Output    string        // output directory or bucket URL
	Workers   int           // parallel transfers; 1 means strictly sequential
	Timeout   time.Duration // per-request timeout
	ChunkSize int           // streaming buffer size in bytes
	Delay     time.Duration // pause between dispatching requests
	HistoryDB string        // optional SQLite run-history database
	Retry     RetryConfig
}

// RetryConfig defines retry behavior for transport failures.
type RetryConfig struct {
	Attempts   int           // total attempts per item
	Backoff    time.Duration // base wait; doubles per retry
	MaxBackoff time.Duration
}

// Default returns a Config with sensible defaults. Workers defaults to
// 1: downloads run sequentially to stay polite toward source servers.
func Default() Config {
	return Config{
		Output:    "downloads",
		Workers:   1,
		Timeout:   120 * time.Second,
		ChunkSize: 8192,
		Delay:     500 * time.Millisecond,
		Retry: RetryConfig{
			Attempts:   3,
			Backoff:    time.Second,
			MaxBackoff: 30 * time.Second,
		},
	}
}

// yamlConfig is used for YAML unmarshaling with string durations and
// byte sizes.
type yamlConfig struct {
	Manifest  string          `yaml:"manifest"`
	Output    string          `yaml:"output"`
	Workers   int             `yaml:"workers"`
	Timeout   string          `yaml:"timeout"`
	ChunkSize string          `yaml:"chunk_size"`
	Delay     string          `yaml:"delay"`
	HistoryDB string          `yaml:"history_db"`
	Retry     yamlRetryConfig `yaml:"retry"`
}

type yamlRetryConfig struct {
	Attempts   int    `yaml:"attempts"`
	Backoff    string `yaml:"backoff"`
	MaxBackoff string `yaml:"max_backoff"`
}

// LoadFromFile loads configuration from a YAML file.
func LoadFromFile(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config file: %w", err)
	}

	var yc yamlConfig
	if err := yaml.Unmarshal(data, &yc); err != nil {
		return Config{}, fmt.Errorf("parse config file: %w", err)
	}

	cfg := Default()

	if yc.Manifest != "" {
		cfg.Manifest = yc.Manifest
	}
	if yc.Output != "" {
		cfg.Output = yc.Output
	}
	if yc.Workers != 0 {
		cfg.Workers = yc.Workers
	}
	if yc.Timeout != "" {
		d, err := time.ParseDuration(yc.Timeout)
		if err != nil {
			return Config{}, fmt.Errorf("parse timeout: %w", err)
		}
		cfg.Timeout = d
	}
	if yc.ChunkSize != "" {
		size, err := progress.ParseBytes(yc.ChunkSize)
		if err != nil {
			return Config{}, fmt.Errorf("parse chunk_size: %w", err)
		}
		cfg.ChunkSize = int(size)
	}
	if yc.Delay != "" {
		d, err := time.ParseDuration(yc.Delay)
		if err != nil {
			return Config{}, fmt.Errorf("parse delay: %w", err)
		}
		cfg.Delay = d
	}
	if yc.HistoryDB != "" {
		cfg.HistoryDB = yc.HistoryDB
	}
	if yc.Retry.Attempts != 0 {
		cfg.Retry.Attempts = yc.Retry.Attempts
	}
	if yc.Retry.Backoff != "" {
		d, err := time.ParseDuration(yc.Retry.Backoff)
		if err != nil {
			return Config{}, fmt.Errorf("parse retry.backoff: %w", err)
		}
		cfg.Retry.Backoff = d
	}
	if yc.Retry.MaxBackoff != "" {
		d, err := time.ParseDuration(yc.Retry.MaxBackoff)
		if err != nil {
			return Config{}, fmt.Errorf("parse retry.max_backoff: %w", err)
		}
		cfg.Retry.MaxBackoff = d
	}

	return cfg, nil
}

// LoadFromEnv loads configuration from environment variables.
// Environment variables use the MRFETCH_ prefix.
func (c *Config) LoadFromEnv() error {
	if v := os.Getenv("MRFETCH_MANIFEST"); v != "" {
		c.Manifest = v
	}
	if v := os.Getenv("MRFETCH_OUTPUT"); v != "" {
		c.Output = v
	}
	if v := os.Getenv("MRFETCH_WORKERS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("parse MRFETCH_WORKERS: %w", err)
		}
		c.Workers = n
	}
	if v := os.Getenv("MRFETCH_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("parse MRFETCH_TIMEOUT: %w", err)
		}
		c.Timeout = d
	}
	if v := os.Getenv("MRFETCH_CHUNK_SIZE"); v != "" {
		size, err := progress.ParseBytes(v)
		if err != nil {
			return fmt.Errorf("parse MRFETCH_CHUNK_SIZE: %w", err)
		}
		c.ChunkSize = int(size)
	}
	if v := os.Getenv("MRFETCH_DELAY"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("parse MRFETCH_DELAY: %w", err)
		}
		c.Delay = d
	}
	if v := os.Getenv("MRFETCH_HISTORY_DB"); v != "" {
		c.HistoryDB = v
	}
	if v := os.Getenv("MRFETCH_RETRY_ATTEMPTS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("parse MRFETCH_RETRY_ATTEMPTS: %w", err)
		}
		c.Retry.Attempts = n
	}
	if v := os.Getenv("MRFETCH_RETRY_BACKOFF"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("parse MRFETCH_RETRY_BACKOFF: %w", err)
		}
		c.Retry.Backoff = d
	}
	if v := os.Getenv("MRFETCH_RETRY_MAX_BACKOFF"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("parse MRFETCH_RETRY_MAX_BACKOFF: %w", err)
		}
		c.Retry.MaxBackoff = d
	}

	return nil
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Manifest == "" {
		return errors.New("config: manifest is required")
	}
	if c.Output == "" {
		return errors.New("config: output is required")
	}
	if c.Workers <= 0 {
		return errors.New("config: workers must be positive")
	}
	if c.Timeout <= 0 {
		return errors.New("config: timeout must be positive")
	}
	if c.ChunkSize <= 0 {
		return errors.New("config: chunk_size must be positive")
	}
	if c.Delay < 0 {
		return errors.New("config: delay must not be negative")
	}
	if c.Retry.Attempts <= 0 {
		return errors.New("config: retry.attempts must be positive")
	}
	return nil
}

// Merge merges override values into c, returning a new Config.
// Zero values in override are ignored.
func (c Config) Merge(override Config) Config {
	if override.Manifest != "" {
		c.Manifest = override.Manifest
	}
	if override.Output != "" {
		c.Output = override.Output
	}
	if override.Workers != 0 {
		c.Workers = override.Workers
	}
	if override.Timeout != 0 {
		c.Timeout = override.Timeout
	}
	if override.ChunkSize != 0 {
		c.ChunkSize = override.ChunkSize
	}
	if override.Delay != 0 {
		c.Delay = override.Delay
	}
	if override.HistoryDB != "" {
		c.HistoryDB = override.HistoryDB
	}
	if override.Retry.Attempts != 0 {
		c.Retry.Attempts = override.Retry.Attempts
	}
	if override.Retry.Backoff != 0 {
		c.Retry.Backoff = override.Retry.Backoff
	}
	if override.Retry.MaxBackoff != 0 {
		c.Retry.MaxBackoff = override.Retry.MaxBackoff
	}
	return c
}
