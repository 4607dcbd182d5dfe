package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := Default()

	if cfg.Workers != 1 {
		t.Errorf("expected default workers 1 (sequential), got %d", cfg.Workers)
	}
	if cfg.Timeout != 120*time.Second {
		t.Errorf("expected default timeout 120s, got %v", cfg.Timeout)
	}
	if cfg.ChunkSize != 8192 {
		t.Errorf("expected default chunk size 8192, got %d", cfg.ChunkSize)
	}
	if cfg.Delay != 500*time.Millisecond {
		t.Errorf("expected default delay 500ms, got %v", cfg.Delay)
	}
	if cfg.Retry.Attempts != 3 {
		t.Errorf("expected default retry attempts 3, got %d", cfg.Retry.Attempts)
	}
	if cfg.Retry.Backoff != time.Second {
		t.Errorf("expected default retry backoff 1s, got %v", cfg.Retry.Backoff)
	}
	if cfg.Retry.MaxBackoff != 30*time.Second {
		t.Errorf("expected default retry max backoff 30s, got %v", cfg.Retry.MaxBackoff)
	}
}

func TestLoadFromYAML(t *testing.T) {
	yamlContent := `
manifest: hospitals.csv
output: prices
workers: 4
timeout: 60s
chunk_size: 16KB
delay: 250ms
history_db: runs.db
retry:
  attempts: 5
  backoff: 2s
  max_backoff: 60s
`
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("write config file: %v", err)
	}

	cfg, err := LoadFromFile(configPath)
	if err != nil {
		t.Fatalf("LoadFromFile: %v", err)
	}

	if cfg.Manifest != "hospitals.csv" {
		t.Errorf("expected manifest hospitals.csv, got %s", cfg.Manifest)
	}
	if cfg.Output != "prices" {
		t.Errorf("expected output prices, got %s", cfg.Output)
	}
	if cfg.Workers != 4 {
		t.Errorf("expected workers 4, got %d", cfg.Workers)
	}
	if cfg.Timeout != 60*time.Second {
		t.Errorf("expected timeout 60s, got %v", cfg.Timeout)
	}
	if cfg.ChunkSize != 16*1024 {
		t.Errorf("expected chunk size 16KB, got %d", cfg.ChunkSize)
	}
	if cfg.Delay != 250*time.Millisecond {
		t.Errorf("expected delay 250ms, got %v", cfg.Delay)
	}
	if cfg.HistoryDB != "runs.db" {
		t.Errorf("expected history_db runs.db, got %s", cfg.HistoryDB)
	}
	if cfg.Retry.Attempts != 5 {
		t.Errorf("expected retry attempts 5, got %d", cfg.Retry.Attempts)
	}
	if cfg.Retry.Backoff != 2*time.Second {
		t.Errorf("expected retry backoff 2s, got %v", cfg.Retry.Backoff)
	}
	if cfg.Retry.MaxBackoff != 60*time.Second {
		t.Errorf("expected retry max backoff 60s, got %v", cfg.Retry.MaxBackoff)
	}
}

func TestLoadFromYAMLPartial(t *testing.T) {
	yamlContent := `
manifest: hospitals.csv
`
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("write config file: %v", err)
	}

	cfg, err := LoadFromFile(configPath)
	if err != nil {
		t.Fatalf("LoadFromFile: %v", err)
	}

	// Unset fields keep their defaults.
	if cfg.Timeout != 120*time.Second {
		t.Errorf("expected default timeout preserved, got %v", cfg.Timeout)
	}
	if cfg.Retry.Attempts != 3 {
		t.Errorf("expected default retry attempts preserved, got %d", cfg.Retry.Attempts)
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("MRFETCH_MANIFEST", "env.csv")
	t.Setenv("MRFETCH_OUTPUT", "env-out")
	t.Setenv("MRFETCH_WORKERS", "8")
	t.Setenv("MRFETCH_TIMEOUT", "90s")
	t.Setenv("MRFETCH_CHUNK_SIZE", "32KB")
	t.Setenv("MRFETCH_DELAY", "1s")
	t.Setenv("MRFETCH_HISTORY_DB", "env.db")
	t.Setenv("MRFETCH_RETRY_ATTEMPTS", "2")
	t.Setenv("MRFETCH_RETRY_BACKOFF", "500ms")
	t.Setenv("MRFETCH_RETRY_MAX_BACKOFF", "10s")

	cfg := Default()
	if err := cfg.LoadFromEnv(); err != nil {
		t.Fatalf("LoadFromEnv: %v", err)
	}

	if cfg.Manifest != "env.csv" {
		t.Errorf("expected manifest env.csv, got %s", cfg.Manifest)
	}
	if cfg.Output != "env-out" {
		t.Errorf("expected output env-out, got %s", cfg.Output)
	}
	if cfg.Workers != 8 {
		t.Errorf("expected workers 8, got %d", cfg.Workers)
	}
	if cfg.Timeout != 90*time.Second {
		t.Errorf("expected timeout 90s, got %v", cfg.Timeout)
	}
	if cfg.ChunkSize != 32*1024 {
		t.Errorf("expected chunk size 32KB, got %d", cfg.ChunkSize)
	}
	if cfg.Delay != time.Second {
		t.Errorf("expected delay 1s, got %v", cfg.Delay)
	}
	if cfg.HistoryDB != "env.db" {
		t.Errorf("expected history db env.db, got %s", cfg.HistoryDB)
	}
	if cfg.Retry.Attempts != 2 {
		t.Errorf("expected retry attempts 2, got %d", cfg.Retry.Attempts)
	}
	if cfg.Retry.Backoff != 500*time.Millisecond {
		t.Errorf("expected retry backoff 500ms, got %v", cfg.Retry.Backoff)
	}
	if cfg.Retry.MaxBackoff != 10*time.Second {
		t.Errorf("expected retry max backoff 10s, got %v", cfg.Retry.MaxBackoff)
	}
}

func TestLoadFromEnvInvalid(t *testing.T) {
	t.Setenv("MRFETCH_WORKERS", "not-a-number")

	cfg := Default()
	if err := cfg.LoadFromEnv(); err == nil {
		t.Error("expected error for invalid MRFETCH_WORKERS")
	}
}

func TestValidate(t *testing.T) {
	valid := Default()
	valid.Manifest = "hospitals.csv"

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid config", func(c *Config) {}, false},
		{"missing manifest", func(c *Config) { c.Manifest = "" }, true},
		{"missing output", func(c *Config) { c.Output = "" }, true},
		{"zero workers", func(c *Config) { c.Workers = 0 }, true},
		{"zero timeout", func(c *Config) { c.Timeout = 0 }, true},
		{"zero chunk size", func(c *Config) { c.ChunkSize = 0 }, true},
		{"negative delay", func(c *Config) { c.Delay = -time.Second }, true},
		{"zero delay ok", func(c *Config) { c.Delay = 0 }, false},
		{"zero retry attempts", func(c *Config) { c.Retry.Attempts = 0 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			tt.mutate(&cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestMerge(t *testing.T) {
	base := Default()
	base.Manifest = "base.csv"
	base.Output = "base-out"

	override := Config{
		Workers: 4,
		Delay:   time.Second,
		// Leave other fields at zero values
	}

	merged := base.Merge(override)

	if merged.Manifest != "base.csv" {
		t.Errorf("expected Manifest preserved, got %s", merged.Manifest)
	}
	if merged.Output != "base-out" {
		t.Errorf("expected Output preserved, got %s", merged.Output)
	}
	if merged.ChunkSize != 8192 {
		t.Errorf("expected ChunkSize preserved, got %d", merged.ChunkSize)
	}

	if merged.Workers != 4 {
		t.Errorf("expected Workers overridden to 4, got %d", merged.Workers)
	}
	if merged.Delay != time.Second {
		t.Errorf("expected Delay overridden to 1s, got %v", merged.Delay)
	}
}

func TestLoadYAMLFileNotFound(t *testing.T) {
	_, err := LoadFromFile("/nonexistent/path/config.yaml")
	if err == nil {
		t.Error("expected error for nonexistent file")
	}
}

func TestLoadYAMLInvalid(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte("invalid: [yaml: content"), 0644); err != nil {
		t.Fatalf("write config file: %v", err)
	}

	_, err := LoadFromFile(configPath)
	if err == nil {
		t.Error("expected error for invalid YAML")
	}
}
