package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nonexistent.yml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.DataDir != ".ecomlens" {
		t.Errorf("DataDir = %q", cfg.DataDir)
	}
	if cfg.Concurrency != 4 {
		t.Errorf("Concurrency = %d", cfg.Concurrency)
	}
	if cfg.Server.Port != 8377 {
		t.Errorf("Server.Port = %d", cfg.Server.Port)
	}
	if cfg.AOV != 0 || cfg.ConversionRate != 0 {
		t.Errorf("financial overrides = %v/%v, want unset", cfg.AOV, cfg.ConversionRate)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config invalid: %v", err)
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".ecomlens.yml")
	content := `data_dir: /var/lib/ecomlens
inputs:
  - exports/*.jsonl
aov: 92.5
server:
  port: 9000
log:
  level: debug
  format: json
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("writing config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.DataDir != "/var/lib/ecomlens" {
		t.Errorf("DataDir = %q", cfg.DataDir)
	}
	if len(cfg.Inputs) != 1 || cfg.Inputs[0] != "exports/*.jsonl" {
		t.Errorf("Inputs = %v", cfg.Inputs)
	}
	if cfg.AOV != 92.5 {
		t.Errorf("AOV = %v", cfg.AOV)
	}
	if cfg.Server.Port != 9000 {
		t.Errorf("Server.Port = %d", cfg.Server.Port)
	}
	// File keys not set keep their defaults.
	if cfg.Server.Host != "127.0.0.1" {
		t.Errorf("Server.Host = %q", cfg.Server.Host)
	}
	if cfg.Log.Format != LogFormatJSON {
		t.Errorf("Log.Format = %q", cfg.Log.Format)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".ecomlens.yml")
	if err := os.WriteFile(path, []byte("data_dir: from_file\n"), 0644); err != nil {
		t.Fatalf("writing config: %v", err)
	}

	t.Setenv("ECOMLENS_DATA_DIR", "from_env")
	t.Setenv("ECOMLENS_SERVER__PORT", "9999")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.DataDir != "from_env" {
		t.Errorf("DataDir = %q, want the env override", cfg.DataDir)
	}
	if cfg.Server.Port != 9999 {
		t.Errorf("Server.Port = %d, want 9999", cfg.Server.Port)
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".ecomlens.yml")

	original := DefaultConfig()
	original.AOV = 75
	original.AlertWebhookURL = "https://hooks.example/ecomlens"
	if err := original.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.AOV != 75 {
		t.Errorf("AOV = %v", loaded.AOV)
	}
	if loaded.AlertWebhookURL != "https://hooks.example/ecomlens" {
		t.Errorf("AlertWebhookURL = %q", loaded.AlertWebhookURL)
	}
}

func TestValidateRejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty data_dir", func(c *Config) { c.DataDir = "" }},
		{"empty patterns_dir", func(c *Config) { c.PatternsDir = "" }},
		{"negative concurrency", func(c *Config) { c.Concurrency = -1 }},
		{"negative aov", func(c *Config) { c.AOV = -10 }},
		{"conversion above one", func(c *Config) { c.ConversionRate = 1.5 }},
		{"port out of range", func(c *Config) { c.Server.Port = 70000 }},
		{"bad log level", func(c *Config) { c.Log.Level = "verbose" }},
		{"bad log format", func(c *Config) { c.Log.Format = "xml" }},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestDatabasePath(t *testing.T) {
	cfg := &Config{DataDir: "/srv/ecomlens"}
	if got := cfg.DatabasePath(); got != filepath.Join("/srv/ecomlens", "ecomlens.db") {
		t.Errorf("DatabasePath = %q", got)
	}
}
