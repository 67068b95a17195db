package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/annolab/corpus-manager/internal/config"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yml")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoad_DefaultsApplied(t *testing.T) {
	path := writeConfig(t, `
database:
  host: localhost
  user: corpus
  dbname: corpus
`)

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Server.Port != 8060 {
		t.Errorf("default port not applied: %d", cfg.Server.Port)
	}
	if cfg.Database.Port != 5432 {
		t.Errorf("default db port not applied: %d", cfg.Database.Port)
	}
	if cfg.Database.SSLMode != "disable" {
		t.Errorf("default sslmode not applied: %q", cfg.Database.SSLMode)
	}
	if cfg.Upload.PipelineTimeout != 2*time.Minute {
		t.Errorf("default pipeline timeout not applied: %v", cfg.Upload.PipelineTimeout)
	}
	if cfg.Upload.MaxFileSize != 10<<20 {
		t.Errorf("default max file size not applied: %d", cfg.Upload.MaxFileSize)
	}
	if cfg.Storage.ExportURLTTL != time.Hour {
		t.Errorf("default export url ttl not applied: %v", cfg.Storage.ExportURLTTL)
	}
}

func TestLoad_YAMLValues(t *testing.T) {
	path := writeConfig(t, `
debug: true
server:
  host: 127.0.0.1
  port: 9000
database:
  host: db.internal
  port: 5433
  user: corpus
  password: secret
  dbname: corpus_prod
  sslmode: require
redis:
  enabled: true
  address: redis.internal:6379
storage:
  bucket: corpus-exports
upload:
  pipeline_timeout: 45s
  max_file_size: 1048576
`)

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !cfg.Debug || cfg.Server.Port != 9000 {
		t.Errorf("yaml values not applied: %+v", cfg)
	}
	if cfg.Database.Host != "db.internal" || cfg.Database.SSLMode != "require" {
		t.Errorf("yaml database values not applied: %+v", cfg.Database)
	}
	if !cfg.Redis.Enabled || cfg.Redis.Address != "redis.internal:6379" {
		t.Errorf("yaml redis values not applied: %+v", cfg.Redis)
	}
	if cfg.Storage.Bucket != "corpus-exports" {
		t.Errorf("yaml storage values not applied: %+v", cfg.Storage)
	}
	if cfg.Upload.PipelineTimeout != 45*time.Second || cfg.Upload.MaxFileSize != 1048576 {
		t.Errorf("yaml upload values not applied: %+v", cfg.Upload)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	path := writeConfig(t, `
database:
  host: localhost
  user: corpus
  dbname: corpus
`)

	t.Setenv("SERVER_PORT", "8081")
	t.Setenv("DB_HOST", "override.internal")
	t.Setenv("REDIS_EVENTS_ENABLED", "true")
	t.Setenv("STORAGE_BUCKET", "override-bucket")

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Server.Port != 8081 {
		t.Errorf("SERVER_PORT override not applied: %d", cfg.Server.Port)
	}
	if cfg.Database.Host != "override.internal" {
		t.Errorf("DB_HOST override not applied: %q", cfg.Database.Host)
	}
	if !cfg.Redis.Enabled {
		t.Error("REDIS_EVENTS_ENABLED override not applied")
	}
	if cfg.Storage.Bucket != "override-bucket" {
		t.Errorf("STORAGE_BUCKET override not applied: %q", cfg.Storage.Bucket)
	}
}

func TestLoad_MissingRequiredFields(t *testing.T) {
	path := writeConfig(t, `
database:
  host: localhost
`)

	if _, err := config.Load(path); err == nil {
		t.Fatal("expected validation error for missing database user and name")
	}
}

func TestLoad_MissingFileUsesEnv(t *testing.T) {
	t.Setenv("DB_HOST", "env-only")
	t.Setenv("DB_USER", "corpus")
	t.Setenv("DB_NAME", "corpus")

	cfg, err := config.Load(filepath.Join(t.TempDir(), "absent.yml"))
	if err != nil {
		t.Fatalf("missing file should fall back to env: %v", err)
	}
	if cfg.Database.Host != "env-only" {
		t.Errorf("env-only config not applied: %q", cfg.Database.Host)
	}
}
