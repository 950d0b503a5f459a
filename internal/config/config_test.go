package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.HTTPAddr != ":8080" {
		t.Errorf("expected :8080, got %s", cfg.HTTPAddr)
	}
	if cfg.LockTTL() != 30*time.Second {
		t.Errorf("expected 30s lock TTL, got %v", cfg.LockTTL())
	}
	if cfg.RedisAddr != "" {
		t.Errorf("expected redis disabled by default, got %s", cfg.RedisAddr)
	}
}

func TestLoad_YAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	raw := []byte("http_addr: \":9090\"\nredis_addr: \"redis:6379\"\nlock_ttl_seconds: 10\n")
	if err := os.WriteFile(path, raw, 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.HTTPAddr != ":9090" {
		t.Errorf("expected :9090, got %s", cfg.HTTPAddr)
	}
	if cfg.RedisAddr != "redis:6379" {
		t.Errorf("expected redis:6379, got %s", cfg.RedisAddr)
	}
	if cfg.LockTTL() != 10*time.Second {
		t.Errorf("expected 10s lock TTL, got %v", cfg.LockTTL())
	}
	if cfg.LogLevel != "info" {
		t.Errorf("expected unset fields to keep defaults, got %s", cfg.LogLevel)
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("http_addr: \":9090\"\n"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("HTTP_ADDR", ":7070")
	t.Setenv("REDIS_LOCK_TTL", "5")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.HTTPAddr != ":7070" {
		t.Errorf("expected env to win, got %s", cfg.HTTPAddr)
	}
	if cfg.LockTTLSeconds != 5 {
		t.Errorf("expected 5, got %d", cfg.LockTTLSeconds)
	}
}

func TestLoad_MissingFileIsAnError(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("expected error for unreadable config path")
	}
}

func TestLoad_MalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("http_addr: [:::"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Error("expected parse error")
	}
}
