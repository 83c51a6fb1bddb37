package config

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("TEST_VAR", "hello")

	tests := []struct {
		input    string
		expected string
	}{
		{"${TEST_VAR}", "hello"},
		{"${TEST_VAR:default}", "hello"},
		{"${UNSET_TOURDESK_VAR:fallback}", "fallback"},
		{"${UNSET_TOURDESK_VAR}", ""},
		{"no vars here", "no vars here"},
		{"prefix-${TEST_VAR}-suffix", "prefix-hello-suffix"},
	}

	for _, tt := range tests {
		got := expandEnvVars(tt.input)
		if got != tt.expected {
			t.Errorf("expandEnvVars(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
}

func TestLoadFile_WithEnvVars(t *testing.T) {
	t.Setenv("TEST_PORT", "7777")
	dir := t.TempDir()
	writeFile(t, dir, "main.yaml", `
server:
  host: "${TEST_HOST:127.0.0.1}"
  port: ${TEST_PORT}
rate_limit:
  requests: 3
  window: 30s
`)

	cfg := DefaultConfig()
	if err := LoadFile(filepath.Join(dir, "main.yaml"), cfg); err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}

	if cfg.Server.Host != "127.0.0.1" {
		t.Errorf("expected host 127.0.0.1 (default), got %s", cfg.Server.Host)
	}
	if cfg.Server.Port != 7777 {
		t.Errorf("expected port 7777, got %d", cfg.Server.Port)
	}
	if cfg.RateLimit.Requests != 3 || cfg.RateLimit.Window != 30*time.Second {
		t.Errorf("expected rate limit 3/30s, got %d/%s", cfg.RateLimit.Requests, cfg.RateLimit.Window)
	}
	// Untouched sections keep their defaults.
	if cfg.RateLimit.Backend != "memory" {
		t.Errorf("expected default backend memory, got %s", cfg.RateLimit.Backend)
	}
}

func TestConfigValidate(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should be valid: %v", err)
	}

	cfg.RateLimit.Backend = "memcached"
	cfg.RateLimit.Requests = 0
	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation error")
	}
	if !strings.Contains(err.Error(), "rate_limit.backend") || !strings.Contains(err.Error(), "rate_limit.requests") {
		t.Errorf("expected both rate limit problems reported, got: %v", err)
	}
}

func TestDatabaseDSN(t *testing.T) {
	d := DatabaseConfig{Host: "db", Port: 5432, Name: "tourdesk", User: "app", Password: "secret"}
	want := "postgres://app:secret@db:5432/tourdesk?sslmode=disable"
	if got := d.DSN(); got != want {
		t.Errorf("DSN() = %q, want %q", got, want)
	}
}

const testModels = `
models:
  content-default:
    primary:
      provider: gemini
      model: gemini-1.5-flash
`

const testProviders = `
providers:
  gemini:
    type: gemini
    base_url: https://generativelanguage.googleapis.com/v1beta
`

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestLoader_LoadDirectory(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, mainFile, "server:\n  port: 9000\n")
	writeFile(t, dir, modelsFile, `
models:
  content-default:
    primary:
      provider: gemini
      model: gemini-1.5-flash
pricing:
  gemini:
    gemini-1.5-flash:
      input: 0.075
      output: 0.3
`)
	writeFile(t, dir, providersFile, `
providers:
  gemini:
    type: gemini
    base_url: https://generativelanguage.googleapis.com/v1beta
    api_key: ${GEMINI_API_KEY:test-key}
    timeout: 45s
`)

	l := NewLoader(dir, discardLogger())
	if err := l.Load(); err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if l.Config().Server.Port != 9000 {
		t.Errorf("expected port 9000, got %d", l.Config().Server.Port)
	}
	if ttl := l.Config().Redis.DestinationCacheTTL; ttl != time.Minute {
		t.Errorf("expected default destination cache ttl of 1m, got %s", ttl)
	}
	route := l.Models().Models["content-default"].Primary
	if route.Provider != "gemini" || route.Model != "gemini-1.5-flash" {
		t.Errorf("unexpected primary route: %+v", route)
	}
	price, ok := l.Models().Price("gemini", "gemini-1.5-flash")
	if !ok || price.Output != 0.3 {
		t.Errorf("expected pricing for gemini-1.5-flash, got %+v (ok=%v)", price, ok)
	}
	p := l.Providers().Providers["gemini"]
	if p.APIKey != "test-key" || p.Timeout != 45*time.Second {
		t.Errorf("unexpected provider config: %+v", p)
	}
}

func TestLoader_MissingFile(t *testing.T) {
	l := NewLoader(t.TempDir(), discardLogger())
	if err := l.Load(); err == nil {
		t.Fatal("expected error for missing config files")
	}
}

func TestLoader_RejectsUnknownRoutes(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, mainFile, "generation:\n  itinerary_model: itinerary-default\n")
	writeFile(t, dir, modelsFile, `
models:
  content-default:
    primary:
      provider: gemini
      model: gemini-1.5-flash
    fallback:
      - provider: openai
        model: gpt-4o-mini
`)
	writeFile(t, dir, providersFile, testProviders+`
  local:
    type: vllm
`)

	err := NewLoader(dir, discardLogger()).Load()
	if err == nil {
		t.Fatal("expected route validation error")
	}
	for _, want := range []string{
		`generation.itinerary_model: model alias "itinerary-default"`,
		`unknown provider "openai"`,
		`provider "local" has unknown type "vllm"`,
	} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("expected error to contain %q, got: %v", want, err)
		}
	}
}

func TestLoader_WatchReloads(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, mainFile, "server:\n  port: 9000\n")
	writeFile(t, dir, modelsFile, testModels)
	writeFile(t, dir, providersFile, testProviders)

	l := NewLoader(dir, discardLogger())
	if err := l.Load(); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	reloaded := make(chan struct{}, 4)
	l.OnReload(func() { reloaded <- struct{}{} })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := l.Watch(ctx); err != nil {
		t.Fatalf("Watch failed: %v", err)
	}

	writeFile(t, dir, modelsFile, testModels+`
  itinerary-default:
    primary:
      provider: gemini
      model: gemini-1.5-pro
`)

	select {
	case <-reloaded:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for reload")
	}
	if _, ok := l.Models().Models["itinerary-default"]; !ok {
		t.Error("expected reloaded models to include itinerary-default")
	}
}

func TestLoader_InvalidReloadKeepsPreviousConfig(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, mainFile, "server:\n  port: 9000\n")
	writeFile(t, dir, modelsFile, testModels)
	writeFile(t, dir, providersFile, testProviders)

	l := NewLoader(dir, discardLogger())
	if err := l.Load(); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	called := false
	l.OnReload(func() { called = true })

	writeFile(t, dir, providersFile, "providers: {}\n")
	l.reload()

	if called {
		t.Error("expected listeners to be skipped after a rejected reload")
	}
	if _, ok := l.Providers().Providers["gemini"]; !ok {
		t.Error("expected previous providers to remain in place")
	}
}
