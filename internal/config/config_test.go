package config

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"sync/atomic"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	yamlContent := []byte(`
gateway:
  url: "https://gw.example.com"
auth:
  session_path: "/tmp/stockdash/session"
storage:
  data_dir: "/tmp/stockdash/data"
  sqlite_path: "/tmp/stockdash/stockdash.db"
cache:
  minutes: 5
logging:
  level: "debug"
export:
  window: "week"
  rate_limit_per_min: 60
`)

	tmpFile, err := os.CreateTemp("", "stockdash-config-*.yaml")
	if err != nil {
		t.Fatalf("failed to create temp file: %v", err)
	}
	defer os.Remove(tmpFile.Name())

	if _, err := tmpFile.Write(yamlContent); err != nil {
		t.Fatalf("failed to write temp file: %v", err)
	}
	if err := tmpFile.Close(); err != nil {
		t.Fatalf("failed to close temp file: %v", err)
	}

	// Clear any environment overrides that might interfere.
	os.Unsetenv("STOCKDASH_GATEWAY_URL")
	os.Unsetenv("STOCKDASH_TOKEN")
	os.Unsetenv("STOCKDASH_DATA_DIR")
	os.Unsetenv("STOCKDASH_CACHE_MINUTES")
	os.Unsetenv("LOG_LEVEL")

	cfg, err := Load(tmpFile.Name())
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}

	if cfg.Gateway.URL != "https://gw.example.com" {
		t.Errorf("Gateway.URL = %q, want %q", cfg.Gateway.URL, "https://gw.example.com")
	}
	if cfg.Storage.DataDir != "/tmp/stockdash/data" {
		t.Errorf("Storage.DataDir = %q, want %q", cfg.Storage.DataDir, "/tmp/stockdash/data")
	}
	if cfg.Cache.Minutes != 5 {
		t.Errorf("Cache.Minutes = %d, want 5", cfg.Cache.Minutes)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want %q", cfg.Logging.Level, "debug")
	}
	if cfg.Export.Window != "week" {
		t.Errorf("Export.Window = %q, want %q", cfg.Export.Window, "week")
	}
	// Unset fields fall back to defaults.
	if cfg.Export.MaxAttempts != 3 {
		t.Errorf("Export.MaxAttempts = %d, want default 3", cfg.Export.MaxAttempts)
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	os.Unsetenv("STOCKDASH_GATEWAY_URL")
	os.Unsetenv("STOCKDASH_CACHE_MINUTES")

	cfg, err := Load("/nonexistent/stockdash.yaml")
	if err != nil {
		t.Fatalf("Load() returned error for missing file: %v", err)
	}
	if cfg.Gateway.URL != DefaultGatewayURL {
		t.Errorf("Gateway.URL = %q, want default", cfg.Gateway.URL)
	}
	if cfg.Cache.Minutes != 3 {
		t.Errorf("Cache.Minutes = %d, want default 3", cfg.Cache.Minutes)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	yamlContent := []byte(`
gateway:
  url: "https://yaml.example.com"
cache:
  minutes: 2
`)

	tmpFile, err := os.CreateTemp("", "stockdash-config-env-*.yaml")
	if err != nil {
		t.Fatalf("failed to create temp file: %v", err)
	}
	defer os.Remove(tmpFile.Name())

	if _, err := tmpFile.Write(yamlContent); err != nil {
		t.Fatalf("failed to write temp file: %v", err)
	}
	tmpFile.Close()

	os.Setenv("STOCKDASH_GATEWAY_URL", "https://env.example.com")
	os.Setenv("STOCKDASH_CACHE_MINUTES", "4")
	defer os.Unsetenv("STOCKDASH_GATEWAY_URL")
	defer os.Unsetenv("STOCKDASH_CACHE_MINUTES")

	cfg, err := Load(tmpFile.Name())
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}

	if cfg.Gateway.URL != "https://env.example.com" {
		t.Errorf("Gateway.URL = %q, want env override", cfg.Gateway.URL)
	}
	if cfg.Cache.Minutes != 4 {
		t.Errorf("Cache.Minutes = %d, want env override 4", cfg.Cache.Minutes)
	}
}

func TestCacheMinutesClamped(t *testing.T) {
	os.Unsetenv("STOCKDASH_CACHE_MINUTES")
	for _, bad := range []string{"minutes: 0", "minutes: 9", "minutes: -1"} {
		tmpFile, err := os.CreateTemp("", "stockdash-clamp-*.yaml")
		if err != nil {
			t.Fatal(err)
		}
		tmpFile.WriteString("cache:\n  " + bad + "\n")
		tmpFile.Close()

		cfg, err := Load(tmpFile.Name())
		os.Remove(tmpFile.Name())
		if err != nil {
			t.Fatalf("Load(%q): %v", bad, err)
		}
		if cfg.Cache.Minutes != 3 {
			t.Errorf("Cache.Minutes for %q = %d, want clamped default 3", bad, cfg.Cache.Minutes)
		}
	}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestResolverFetchesOnce(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Write([]byte(`{"LOCAL_GATEWAY_URL":"https://resolved.example.com","GOOGLE_CLIENT_ID":"gid"}`))
	}))
	defer srv.Close()

	r := NewResolver("https://fallback.example.com", srv.URL, discardLogger())
	ctx := context.Background()

	r.Resolve(ctx)
	r.Resolve(ctx)
	r.Resolve(ctx)

	if n := calls.Load(); n != 1 {
		t.Errorf("config endpoint called %d times, want 1", n)
	}
	if got := r.GatewayURL(); got != "https://resolved.example.com" {
		t.Errorf("GatewayURL = %q, want resolved URL", got)
	}
	if r.GoogleClientID() != "gid" {
		t.Errorf("GoogleClientID = %q, want gid", r.GoogleClientID())
	}
}

func TestResolverFailureFallsBack(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	r := NewResolver("https://fallback.example.com", srv.URL, discardLogger())
	r.Resolve(context.Background())

	if got := r.GatewayURL(); got != "https://fallback.example.com" {
		t.Errorf("GatewayURL = %q, want fallback", got)
	}
}

func TestResolverNoConfigURL(t *testing.T) {
	r := NewResolver("", "", discardLogger())
	r.Resolve(context.Background())
	if got := r.GatewayURL(); got != DefaultGatewayURL {
		t.Errorf("GatewayURL = %q, want built-in default", got)
	}
}
