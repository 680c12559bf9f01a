package config

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	path := writeConfig(t, `
server:
  addr: ":8080"
backend:
  url: "http://backend:8099"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, "http://backend:8099", cfg.Backend.URL)
	assert.Equal(t, "/v1", cfg.Backend.APIPrefix)
	assert.Equal(t, 30*time.Second, cfg.Cache.TTL)
	assert.Equal(t, 30*time.Second, cfg.Poll.Interval)
	assert.Equal(t, 24*time.Hour, cfg.Poll.HeartbeatWindow)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("DASHBOARD_BACKEND__URL", "http://override:9000")

	path := writeConfig(t, `
server:
  addr: ":8080"
backend:
  url: "http://backend:8099"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "http://override:9000", cfg.Backend.URL)
}

func TestLoad_MissingServerAddr(t *testing.T) {
	path := writeConfig(t, `
backend:
  url: "http://backend:8099"
`)

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "server.addr")
}

func TestLoad_BadAPIPrefix(t *testing.T) {
	path := writeConfig(t, `
server:
  addr: ":8080"
backend:
  api_prefix: "v1"
`)

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "api_prefix")
}

func TestLoad_BadBasePath(t *testing.T) {
	path := writeConfig(t, `
server:
  addr: ":8080"
  base_path: "dashboard"
`)

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "base_path")
}

func TestLoad_MismatchedTLSPair(t *testing.T) {
	path := writeConfig(t, `
server:
  addr: ":8080"
backend:
  tls:
    cert: "/tmp/cert.pem"
`)

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "tls")
}

func TestResolveBackendURL_ExplicitWins(t *testing.T) {
	cfg := &Config{Backend: BackendConfig{URL: "http://explicit:1"}}

	ResolveBackendURL(context.Background(), cfg, slog.Default())

	assert.Equal(t, "http://explicit:1", cfg.Backend.URL)
}

func TestResolveBackendURL_Discovery(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"backend_url":"http://discovered:8099"}`))
	}))
	defer srv.Close()

	cfg := &Config{Backend: BackendConfig{DiscoveryURL: srv.URL}}

	ResolveBackendURL(context.Background(), cfg, slog.Default())

	assert.Equal(t, "http://discovered:8099", cfg.Backend.URL)
}

func TestResolveBackendURL_DiscoveryUnreachableFallsBack(t *testing.T) {
	srv := httptest.NewServer(nil)
	srv.Close() // guaranteed-dead endpoint

	cfg := &Config{Backend: BackendConfig{DiscoveryURL: srv.URL}}

	ResolveBackendURL(context.Background(), cfg, slog.Default())

	assert.Equal(t, DefaultBackendURL, cfg.Backend.URL)
}

func TestResolveBackendURL_NoSourcesUsesDefault(t *testing.T) {
	cfg := &Config{}

	ResolveBackendURL(context.Background(), cfg, slog.Default())

	assert.Equal(t, DefaultBackendURL, cfg.Backend.URL)
}
