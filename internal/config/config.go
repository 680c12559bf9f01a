package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// DefaultBackendURL is the compiled-in fallback when neither configuration nor
// runtime discovery supplies a backend address.
const DefaultBackendURL = "http://localhost:8099"

// envPrefix is stripped from environment overrides. Double underscore nests,
// single underscore stays literal: DASHBOARD_BACKEND__URL -> backend.url,
// DASHBOARD_LOG_LEVEL -> log_level.
const envPrefix = "DASHBOARD_"

// Config represents the application configuration
type Config struct {
	Server   ServerConfig  `koanf:"server"`
	Backend  BackendConfig `koanf:"backend"`
	Cache    CacheConfig   `koanf:"cache"`
	Poll     PollConfig    `koanf:"poll"`
	LogLevel string        `koanf:"log_level"` // debug | info | warn | error
}

// ServerConfig represents HTTP server configuration
type ServerConfig struct {
	Addr         string        `koanf:"addr"`
	ReadTimeout  time.Duration `koanf:"read_timeout"`
	WriteTimeout time.Duration `koanf:"write_timeout"`
	BasePath     string        `koanf:"base_path"` // Optional base path for reverse proxy (e.g., "/dashboard")
}

// BackendConfig describes how to reach the fleet backend REST API.
type BackendConfig struct {
	// URL is the backend base address. When empty it is resolved at startup:
	// first from the discovery endpoint (if configured), then from the
	// compiled-in default. Environment overrides land here via DASHBOARD_BACKEND__URL.
	URL string `koanf:"url"`
	// APIPrefix is the version prefix of the backend routes. Older backends
	// served unversioned paths; set this to "/" for those.
	APIPrefix    string        `koanf:"api_prefix"`
	DiscoveryURL string        `koanf:"discovery_url"` // optional runtime /api/config endpoint
	Timeout      time.Duration `koanf:"timeout"`
	TLS          *TLSConfig    `koanf:"tls"`
}

// TLSConfig represents TLS configuration for the backend client
type TLSConfig struct {
	CA   string `koanf:"ca"`
	Cert string `koanf:"cert"`
	Key  string `koanf:"key"`
}

// CacheConfig represents snapshot cache configuration
type CacheConfig struct {
	TTL time.Duration `koanf:"ttl"`
}

// PollConfig controls the background refresh loop.
type PollConfig struct {
	Interval time.Duration `koanf:"interval"`
	// Trailing windows requested from the backend, passed as ?minutes=N.
	HeartbeatWindow    time.Duration `koanf:"heartbeat_window"`
	ConnectivityWindow time.Duration `koanf:"connectivity_window"`
	MaxConcurrent      int           `koanf:"max_concurrent"` // per-instance fetch fan-out limit
}

// Load loads configuration from the specified file, then applies environment
// overrides (DASHBOARD_ prefix, underscores as separators).
func Load(configPath string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, envPrefix)), "__", ".")
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment overrides: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server.ReadTimeout <= 0 {
		c.Server.ReadTimeout = 10 * time.Second
	}
	if c.Server.WriteTimeout <= 0 {
		c.Server.WriteTimeout = 30 * time.Second
	}
	if c.Backend.APIPrefix == "" {
		c.Backend.APIPrefix = "/v1"
	}
	if c.Backend.Timeout <= 0 {
		c.Backend.Timeout = 15 * time.Second
	}
	if c.Cache.TTL <= 0 {
		c.Cache.TTL = 30 * time.Second
	}
	if c.Poll.Interval <= 0 {
		c.Poll.Interval = 30 * time.Second
	}
	if c.Poll.HeartbeatWindow <= 0 {
		c.Poll.HeartbeatWindow = 24 * time.Hour
	}
	if c.Poll.ConnectivityWindow <= 0 {
		c.Poll.ConnectivityWindow = 24 * time.Hour
	}
	if c.Poll.MaxConcurrent <= 0 {
		c.Poll.MaxConcurrent = 8
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return fmt.Errorf("server.addr is required")
	}

	if c.Server.BasePath != "" && !strings.HasPrefix(c.Server.BasePath, "/") {
		return fmt.Errorf("server.base_path must start with '/'")
	}

	if !strings.HasPrefix(c.Backend.APIPrefix, "/") {
		return fmt.Errorf("backend.api_prefix must start with '/'")
	}

	if c.Backend.TLS != nil {
		if (c.Backend.TLS.Cert == "") != (c.Backend.TLS.Key == "") {
			return fmt.Errorf("backend.tls.cert and backend.tls.key must be set together")
		}
	}

	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log_level must be one of debug, info, warn, error")
	}

	return nil
}
