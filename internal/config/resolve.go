package config

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

// discoveryResponse is the payload of a deployment-local discovery endpoint
// that hands browsers (and this process) the backend address at runtime.
type discoveryResponse struct {
	BackendURL string `json:"backend_url"`
}

// ResolveBackendURL fills in Backend.URL when the config file and environment
// left it empty. Resolution order: explicit value, discovery endpoint,
// compiled-in default. The result is written back into cfg exactly once at
// startup; nothing re-resolves later.
func ResolveBackendURL(ctx context.Context, cfg *Config, log *slog.Logger) {
	if cfg.Backend.URL != "" {
		return
	}

	if cfg.Backend.DiscoveryURL != "" {
		url, err := fetchDiscoveredURL(ctx, cfg.Backend.DiscoveryURL)
		if err != nil {
			log.Warn("backend discovery failed, falling back to default",
				slog.String("discovery_url", cfg.Backend.DiscoveryURL),
				slog.String("error", err.Error()),
			)
		} else if url != "" {
			log.Info("backend url discovered",
				slog.String("backend_url", url),
			)
			cfg.Backend.URL = url
			return
		}
	}

	cfg.Backend.URL = DefaultBackendURL
}

func fetchDiscoveredURL(ctx context.Context, discoveryURL string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, discoveryURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to build discovery request: %w", err)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("discovery request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("discovery endpoint returned status %d", resp.StatusCode)
	}

	var payload discoveryResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("failed to decode discovery response: %w", err)
	}

	return payload.BackendURL, nil
}
