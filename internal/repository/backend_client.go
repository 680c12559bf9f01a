package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/hafleet/dashboard/internal/config"
	"github.com/hafleet/dashboard/internal/model"
	"github.com/hafleet/dashboard/internal/util"
)

// ErrNotFound is returned when the backend answers 404 for a resource.
var ErrNotFound = errors.New("not found")

// FleetBackend defines the interface for the fleet backend REST API.
type FleetBackend interface {
	ListInstances(ctx context.Context) ([]model.Instance, error)
	GetInstance(ctx context.Context, id string) (*model.Instance, error)
	GetSystemInfo(ctx context.Context, id string) (*model.SystemInfo, error)
	ListUpdates(ctx context.Context, id string) ([]model.AvailableUpdate, error)
	ListHeartbeats(ctx context.Context, id string, window time.Duration) ([]model.Heartbeat, error)
	ListConnectivityChecks(ctx context.Context, id string, window time.Duration) ([]model.ConnectivityCheck, error)
	ListEnrollmentCodes(ctx context.Context) ([]model.EnrollmentCode, error)
	CreateEnrollmentCode(ctx context.Context) (*model.EnrollmentCode, error)
	TriggerUpdate(ctx context.Context, id string) error
	DeleteInstance(ctx context.Context, id string) error
}

// backendClient implements FleetBackend over HTTP/JSON
type backendClient struct {
	baseURL    string
	apiPrefix  string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewBackendClient creates a typed client for the fleet backend.
func NewBackendClient(cfg *config.BackendConfig, logger *slog.Logger) (FleetBackend, error) {
	tlsConfig, err := util.LoadTLSConfig(cfg.TLS)
	if err != nil {
		return nil, fmt.Errorf("failed to load backend TLS config: %w", err)
	}

	transport := http.DefaultTransport
	if tlsConfig != nil {
		transport = &http.Transport{TLSClientConfig: tlsConfig}
	}

	return &backendClient{
		baseURL:   strings.TrimSuffix(cfg.URL, "/"),
		apiPrefix: strings.TrimSuffix(cfg.APIPrefix, "/"),
		httpClient: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: transport,
		},
		logger: logger,
	}, nil
}

func (c *backendClient) ListInstances(ctx context.Context) ([]model.Instance, error) {
	var instances []model.Instance
	if err := c.getJSON(ctx, "/instances", nil, &instances); err != nil {
		return nil, fmt.Errorf("failed to list instances: %w", err)
	}
	return instances, nil
}

func (c *backendClient) GetInstance(ctx context.Context, id string) (*model.Instance, error) {
	var instance model.Instance
	if err := c.getJSON(ctx, "/instances/"+url.PathEscape(id), nil, &instance); err != nil {
		return nil, fmt.Errorf("failed to get instance %s: %w", id, err)
	}
	return &instance, nil
}

func (c *backendClient) GetSystemInfo(ctx context.Context, id string) (*model.SystemInfo, error) {
	var info model.SystemInfo
	if err := c.getJSON(ctx, "/instances/"+url.PathEscape(id)+"/system-info", nil, &info); err != nil {
		return nil, fmt.Errorf("failed to get system info for %s: %w", id, err)
	}
	return &info, nil
}

func (c *backendClient) ListUpdates(ctx context.Context, id string) ([]model.AvailableUpdate, error) {
	var updates []model.AvailableUpdate
	if err := c.getJSON(ctx, "/instances/"+url.PathEscape(id)+"/updates", nil, &updates); err != nil {
		return nil, fmt.Errorf("failed to list updates for %s: %w", id, err)
	}
	return updates, nil
}

func (c *backendClient) ListHeartbeats(ctx context.Context, id string, window time.Duration) ([]model.Heartbeat, error) {
	var beats []model.Heartbeat
	query := windowQuery(window)
	if err := c.getJSON(ctx, "/instances/"+url.PathEscape(id)+"/heartbeats", query, &beats); err != nil {
		return nil, fmt.Errorf("failed to list heartbeats for %s: %w", id, err)
	}
	return beats, nil
}

func (c *backendClient) ListConnectivityChecks(ctx context.Context, id string, window time.Duration) ([]model.ConnectivityCheck, error) {
	var checks []model.ConnectivityCheck
	query := windowQuery(window)
	if err := c.getJSON(ctx, "/instances/"+url.PathEscape(id)+"/connectivity", query, &checks); err != nil {
		return nil, fmt.Errorf("failed to list connectivity checks for %s: %w", id, err)
	}
	return checks, nil
}

func (c *backendClient) ListEnrollmentCodes(ctx context.Context) ([]model.EnrollmentCode, error) {
	var codes []model.EnrollmentCode
	if err := c.getJSON(ctx, "/enrollment-codes", nil, &codes); err != nil {
		return nil, fmt.Errorf("failed to list enrollment codes: %w", err)
	}
	return codes, nil
}

func (c *backendClient) CreateEnrollmentCode(ctx context.Context) (*model.EnrollmentCode, error) {
	var code model.EnrollmentCode
	if err := c.do(ctx, http.MethodPost, "/enrollment-codes", nil, &code); err != nil {
		return nil, fmt.Errorf("failed to create enrollment code: %w", err)
	}
	return &code, nil
}

func (c *backendClient) TriggerUpdate(ctx context.Context, id string) error {
	if err := c.do(ctx, http.MethodPost, "/instances/"+url.PathEscape(id)+"/update", nil, nil); err != nil {
		return fmt.Errorf("failed to trigger update for %s: %w", id, err)
	}
	return nil
}

func (c *backendClient) DeleteInstance(ctx context.Context, id string) error {
	if err := c.do(ctx, http.MethodDelete, "/instances/"+url.PathEscape(id), nil, nil); err != nil {
		return fmt.Errorf("failed to delete instance %s: %w", id, err)
	}
	return nil
}

// windowQuery converts a trailing window into the backend's ?minutes=N form.
func windowQuery(window time.Duration) url.Values {
	minutes := int(window / time.Minute)
	if minutes < 1 {
		minutes = 1
	}
	return url.Values{"minutes": []string{strconv.Itoa(minutes)}}
}

func (c *backendClient) getJSON(ctx context.Context, path string, query url.Values, out any) error {
	return c.do(ctx, http.MethodGet, path, query, out)
}

// do performs one request against the backend and decodes the JSON body into
// out (skipped when out is nil). Non-2xx responses become errors; 404 wraps
// ErrNotFound so callers can map it to their own not-found handling.
func (c *backendClient) do(ctx context.Context, method, path string, query url.Values, out any) error {
	u := c.baseURL + c.apiPrefix + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, u, nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%s %s: %w", method, path, ErrNotFound)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%s %s: unexpected status %d: %s", method, path, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	if out == nil {
		// Drain so the connection can be reused
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}
