package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hafleet/dashboard/internal/config"
	"github.com/hafleet/dashboard/internal/metrics"
	"github.com/hafleet/dashboard/internal/service"
)

// Handler holds the HTTP handlers and dependencies
type Handler struct {
	service      service.FleetService
	logger       *slog.Logger
	basePath     string
	backendURL   string
	pollInterval time.Duration
}

// NewHandler creates a new HTTP handler
func NewHandler(svc service.FleetService, cfg *config.Config, logger *slog.Logger) *Handler {
	return &Handler{
		service:      svc,
		logger:       logger,
		basePath:     cfg.Server.BasePath,
		backendURL:   cfg.Backend.URL,
		pollInterval: cfg.Poll.Interval,
	}
}

// Router creates and configures the HTTP router
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(h.loggingMiddleware)
	r.Use(metrics.Middleware)
	r.Use(middleware.Recoverer)

	routesHandler := h.createRoutes()

	// If base path is configured, mount routes on that path
	if h.basePath != "" {
		r.Mount(h.basePath, routesHandler)
	} else {
		r.Mount("/", routesHandler)
	}

	return r
}

// createRoutes creates the API and UI routes
func (h *Handler) createRoutes() http.Handler {
	r := chi.NewRouter()

	r.Route("/api", func(r chi.Router) {
		// Instance routes
		r.Get("/instances", h.ListInstances)
		r.Get("/instances/{id}", h.GetInstance)
		r.Delete("/instances/{id}", h.DeleteInstance)
		r.Post("/instances/{id}/update", h.TriggerUpdate)
		r.Get("/instances/{id}/heartbeats", h.GetHeartbeats)
		r.Get("/instances/{id}/updates", h.GetUpdates)
		r.Get("/instances/{id}/connectivity", h.GetConnectivity)
		r.Get("/instances/{id}/latency", h.GetLatencySeries)

		// Fleet routes
		r.Get("/overview", h.GetOverview)
		r.Get("/overview/ws", h.OverviewWS)

		// Enrollment routes
		r.Get("/enrollment-codes", h.ListEnrollmentCodes)
		r.Post("/enrollment-codes", h.CreateEnrollmentCode)

		// Runtime configuration for the browser UI
		r.Get("/config", h.GetConfig)
	})

	r.Handle("/metrics", promhttp.Handler())

	// Serve UI (must be last to act as catch-all)
	r.HandleFunc("/*", h.ServeUI())

	return r
}

// loggingMiddleware logs HTTP requests
func (h *Handler) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h.logger.Info("http request",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.String("remote_addr", r.RemoteAddr),
		)
		next.ServeHTTP(w, r)
	})
}

// errorResponse represents an error response
type errorResponse struct {
	Error string `json:"error"`
}

// respondJSON writes a JSON response
func (h *Handler) respondJSON(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode response",
			slog.String("error", err.Error()),
		)
	}
}

// respondError writes an error response
func (h *Handler) respondError(w http.ResponseWriter, statusCode int, message string) {
	h.respondJSON(w, statusCode, errorResponse{Error: message})
}
