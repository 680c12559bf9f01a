package api

import (
	"log/slog"
	"net/http"
)

// GetOverview handles GET /api/overview
func (h *Handler) GetOverview(w http.ResponseWriter, r *http.Request) {
	overview, err := h.service.Overview(r.Context())
	if err != nil {
		h.logger.Error("failed to build fleet overview",
			slog.String("error", err.Error()),
		)
		h.respondError(w, http.StatusBadGateway, "failed to build fleet overview")
		return
	}

	h.respondJSON(w, http.StatusOK, overview)
}

// ListEnrollmentCodes handles GET /api/enrollment-codes
func (h *Handler) ListEnrollmentCodes(w http.ResponseWriter, r *http.Request) {
	codes, err := h.service.EnrollmentCodes(r.Context())
	if err != nil {
		h.logger.Error("failed to list enrollment codes",
			slog.String("error", err.Error()),
		)
		h.respondError(w, http.StatusBadGateway, "failed to list enrollment codes")
		return
	}

	h.respondJSON(w, http.StatusOK, codes)
}

// CreateEnrollmentCode handles POST /api/enrollment-codes
func (h *Handler) CreateEnrollmentCode(w http.ResponseWriter, r *http.Request) {
	code, err := h.service.CreateEnrollmentCode(r.Context())
	if err != nil {
		h.logger.Error("failed to create enrollment code",
			slog.String("error", err.Error()),
		)
		h.respondError(w, http.StatusBadGateway, "failed to create enrollment code")
		return
	}

	h.respondJSON(w, http.StatusCreated, code)
}

// GetConfig handles GET /api/config. It hands the browser UI the runtime
// configuration it cannot know at build time.
func (h *Handler) GetConfig(w http.ResponseWriter, r *http.Request) {
	h.respondJSON(w, http.StatusOK, map[string]any{
		"backend_url":           h.backendURL,
		"poll_interval_seconds": int(h.pollInterval.Seconds()),
		"base_path":             h.basePath,
	})
}
