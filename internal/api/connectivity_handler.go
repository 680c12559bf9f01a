package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// GetConnectivity handles GET /api/instances/{id}/connectivity
func (h *Handler) GetConnectivity(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		h.respondError(w, http.StatusBadRequest, "instance id is required")
		return
	}

	summary, err := h.service.Connectivity(r.Context(), id)
	if err != nil {
		h.logger.Error("failed to get connectivity summary",
			slog.String("instance_id", id),
			slog.String("error", err.Error()),
		)
		h.respondError(w, http.StatusBadGateway, "failed to get connectivity summary")
		return
	}

	h.respondJSON(w, http.StatusOK, summary)
}

// GetLatencySeries handles GET /api/instances/{id}/latency?target=8.8.8.8
func (h *Handler) GetLatencySeries(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		h.respondError(w, http.StatusBadRequest, "instance id is required")
		return
	}

	target := r.URL.Query().Get("target")
	if target == "" {
		h.respondError(w, http.StatusBadRequest, "target query parameter is required")
		return
	}

	series, err := h.service.LatencySeries(r.Context(), id, target)
	if err != nil {
		h.logger.Error("failed to get latency series",
			slog.String("instance_id", id),
			slog.String("target", target),
			slog.String("error", err.Error()),
		)
		h.respondError(w, http.StatusBadGateway, "failed to get latency series")
		return
	}

	h.respondJSON(w, http.StatusOK, series)
}
