package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hafleet/dashboard/internal/repository"
)

// ListInstances handles GET /api/instances
func (h *Handler) ListInstances(w http.ResponseWriter, r *http.Request) {
	instances, err := h.service.ListInstances(r.Context())
	if err != nil {
		h.logger.Error("failed to list instances",
			slog.String("error", err.Error()),
		)
		h.respondError(w, http.StatusBadGateway, "failed to list instances")
		return
	}

	h.respondJSON(w, http.StatusOK, instances)
}

// GetInstance handles GET /api/instances/{id}
func (h *Handler) GetInstance(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		h.respondError(w, http.StatusBadRequest, "instance id is required")
		return
	}

	detail, err := h.service.GetInstance(r.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			h.respondError(w, http.StatusNotFound, "instance not found")
			return
		}
		h.logger.Error("failed to get instance",
			slog.String("instance_id", id),
			slog.String("error", err.Error()),
		)
		h.respondError(w, http.StatusBadGateway, "failed to get instance")
		return
	}

	h.respondJSON(w, http.StatusOK, detail)
}

// DeleteInstance handles DELETE /api/instances/{id}
func (h *Handler) DeleteInstance(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		h.respondError(w, http.StatusBadRequest, "instance id is required")
		return
	}

	if err := h.service.DeleteInstance(r.Context(), id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			h.respondError(w, http.StatusNotFound, "instance not found")
			return
		}
		h.logger.Error("failed to delete instance",
			slog.String("instance_id", id),
			slog.String("error", err.Error()),
		)
		h.respondError(w, http.StatusBadGateway, "failed to delete instance")
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]string{"deleted": id})
}

// TriggerUpdate handles POST /api/instances/{id}/update
func (h *Handler) TriggerUpdate(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		h.respondError(w, http.StatusBadRequest, "instance id is required")
		return
	}

	if err := h.service.TriggerUpdate(r.Context(), id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			h.respondError(w, http.StatusNotFound, "instance not found")
			return
		}
		h.logger.Error("failed to trigger update",
			slog.String("instance_id", id),
			slog.String("error", err.Error()),
		)
		h.respondError(w, http.StatusBadGateway, "failed to trigger update")
		return
	}

	h.respondJSON(w, http.StatusAccepted, map[string]string{"triggered": id})
}

// GetHeartbeats handles GET /api/instances/{id}/heartbeats
func (h *Handler) GetHeartbeats(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		h.respondError(w, http.StatusBadRequest, "instance id is required")
		return
	}

	beats, err := h.service.Heartbeats(r.Context(), id)
	if err != nil {
		h.logger.Error("failed to get heartbeats",
			slog.String("instance_id", id),
			slog.String("error", err.Error()),
		)
		h.respondError(w, http.StatusBadGateway, "failed to get heartbeats")
		return
	}

	h.respondJSON(w, http.StatusOK, beats)
}

// GetUpdates handles GET /api/instances/{id}/updates
func (h *Handler) GetUpdates(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		h.respondError(w, http.StatusBadRequest, "instance id is required")
		return
	}

	updates, err := h.service.Updates(r.Context(), id)
	if err != nil {
		h.logger.Error("failed to get updates",
			slog.String("instance_id", id),
			slog.String("error", err.Error()),
		)
		h.respondError(w, http.StatusBadGateway, "failed to get updates")
		return
	}

	h.respondJSON(w, http.StatusOK, updates)
}
