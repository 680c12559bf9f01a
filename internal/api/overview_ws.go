package api

import (
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"
)

const wsWriteTimeout = 5 * time.Second

var overviewUpgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		u, err := url.Parse(origin)
		if err != nil {
			return false
		}
		host := strings.ToLower(strings.TrimSpace(r.Host))
		originHost := strings.ToLower(strings.TrimSpace(u.Host))
		return host == originHost
	},
}

// OverviewWS handles GET /api/overview/ws. It pushes the fleet overview on
// connect and then once per poll interval, so browser dashboards stay live
// without re-requesting.
func (h *Handler) OverviewWS(w http.ResponseWriter, r *http.Request) {
	conn, err := overviewUpgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed",
			slog.String("remote_addr", r.RemoteAddr),
			slog.String("error", err.Error()),
		)
		return
	}

	h.serveOverviewConnection(r, conn)
}

func (h *Handler) serveOverviewConnection(r *http.Request, conn *websocket.Conn) {
	defer conn.Close()

	if err := h.pushOverview(r, conn); err != nil {
		return
	}

	ticker := time.NewTicker(h.pollInterval)
	defer ticker.Stop()

	// Read pump: its only job is to notice the peer going away.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-ticker.C:
			if err := h.pushOverview(r, conn); err != nil {
				return
			}
		case <-done:
			return
		case <-r.Context().Done():
			return
		}
	}
}

func (h *Handler) pushOverview(r *http.Request, conn *websocket.Conn) error {
	overview, err := h.service.Overview(r.Context())
	if err != nil {
		h.logger.Warn("failed to build overview for websocket push",
			slog.String("error", err.Error()),
		)
		// Keep the connection: the next tick may succeed.
		return nil
	}

	_ = conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
	return conn.WriteJSON(overview)
}
