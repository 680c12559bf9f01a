package api

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/hafleet/dashboard/ui"
)

// ServeUI returns a handler that serves the embedded dashboard UI. Unknown
// paths fall back to index.html so client-side routes survive a reload.
func (h *Handler) ServeUI() http.HandlerFunc {
	fsys, err := ui.GetFileSystem()
	if err != nil {
		h.logger.Error("failed to get UI filesystem", "error", err.Error())
		return func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "UI not available", http.StatusNotFound)
		}
	}

	fileServer := http.FileServer(fsys)
	indexHTML := h.renderIndex(fsys)

	return func(w http.ResponseWriter, r *http.Request) {
		path := strings.TrimPrefix(r.URL.Path, "/")
		if path != "" && path != "index.html" {
			if file, err := fsys.Open("/" + path); err == nil {
				_ = file.Close()
				fileServer.ServeHTTP(w, r)
				return
			}
		}

		if indexHTML == nil {
			http.Error(w, "UI not available", http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write(indexHTML)
	}
}

// renderIndex loads index.html and injects the base path so the browser UI can
// build API URLs when served behind a reverse-proxy prefix.
func (h *Handler) renderIndex(fsys http.FileSystem) []byte {
	file, err := fsys.Open("/index.html")
	if err != nil {
		return nil
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		return nil
	}

	if h.basePath != "" {
		content = bytes.ReplaceAll(content, []byte(`"/assets/`), []byte(fmt.Sprintf(`"%s/assets/`, h.basePath)))
	}

	basePathScript := fmt.Sprintf("<script>window._BASE_PATH='%s';</script>", h.basePath)
	return bytes.Replace(content, []byte("</head>"), []byte(basePathScript+"</head>"), 1)
}
