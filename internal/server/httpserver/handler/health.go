package handler

import (
	"io"
	"net/http"
	"time"
)

// handleRoot handles GET /. It is a liveness placeholder.
func (h *Handler) handleRoot(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = io.WriteString(w, "Hello, World!")
}

// handleHealth handles GET /health.
func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, r, http.StatusOK, HealthResponse{
		Status: "healthy",
		Time:   time.Now().UTC().Format(time.RFC3339),
	})
}

// handleReady handles GET /ready. It answers 503 unless the server is running.
func (h *Handler) handleReady(w http.ResponseWriter, r *http.Request) {
	body := HealthResponse{
		Status: "ready",
		State:  h.state(),
		Time:   time.Now().UTC().Format(time.RFC3339),
	}

	if h.cfg.Ready == nil || !h.cfg.Ready() {
		body.Status = "not_ready"
		h.writeError(w, r, http.StatusServiceUnavailable, CodeNotReady, "service not ready", body)
		return
	}

	h.writeJSON(w, r, http.StatusOK, body)
}

func (h *Handler) state() string {
	if h.cfg.State == nil {
		return ""
	}
	return h.cfg.State()
}
