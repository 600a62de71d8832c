package handler

import (
	"net/http"
	"time"
)

// handleStatus handles GET /status.
func (h *Handler) handleStatus(w http.ResponseWriter, r *http.Request) {
	resp := StatusResponse{
		State:         h.state(),
		Version:       h.cfg.Version,
		UptimeSeconds: int64(time.Since(h.started).Seconds()),
	}

	if h.cfg.Jobs != nil {
		resp.Jobs, resp.StoreOpen = h.cfg.Jobs()
	}

	h.writeJSON(w, r, http.StatusOK, resp)
}
