package handler

import (
	"net/http"
)

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status  string `json:"status"`
	Keys    int    `json:"keys"`
	Version string `json:"version"`
}

// handleHealth handles GET /health.
func (h *Handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	keys := 0
	if h.keys != nil {
		keys = h.keys.Len()
	}
	h.writeJSON(w, http.StatusOK, HealthResponse{
		Status:  "ok",
		Keys:    keys,
		Version: h.version,
	})
}

// handleReady handles GET /ready.
func (h *Handler) handleReady(w http.ResponseWriter, _ *http.Request) {
	if !h.ready() {
		h.writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "starting"})
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}
