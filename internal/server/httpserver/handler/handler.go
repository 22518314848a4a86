package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// KeyCounter reports the number of stored keys.
type KeyCounter interface {
	Len() int
}

// ReadyFunc reports whether the server has finished startup.
type ReadyFunc func() bool

// Handler serves the admin endpoints.
type Handler struct {
	keys    KeyCounter
	ready   ReadyFunc
	version string
	logger  *slog.Logger
	mux     *http.ServeMux
}

// New creates a Handler. A nil ready func reports always ready.
func New(keys KeyCounter, ready ReadyFunc, version string, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	if ready == nil {
		ready = func() bool { return true }
	}
	h := &Handler{
		keys:    keys,
		ready:   ready,
		version: version,
		logger:  logger,
		mux:     http.NewServeMux(),
	}

	h.registerRoutes()
	return h
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

func (h *Handler) registerRoutes() {
	h.mux.HandleFunc("GET /health", h.handleHealth)
	h.mux.HandleFunc("GET /ready", h.handleReady)
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}
