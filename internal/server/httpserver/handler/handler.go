package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"
)

// Error codes.
const (
	CodeNotReady        = "JR-SYS-5030"
	CodeInternal        = "JR-SYS-5000"
	CodeTooManyRequests = "JR-SYS-4290"
)

// Config wires the handler to the rest of the server.
type Config struct {
	// Metrics serves GET /metrics.
	Metrics http.Handler

	// State returns the coordinator state name.
	State func() string

	// Ready reports whether the server accepts work.
	Ready func() bool

	// Jobs returns the stored job count; ok is false when the store is closed.
	Jobs func() (count int64, ok bool)

	Version string
	Logger  *slog.Logger
}

// Handler is the main HTTP handler that routes requests to appropriate handlers.
type Handler struct {
	cfg     Config
	logger  *slog.Logger
	mux     *http.ServeMux
	started time.Time
}

// New creates a new Handler.
func New(cfg Config) *Handler {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	h := &Handler{
		cfg:     cfg,
		logger:  cfg.Logger,
		mux:     http.NewServeMux(),
		started: time.Now(),
	}

	h.registerRoutes()
	return h
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

// registerRoutes registers all HTTP routes.
func (h *Handler) registerRoutes() {
	h.mux.HandleFunc("GET /{$}", h.handleRoot)
	h.mux.HandleFunc("GET /health", h.handleHealth)
	h.mux.HandleFunc("GET /ready", h.handleReady)
	h.mux.HandleFunc("GET /status", h.handleStatus)

	if h.cfg.Metrics != nil {
		h.mux.Handle("GET /metrics", h.cfg.Metrics)
	}
}

// writeJSON writes a JSON response with standard envelope format.
func (h *Handler) writeJSON(w http.ResponseWriter, r *http.Request, status int, data any) {
	requestID := getRequestID(w, r)
	response := NewResponse(requestID, data)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(response); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}

// writeError writes an error response with standard envelope format.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, status int, code, message string, data any) {
	response := NewErrorResponse(getRequestID(w, r), code, message)
	response.Data = data

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Error-Code", code)
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(response); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}

// getRequestID returns the request ID the RequestID middleware put on the
// response, falling back to the incoming header.
func getRequestID(w http.ResponseWriter, r *http.Request) string {
	if id := w.Header().Get("X-Request-ID"); id != "" {
		return id
	}
	return r.Header.Get("X-Request-ID")
}
