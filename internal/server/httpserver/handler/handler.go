package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/yndnr/siege-leviathan/internal/core/domain"
	"github.com/yndnr/siege-leviathan/internal/identity"
)

// Deliverer performs one outbound exchange.
type Deliverer interface {
	Deliver(ctx context.Context) (*domain.Exchange, error)
}

// IdentityStatus reports the state of the client identity.
type IdentityStatus interface {
	Ready() error
	Status() identity.Status
}

// Config holds the handler's collaborators.
type Config struct {
	Courier  Deliverer
	Identity IdentityStatus
	// Metrics serves GET /metrics; nil disables the route.
	Metrics http.Handler
	Logger  *slog.Logger
}

// Handler is the main HTTP handler that routes requests to appropriate handlers.
type Handler struct {
	courier  Deliverer
	identity IdentityStatus
	metrics  http.Handler
	logger   *slog.Logger
	mux      *http.ServeMux
}

// New creates a new Handler.
func New(cfg *Config) *Handler {
	h := &Handler{
		courier:  cfg.Courier,
		identity: cfg.Identity,
		metrics:  cfg.Metrics,
		logger:   cfg.Logger,
		mux:      http.NewServeMux(),
	}
	if h.logger == nil {
		h.logger = slog.Default()
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
	h.mux.HandleFunc("GET /{$}", h.handleSend)

	h.mux.HandleFunc("GET /health", h.handleHealth)
	h.mux.HandleFunc("GET /ready", h.handleReady)
	h.mux.HandleFunc("GET /status", h.handleStatus)

	if h.metrics != nil {
		h.mux.Handle("GET /metrics", h.metrics)
	}

	h.mux.HandleFunc("/", h.handleFallback)
}

// handleSend handles GET /. Every failure is reported in the body; the HTTP
// status stays 200.
func (h *Handler) handleSend(w http.ResponseWriter, r *http.Request) {
	x, err := h.courier.Deliver(r.Context())
	if err != nil {
		h.writeJSON(w, http.StatusOK, ErrorResponse{Error: describe(err)})
		return
	}

	h.writeJSON(w, http.StatusOK, MessageResponse{
		SentMessage:    x.Message,
		RemoteResponse: x.Reply,
	})
}

// handleFallback answers unmatched requests with a JSON error.
func (h *Handler) handleFallback(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path == "/" {
		w.Header().Set("Allow", http.MethodGet)
		h.writeError(w, http.StatusMethodNotAllowed, domain.ErrMethodNotAllowed.Code, domain.ErrMethodNotAllowed.Message)
		return
	}
	h.writeError(w, http.StatusNotFound, domain.ErrNotFound.Code, domain.ErrNotFound.Message)
}

// writeJSON writes a JSON response.
func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}

// writeError writes an ErrorResponse and tags the response with code.
func (h *Handler) writeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("X-Error-Code", code)
	h.writeJSON(w, status, ErrorResponse{Error: message})
}

// describe renders err for the caller without the internal error code.
func describe(err error) string {
	var de *domain.DomainError
	if errors.As(err, &de) {
		return de.Describe()
	}
	return domain.ErrInternalServer.Message
}
