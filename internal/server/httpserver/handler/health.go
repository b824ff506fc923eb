package handler

import (
	"net/http"

	"github.com/yndnr/siege-leviathan/internal/core/domain"
)

// handleHealth handles GET /health.
func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, newHealthResponse("healthy"))
}

// handleReady handles GET /ready. It runs the same check as the startup gate.
func (h *Handler) handleReady(w http.ResponseWriter, r *http.Request) {
	if err := h.identity.Ready(); err != nil {
		resp := newHealthResponse("not_ready")
		resp.Reason = err.Error()
		w.Header().Set("X-Error-Code", domain.ErrIdentityUnavailable.Code)
		h.writeJSON(w, http.StatusServiceUnavailable, resp)
		return
	}
	h.writeJSON(w, http.StatusOK, newHealthResponse("ready"))
}

// handleStatus handles GET /status.
func (h *Handler) handleStatus(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.identity.Status())
}
