package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/nvalkov/promptforge/internal/domain"
	"github.com/nvalkov/promptforge/internal/services"
)

// OptimizeHandler triggers optimization runs and reports the most recent
// result.
type OptimizeHandler struct {
	svc     *services.OptimizeService
	timeout time.Duration
}

func NewOptimizeHandler(svc *services.OptimizeService, timeout time.Duration) *OptimizeHandler {
	return &OptimizeHandler{svc: svc, timeout: timeout}
}

type optimizeRequest struct {
	Settings domain.OptimizerSettings `json:"settings"`
}

// Run builds training examples from all sessions, calls the optimizer, and
// commits a new prompt version. This is the one surface that returns a
// genuine error status on failure.
func (h *OptimizeHandler) Run(w http.ResponseWriter, r *http.Request) {
	var req optimizeRequest
	// Body is optional; an unreadable body just means default settings.
	_ = json.NewDecoder(r.Body).Decode(&req)

	ctx := r.Context()
	if h.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.timeout)
		defer cancel()
	}

	summary, err := h.svc.Run(ctx, req.Settings)
	if err != nil {
		var optErr *domain.OptimizerError
		switch {
		case errors.Is(err, domain.ErrNoTrainingData):
			respondError(w, domain.ErrNoTrainingData.Error(), http.StatusBadRequest)
		case errors.Is(err, domain.ErrOptimizerUnavailable):
			respondError(w, err.Error(), http.StatusBadGateway)
		case errors.As(err, &optErr):
			respondError(w, optErr.Error(), http.StatusBadGateway)
		default:
			respondError(w, err.Error(), http.StatusInternalServerError)
		}
		return
	}

	respondJSON(w, summary, http.StatusOK)
}

// Status returns the most recent optimization result in a flattened,
// UI-friendly shape, or {"status":"idle"} before the first run.
func (h *OptimizeHandler) Status(w http.ResponseWriter, r *http.Request) {
	status := h.svc.Status()
	if status == nil {
		respondJSON(w, map[string]string{"status": "idle"}, http.StatusOK)
		return
	}
	respondJSON(w, status, http.StatusOK)
}
