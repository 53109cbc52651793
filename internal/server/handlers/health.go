package handlers

import (
	"net/http"

	"github.com/nvalkov/promptforge/internal/optimizer"
)

// HealthHandler reports liveness plus a best-effort optimizer probe.
type HealthHandler struct {
	optimizer *optimizer.Client
}

func NewHealthHandler(client *optimizer.Client) *HealthHandler {
	return &HealthHandler{optimizer: client}
}

func (h *HealthHandler) Liveness(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, map[string]string{"status": "ok"}, http.StatusOK)
}

func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, map[string]any{
		"status":    "ok",
		"optimizer": h.optimizer.Health(r.Context()),
	}, http.StatusOK)
}
