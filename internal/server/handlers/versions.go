package handlers

import (
	"net/http"

	"github.com/nvalkov/promptforge/internal/domain"
	"github.com/nvalkov/promptforge/internal/store"
)

// VersionsHandler lists the archived prompt versions, newest first.
type VersionsHandler struct {
	versions *store.VersionStore
}

func NewVersionsHandler(versions *store.VersionStore) *VersionsHandler {
	return &VersionsHandler{versions: versions}
}

func (h *VersionsHandler) List(w http.ResponseWriter, r *http.Request) {
	versions, err := h.versions.List()
	if err != nil {
		// Listing prefers an empty-but-valid result over an error status.
		respondJSON(w, map[string]any{"versions": []domain.VersionMeta{}, "error": err.Error()}, http.StatusOK)
		return
	}
	respondJSON(w, map[string]any{"versions": versions}, http.StatusOK)
}
