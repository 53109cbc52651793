package handlers

import (
	"net/http"
	"strings"

	"github.com/nvalkov/promptforge/internal/store"
)

// PromptHandler serves compiled prompts. Read failures degrade to an empty
// prompt, never an error status.
type PromptHandler struct {
	versions *store.VersionStore
}

func NewPromptHandler(versions *store.VersionStore) *PromptHandler {
	return &PromptHandler{versions: versions}
}

func (h *PromptHandler) Get(w http.ResponseWriter, r *http.Request) {
	version := r.URL.Query().Get("version")
	prompt := strings.TrimSpace(h.versions.ReadPrompt(version))
	respondJSON(w, map[string]string{"prompt": prompt}, http.StatusOK)
}
