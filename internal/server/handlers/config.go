package handlers

import (
	"net/http"
	"strings"

	"github.com/nvalkov/promptforge/internal/prompt"
	"github.com/nvalkov/promptforge/internal/store"
)

// ConfigHandler reports the effective serving configuration for a version.
// When nothing has been optimized yet it returns a fully-defaulted shape
// rather than an error.
type ConfigHandler struct {
	versions *store.VersionStore
}

func NewConfigHandler(versions *store.VersionStore) *ConfigHandler {
	return &ConfigHandler{versions: versions}
}

func (h *ConfigHandler) Get(w http.ResponseWriter, r *http.Request) {
	version := r.URL.Query().Get("version")
	result := h.versions.ReadResult(version)
	instruction := strings.TrimSpace(h.versions.ReadPrompt(version))

	if result == nil {
		respondJSON(w, map[string]any{
			"optimized":         false,
			"temperature":       prompt.DefaultTemperature,
			"bestScore":         nil,
			"optimizerType":     "default",
			"timestamp":         nil,
			"instruction":       nil,
			"instructionLength": 0,
			"demos":             0,
		}, http.StatusOK)
		return
	}

	respondJSON(w, map[string]any{
		"optimized":         true,
		"temperature":       prompt.ResolveTemperature(result.ModelConfig.Temperature()),
		"bestScore":         result.BestScore,
		"optimizerType":     result.OptimizerType,
		"timestamp":         result.Timestamp,
		"instruction":       instruction,
		"instructionLength": len(instruction),
		"demos":             len(result.Demos),
	}, http.StatusOK)
}
