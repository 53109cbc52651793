package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/nvalkov/promptforge/internal/llm"
	"github.com/nvalkov/promptforge/internal/services"
	"github.com/nvalkov/promptforge/shared/jsonutil"
)

// ChatHandler streams one chat turn as server-sent events.
type ChatHandler struct {
	svc *services.ChatService
}

func NewChatHandler(svc *services.ChatService) *ChatHandler {
	return &ChatHandler{svc: svc}
}

type chatRequest struct {
	Messages []llm.ChatMessage `json:"messages"`
}

func (h *ChatHandler) Chat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if len(req.Messages) == 0 {
		respondError(w, "messages must not be empty", http.StatusBadRequest)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		respondError(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	emit := func(event services.StreamEvent) {
		w.Write([]byte("data: " + jsonutil.MustJSON(event) + "\n\n"))
		flusher.Flush()
	}

	err := h.svc.Stream(r.Context(), services.ChatRequest{
		Messages:       req.Messages,
		TeachingPrompt: r.URL.Query().Get("teachingPrompt"),
		Version:        r.URL.Query().Get("version"),
	}, emit)
	if err != nil {
		// Headers are gone; report the failure in-stream.
		emit(services.StreamEvent{Type: "error", Content: err.Error()})
	}
}
