package handlers

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nvalkov/promptforge/internal/llm"
	"github.com/nvalkov/promptforge/internal/services"
	"github.com/nvalkov/promptforge/internal/store"
	"github.com/nvalkov/promptforge/internal/tools"
)

func newChatHandler(t *testing.T, sseResponse string) *ChatHandler {
	t.Helper()
	model := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, sseResponse)
		fmt.Fprint(w, "data: [DONE]\n\n")
	}))
	t.Cleanup(model.Close)

	dir := t.TempDir()
	svc := services.NewChatService(
		store.NewVersionStore(dir),
		llm.NewClient(model.URL, "", "test-model", 0),
		tools.NewRegistry(dir, nil),
	)
	return NewChatHandler(svc)
}

func TestChatRejectsBadRequests(t *testing.T) {
	h := newChatHandler(t, "")

	for _, body := range []string{`not json`, `{"messages":[]}`, `{}`} {
		rec := httptest.NewRecorder()
		h.Chat(rec, httptest.NewRequest(http.MethodPost, "/api/v1/chat", strings.NewReader(body)))
		assert.Equal(t, http.StatusBadRequest, rec.Code, "body: %s", body)
	}
}

func TestChatStreamsEvents(t *testing.T) {
	h := newChatHandler(t,
		"data: {\"choices\":[{\"delta\":{\"content\":\"Hello\"}}]}\n\n"+
			"data: {\"choices\":[{\"delta\":{\"content\":\" world\"}}]}\n\n")

	rec := httptest.NewRecorder()
	body := `{"messages":[{"role":"user","content":"hi"}]}`
	h.Chat(rec, httptest.NewRequest(http.MethodPost, "/api/v1/chat", strings.NewReader(body)))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))

	out := rec.Body.String()
	assert.Contains(t, out, `data: {"type":"delta","content":"Hello"}`)
	assert.Contains(t, out, `data: {"type":"delta","content":" world"}`)
	assert.Contains(t, out, `data: {"type":"done"}`)
}
