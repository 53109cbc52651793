package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nvalkov/promptforge/internal/domain"
	"github.com/nvalkov/promptforge/internal/optimizer"
	"github.com/nvalkov/promptforge/internal/services"
	"github.com/nvalkov/promptforge/internal/store"
)

func newOptimizeHandler(t *testing.T, optimizerURL string) (*OptimizeHandler, *store.SessionStore) {
	t.Helper()
	dir := t.TempDir()
	sessions := store.NewSessionStore(dir)
	svc := services.NewOptimizeService(sessions, store.NewVersionStore(dir), optimizer.NewClient(optimizerURL))
	return NewOptimizeHandler(svc, 0), sessions
}

func TestOptimizeRunWithoutSamplesIs400(t *testing.T) {
	h, _ := newOptimizeHandler(t, "http://localhost:0")

	rec := httptest.NewRecorder()
	h.Run(rec, httptest.NewRequest(http.MethodPost, "/api/v1/optimize", nil))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "at least one chat session")
}

func TestOptimizeRunSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/optimize" {
			w.Write([]byte(`{"optimizedProgram":{"instruction":"Be brief","demos":[],"bestScore":0.7,"optimizerType":"GEPA"}}`))
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	h, sessions := newOptimizeHandler(t, server.URL)
	_, _, err := sessions.Append([]domain.Pair{{Question: "q", Answer: "a"}})
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	h.Run(rec, httptest.NewRequest(http.MethodPost, "/api/v1/optimize", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var summary services.Summary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &summary))
	assert.Equal(t, 0.7, summary.BestScore)
	assert.Equal(t, "Be brief", summary.Instruction)
	assert.NotEmpty(t, summary.VersionID)
}

func TestOptimizeRunUnreachableServiceIs502(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	h, sessions := newOptimizeHandler(t, server.URL)
	_, _, err := sessions.Append([]domain.Pair{{Question: "q", Answer: "a"}})
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	h.Run(rec, httptest.NewRequest(http.MethodPost, "/api/v1/optimize", nil))

	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestOptimizeRunServiceErrorIs502(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/optimize" {
			http.Error(w, "bad settings", http.StatusUnprocessableEntity)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	h, sessions := newOptimizeHandler(t, server.URL)
	_, _, err := sessions.Append([]domain.Pair{{Question: "q", Answer: "a"}})
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	h.Run(rec, httptest.NewRequest(http.MethodPost, "/api/v1/optimize", nil))

	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Contains(t, rec.Body.String(), "422")
}

func TestOptimizeStatusIdle(t *testing.T) {
	h, _ := newOptimizeHandler(t, "http://localhost:0")

	rec := httptest.NewRecorder()
	h.Status(rec, httptest.NewRequest(http.MethodGet, "/api/v1/optimize/status", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "idle", resp["status"])
}
