package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
	"sync"

	"github.com/nvalkov/promptforge/internal/adapters/metrics"
	"github.com/nvalkov/promptforge/internal/domain"
	"github.com/nvalkov/promptforge/internal/store"
)

// SamplesHandler captures and lists training sessions. Appends are
// serialized with a mutex: the store does a read-modify-write cycle and
// assumes a single writer.
type SamplesHandler struct {
	sessions *store.SessionStore
	mu       sync.Mutex
}

func NewSamplesHandler(sessions *store.SessionStore) *SamplesHandler {
	return &SamplesHandler{sessions: sessions}
}

type samplesResponse struct {
	Samples []domain.Session `json:"samples"`
}

// List returns the full store contents, transparently upgrading a
// legacy-schema file on read.
func (h *SamplesHandler) List(w http.ResponseWriter, r *http.Request) {
	sessions, err := h.sessions.ListAll()
	if err != nil {
		respondError(w, "failed to load samples", http.StatusInternalServerError)
		return
	}
	respondJSON(w, samplesResponse{Samples: sessions}, http.StatusOK)
}

// addSampleRequest accepts either a batch of pairs or a single flattened
// pair; both append exactly one new session.
type addSampleRequest struct {
	Pairs    []domain.Pair `json:"pairs"`
	Question string        `json:"question"`
	Answer   string        `json:"answer"`
	Tool     string        `json:"tool"`
}

// Create appends the request as one new session and returns the full
// updated collection.
func (h *SamplesHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req addSampleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	pairs := req.Pairs
	if len(pairs) == 0 {
		pairs = []domain.Pair{{Question: req.Question, Answer: req.Answer, Tool: req.Tool}}
	}
	for _, pair := range pairs {
		if strings.TrimSpace(pair.Question) == "" || strings.TrimSpace(pair.Answer) == "" {
			respondError(w, "each pair requires a question and an answer", http.StatusBadRequest)
			return
		}
	}

	h.mu.Lock()
	_, sessions, err := h.sessions.Append(pairs)
	h.mu.Unlock()
	if err != nil {
		respondError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	metrics.SessionsCaptured.Inc()
	respondJSON(w, samplesResponse{Samples: sessions}, http.StatusCreated)
}
