package optimizer

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nvalkov/promptforge/internal/domain"
)

func fixedClock() time.Time {
	return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
}

func someExamples() []domain.TrainingExample {
	return []domain.TrainingExample{{
		ConversationContext:  "New conversation",
		ExpectedTurnResponse: "Turn 1:\nUser: q\nAssistant: a",
	}}
}

func TestOptimizeFailsFastOnEmptyExamples(t *testing.T) {
	called := false
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer server.Close()

	c := NewClient(server.URL)
	_, err := c.Optimize(context.Background(), nil, nil)

	assert.True(t, errors.Is(err, domain.ErrNoTrainingData))
	assert.False(t, called, "service must not be contacted without examples")
}

func TestOptimizeSendsExamplesAndDefaults(t *testing.T) {
	var payload map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/optimize", r.URL.Path)
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		w.Write([]byte(`{"bestScore":0.5,"optimizedProgram":{"instruction":"Be kind","demos":[],"bestScore":0.9,"optimizerType":"GEPA","totalRounds":3}}`))
	}))
	defer server.Close()

	c := NewClient(server.URL, WithClock(fixedClock))
	result, err := c.Optimize(context.Background(), someExamples(), domain.OptimizerSettings{"auto": "light"})
	require.NoError(t, err)

	assert.Len(t, payload["examples"], 1)
	assert.Equal(t, "light", payload["auto"])
	assert.Equal(t, float64(50), payload["maxMetricCalls"])
	assert.Equal(t, float64(3), payload["reflectionMinibatchSize"])

	// The program-level score overrides the top-level one.
	assert.Equal(t, 0.9, result.BestScore)
	assert.Equal(t, "Be kind", result.Instruction)
	assert.Equal(t, "GEPA", result.OptimizerType)
	assert.Equal(t, 3, result.TotalRounds)
	assert.Equal(t, "2026-03-01T12:00:00.000Z", result.Timestamp)
	assert.NotEmpty(t, result.RawResult)
}

func TestOptimizeSettingsOverrideDefaults(t *testing.T) {
	var payload map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	c := NewClient(server.URL)
	_, err := c.Optimize(context.Background(), someExamples(), domain.OptimizerSettings{"maxMetricCalls": 10})
	require.NoError(t, err)

	assert.Equal(t, float64(10), payload["maxMetricCalls"])
}

func TestOptimizeEmptyResponseGetsDefaults(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	c := NewClient(server.URL, WithClock(fixedClock))
	result, err := c.Optimize(context.Background(), someExamples(), nil)
	require.NoError(t, err)

	assert.Equal(t, float64(-1), result.BestScore)
	assert.Equal(t, "GEPA", result.OptimizerType)
	assert.NotNil(t, result.Demos)
	assert.Empty(t, result.Demos)
}

func TestOptimizeNon2xxBecomesOptimizerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer server.Close()

	c := NewClient(server.URL)
	_, err := c.Optimize(context.Background(), someExamples(), nil)

	var optErr *domain.OptimizerError
	require.True(t, errors.As(err, &optErr))
	assert.Equal(t, http.StatusInternalServerError, optErr.Status)
	assert.Contains(t, optErr.Body, "boom")
}

func TestOptimizeMalformedBodyBecomesOptimizerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`not json at all`))
	}))
	defer server.Close()

	c := NewClient(server.URL)
	_, err := c.Optimize(context.Background(), someExamples(), nil)

	var optErr *domain.OptimizerError
	require.True(t, errors.As(err, &optErr))
	assert.Contains(t, optErr.Body, "malformed response")
}

func TestOptimizeUnreachableServiceIsUnavailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	c := NewClient(server.URL)
	_, err := c.Optimize(context.Background(), someExamples(), nil)

	assert.True(t, errors.Is(err, domain.ErrOptimizerUnavailable))
	assert.Contains(t, err.Error(), server.URL)
}

func TestHealth(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	c := NewClient(server.URL)
	assert.True(t, c.Health(context.Background()))

	server.Close()
	assert.False(t, c.Health(context.Background()))
}
