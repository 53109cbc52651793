package services

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nvalkov/promptforge/internal/domain"
	"github.com/nvalkov/promptforge/internal/llm"
	"github.com/nvalkov/promptforge/internal/store"
)

func commitVersion(t *testing.T, versions *store.VersionStore, promptText string, result domain.OptimizationResult) string {
	t.Helper()
	version, err := versions.Commit(promptText, result)
	require.NoError(t, err)
	return version.ID
}

func TestResolveConfigDefaults(t *testing.T) {
	versions := store.NewVersionStore(t.TempDir())
	chat := NewChatService(versions, nil, nil)

	cfg := chat.ResolveConfig(ChatRequest{})

	assert.Equal(t, "", cfg.SystemPrompt)
	assert.Equal(t, 0.7, cfg.Temperature)
}

func TestResolveConfigUsesStoredPromptAndTemperature(t *testing.T) {
	versions := store.NewVersionStore(t.TempDir())
	commitVersion(t, versions, "Stored prompt.", domain.OptimizationResult{
		Demos:       []json.RawMessage{json.RawMessage(`{"traces":[{"question":"q","answer":"a"}]}`)},
		ModelConfig: domain.ModelConfig{"temperature": 0.3},
		Timestamp:   "2026-01-01T00:00:00.000Z",
	})
	chat := NewChatService(versions, nil, nil)

	cfg := chat.ResolveConfig(ChatRequest{
		Messages: []llm.ChatMessage{{Role: "user", Content: "hi"}},
	})

	assert.Equal(t, "Stored prompt.\nHere are some examples of how to respond:\n\nUser: q\nAssistant: a", cfg.SystemPrompt)
	assert.Equal(t, 0.3, cfg.Temperature)
}

func TestResolveConfigRequestSystemMessageWins(t *testing.T) {
	versions := store.NewVersionStore(t.TempDir())
	commitVersion(t, versions, "Stored prompt.", domain.OptimizationResult{
		ModelConfig: domain.ModelConfig{"temperature": 0.1},
		Timestamp:   "2026-01-01T00:00:00.000Z",
	})
	chat := NewChatService(versions, nil, nil)

	cfg := chat.ResolveConfig(ChatRequest{
		Messages: []llm.ChatMessage{
			{Role: "system", Content: "  explicit override  "},
			{Role: "user", Content: "hi"},
		},
		TeachingPrompt: "teaching",
	})

	// The explicit system message wins, but temperature still comes from the
	// stored result.
	assert.Equal(t, "explicit override", cfg.SystemPrompt)
	assert.Equal(t, 0.1, cfg.Temperature)
}

func TestResolveConfigTeachingPromptBeatsStored(t *testing.T) {
	versions := store.NewVersionStore(t.TempDir())
	commitVersion(t, versions, "Stored prompt.", domain.OptimizationResult{
		Demos:     []json.RawMessage{json.RawMessage(`{"traces":[{"question":"q","answer":"a"}]}`)},
		Timestamp: "2026-01-01T00:00:00.000Z",
	})
	chat := NewChatService(versions, nil, nil)

	cfg := chat.ResolveConfig(ChatRequest{TeachingPrompt: "teach me"})

	// Teaching mode is served verbatim, no few-shot suffix.
	assert.Equal(t, "teach me", cfg.SystemPrompt)
}

func TestResolveConfigPinnedVersion(t *testing.T) {
	versions := store.NewVersionStore(t.TempDir())
	pinned := commitVersion(t, versions, "Old prompt.", domain.OptimizationResult{
		ModelConfig: domain.ModelConfig{"temperature": 0.2},
		Timestamp:   "2026-01-01T00:00:00.000Z",
	})
	commitVersion(t, versions, "New prompt.", domain.OptimizationResult{
		Timestamp: "2026-02-01T00:00:00.000Z",
	})
	chat := NewChatService(versions, nil, nil)

	cfg := chat.ResolveConfig(ChatRequest{Version: pinned})
	assert.Equal(t, "Old prompt.", cfg.SystemPrompt)
	assert.Equal(t, 0.2, cfg.Temperature)

	cfg = chat.ResolveConfig(ChatRequest{})
	assert.Equal(t, "New prompt.", cfg.SystemPrompt)
	assert.Equal(t, 0.7, cfg.Temperature)
}
