package tools

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nvalkov/promptforge/internal/llm"
)

func TestDefinitionsCoverAllTools(t *testing.T) {
	r := NewRegistry(t.TempDir(), nil)

	defs := r.Definitions()
	require.Len(t, defs, 3)

	names := make([]string, len(defs))
	for i, def := range defs {
		assert.Equal(t, "function", def.Type)
		names[i] = def.Function.Name
	}
	assert.ElementsMatch(t, names, []string{
		ToolHumanAgentWaitTime,
		ToolRouteToHumanAgent,
		ToolLookupKnowledgeBase,
	})
}

func TestExecuteWaitTime(t *testing.T) {
	r := NewRegistry(t.TempDir(), nil)

	out, err := r.Execute(context.Background(), ToolHumanAgentWaitTime, nil)

	require.NoError(t, err)
	assert.Contains(t, out, "Estimated wait time:")
}

func TestExecuteRouteToHuman(t *testing.T) {
	r := NewRegistry(t.TempDir(), nil)

	out, err := r.Execute(context.Background(), ToolRouteToHumanAgent, map[string]any{"urgency": "high"})

	require.NoError(t, err)
	assert.Contains(t, out, "Transferred to a human agent")
}

func TestExecuteUnknownTool(t *testing.T) {
	r := NewRegistry(t.TempDir(), nil)

	_, err := r.Execute(context.Background(), "no_such_tool", nil)

	assert.Error(t, err)
}

func TestKnowledgeBaseFallsBackWithoutFile(t *testing.T) {
	r := NewRegistry(t.TempDir(), nil)

	out, err := r.Execute(context.Background(), ToolLookupKnowledgeBase, map[string]any{"query": "hours"})

	require.NoError(t, err)
	assert.Equal(t, kbFallbackAnswer, out)
}

func TestKnowledgeBaseAnswersThroughModel(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "kb.md"), []byte("# Hours\nOpen 9-18 weekdays."), 0o644))

	var seenPrompt string
	chat := func(ctx context.Context, req llm.Request) (*llm.ChatCompletionResponse, error) {
		seenPrompt = req.Messages[0].Content
		var resp llm.ChatCompletionResponse
		err := json.Unmarshal([]byte(`{"choices":[{"message":{"role":"assistant","content":"  We are open 9 to 18 on weekdays.  "}}]}`), &resp)
		return &resp, err
	}
	r := NewRegistry(dir, chat)

	out, err := r.Execute(context.Background(), ToolLookupKnowledgeBase, map[string]any{"query": "when are you open?"})

	require.NoError(t, err)
	assert.Equal(t, "We are open 9 to 18 on weekdays.", out)
	assert.True(t, strings.Contains(seenPrompt, "Open 9-18 weekdays."))
	assert.True(t, strings.Contains(seenPrompt, "when are you open?"))
}
