package training

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/nvalkov/promptforge/internal/domain"
)

func TestBuildSinglePairSession(t *testing.T) {
	sessions := []domain.Session{
		{
			ID:        "s1",
			CreatedAt: "2026-01-01T00:00:00.000Z",
			Pairs:     []domain.Pair{{Question: "How do I reset my password?", Answer: "Use the reset link."}},
		},
	}

	examples := Build(sessions)

	assert.Len(t, examples, 1)
	assert.Equal(t, "New conversation", examples[0].ConversationContext)
	assert.Equal(t, "Turn 1:\nUser: How do I reset my password?\nAssistant: Use the reset link.", examples[0].ExpectedTurnResponse)
	assert.Empty(t, examples[0].ToolsUsed)
}

func TestBuildMultiPairSession(t *testing.T) {
	sessions := []domain.Session{
		{
			ID: "s1",
			Pairs: []domain.Pair{
				{Question: "Hi", Answer: "Hello!"},
				{Question: "Is the store open?", Answer: "Yes, until 6pm.", Tool: "lookup_internal_knowledge_base"},
				{Question: "Thanks", Answer: "You're welcome."},
			},
		},
	}

	examples := Build(sessions)

	assert.Len(t, examples, 1)
	assert.Equal(t,
		"Turn 1:\nUser: Hi\nAssistant: Hello!\n\n"+
			"Turn 2:\nUser: Is the store open?\nAssistant: Yes, until 6pm. [Tool: lookup_internal_knowledge_base]",
		examples[0].ConversationContext)
	assert.Equal(t, "Turn 3:\nUser: Thanks\nAssistant: You're welcome.", examples[0].ExpectedTurnResponse)
}

func TestBuildToolsCollectedAcrossAllPairs(t *testing.T) {
	sessions := []domain.Session{
		{
			ID: "s1",
			Pairs: []domain.Pair{
				{Question: "a", Answer: "b", Tool: "human_agent_wait_time"},
				{Question: "c", Answer: "d"},
				{Question: "e", Answer: "f", Tool: "route_to_human_agent"},
			},
		},
	}

	examples := Build(sessions)

	assert.Equal(t, []string{"human_agent_wait_time", "route_to_human_agent"}, examples[0].ToolsUsed)
}

func TestBuildSkipsEmptySessions(t *testing.T) {
	sessions := []domain.Session{
		{ID: "empty"},
		{ID: "ok", Pairs: []domain.Pair{{Question: "q", Answer: "a"}}},
	}

	examples := Build(sessions)

	assert.Len(t, examples, 1)
}

func TestBuildPreservesSessionOrder(t *testing.T) {
	sessions := []domain.Session{
		{ID: "first", Pairs: []domain.Pair{{Question: "q1", Answer: "a1"}}},
		{ID: "second", Pairs: []domain.Pair{{Question: "q2", Answer: "a2"}}},
	}

	examples := Build(sessions)

	assert.Len(t, examples, 2)
	assert.Contains(t, examples[0].ExpectedTurnResponse, "q1")
	assert.Contains(t, examples[1].ExpectedTurnResponse, "q2")
}
