// Package training turns captured sessions into optimizer training examples.
package training

import (
	"fmt"
	"strings"

	"github.com/nvalkov/promptforge/internal/domain"
)

// ContextSentinel is used in place of conversation history for single-turn
// sessions.
const ContextSentinel = "New conversation"

// Build derives one training example per session, preserving store order.
// For an N-pair session the first N-1 turns become serialized context and
// turn N the expected response; turn numbering always matches pair order.
// Pure function, no side effects.
func Build(sessions []domain.Session) []domain.TrainingExample {
	examples := make([]domain.TrainingExample, 0, len(sessions))
	for _, session := range sessions {
		// Zero pairs violates the store invariant; skip rather than abort
		// the whole build.
		if len(session.Pairs) == 0 {
			continue
		}
		examples = append(examples, buildOne(session))
	}
	return examples
}

func buildOne(session domain.Session) domain.TrainingExample {
	last := len(session.Pairs) - 1

	context := ContextSentinel
	if last > 0 {
		turns := make([]string, last)
		for i, pair := range session.Pairs[:last] {
			turns[i] = renderTurn(i+1, pair)
		}
		context = strings.Join(turns, "\n\n")
	}

	var tools []string
	for _, pair := range session.Pairs {
		if pair.Tool != "" {
			tools = append(tools, pair.Tool)
		}
	}

	return domain.TrainingExample{
		ConversationContext:  context,
		ExpectedTurnResponse: renderTurn(last+1, session.Pairs[last]),
		ToolsUsed:            tools,
	}
}

func renderTurn(n int, pair domain.Pair) string {
	turn := fmt.Sprintf("Turn %d:\nUser: %s\nAssistant: %s", n, pair.Question, pair.Answer)
	if pair.Tool != "" {
		turn += fmt.Sprintf(" [Tool: %s]", pair.Tool)
	}
	return turn
}
