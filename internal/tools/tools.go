// Package tools implements the builtin tools offered to the model during a
// chat turn.
package tools

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strings"

	"github.com/nvalkov/promptforge/internal/llm"
)

const (
	ToolHumanAgentWaitTime  = "human_agent_wait_time"
	ToolRouteToHumanAgent   = "route_to_human_agent"
	ToolLookupKnowledgeBase = "lookup_internal_knowledge_base"
)

const kbFallbackAnswer = "No information found. Would you like me to route you to a human agent?"

// ChatFunc runs one bounded model call for tools that need the LLM.
type ChatFunc func(ctx context.Context, req llm.Request) (*llm.ChatCompletionResponse, error)

// Registry holds the builtin tool set. The knowledge-base tool reads
// data/kb.md and answers through a single model call.
type Registry struct {
	dataDir string
	chat    ChatFunc
}

func NewRegistry(dataDir string, chat ChatFunc) *Registry {
	return &Registry{dataDir: dataDir, chat: chat}
}

// Definitions returns the tool schemas offered to the model.
func (r *Registry) Definitions() []llm.Tool {
	return []llm.Tool{
		{
			Type: "function",
			Function: llm.ToolFunction{
				Name:        ToolHumanAgentWaitTime,
				Description: "Estimate the current wait time to speak with a human agent.",
				Parameters: map[string]any{
					"type": "object",
					"properties": map[string]any{
						"topic": map[string]any{
							"type":        "string",
							"description": "Optional topic used to route to the right queue",
						},
					},
				},
			},
		},
		{
			Type: "function",
			Function: llm.ToolFunction{
				Name:        ToolRouteToHumanAgent,
				Description: "Transfer the conversation to a human agent.",
				Parameters: map[string]any{
					"type": "object",
					"properties": map[string]any{
						"urgency": map[string]any{
							"type":        "string",
							"enum":        []string{"low", "medium", "high"},
							"description": "Optional urgency level",
						},
					},
				},
			},
		},
		{
			Type: "function",
			Function: llm.ToolFunction{
				Name:        ToolLookupKnowledgeBase,
				Description: "Look up an answer in the internal knowledge base.",
				Parameters: map[string]any{
					"type": "object",
					"properties": map[string]any{
						"query": map[string]any{
							"type":        "string",
							"description": "The user question to search for",
						},
					},
					"required": []string{"query"},
				},
			},
		},
	}
}

// Execute runs the named tool and returns its textual result.
func (r *Registry) Execute(ctx context.Context, name string, args map[string]any) (string, error) {
	switch name {
	case ToolHumanAgentWaitTime:
		return fmt.Sprintf("Estimated wait time: %d minutes.", rand.Intn(61)), nil
	case ToolRouteToHumanAgent:
		return "Transferred to a human agent. Someone will reach out to you shortly.", nil
	case ToolLookupKnowledgeBase:
		query, _ := args["query"].(string)
		return r.lookupKnowledgeBase(ctx, query), nil
	default:
		return "", fmt.Errorf("unknown tool: %s", name)
	}
}

func (r *Registry) lookupKnowledgeBase(ctx context.Context, query string) string {
	kb, err := os.ReadFile(filepath.Join(r.dataDir, "kb.md"))
	if err != nil || r.chat == nil {
		return kbFallbackAnswer
	}

	prompt := strings.Join([]string{
		"You are an internal support assistant.",
		"Answer the user question using only the provided knowledge base context.",
		"If the information is missing or irrelevant, reply exactly:",
		fmt.Sprintf("%q", kbFallbackAnswer),
		"\n--- Knowledge base context ---\n",
		string(kb),
		"\n--- Question ---\n",
		query,
		"\n--- Answer ---",
	}, "\n")

	resp, err := r.chat(ctx, llm.Request{
		Messages:    []llm.ChatMessage{{Role: "user", Content: prompt}},
		Temperature: 0,
	})
	if err != nil || len(resp.Choices) == 0 {
		return kbFallbackAnswer
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content)
}
