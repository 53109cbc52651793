package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/nvalkov/promptforge/internal/adapters/metrics"
	"github.com/nvalkov/promptforge/internal/domain"
	"github.com/nvalkov/promptforge/internal/llm"
	"github.com/nvalkov/promptforge/internal/prompt"
	"github.com/nvalkov/promptforge/internal/store"
	"github.com/nvalkov/promptforge/internal/tools"
)

// MaxToolSteps bounds the tool-use loop in one chat turn; the final step is
// forced to answer without tools.
const MaxToolSteps = 5

// ChatService runs one chat turn against the model using the currently
// selected prompt version and the builtin tools.
type ChatService struct {
	versions *store.VersionStore
	client   *llm.Client
	registry *tools.Registry
}

func NewChatService(versions *store.VersionStore, client *llm.Client, registry *tools.Registry) *ChatService {
	return &ChatService{versions: versions, client: client, registry: registry}
}

// ChatRequest carries one turn's inputs: the running message list plus the
// optional teaching override and version selector.
type ChatRequest struct {
	Messages       []llm.ChatMessage
	TeachingPrompt string
	Version        string
}

// StreamEvent is one unit of the streamed chat response.
type StreamEvent struct {
	Type    string `json:"type"` // "delta", "tool_use", "done", "error"
	Content string `json:"content,omitempty"`
	Tool    string `json:"tool,omitempty"`
}

// ResolveConfig computes the effective serving configuration for the
// request without performing any model I/O.
func (s *ChatService) ResolveConfig(req ChatRequest) domain.EffectiveChatConfig {
	stored := strings.TrimSpace(s.versions.ReadPrompt(req.Version))
	result := s.versions.ReadResult(req.Version)

	var fewShot string
	var temperature *float64
	if result != nil {
		fewShot = prompt.FewShotSuffix(result.Demos)
		temperature = result.ModelConfig.Temperature()
	}

	return domain.EffectiveChatConfig{
		SystemPrompt: prompt.ResolveSystemPrompt(
			firstSystemMessage(req.Messages),
			req.TeachingPrompt,
			stored,
			fewShot,
		),
		Temperature: prompt.ResolveTemperature(temperature),
	}
}

// Stream resolves the serving configuration, then drives the model with a
// bounded tool loop, emitting content deltas as they arrive.
func (s *ChatService) Stream(ctx context.Context, req ChatRequest, emit func(StreamEvent)) error {
	cfg := s.ResolveConfig(req)

	if req.TeachingPrompt != "" {
		slog.Info("teaching mode active")
	}

	messages := make([]llm.ChatMessage, 0, len(req.Messages)+1)
	if cfg.SystemPrompt != "" {
		messages = append(messages, llm.ChatMessage{Role: "system", Content: cfg.SystemPrompt})
	}
	for _, msg := range req.Messages {
		if msg.Role == "system" {
			continue
		}
		messages = append(messages, msg)
	}

	for step := 0; step < MaxToolSteps; step++ {
		toolDefs := s.registry.Definitions()
		if step == MaxToolSteps-1 {
			// Out of tool budget: force a final answer.
			toolDefs = nil
		}

		chunks, err := s.client.ChatStream(ctx, llm.Request{
			Messages:    messages,
			Tools:       toolDefs,
			Temperature: cfg.Temperature,
		})
		if err != nil {
			metrics.LLMRequestsTotal.WithLabelValues("error").Inc()
			return fmt.Errorf("chat stream: %w", err)
		}
		metrics.LLMRequestsTotal.WithLabelValues("ok").Inc()

		var content strings.Builder
		var calls []llm.ToolCall
		for chunk := range chunks {
			if chunk.Error != nil {
				return fmt.Errorf("stream: %w", chunk.Error)
			}
			if chunk.Content != "" {
				content.WriteString(chunk.Content)
				emit(StreamEvent{Type: "delta", Content: chunk.Content})
			}
			if chunk.ToolCall != nil {
				calls = append(calls, *chunk.ToolCall)
			}
		}

		if len(calls) == 0 {
			emit(StreamEvent{Type: "done"})
			return nil
		}

		messages = append(messages, llm.ChatMessage{
			Role:      "assistant",
			Content:   content.String(),
			ToolCalls: calls,
		})
		for _, call := range calls {
			emit(StreamEvent{Type: "tool_use", Tool: call.Function.Name})
			output := s.executeTool(ctx, call)
			messages = append(messages, llm.ChatMessage{
				Role:       "tool",
				ToolCallID: call.ID,
				Name:       call.Function.Name,
				Content:    output,
			})
		}
	}

	emit(StreamEvent{Type: "done"})
	return nil
}

func (s *ChatService) executeTool(ctx context.Context, call llm.ToolCall) string {
	args := map[string]any{}
	if call.Function.Arguments != "" {
		// Invalid arguments degrade to an empty map, the tool decides.
		_ = json.Unmarshal([]byte(call.Function.Arguments), &args)
	}
	output, err := s.registry.Execute(ctx, call.Function.Name, args)
	if err != nil {
		slog.Warn("tool execution failed", "tool", call.Function.Name, "error", err)
		return "Tool error: " + err.Error()
	}
	return output
}

func firstSystemMessage(messages []llm.ChatMessage) string {
	for _, msg := range messages {
		if msg.Role == "system" {
			return strings.TrimSpace(msg.Content)
		}
	}
	return ""
}
