// Package llm is an OpenAI-compatible chat completions client with
// streaming and tool calling.
package llm

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/nvalkov/promptforge/internal/adapters/retry"
)

// ChatMessage is a message in the OpenAI chat format.
type ChatMessage struct {
	Role       string     `json:"role"`
	Content    string     `json:"content,omitempty"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty"`
	Name       string     `json:"name,omitempty"`
}

// ToolCall is a function call requested by the model.
type ToolCall struct {
	ID       string       `json:"id"`
	Type     string       `json:"type"`
	Function FunctionCall `json:"function"`
}

type FunctionCall struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"` // JSON string
}

// Tool is a function definition offered to the model.
type Tool struct {
	Type     string       `json:"type"`
	Function ToolFunction `json:"function"`
}

type ToolFunction struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

// Client talks to an OpenAI-compatible chat completions endpoint.
type Client struct {
	baseURL     string
	apiKey      string
	model       string
	maxTokens   int
	httpClient  *http.Client
	retryConfig retry.BackoffConfig
}

func NewClient(baseURL, apiKey, model string, maxTokens int) *Client {
	baseURL = strings.TrimSuffix(baseURL, "/")
	baseURL = strings.TrimSuffix(baseURL, "/v1")

	return &Client{
		baseURL:   baseURL,
		apiKey:    apiKey,
		model:     model,
		maxTokens: maxTokens,
		httpClient: &http.Client{
			Timeout: 2 * time.Minute,
		},
		retryConfig: retry.HTTPConfig(),
	}
}

// Request carries the per-call parameters the version store resolves at
// serve time.
type Request struct {
	Messages    []ChatMessage
	Tools       []Tool
	Temperature float64
	ToolChoice  string // "auto", "none"; empty means default
}

type chatCompletionRequest struct {
	Model       string        `json:"model"`
	Messages    []ChatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Temperature float64       `json:"temperature"`
	Stream      bool          `json:"stream"`
	Tools       []Tool        `json:"tools,omitempty"`
	ToolChoice  string        `json:"tool_choice,omitempty"`
}

// ChatCompletionResponse is the non-streaming response shape.
type ChatCompletionResponse struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Choices []struct {
		Index        int         `json:"index"`
		Message      ChatMessage `json:"message"`
		FinishReason string      `json:"finish_reason"`
	} `json:"choices"`
}

// StreamChunk is one unit of a streaming response. ToolCall is only set once
// the call's argument fragments have been fully accumulated.
type StreamChunk struct {
	Content      string
	ToolCall     *ToolCall
	FinishReason string
	Error        error
	Done         bool
}

// Chat sends a non-streaming chat completion request.
func (c *Client) Chat(ctx context.Context, req Request) (*ChatCompletionResponse, error) {
	body, err := json.Marshal(c.buildRequest(req, false))
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	var respBody []byte
	err = retry.WithBackoffHTTP(ctx, c.retryConfig, func() (int, error) {
		httpReq, err := c.newRequest(ctx, body)
		if err != nil {
			return 0, err
		}
		resp, err := c.httpClient.Do(httpReq)
		if err != nil {
			return 0, fmt.Errorf("send request: %w", err)
		}
		defer resp.Body.Close()

		respBody, err = io.ReadAll(resp.Body)
		if err != nil {
			return resp.StatusCode, fmt.Errorf("read body: %w", err)
		}
		if resp.StatusCode != http.StatusOK {
			return resp.StatusCode, fmt.Errorf("API error: %s - %s", resp.Status, string(respBody))
		}
		return resp.StatusCode, nil
	})
	if err != nil {
		return nil, err
	}

	var response ChatCompletionResponse
	if err := json.Unmarshal(respBody, &response); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &response, nil
}

// ChatStream sends a streaming chat completion request. The connection is
// retried; the stream itself is not.
func (c *Client) ChatStream(ctx context.Context, req Request) (<-chan StreamChunk, error) {
	body, err := json.Marshal(c.buildRequest(req, true))
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	var resp *http.Response
	err = retry.WithBackoffHTTP(ctx, c.retryConfig, func() (int, error) {
		httpReq, err := c.newRequest(ctx, body)
		if err != nil {
			return 0, err
		}
		resp, err = c.httpClient.Do(httpReq)
		if err != nil {
			return 0, fmt.Errorf("send request: %w", err)
		}
		if resp.StatusCode != http.StatusOK {
			respBody, readErr := io.ReadAll(resp.Body)
			resp.Body.Close()
			if readErr != nil {
				return resp.StatusCode, fmt.Errorf("API error: %s", resp.Status)
			}
			return resp.StatusCode, fmt.Errorf("API error: %s - %s", resp.Status, string(respBody))
		}
		return resp.StatusCode, nil
	})
	if err != nil {
		return nil, err
	}

	chunks := make(chan StreamChunk, 10)
	go c.readStream(ctx, resp.Body, chunks)
	return chunks, nil
}

func (c *Client) buildRequest(req Request, stream bool) chatCompletionRequest {
	out := chatCompletionRequest{
		Model:       c.model,
		Messages:    req.Messages,
		MaxTokens:   c.maxTokens,
		Temperature: req.Temperature,
		Stream:      stream,
	}
	if len(req.Tools) > 0 {
		out.Tools = req.Tools
		out.ToolChoice = req.ToolChoice
		if out.ToolChoice == "" {
			out.ToolChoice = "auto"
		}
	}
	return out
}

func (c *Client) newRequest(ctx context.Context, body []byte) (*http.Request, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	return httpReq, nil
}

type streamDelta struct {
	Choices []struct {
		Delta struct {
			Content   string `json:"content"`
			ToolCalls []struct {
				Index    int    `json:"index"`
				ID       string `json:"id"`
				Type     string `json:"type"`
				Function struct {
					Name      string `json:"name"`
					Arguments string `json:"arguments"`
				} `json:"function"`
			} `json:"tool_calls"`
		} `json:"delta"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
}

func (c *Client) readStream(ctx context.Context, body io.ReadCloser, chunks chan<- StreamChunk) {
	defer close(chunks)
	defer body.Close()

	reader := bufio.NewReader(body)
	var currentToolCall *ToolCall

	for {
		select {
		case <-ctx.Done():
			chunks <- StreamChunk{Error: ctx.Err()}
			return
		default:
		}

		line, err := reader.ReadBytes('\n')
		if err != nil {
			if err != io.EOF {
				chunks <- StreamChunk{Error: err}
			}
			chunks <- StreamChunk{Done: true}
			return
		}

		lineStr := strings.TrimSpace(string(line))
		if !strings.HasPrefix(lineStr, "data: ") {
			continue
		}
		data := strings.TrimPrefix(lineStr, "data: ")
		if data == "[DONE]" {
			if currentToolCall != nil {
				chunks <- StreamChunk{ToolCall: currentToolCall}
			}
			chunks <- StreamChunk{Done: true}
			return
		}

		var delta streamDelta
		if err := json.Unmarshal([]byte(data), &delta); err != nil || len(delta.Choices) == 0 {
			continue
		}
		choice := delta.Choices[0]

		// Tool call argument fragments arrive across chunks and are
		// accumulated until the next call or the finish marker.
		if len(choice.Delta.ToolCalls) > 0 {
			tc := choice.Delta.ToolCalls[0]
			if tc.ID != "" {
				if currentToolCall != nil {
					chunks <- StreamChunk{ToolCall: currentToolCall}
				}
				currentToolCall = &ToolCall{
					ID:   tc.ID,
					Type: tc.Type,
					Function: FunctionCall{
						Name:      tc.Function.Name,
						Arguments: tc.Function.Arguments,
					},
				}
			} else if currentToolCall != nil {
				currentToolCall.Function.Arguments += tc.Function.Arguments
			}
		}

		chunk := StreamChunk{
			Content:      choice.Delta.Content,
			FinishReason: choice.FinishReason,
		}
		if choice.FinishReason != "" {
			if currentToolCall != nil {
				chunks <- StreamChunk{ToolCall: currentToolCall}
				currentToolCall = nil
			}
			chunk.Done = true
		}
		if chunk.Content != "" || chunk.FinishReason != "" {
			chunks <- chunk
		}
	}
}
