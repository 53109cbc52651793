// Package optimizer talks to the external prompt optimizer service over its
// HTTP contract. The optimizer's internal search algorithm is opaque here.
package optimizer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/nvalkov/promptforge/internal/domain"
	"github.com/nvalkov/promptforge/shared/httpclient"
)

// DefaultEndpoint is where the optimizer service listens unless configured
// otherwise.
const DefaultEndpoint = "http://localhost:8000"

const defaultOptimizerType = "GEPA"

// Client is a single-shot HTTP client for the optimizer. No retries, no
// polling: one blocking round trip per Optimize call. Deadlines come from
// the caller's context; expiry surfaces as ErrOptimizerUnavailable.
type Client struct {
	endpoint   string
	httpClient *http.Client
	now        func() time.Time
}

type Option func(*Client)

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithClock overrides the timestamp source. Test hook.
func WithClock(now func() time.Time) Option {
	return func(c *Client) {
		c.now = now
	}
}

func NewClient(endpoint string, opts ...Option) *Client {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	c := &Client{
		endpoint:   strings.TrimSuffix(endpoint, "/"),
		httpClient: httpclient.NewUnbounded(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Health probes the optimizer's /health endpoint. Best-effort: failures are
// logged and reported as false, never fatal.
func (c *Client) Health(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+"/health", nil)
	if err != nil {
		return false
	}
	resp, err := httpclient.NewShort().Do(req)
	if err != nil {
		slog.Warn("optimizer health check failed", "endpoint", c.endpoint, "error", err)
		return false
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		slog.Warn("optimizer health check returned non-OK", "endpoint", c.endpoint, "status", resp.StatusCode)
		return false
	}
	return true
}

type optimizedProgram struct {
	BestScore        *float64           `json:"bestScore"`
	Instruction      string             `json:"instruction"`
	Demos            []json.RawMessage  `json:"demos"`
	ModelConfig      domain.ModelConfig `json:"modelConfig"`
	OptimizerType    string             `json:"optimizerType"`
	OptimizationTime float64            `json:"optimizationTime"`
	TotalRounds      int                `json:"totalRounds"`
	Converged        *bool              `json:"converged"`
	Stats            map[string]any     `json:"stats"`
}

type optimizeResponse struct {
	BestScore        *float64          `json:"bestScore"`
	OptimizedProgram *optimizedProgram `json:"optimizedProgram"`
}

// Optimize sends the full example set plus verbatim settings and returns the
// best program found. Fails fast with ErrNoTrainingData on an empty example
// set without contacting the service.
func (c *Client) Optimize(ctx context.Context, examples []domain.TrainingExample, settings domain.OptimizerSettings) (*domain.OptimizationResult, error) {
	if len(examples) == 0 {
		return nil, domain.ErrNoTrainingData
	}

	payload := map[string]any{"examples": examples}
	for k, v := range settings.WithDefaults() {
		payload[k] = v
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode optimize request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+"/optimize", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build optimize request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v (check the optimizer endpoint %s and that the service is running)",
			domain.ErrOptimizerUnavailable, err, c.endpoint)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading response: %v", domain.ErrOptimizerUnavailable, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &domain.OptimizerError{Status: resp.StatusCode, Body: string(respBody)}
	}

	var parsed optimizeResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, &domain.OptimizerError{Status: resp.StatusCode, Body: "malformed response: " + err.Error()}
	}

	return c.toResult(parsed, respBody), nil
}

// toResult flattens the optimized-program envelope into an immutable record,
// keeping the raw response for debugging.
func (c *Client) toResult(parsed optimizeResponse, raw []byte) *domain.OptimizationResult {
	result := &domain.OptimizationResult{
		BestScore:     -1,
		Demos:         []json.RawMessage{},
		OptimizerType: defaultOptimizerType,
		RawResult:     json.RawMessage(raw),
		Timestamp:     c.now().UTC().Format("2006-01-02T15:04:05.000Z07:00"),
	}
	if parsed.BestScore != nil {
		result.BestScore = *parsed.BestScore
	}

	program := parsed.OptimizedProgram
	if program == nil {
		return result
	}
	if program.BestScore != nil {
		result.BestScore = *program.BestScore
	}
	result.Instruction = program.Instruction
	if len(program.Demos) > 0 {
		result.Demos = program.Demos
	}
	result.ModelConfig = program.ModelConfig
	if program.OptimizerType != "" {
		result.OptimizerType = program.OptimizerType
	}
	result.OptimizationTime = program.OptimizationTime
	result.TotalRounds = program.TotalRounds
	result.Converged = program.Converged
	result.Stats = program.Stats
	return result
}
