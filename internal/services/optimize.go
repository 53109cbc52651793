// Package services orchestrates the optimization pipeline and chat turns on
// top of the stores, the optimizer client, and the LLM client.
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/nvalkov/promptforge/internal/adapters/metrics"
	"github.com/nvalkov/promptforge/internal/domain"
	"github.com/nvalkov/promptforge/internal/optimizer"
	"github.com/nvalkov/promptforge/internal/prompt"
	"github.com/nvalkov/promptforge/internal/store"
	"github.com/nvalkov/promptforge/internal/training"
)

var tracer = otel.GetTracerProvider().Tracer("services")

// EventPublisher receives optimization lifecycle events for realtime
// subscribers. Implementations must not block.
type EventPublisher interface {
	Publish(event string, payload map[string]any)
}

type noopPublisher struct{}

func (noopPublisher) Publish(string, map[string]any) {}

// OptimizeService runs the sample-to-prompt pipeline: sessions are built
// into training examples, handed to the optimizer, and the returned program
// is assembled and committed as a new prompt version. Runs are serialized by
// an internal mutex; the stores assume a single writer.
type OptimizeService struct {
	sessions  *store.SessionStore
	versions  *store.VersionStore
	client    *optimizer.Client
	publisher EventPublisher

	mu sync.Mutex
}

func NewOptimizeService(sessions *store.SessionStore, versions *store.VersionStore, client *optimizer.Client) *OptimizeService {
	return &OptimizeService{
		sessions:  sessions,
		versions:  versions,
		client:    client,
		publisher: noopPublisher{},
	}
}

// WithPublisher sets the lifecycle event publisher.
func (s *OptimizeService) WithPublisher(p EventPublisher) *OptimizeService {
	if p != nil {
		s.publisher = p
	}
	return s
}

// Summary is the user-facing result of one optimization run.
type Summary struct {
	Message     string  `json:"message"`
	Instruction string  `json:"instruction,omitempty"`
	BestScore   float64 `json:"bestScore"`
	Optimizer   string  `json:"optimizer"`
	VersionID   string  `json:"versionId"`
}

// Run executes one optimization end to end and commits the resulting prompt
// version. Fails with domain.ErrNoTrainingData when no sessions exist.
func (s *OptimizeService) Run(ctx context.Context, settings domain.OptimizerSettings) (*Summary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ctx, span := tracer.Start(ctx, "optimize.run")
	defer span.End()

	sessions, err := s.sessions.ListAll()
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	examples := training.Build(sessions)
	slog.Info("prepared training examples", "sessions", len(sessions), "examples", len(examples))
	span.SetAttributes(attribute.Int("optimize.examples", len(examples)))

	if len(examples) == 0 {
		return nil, domain.ErrNoTrainingData
	}

	// Proactive, best-effort; the real failure mode surfaces from Optimize.
	if !s.client.Health(ctx) {
		slog.Warn("optimizer health check failed, attempting optimization anyway")
	}

	s.publisher.Publish("optimization_started", map[string]any{
		"examples": len(examples),
	})

	start := time.Now()
	result, err := s.client.Optimize(ctx, examples, settings)
	if err != nil {
		metrics.OptimizeRunsTotal.WithLabelValues("error").Inc()
		s.publisher.Publish("optimization_failed", map[string]any{
			"error": err.Error(),
		})
		return nil, err
	}

	promptText := prompt.Assemble(result.Instruction, result.Demos, examples)
	version, err := s.versions.Commit(promptText, *result)
	if err != nil {
		metrics.OptimizeRunsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("commit prompt version: %w", err)
	}

	metrics.OptimizeRunsTotal.WithLabelValues("ok").Inc()
	metrics.OptimizeDuration.Observe(time.Since(start).Seconds())
	span.SetAttributes(
		attribute.Float64("optimize.best_score", result.BestScore),
		attribute.String("optimize.version_id", version.ID),
	)
	slog.Info("optimization completed",
		"best_score", result.BestScore,
		"optimizer", result.OptimizerType,
		"version_id", version.ID,
		"duration", time.Since(start))

	s.publisher.Publish("optimization_completed", map[string]any{
		"versionId": version.ID,
		"bestScore": result.BestScore,
		"optimizer": result.OptimizerType,
	})

	return &Summary{
		Message:     "optimization completed",
		Instruction: result.Instruction,
		BestScore:   result.BestScore,
		Optimizer:   result.OptimizerType,
		VersionID:   version.ID,
	}, nil
}

// Status flattens the most recent optimization result into the UI-friendly
// shape, or nil when no run has completed yet.
func (s *OptimizeService) Status() map[string]any {
	result := s.versions.ReadResult("")
	if result == nil {
		return nil
	}

	currentPrompt := strings.TrimSpace(s.versions.ReadPrompt(""))

	instruction := result.Instruction
	if instruction == "" {
		instruction = currentPrompt
	}

	status := map[string]any{
		"status":             "completed",
		"bestScore":          result.BestScore,
		"totalRounds":        result.TotalRounds,
		"converged":          result.Converged,
		"optimizerType":      result.OptimizerType,
		"optimizationTimeMs": result.OptimizationTime,
		"updatedAt":          result.Timestamp,
		"instructionLength":  len(currentPrompt),
		"instruction":        instruction,
		"demosCount":         len(result.Demos),
		"usedSamples":        map[string]any{"total": usedSampleCount(result)},
	}
	if t := result.ModelConfig.Temperature(); t != nil {
		status["temperature"] = *t
	}
	if result.Stats != nil {
		if calls, ok := asFloat(result.Stats["totalCalls"]); ok {
			status["totalCalls"] = calls
			if ok2, rate := successRate(result.Stats, calls); ok2 {
				status["successRate"] = rate
			}
		}
	}
	return status
}

func successRate(stats map[string]any, totalCalls float64) (bool, string) {
	successful, ok := asFloat(stats["successfulDemos"])
	if !ok || totalCalls == 0 {
		return false, ""
	}
	return true, fmt.Sprintf("%.1f%%", successful/totalCalls*100)
}

func asFloat(v any) (float64, bool) {
	f, ok := v.(float64)
	return f, ok
}

// usedSampleCount digs the example count out of the raw optimizer response.
func usedSampleCount(result *domain.OptimizationResult) int {
	if len(result.RawResult) == 0 {
		return 0
	}
	var envelope struct {
		OptimizedProgram struct {
			Examples []any `json:"examples"`
		} `json:"optimizedProgram"`
	}
	if err := json.Unmarshal(result.RawResult, &envelope); err != nil {
		return 0
	}
	return len(envelope.OptimizedProgram.Examples)
}
