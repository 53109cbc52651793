// Package domain holds the core data model for captured sessions, training
// examples, optimization results, and prompt versions.
package domain

import (
	"encoding/json"
)

// Pair is one captured user/assistant turn. Tool carries the comma-joined
// names of tools invoked while producing the answer, if any.
// Pairs are immutable once stored.
type Pair struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
	Tool     string `json:"tool,omitempty"`
}

// Session is one user-approved multi-turn exchange. It is created wholesale
// when the operator finalizes a pending capture and never mutated afterward.
// CreatedAt is kept as the stored string so legacy timestamps round-trip
// untouched.
type Session struct {
	ID        string `json:"id"`
	CreatedAt string `json:"createdAt"`
	Pairs     []Pair `json:"pairs"`
}

// TrainingExample is a session reshaped into (context, expected final turn)
// for the optimizer. Derived, never stored.
type TrainingExample struct {
	ConversationContext  string   `json:"conversationContext"`
	ExpectedTurnResponse string   `json:"expectedTurnResponse"`
	ToolsUsed            []string `json:"toolsUsed,omitempty"`
}

// OptimizerSettings is an open pass-through record. The optimizer's accepted
// shape evolves independently of this service, so settings are forwarded
// verbatim with only defaults filled in for absent fields.
type OptimizerSettings map[string]any

const (
	DefaultMaxMetricCalls          = 50
	DefaultReflectionMinibatchSize = 3
)

// WithDefaults returns a copy with defaults applied for absent fields.
// No other semantics are assigned to any setting.
func (s OptimizerSettings) WithDefaults() OptimizerSettings {
	out := make(OptimizerSettings, len(s)+2)
	for k, v := range s {
		out[k] = v
	}
	if _, ok := out["maxMetricCalls"]; !ok {
		out["maxMetricCalls"] = DefaultMaxMetricCalls
	}
	if _, ok := out["reflectionMinibatchSize"]; !ok {
		out["reflectionMinibatchSize"] = DefaultReflectionMinibatchSize
	}
	return out
}

// ModelConfig is the optimizer-returned model configuration. Kept open;
// only temperature is interpreted locally.
type ModelConfig map[string]any

// Temperature returns the configured temperature, or nil if absent.
func (m ModelConfig) Temperature() *float64 {
	if m == nil {
		return nil
	}
	if v, ok := m["temperature"].(float64); ok {
		return &v
	}
	return nil
}

// OptimizationResult is the outcome of one optimization run. Produced exactly
// once per run and immutable after creation. Demos, Stats and RawResult are
// opaque pass-through records.
type OptimizationResult struct {
	BestScore        float64           `json:"bestScore"`
	Instruction      string            `json:"instruction,omitempty"`
	Demos            []json.RawMessage `json:"demos"`
	ModelConfig      ModelConfig       `json:"modelConfig,omitempty"`
	OptimizerType    string            `json:"optimizerType"`
	OptimizationTime float64           `json:"optimizationTime,omitempty"`
	TotalRounds      int               `json:"totalRounds,omitempty"`
	Converged        *bool             `json:"converged,omitempty"`
	Stats            map[string]any    `json:"stats,omitempty"`
	RawResult        json.RawMessage   `json:"result,omitempty"`
	Timestamp        string            `json:"timestamp"`
}

// PromptVersion is an immutable, timestamp-identified snapshot of a compiled
// prompt and the optimization result that produced it.
type PromptVersion struct {
	ID         string             `json:"id"`
	PromptText string             `json:"promptText"`
	Result     OptimizationResult `json:"result"`
}

// VersionMeta is the best-effort listing entry for one stored version.
// Only ID is guaranteed; the rest is populated when the stored result is
// readable.
type VersionMeta struct {
	ID            string   `json:"id"`
	Timestamp     string   `json:"timestamp,omitempty"`
	BestScore     *float64 `json:"bestScore"`
	OptimizerType string   `json:"optimizerType,omitempty"`
}

// EffectiveChatConfig is the per-request resolved serving configuration.
// Never persisted.
type EffectiveChatConfig struct {
	SystemPrompt string
	Temperature  float64
}
