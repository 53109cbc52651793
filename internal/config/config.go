// Package config loads service configuration from the environment.
package config

import (
	"time"

	sharedcfg "github.com/nvalkov/promptforge/shared/config"
)

type Config struct {
	Server    ServerConfig
	Data      DataConfig
	Optimizer OptimizerConfig
	LLM       LLMConfig
}

type ServerConfig struct {
	Host           string
	Port           int
	AllowedOrigins []string
}

type DataConfig struct {
	// Dir holds samples.json, the current prompt artifacts, and versions/.
	Dir string
}

type OptimizerConfig struct {
	Endpoint string
	// Timeout bounds one optimize round trip. The client itself imposes no
	// deadline; the invoking boundary applies this via context.
	Timeout time.Duration
}

type LLMConfig struct {
	URL       string
	APIKey    string
	Model     string
	MaxTokens int
}

func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Host:           sharedcfg.GetEnvWithFallback("PROMPTFORGE_SERVER_HOST", "HOST", "0.0.0.0"),
			Port:           sharedcfg.GetEnvIntWithFallback("PROMPTFORGE_SERVER_PORT", "PORT", 3100),
			AllowedOrigins: sharedcfg.GetEnvSlice("PROMPTFORGE_ALLOWED_ORIGINS", []string{"*"}),
		},
		Data: DataConfig{
			Dir: sharedcfg.GetEnv("PROMPTFORGE_DATA_DIR", "data"),
		},
		Optimizer: OptimizerConfig{
			Endpoint: sharedcfg.GetEnvWithFallback("PROMPTFORGE_OPTIMIZER_ENDPOINT", "OPTIMIZER_ENDPOINT", "http://localhost:8000"),
			Timeout:  sharedcfg.GetEnvDuration("PROMPTFORGE_OPTIMIZER_TIMEOUT", 10*time.Minute),
		},
		LLM: LLMConfig{
			URL:       sharedcfg.GetEnvWithFallback("PROMPTFORGE_LLM_URL", "AI_PROVIDER_BASE_URL", "https://api.openai.com/v1"),
			APIKey:    sharedcfg.GetEnvWithFallback("PROMPTFORGE_LLM_API_KEY", "OPENAI_API_KEY", ""),
			Model:     sharedcfg.GetEnvWithFallback("PROMPTFORGE_LLM_MODEL", "AI_PROVIDER_MODEL_NAME", "gpt-4.1-mini"),
			MaxTokens: sharedcfg.GetEnvInt("PROMPTFORGE_LLM_MAX_TOKENS", 4096),
		},
	}
}
