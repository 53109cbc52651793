package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/nvalkov/promptforge/internal/config"
	"github.com/nvalkov/promptforge/internal/llm"
)

// Version information (set via ldflags)
var (
	version   = "dev"
	commit    = "none"
	buildDate = "unknown"
)

// Shared global variables
var (
	cfg       *config.Config
	llmClient *llm.Client
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "promptforge",
		Short: "PromptForge - teach an assistant by example",
		Long: `PromptForge captures question/answer pairs, runs them through a
DSPy/GEPA optimizer service, and serves the compiled prompt to a chat
assistant.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg = config.Load()
			llmClient = llm.NewClient(
				cfg.LLM.URL,
				cfg.LLM.APIKey,
				cfg.LLM.Model,
				cfg.LLM.MaxTokens,
			)
			return nil
		},
	}

	rootCmd.AddCommand(
		serveCmd(),
		samplesCmd(),
		optimizeCmd(),
		versionsCmd(),
		configCmd(),
		versionCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// configCmd shows current configuration
func configCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Println("Current configuration:")
			fmt.Println()

			fmt.Println("Server:")
			fmt.Printf("  Host: %s\n", cfg.Server.Host)
			fmt.Printf("  Port: %d\n", cfg.Server.Port)
			fmt.Println()

			fmt.Println("Data:")
			fmt.Printf("  Dir: %s\n", cfg.Data.Dir)
			fmt.Println()

			fmt.Println("Optimizer:")
			fmt.Printf("  Endpoint: %s\n", cfg.Optimizer.Endpoint)
			fmt.Printf("  Timeout:  %s\n", cfg.Optimizer.Timeout)
			fmt.Println()

			fmt.Println("LLM:")
			fmt.Printf("  URL:        %s\n", cfg.LLM.URL)
			fmt.Printf("  Model:      %s\n", cfg.LLM.Model)
			fmt.Printf("  Max Tokens: %d\n", cfg.LLM.MaxTokens)
			fmt.Printf("  API Key:    %s\n", maskSecret(cfg.LLM.APIKey))
			fmt.Println()

			fmt.Println("Environment variables:")
			fmt.Println("  PROMPTFORGE_SERVER_HOST, PROMPTFORGE_SERVER_PORT, PROMPTFORGE_ALLOWED_ORIGINS")
			fmt.Println("  PROMPTFORGE_DATA_DIR")
			fmt.Println("  PROMPTFORGE_OPTIMIZER_ENDPOINT, PROMPTFORGE_OPTIMIZER_TIMEOUT")
			fmt.Println("  PROMPTFORGE_LLM_URL, PROMPTFORGE_LLM_API_KEY, PROMPTFORGE_LLM_MODEL")

			return nil
		},
	}
}

// versionCmd shows version information
func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("PromptForge %s\n", version)
			fmt.Printf("  Commit:     %s\n", commit)
			fmt.Printf("  Build Date: %s\n", buildDate)
		},
	}
}

// maskSecret masks a secret string for display
func maskSecret(s string) string {
	if s == "" {
		return "(not set)"
	}
	if len(s) <= 8 {
		return "(set)"
	}
	return s[:4] + "..." + s[len(s)-4:]
}
