package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/nvalkov/promptforge/internal/adapters/tracing"
	"github.com/nvalkov/promptforge/internal/optimizer"
	"github.com/nvalkov/promptforge/internal/server"
	"github.com/nvalkov/promptforge/internal/services"
	"github.com/nvalkov/promptforge/internal/store"
	"github.com/nvalkov/promptforge/internal/tools"
)

// serveCmd starts the HTTP API server
func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		Long: `Start the PromptForge HTTP API server.

The server captures training samples, triggers optimization runs against
the DSPy/GEPA optimizer service, and serves the compiled prompt through
a streaming chat endpoint.

Required configuration:
  - Optimizer endpoint (PROMPTFORGE_OPTIMIZER_ENDPOINT)
  - LLM endpoint (PROMPTFORGE_LLM_URL, PROMPTFORGE_LLM_API_KEY)`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context())
		},
	}
}

// runServer initializes and starts the HTTP API server
func runServer(ctx context.Context) error {
	log.Println("Starting PromptForge API server...")
	log.Printf("  HTTP:      http://%s:%d", cfg.Server.Host, cfg.Server.Port)
	log.Printf("  Optimizer: %s", cfg.Optimizer.Endpoint)
	log.Printf("  LLM:       %s", cfg.LLM.URL)
	log.Printf("  Data:      %s", cfg.Data.Dir)
	log.Println()

	shutdown, err := tracing.InitTracer("promptforge-api")
	if err != nil {
		log.Printf("Warning: Failed to initialize tracing: %v", err)
	} else {
		defer func() {
			if err := shutdown(ctx); err != nil {
				log.Printf("Error shutting down tracer: %v", err)
			}
		}()
	}

	if err := os.MkdirAll(cfg.Data.Dir, 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}

	sessions := store.NewSessionStore(cfg.Data.Dir)
	versions := store.NewVersionStore(cfg.Data.Dir)
	optClient := optimizer.NewClient(cfg.Optimizer.Endpoint)
	registry := tools.NewRegistry(cfg.Data.Dir, llmClient.Chat)

	optimizeSvc := services.NewOptimizeService(sessions, versions, optClient)
	chatSvc := services.NewChatService(versions, llmClient, registry)

	srv := server.NewServer(cfg, sessions, versions, optClient, optimizeSvc, chatSvc)
	optimizeSvc.WithPublisher(srv.Hub())

	serverErrors := make(chan error, 1)
	go func() {
		log.Printf("HTTP server listening on %s:%d", cfg.Server.Host, cfg.Server.Port)
		serverErrors <- srv.Start()
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)
	case sig := <-sigChan:
		log.Printf("Received signal: %v", sig)
		log.Println("Shutting down gracefully...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Stop(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown error: %w", err)
		}
		log.Println("Server stopped")
		return nil
	}
}
