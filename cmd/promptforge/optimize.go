package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/nvalkov/promptforge/internal/domain"
	"github.com/nvalkov/promptforge/internal/optimizer"
	"github.com/nvalkov/promptforge/internal/services"
	"github.com/nvalkov/promptforge/internal/store"
)

// optimizeCmd provides subcommands for optimization management
func optimizeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "optimize",
		Short: "Manage prompt optimization runs",
		Long: `Run DSPy/GEPA optimization over the captured sessions.

Subcommands:
  run     Start a new optimization run
  status  Show the most recent optimization result`,
	}

	cmd.AddCommand(
		optimizeRunCmd(),
		optimizeStatusCmd(),
	)

	return cmd
}

func newOptimizeService() *services.OptimizeService {
	return services.NewOptimizeService(
		store.NewSessionStore(cfg.Data.Dir),
		store.NewVersionStore(cfg.Data.Dir),
		optimizer.NewClient(cfg.Optimizer.Endpoint),
	)
}

// optimizeRunCmd starts a new optimization run
func optimizeRunCmd() *cobra.Command {
	var maxMetricCalls int
	var auto string

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Start an optimization run",
		Long:  `Build training examples from the captured sessions and run them through the optimizer service. Blocks until the run completes.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), cfg.Optimizer.Timeout)
			defer cancel()

			settings := domain.OptimizerSettings{}
			if maxMetricCalls > 0 {
				settings["maxMetricCalls"] = maxMetricCalls
			}
			if auto != "" {
				settings["auto"] = auto
			}

			fmt.Printf("Running optimization against %s...\n", cfg.Optimizer.Endpoint)
			summary, err := newOptimizeService().Run(ctx, settings)
			if err != nil {
				return fmt.Errorf("optimization failed: %w", err)
			}

			fmt.Println("Optimization completed:")
			fmt.Printf("  Version:    %s\n", summary.VersionID)
			fmt.Printf("  Optimizer:  %s\n", summary.Optimizer)
			fmt.Printf("  Best Score: %.4f\n", summary.BestScore)
			if summary.Instruction != "" {
				fmt.Printf("  Instruction: %s\n", truncate(summary.Instruction, 120))
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&maxMetricCalls, "max-metric-calls", 0, "Metric call budget for the run")
	cmd.Flags().StringVar(&auto, "auto", "", "Optimizer auto mode (light, medium, heavy)")

	return cmd
}

// optimizeStatusCmd shows the most recent optimization result
func optimizeStatusCmd() *cobra.Command {
	var showJSON bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the most recent optimization result",
		RunE: func(cmd *cobra.Command, args []string) error {
			status := newOptimizeService().Status()
			if status == nil {
				fmt.Println("No optimization has completed yet.")
				return nil
			}

			if showJSON {
				out, err := json.MarshalIndent(status, "", "  ")
				if err != nil {
					return err
				}
				fmt.Println(string(out))
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			for _, key := range []string{"status", "optimizerType", "bestScore", "totalRounds", "converged", "updatedAt", "instructionLength", "demosCount"} {
				if v, ok := status[key]; ok && v != nil {
					fmt.Fprintf(w, "%s\t%v\n", key, v)
				}
			}
			w.Flush()
			return nil
		},
	}

	cmd.Flags().BoolVar(&showJSON, "json", false, "Output the raw status record as JSON")

	return cmd
}

// versionsCmd provides subcommands for prompt version management
func versionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "versions",
		Short: "Manage stored prompt versions",
		Long: `Inspect the immutable prompt version archive.

Subcommands:
  list  List all stored versions, newest first
  show  Show the compiled prompt for a version`,
	}

	cmd.AddCommand(
		versionsListCmd(),
		versionsShowCmd(),
	)

	return cmd
}

// versionsListCmd lists all stored prompt versions
func versionsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored prompt versions",
		RunE: func(cmd *cobra.Command, args []string) error {
			versions, err := store.NewVersionStore(cfg.Data.Dir).List()
			if err != nil {
				return fmt.Errorf("failed to list versions: %w", err)
			}

			if len(versions) == 0 {
				fmt.Println("No prompt versions stored yet.")
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tTIMESTAMP\tOPTIMIZER\tBEST SCORE")
			fmt.Fprintln(w, "--\t---------\t---------\t----------")

			for _, meta := range versions {
				score := "N/A"
				if meta.BestScore != nil {
					score = fmt.Sprintf("%.4f", *meta.BestScore)
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
					meta.ID,
					meta.Timestamp,
					meta.OptimizerType,
					score,
				)
			}

			w.Flush()
			return nil
		},
	}
}

// versionsShowCmd prints the compiled prompt for one version
func versionsShowCmd() *cobra.Command {
	var showResult bool

	cmd := &cobra.Command{
		Use:   "show <version-id>",
		Short: "Show the compiled prompt for a version",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			version, err := store.NewVersionStore(cfg.Data.Dir).Read(args[0])
			if err != nil {
				return fmt.Errorf("failed to read version: %w", err)
			}

			fmt.Println(version.PromptText)
			if showResult {
				out, err := json.MarshalIndent(version.Result, "", "  ")
				if err != nil {
					return err
				}
				fmt.Println()
				fmt.Println(string(out))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&showResult, "result", false, "Also print the stored optimization result")

	return cmd
}
