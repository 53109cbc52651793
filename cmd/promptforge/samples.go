package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/nvalkov/promptforge/internal/domain"
	"github.com/nvalkov/promptforge/internal/store"
)

// samplesCmd provides subcommands for training sample management
func samplesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "samples",
		Short: "Manage captured training samples",
		Long: `Manage the question/answer sessions used as optimizer training data.

Subcommands:
  list  List all captured sessions
  add   Capture a single question/answer pair as a new session`,
	}

	cmd.AddCommand(
		samplesListCmd(),
		samplesAddCmd(),
	)

	return cmd
}

// samplesListCmd lists all captured sessions
func samplesListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List captured sessions",
		RunE: func(cmd *cobra.Command, args []string) error {
			sessions, err := store.NewSessionStore(cfg.Data.Dir).ListAll()
			if err != nil {
				return fmt.Errorf("failed to list sessions: %w", err)
			}

			if len(sessions) == 0 {
				fmt.Println("No sessions captured yet.")
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tCREATED\tPAIRS\tFIRST QUESTION")
			fmt.Fprintln(w, "--\t-------\t-----\t--------------")

			for _, session := range sessions {
				first := ""
				if len(session.Pairs) > 0 {
					first = truncate(session.Pairs[0].Question, 48)
				}
				fmt.Fprintf(w, "%s\t%s\t%d\t%s\n",
					session.ID,
					session.CreatedAt,
					len(session.Pairs),
					first,
				)
			}

			w.Flush()
			return nil
		},
	}
}

// samplesAddCmd captures a single question/answer pair
func samplesAddCmd() *cobra.Command {
	var question, answer, tool string

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Capture a question/answer pair as a new session",
		RunE: func(cmd *cobra.Command, args []string) error {
			if question == "" || answer == "" {
				return fmt.Errorf("both --question and --answer are required")
			}

			session, all, err := store.NewSessionStore(cfg.Data.Dir).Append([]domain.Pair{{
				Question: question,
				Answer:   answer,
				Tool:     tool,
			}})
			if err != nil {
				return fmt.Errorf("failed to store session: %w", err)
			}

			fmt.Printf("Captured session %s (%d total)\n", session.ID, len(all))
			return nil
		},
	}

	cmd.Flags().StringVarP(&question, "question", "q", "", "User question")
	cmd.Flags().StringVarP(&answer, "answer", "a", "", "Assistant answer")
	cmd.Flags().StringVarP(&tool, "tool", "t", "", "Tools used while answering (comma-joined)")

	return cmd
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
