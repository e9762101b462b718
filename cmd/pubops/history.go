package main

import (
	"context"
	"fmt"
	"time"

	"pubops/internal/audit"

	"github.com/spf13/cobra"
)

func historyCmd() *cobra.Command {
	var limit int
	var validations bool

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent dispatches from the audit log",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := loadConfigOrDefaults()
			if !cfg.Audit.Enabled {
				return fmt.Errorf("auditing is disabled (audit.enabled = false)")
			}

			store, err := audit.NewStore(cfg.Audit.DBPath, logger)
			if err != nil {
				return fmt.Errorf("open audit store: %w", err)
			}
			defer store.Close()

			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			if validations {
				return printValidations(ctx, store, limit)
			}
			return printDispatches(ctx, store, limit)
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "number of entries to show")
	cmd.Flags().BoolVar(&validations, "validations", false, "show validation runs instead of dispatches")
	return cmd
}

func printDispatches(ctx context.Context, store *audit.Store, limit int) error {
	entries, err := store.RecentDispatches(ctx, limit)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Println("No dispatches recorded yet.")
		return nil
	}

	fmt.Printf("%-20s %-12s %-8s %-6s %-9s %s\n", "TIME", "KEYWORD", "OUTCOME", "EXIT", "DURATION", "COMMAND")
	for _, d := range entries {
		fmt.Printf("%-20s %-12s %-8s %-6d %-9s %s\n",
			d.CreatedAt.Local().Format("2006-01-02 15:04:05"),
			d.Keyword, d.Outcome, d.ExitCode,
			d.Duration.Round(time.Millisecond),
			d.Command,
		)
	}
	return nil
}

func printValidations(ctx context.Context, store *audit.Store, limit int) error {
	runs, err := store.RecentValidations(ctx, limit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("No validation runs recorded yet.")
		return nil
	}

	fmt.Printf("%-20s %-7s %-7s %-7s %-9s %-8s %s\n", "TIME", "CHECKS", "PASSED", "FAILED", "TIMEDOUT", "ERRORED", "DURATION")
	for _, v := range runs {
		fmt.Printf("%-20s %-7d %-7d %-7d %-9d %-8d %s\n",
			v.CreatedAt.Local().Format("2006-01-02 15:04:05"),
			v.Checks, v.Passed, v.Failed, v.TimedOut, v.Errored,
			v.Duration.Round(time.Millisecond),
		)
	}
	return nil
}
