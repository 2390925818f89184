package main

import (
	"context"
	"encoding/json"
	"os"

	"github.com/spf13/cobra"
)

func sweepCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Reconcile stale pending payments once and print the summary",
		Long: `Runs a single stale-order sweep, the same work as
GET /api/cron/check-pending-payments, and prints the JSON summary.

Exits non-zero if another sweep holds the lock.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSweep(cmd.Context(), opts)
		},
	}
}

func runSweep(ctx context.Context, opts *rootOptions) error {
	cfg, logger, err := loadConfig(opts)
	if err != nil {
		return err
	}
	a, err := buildApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.close()
	a.startJobs(ctx)

	sum, err := a.sweeper.Run(ctx)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(sum)
}
