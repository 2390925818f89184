package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"workforce-billing/internal/infra/api"
	pg "workforce-billing/internal/infra/db/postgres"
	"workforce-billing/internal/infra/sched"
)

func serveCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API, webhook receiver and payment sweeper",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), opts)
		},
	}
}

func runServe(parent context.Context, opts *rootOptions) error {
	cfg, logger, err := loadConfig(opts)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := buildApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.close()
	a.startJobs(ctx)

	srv := api.NewServer(cfg.HTTP, api.NewRouter(cfg, a.api, logger), logger)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return srv.Run(gctx) })
	if cfg.Sweeper.Interval > 0 {
		sweeper := sched.NewPaymentSweeper(a.sweeper, cfg.Sweeper.Interval, cfg.Sweeper.RunTimeout, logger)
		g.Go(func() error { return sweeper.Run(gctx) })
	}
	if a.pool != nil {
		g.Go(func() error {
			pg.ObservePool(gctx, a.pool, 15*time.Second)
			return nil
		})
	}

	err = g.Wait()
	logger.Info().Msg("shutdown complete")
	return err
}
