package main

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	pg "workforce-billing/internal/infra/db/postgres"
)

func migrateCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runMigrate(cmd.Context(), opts)
		},
	}
}

func runMigrate(ctx context.Context, opts *rootOptions) error {
	if opts.dev {
		return errors.New("migrate needs a database; dev mode has none")
	}
	cfg, logger, err := loadConfig(opts)
	if err != nil {
		return err
	}
	pool, err := pg.NewPgxPool(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer pool.Close()

	if err := pg.Migrate(ctx, pool); err != nil {
		return err
	}
	logger.Info().Msg("migrations applied")
	return nil
}
