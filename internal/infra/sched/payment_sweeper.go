package sched

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"workforce-billing/internal/domain"
	"workforce-billing/internal/usecase"
)

// PaymentSweeper periodically runs the stale-order sweep. It complements the
// external cron trigger; overlapping runs are excluded by the sweep lock.
type PaymentSweeper struct {
	uc       usecase.SweeperUseCase
	interval time.Duration
	timeout  time.Duration
	log      *zerolog.Logger
}

// NewPaymentSweeper bounds each run by timeout, falling back to interval.
// Ticks that fire while a run is in progress are dropped.
func NewPaymentSweeper(uc usecase.SweeperUseCase, interval, timeout time.Duration, logger *zerolog.Logger) *PaymentSweeper {
	if interval <= 0 {
		interval = time.Minute
	}
	if timeout <= 0 {
		timeout = interval
	}
	l := logger.With().Str("component", "PaymentSweeper").Logger()
	return &PaymentSweeper{uc: uc, interval: interval, timeout: timeout, log: &l}
}

func (w *PaymentSweeper) Run(ctx context.Context) error {
	w.log.Info().Dur("interval", w.interval).Msg("Starting payment sweeper")
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Stopping payment sweeper")
			return nil
		case <-ticker.C:
			w.tick(ctx)
		}
	}
}

func (w *PaymentSweeper) tick(ctx context.Context) {
	runCtx, cancel := context.WithTimeout(ctx, w.timeout)
	defer cancel()

	sum, err := w.uc.Run(runCtx)
	switch {
	case errors.Is(err, domain.ErrSweepInProgress):
		w.log.Debug().Msg("sweep already running elsewhere")
	case err != nil:
		w.log.Error().Err(err).Msg("payment sweep failed")
	case sum.Checked > 0:
		w.log.Info().Int("checked", sum.Checked).Int("success", sum.UpdatedToSuccess).
			Int("failed", sum.UpdatedToFailed).Msg("payment sweep finished")
	}
}
