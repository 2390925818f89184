// File: internal/usecase/sweeper_uc.go
package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"workforce-billing/internal/config"
	"workforce-billing/internal/domain"
	"workforce-billing/internal/domain/model"
	"workforce-billing/internal/domain/ports/adapter"
	"workforce-billing/internal/domain/ports/repository"
	"workforce-billing/internal/infra/logging"
	"workforce-billing/internal/infra/metrics"
)

// Compile-time check
var _ SweeperUseCase = (*sweeperUC)(nil)

const SweepLockKey = "lock:sweeper:pending-payments"

// Per-order sweep results.
const (
	SweepUpdatedToSuccess = "updated_to_success"
	SweepUpdatedToFailed  = "updated_to_failed"
	SweepAlreadyResolved  = "already_resolved"
	SweepPending          = "pending"
	SweepSkipped          = "skipped"
	SweepError            = "error"
)

type SweeperUseCase interface {
	// Run reconciles stale pending transactions against the gateway. Concurrent
	// runs fail with domain.ErrSweepInProgress.
	Run(ctx context.Context) (*SweepSummary, error)
}

type SweepSummary struct {
	Message          string        `json:"message"`
	Checked          int           `json:"checked"`
	UpdatedToSuccess int           `json:"updated_to_success"`
	UpdatedToFailed  int           `json:"updated_to_failed"`
	Results          []SweepResult `json:"results"`
}

type SweepResult struct {
	OrderID string `json:"orderId"`
	Status  string `json:"status"`
	Error   string `json:"error,omitempty"`
}

type sweeperUC struct {
	payments repository.PaymentRepository
	gateway  adapter.PaymentGateway
	resolver PaymentResolver
	locker   adapter.Locker
	notifier adapter.Notifier
	cfg      config.SweeperConfig
	clock    Clock
	log      *zerolog.Logger
}

func NewSweeperUseCase(
	payments repository.PaymentRepository,
	gateway adapter.PaymentGateway,
	resolver PaymentResolver,
	locker adapter.Locker,
	notifier adapter.Notifier,
	cfg config.SweeperConfig,
	clock Clock,
	logger *zerolog.Logger,
) *sweeperUC {
	return &sweeperUC{
		payments: payments,
		gateway:  gateway,
		resolver: resolver,
		locker:   locker,
		notifier: notifier,
		cfg:      cfg,
		clock:    clock,
		log:      logger,
	}
}

func (u *sweeperUC) Run(ctx context.Context) (*SweepSummary, error) {
	defer logging.TraceDuration(u.log, "SweeperUC.Run")()
	start := time.Now()

	if u.cfg.RunTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, u.cfg.RunTimeout)
		defer cancel()
	}

	token, err := u.locker.TryLock(ctx, SweepLockKey, u.cfg.LockTTL)
	if err != nil {
		if errors.Is(err, domain.ErrLockNotAcquired) {
			metrics.IncSweepRun("locked")
			return nil, domain.ErrSweepInProgress
		}
		metrics.IncSweepRun("error")
		return nil, fmt.Errorf("acquire sweep lock: %w", err)
	}
	defer func() {
		if err := u.locker.Unlock(context.WithoutCancel(ctx), SweepLockKey, token); err != nil {
			u.log.Warn().Err(err).Msg("failed to release sweep lock")
		}
	}()

	now := u.clock.now()
	rows, err := u.payments.ListPendingOlderThan(ctx, repository.NoTX, now.Add(-u.cfg.StaleAfter), u.cfg.BatchSize)
	if err != nil {
		metrics.IncSweepRun("error")
		return nil, err
	}
	if len(rows) == 0 {
		metrics.IncSweepRun("empty")
		metrics.ObserveSweepDuration(time.Since(start))
		return &SweepSummary{Message: "No pending transactions to check", Results: []SweepResult{}}, nil
	}

	sum := &SweepSummary{Checked: len(rows), Results: make([]SweepResult, 0, len(rows))}
	errCount := 0
	for _, txn := range rows {
		if ctx.Err() != nil {
			break
		}
		r := u.sweepOne(ctx, txn, now)
		switch r.Status {
		case SweepUpdatedToSuccess:
			sum.UpdatedToSuccess++
		case SweepUpdatedToFailed:
			sum.UpdatedToFailed++
		case SweepError:
			errCount++
		}
		metrics.IncSweepOrder(r.Status)
		sum.Results = append(sum.Results, r)
	}
	sum.Message = fmt.Sprintf("Checked %d pending transactions", sum.Checked)

	metrics.IncSweepRun("ok")
	metrics.ObserveSweepDuration(time.Since(start))
	u.log.Info().Int("checked", sum.Checked).Int("success", sum.UpdatedToSuccess).
		Int("failed", sum.UpdatedToFailed).Int("errors", errCount).Msg("sweep finished")

	if sum.UpdatedToSuccess+sum.UpdatedToFailed+errCount > 0 {
		if err := u.notifier.Notify(ctx, sweepReport(sum, errCount)); err != nil {
			u.log.Warn().Err(err).Msg("sweep notification failed")
		}
	}
	return sum, nil
}

// sweepOne never fails the run; errors are recorded on the result.
func (u *sweeperUC) sweepOne(ctx context.Context, txn *model.PaymentTransaction, now time.Time) SweepResult {
	l := u.log.With().Str("txn_id", txn.ID).Str("receipt", txn.Receipt).Logger()
	r := SweepResult{OrderID: txn.OrderID()}
	fail := func(err error) SweepResult {
		l.Warn().Err(err).Msg("sweep of transaction failed")
		r.Status, r.Error = SweepError, err.Error()
		return r
	}

	var order *adapter.GatewayOrder
	var err error
	if txn.GatewayOrderID == nil {
		order, err = u.gateway.FindOrderByReceipt(ctx, txn.Receipt)
		switch {
		case errors.Is(err, domain.ErrNotFound):
			if now.Sub(txn.CreatedAt) <= u.cfg.AbandonAfter {
				r.Status = SweepPending
				return r
			}
			return u.resolve(ctx, txn, r, model.PaymentOutcome{
				Status: model.PaymentStatusFailed,
				Reason: model.ReasonOrderNeverCreated,
				Source: model.SourceSweeper,
			})
		case err != nil:
			return fail(err)
		}
		if err := u.payments.AttachOrder(ctx, repository.NoTX, txn.ID, order.ID); err != nil {
			return fail(err)
		}
		r.OrderID = order.ID
		l.Info().Str("order_id", order.ID).Msg("orphaned order attached")
	} else {
		order, err = u.gateway.FetchOrder(ctx, *txn.GatewayOrderID)
		if err != nil {
			return fail(err)
		}
	}

	created := order.CreatedAt
	if created.IsZero() {
		created = txn.CreatedAt
	}
	abandoned := now.Sub(created) > u.cfg.AbandonAfter

	switch order.Status {
	case adapter.OrderStatusPaid:
		payments, err := u.gateway.FetchOrderPayments(ctx, order.ID)
		if err != nil {
			return fail(err)
		}
		for _, p := range payments {
			if p.Status == adapter.PaymentStatusCaptured {
				return u.resolve(ctx, txn, r, model.PaymentOutcome{
					Status:    model.PaymentStatusSuccess,
					PaymentID: p.ID,
					Source:    model.SourceSweeper,
				})
			}
		}
		r.Status = SweepPending
		return r
	case adapter.OrderStatusAttempted, adapter.OrderStatusCreated:
		if !abandoned {
			r.Status = SweepPending
			return r
		}
		reason := model.ReasonNotAttempted
		if order.Status == adapter.OrderStatusAttempted {
			reason = model.ReasonNotCompleted
		}
		return u.resolve(ctx, txn, r, model.PaymentOutcome{
			Status: model.PaymentStatusFailed,
			Reason: reason,
			Source: model.SourceSweeper,
		})
	default:
		l.Info().Str("order_id", order.ID).Str("gateway_status", order.Status).Msg("unexpected gateway order status")
		r.Status = SweepSkipped
		return r
	}
}

func (u *sweeperUC) resolve(ctx context.Context, txn *model.PaymentTransaction, r SweepResult, o model.PaymentOutcome) SweepResult {
	res, err := u.resolver.Resolve(ctx, txn.ID, o)
	if err != nil {
		r.Status, r.Error = SweepError, err.Error()
		return r
	}
	switch {
	case !res.Applied:
		r.Status = SweepAlreadyResolved
	case o.Status == model.PaymentStatusSuccess:
		r.Status = SweepUpdatedToSuccess
	default:
		r.Status = SweepUpdatedToFailed
	}
	return r
}

func sweepReport(sum *SweepSummary, errCount int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Pending payments sweep: checked %d, success %d, failed %d, errors %d",
		sum.Checked, sum.UpdatedToSuccess, sum.UpdatedToFailed, errCount)
	for _, r := range sum.Results {
		if r.Status == SweepError {
			fmt.Fprintf(&b, "\n%s: %s", r.OrderID, r.Error)
		}
	}
	return b.String()
}
