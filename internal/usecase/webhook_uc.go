// File: internal/usecase/webhook_uc.go
package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"workforce-billing/internal/domain"
	"workforce-billing/internal/domain/model"
	"workforce-billing/internal/domain/ports/adapter"
	"workforce-billing/internal/domain/ports/repository"
	"workforce-billing/internal/infra/metrics"
)

// Compile-time check
var _ WebhookUseCase = (*webhookUC)(nil)

const (
	EventPaymentCaptured = "payment.captured"
	EventPaymentFailed   = "payment.failed"

	webhookIdempotencyTTL = 24 * time.Hour
)

// Webhook outcomes reported to the caller and to metrics.
const (
	WebhookProcessed = "processed"
	WebhookDuplicate = "duplicate"
	WebhookIgnored   = "ignored"
	WebhookUnknown   = "unknown_order"
)

// WebhookAlreadyResolved means the order had reached a terminal status before
// this event and was left as is.
const WebhookAlreadyResolved = "already_resolved"

type WebhookUseCase interface {
	// Handle authenticates and applies one gateway event. rawBody must be the
	// exact bytes received; eventID may be empty.
	Handle(ctx context.Context, rawBody []byte, signature, eventID string) (*WebhookResult, error)
}

type WebhookResult struct {
	Event   string
	Outcome string
	OrderID string
}

// webhookEvent is the subset of the gateway event we read.
type webhookEvent struct {
	Event   string `json:"event"`
	Payload struct {
		Payment struct {
			Entity struct {
				ID               string `json:"id"`
				OrderID          string `json:"order_id"`
				Amount           int64  `json:"amount"`
				Status           string `json:"status"`
				ErrorDescription string `json:"error_description"`
			} `json:"entity"`
		} `json:"payment"`
	} `json:"payload"`
}

type webhookUC struct {
	payments repository.PaymentRepository
	verifier adapter.SignatureVerifier
	seen     adapter.IdempotencyStore
	resolver PaymentResolver
	log      *zerolog.Logger
}

func NewWebhookUseCase(
	payments repository.PaymentRepository,
	verifier adapter.SignatureVerifier,
	seen adapter.IdempotencyStore,
	resolver PaymentResolver,
	logger *zerolog.Logger,
) *webhookUC {
	return &webhookUC{payments: payments, verifier: verifier, seen: seen, resolver: resolver, log: logger}
}

func (u *webhookUC) Handle(ctx context.Context, rawBody []byte, signature, eventID string) (*WebhookResult, error) {
	if signature == "" || !u.verifier.VerifyWebhook(rawBody, signature) {
		metrics.IncWebhook("unknown", "signature_mismatch")
		u.log.Warn().Int("bytes", len(rawBody)).Msg("webhook signature mismatch")
		return nil, domain.ErrSignatureMismatch
	}

	var ev webhookEvent
	if err := json.Unmarshal(rawBody, &ev); err != nil {
		metrics.IncWebhook("unknown", "invalid")
		return nil, fmt.Errorf("%w: webhook body: %v", domain.ErrInvalidArgument, err)
	}
	entity := ev.Payload.Payment.Entity
	res := &WebhookResult{Event: ev.Event, OrderID: entity.OrderID}

	if eventID != "" {
		dup, err := u.seen.Seen(ctx, eventID)
		if err != nil {
			// fall through; the resolution gate keeps redelivery harmless
			u.log.Warn().Err(err).Str("event_id", eventID).Msg("idempotency lookup failed")
		} else if dup {
			res.Outcome = WebhookDuplicate
			metrics.IncWebhook(ev.Event, res.Outcome)
			u.log.Debug().Str("event_id", eventID).Str("event", ev.Event).Msg("duplicate webhook delivery")
			return res, nil
		}
	}

	var err error
	switch ev.Event {
	case EventPaymentCaptured:
		res.Outcome, err = u.captured(ctx, entity.OrderID, entity.ID)
	case EventPaymentFailed:
		reason := strings.TrimSpace(entity.ErrorDescription)
		if reason == "" {
			reason = model.ReasonUnknownError
		}
		res.Outcome, err = u.failed(ctx, entity.OrderID, entity.ID, reason)
	default:
		res.Outcome = WebhookIgnored
		u.log.Debug().Str("event", ev.Event).Msg("webhook event ignored")
	}
	if err != nil {
		metrics.IncWebhook(ev.Event, "error")
		return nil, err
	}
	metrics.IncWebhook(ev.Event, res.Outcome)

	if eventID != "" {
		if err := u.seen.MarkProcessed(ctx, eventID, webhookIdempotencyTTL); err != nil {
			u.log.Warn().Err(err).Str("event_id", eventID).Msg("failed to mark webhook processed")
		}
	}
	return res, nil
}

func (u *webhookUC) captured(ctx context.Context, orderID, paymentID string) (string, error) {
	txn, err := u.payments.FindByOrderID(ctx, repository.NoTX, orderID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			u.log.Warn().Str("order_id", orderID).Msg("captured payment for unknown order")
		}
		return "", err
	}
	res, err := u.resolver.Resolve(ctx, txn.ID, model.PaymentOutcome{
		Status:    model.PaymentStatusSuccess,
		PaymentID: paymentID,
		Source:    model.SourceWebhook,
	})
	if err != nil {
		return "", err
	}
	return resolvedOutcome(res), nil
}

func (u *webhookUC) failed(ctx context.Context, orderID, paymentID, reason string) (string, error) {
	txn, err := u.payments.FindByOrderID(ctx, repository.NoTX, orderID)
	if errors.Is(err, domain.ErrNotFound) {
		u.log.Warn().Str("order_id", orderID).Str("reason", reason).Msg("failed payment for unknown order")
		return WebhookUnknown, nil
	}
	if err != nil {
		return "", err
	}
	res, err := u.resolver.Resolve(ctx, txn.ID, model.PaymentOutcome{
		Status:    model.PaymentStatusFailed,
		PaymentID: paymentID,
		Reason:    reason,
		Source:    model.SourceWebhook,
	})
	if err != nil {
		return "", err
	}
	return resolvedOutcome(res), nil
}

func resolvedOutcome(res *ResolveResult) string {
	if res == nil || !res.Applied {
		return WebhookAlreadyResolved
	}
	return WebhookProcessed
}
