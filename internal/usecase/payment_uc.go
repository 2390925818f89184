// File: internal/usecase/payment_uc.go
package usecase

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"workforce-billing/internal/domain"
	"workforce-billing/internal/domain/model"
	"workforce-billing/internal/domain/ports/adapter"
	"workforce-billing/internal/domain/ports/repository"
	"workforce-billing/internal/infra/metrics"
)

// Compile-time check
var _ PaymentUseCase = (*paymentUC)(nil)

type PaymentUseCase interface {
	// Verify checks the client-redirect signature and resolves the transaction.
	Verify(ctx context.Context, viewer *model.Identity, in VerifyInput) (*ResolveResult, error)
	// Status reports a transaction the viewer owns, looked up by gateway order id.
	Status(ctx context.Context, viewer *model.Identity, orderID string) (*model.PaymentTransaction, error)
	// History lists an agent's transactions, newest first.
	History(ctx context.Context, viewer *model.Identity, agentID string, limit int) ([]*model.PaymentTransaction, error)
}

type VerifyInput struct {
	OrderID        string
	PaymentID      string
	Signature      string
	AgentID        string // optional cross-check
	SubscriptionID string // optional cross-check
}

const defaultHistoryLimit = 50

type paymentUC struct {
	orgs     repository.OrganizationRepository
	agents   repository.AgentRepository
	payments repository.PaymentRepository
	verifier adapter.SignatureVerifier
	resolver PaymentResolver
	log      *zerolog.Logger
}

func NewPaymentUseCase(
	orgs repository.OrganizationRepository,
	agents repository.AgentRepository,
	payments repository.PaymentRepository,
	verifier adapter.SignatureVerifier,
	resolver PaymentResolver,
	logger *zerolog.Logger,
) *paymentUC {
	return &paymentUC{
		orgs:     orgs,
		agents:   agents,
		payments: payments,
		verifier: verifier,
		resolver: resolver,
		log:      logger,
	}
}

// ownedTransaction finds the transaction by order id and checks the viewer owns its agent.
func (u *paymentUC) ownedTransaction(ctx context.Context, viewer *model.Identity, orderID string) (*model.PaymentTransaction, error) {
	if viewer == nil {
		return nil, domain.ErrUnauthorized
	}
	if orderID == "" {
		return nil, domain.ErrNotFound
	}
	txn, err := u.payments.FindByOrderID(ctx, repository.NoTX, orderID)
	if err != nil {
		return nil, err
	}
	if _, err := ownedAgent(ctx, repository.NoTX, u.agents, u.orgs, viewer, txn.AgentID); err != nil {
		return nil, err
	}
	return txn, nil
}

func (u *paymentUC) Verify(ctx context.Context, viewer *model.Identity, in VerifyInput) (*ResolveResult, error) {
	txn, err := u.ownedTransaction(ctx, viewer, in.OrderID)
	if err != nil {
		metrics.IncVerify("not_found")
		return nil, err
	}
	if (in.AgentID != "" && in.AgentID != txn.AgentID) ||
		(in.SubscriptionID != "" && in.SubscriptionID != txn.SubscriptionID) {
		metrics.IncVerify("not_found")
		return nil, domain.ErrNotFound
	}

	if !u.verifier.VerifyPayment(in.OrderID, in.PaymentID, in.Signature) {
		metrics.IncVerify("signature_mismatch")
		u.log.Warn().Str("order_id", in.OrderID).Str("payment_id", in.PaymentID).Msg("payment signature mismatch")
		_, rerr := u.resolver.Resolve(ctx, txn.ID, model.PaymentOutcome{
			Status: model.PaymentStatusFailed,
			Reason: model.ReasonSignatureFailed,
			Source: model.SourceVerifier,
		})
		if rerr != nil {
			u.log.Error().Err(rerr).Str("order_id", in.OrderID).Msg("failed to record signature failure")
		}
		return nil, domain.ErrSignatureMismatch
	}

	res, err := u.resolver.Resolve(ctx, txn.ID, model.PaymentOutcome{
		Status:    model.PaymentStatusSuccess,
		PaymentID: in.PaymentID,
		Signature: in.Signature,
		Source:    model.SourceVerifier,
	})
	if err != nil {
		metrics.IncVerify("error")
		return nil, err
	}
	if res.Transaction.Status == model.PaymentStatusFailed {
		metrics.IncVerify("conflict")
		return res, domain.ErrPaymentConflict
	}
	metrics.IncVerify("success")
	return res, nil
}

func (u *paymentUC) Status(ctx context.Context, viewer *model.Identity, orderID string) (*model.PaymentTransaction, error) {
	return u.ownedTransaction(ctx, viewer, orderID)
}

func (u *paymentUC) History(ctx context.Context, viewer *model.Identity, agentID string, limit int) ([]*model.PaymentTransaction, error) {
	agent, err := ownedAgent(ctx, repository.NoTX, u.agents, u.orgs, viewer, agentID)
	if err != nil {
		return nil, err
	}
	if limit <= 0 || limit > defaultHistoryLimit {
		limit = defaultHistoryLimit
	}
	txns, err := u.payments.ListByAgent(ctx, repository.NoTX, agent.ID, limit)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}
	return txns, nil
}
