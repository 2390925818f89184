// Package memory is an in-process implementation of the repository ports,
// used in dev mode and by use case tests.
package memory

import (
	"context"
	"sync"

	"github.com/jackc/pgx/v4"

	"workforce-billing/internal/domain/model"
	"workforce-billing/internal/domain/ports/repository"
)

var _ repository.TransactionManager = (*Store)(nil)

// txHandle marks calls made inside WithTx; the store mutex is already held.
type txHandle struct{}

type data struct {
	orgs     map[string]model.Organization
	agents   map[string]model.Agent
	subs     map[string]model.Subscription
	events   []model.SubscriptionEvent
	payments map[string]model.PaymentTransaction
}

func (d data) clone() data {
	c := data{
		orgs:     make(map[string]model.Organization, len(d.orgs)),
		agents:   make(map[string]model.Agent, len(d.agents)),
		subs:     make(map[string]model.Subscription, len(d.subs)),
		events:   append([]model.SubscriptionEvent(nil), d.events...),
		payments: make(map[string]model.PaymentTransaction, len(d.payments)),
	}
	for k, v := range d.orgs {
		c.orgs[k] = v
	}
	for k, v := range d.agents {
		c.agents[k] = v
	}
	for k, v := range d.subs {
		c.subs[k] = v
	}
	for k, v := range d.payments {
		c.payments[k] = v
	}
	return c
}

// Store holds all tables behind one mutex. WithTx serializes transactions and
// restores a snapshot when fn fails.
type Store struct {
	mu       sync.Mutex
	d        data
	failures map[string]error
}

func NewStore() *Store {
	return &Store{
		d: data{
			orgs:     make(map[string]model.Organization),
			agents:   make(map[string]model.Agent),
			subs:     make(map[string]model.Subscription),
			payments: make(map[string]model.PaymentTransaction),
		},
		failures: make(map[string]error),
	}
}

func (s *Store) WithTx(ctx context.Context, _ pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}
	snapshot := s.d.clone()
	if err := fn(ctx, txHandle{}); err != nil {
		s.d = snapshot
		return err
	}
	return nil
}

// run executes f under the store lock unless the caller is inside WithTx.
func (s *Store) run(tx repository.Tx, f func() error) error {
	if _, ok := tx.(txHandle); ok {
		return f()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return f()
}

// FailNext makes the next call of op return err. Ops are named
// "<table>.<method>", e.g. "payments.AttachOrder".
func (s *Store) FailNext(op string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[op] = err
}

// injected must be called with the lock held.
func (s *Store) injected(op string) error {
	if err, ok := s.failures[op]; ok {
		delete(s.failures, op)
		return err
	}
	return nil
}

// Repositories returns the repository views of the store.
func (s *Store) Organizations() *OrganizationRepo { return &OrganizationRepo{s: s} }
func (s *Store) Agents() *AgentRepo               { return &AgentRepo{s: s} }
func (s *Store) Subscriptions() *SubscriptionRepo { return &SubscriptionRepo{s: s} }
func (s *Store) Payments() *PaymentRepo           { return &PaymentRepo{s: s} }
