package memory

import (
	"context"

	"workforce-billing/internal/domain"
	"workforce-billing/internal/domain/model"
	"workforce-billing/internal/domain/ports/repository"
)

var _ repository.SubscriptionRepository = (*SubscriptionRepo)(nil)

type SubscriptionRepo struct{ s *Store }

func (r *SubscriptionRepo) Save(_ context.Context, tx repository.Tx, sub *model.Subscription) error {
	return r.s.run(tx, func() error {
		if err := r.s.injected("subscriptions.Save"); err != nil {
			return err
		}
		if _, ok := r.s.d.agents[sub.AgentID]; !ok {
			return domain.ErrInvalidArgument
		}
		r.s.d.subs[sub.ID] = *sub
		return nil
	})
}

func (r *SubscriptionRepo) FindByID(_ context.Context, tx repository.Tx, id string) (*model.Subscription, error) {
	var out *model.Subscription
	err := r.s.run(tx, func() error {
		if err := r.s.injected("subscriptions.FindByID"); err != nil {
			return err
		}
		sub, ok := r.s.d.subs[id]
		if !ok {
			return domain.ErrNotFound
		}
		out = &sub
		return nil
	})
	return out, err
}

func (r *SubscriptionRepo) FindCurrentByAgent(_ context.Context, tx repository.Tx, agentID string) (*model.Subscription, error) {
	var out *model.Subscription
	err := r.s.run(tx, func() error {
		if err := r.s.injected("subscriptions.FindCurrentByAgent"); err != nil {
			return err
		}
		a, ok := r.s.d.agents[agentID]
		if !ok || a.CurrentSubscriptionID == nil {
			return domain.ErrNotFound
		}
		sub, ok := r.s.d.subs[*a.CurrentSubscriptionID]
		if !ok {
			return domain.ErrNotFound
		}
		out = &sub
		return nil
	})
	return out, err
}

func (r *SubscriptionRepo) CountByAgent(_ context.Context, tx repository.Tx, agentID string) (int, error) {
	n := 0
	err := r.s.run(tx, func() error {
		for _, sub := range r.s.d.subs {
			if sub.AgentID == agentID {
				n++
			}
		}
		return nil
	})
	return n, err
}

func (r *SubscriptionRepo) AppendEvent(_ context.Context, tx repository.Tx, e *model.SubscriptionEvent) error {
	return r.s.run(tx, func() error {
		if err := r.s.injected("subscriptions.AppendEvent"); err != nil {
			return err
		}
		r.s.d.events = append(r.s.d.events, *e)
		return nil
	})
}

func (r *SubscriptionRepo) ListEvents(_ context.Context, tx repository.Tx, subscriptionID string) ([]*model.SubscriptionEvent, error) {
	var out []*model.SubscriptionEvent
	err := r.s.run(tx, func() error {
		for _, e := range r.s.d.events {
			if e.SubscriptionID == subscriptionID {
				e := e
				out = append(out, &e)
			}
		}
		return nil
	})
	return out, err
}
