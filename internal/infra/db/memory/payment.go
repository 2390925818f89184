package memory

import (
	"context"
	"sort"
	"time"

	"workforce-billing/internal/domain"
	"workforce-billing/internal/domain/model"
	"workforce-billing/internal/domain/ports/repository"
)

var _ repository.PaymentRepository = (*PaymentRepo)(nil)

type PaymentRepo struct{ s *Store }

func (r *PaymentRepo) Save(_ context.Context, tx repository.Tx, p *model.PaymentTransaction) error {
	return r.s.run(tx, func() error {
		if err := r.s.injected("payments.Save"); err != nil {
			return err
		}
		if _, ok := r.s.d.payments[p.ID]; ok {
			return domain.ErrAlreadyExists
		}
		for _, cur := range r.s.d.payments {
			if cur.Receipt == p.Receipt || (p.GatewayOrderID != nil && cur.OrderID() == *p.GatewayOrderID) {
				return domain.ErrAlreadyExists
			}
		}
		r.s.d.payments[p.ID] = *p
		return nil
	})
}

func (r *PaymentRepo) Delete(_ context.Context, tx repository.Tx, id string) error {
	return r.s.run(tx, func() error {
		if err := r.s.injected("payments.Delete"); err != nil {
			return err
		}
		delete(r.s.d.payments, id)
		return nil
	})
}

func (r *PaymentRepo) FindByID(_ context.Context, tx repository.Tx, id string) (*model.PaymentTransaction, error) {
	var out *model.PaymentTransaction
	err := r.s.run(tx, func() error {
		if err := r.s.injected("payments.FindByID"); err != nil {
			return err
		}
		p, ok := r.s.d.payments[id]
		if !ok {
			return domain.ErrNotFound
		}
		out = &p
		return nil
	})
	return out, err
}

func (r *PaymentRepo) FindByOrderID(_ context.Context, tx repository.Tx, orderID string) (*model.PaymentTransaction, error) {
	var out *model.PaymentTransaction
	err := r.s.run(tx, func() error {
		if err := r.s.injected("payments.FindByOrderID"); err != nil {
			return err
		}
		if orderID == "" {
			return domain.ErrNotFound
		}
		for _, p := range r.s.d.payments {
			if p.OrderID() == orderID {
				p := p
				out = &p
				return nil
			}
		}
		return domain.ErrNotFound
	})
	return out, err
}

func (r *PaymentRepo) ListByAgent(_ context.Context, tx repository.Tx, agentID string, limit int) ([]*model.PaymentTransaction, error) {
	var out []*model.PaymentTransaction
	err := r.s.run(tx, func() error {
		for _, p := range r.s.d.payments {
			if p.AgentID == agentID {
				p := p
				out = append(out, &p)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, err
}

func (r *PaymentRepo) AttachOrder(_ context.Context, tx repository.Tx, id, orderID string) error {
	return r.s.run(tx, func() error {
		if err := r.s.injected("payments.AttachOrder"); err != nil {
			return err
		}
		p, ok := r.s.d.payments[id]
		if !ok || p.GatewayOrderID != nil {
			return domain.ErrNotFound
		}
		for _, cur := range r.s.d.payments {
			if cur.OrderID() == orderID {
				return domain.ErrAlreadyExists
			}
		}
		oid := orderID
		p.GatewayOrderID = &oid
		p.UpdatedAt = time.Now()
		r.s.d.payments[id] = p
		return nil
	})
}

func (r *PaymentRepo) ListPendingOlderThan(_ context.Context, tx repository.Tx, cutoff time.Time, limit int) ([]*model.PaymentTransaction, error) {
	var out []*model.PaymentTransaction
	err := r.s.run(tx, func() error {
		if err := r.s.injected("payments.ListPendingOlderThan"); err != nil {
			return err
		}
		for _, p := range r.s.d.payments {
			if p.Status == model.PaymentStatusPending && p.CreatedAt.Before(cutoff) {
				p := p
				out = append(out, &p)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, err
}

func (r *PaymentRepo) TransitionFromPending(_ context.Context, tx repository.Tx, id string, o model.PaymentOutcome) (bool, error) {
	applied := false
	err := r.s.run(tx, func() error {
		if err := r.s.injected("payments.TransitionFromPending"); err != nil {
			return err
		}
		p, ok := r.s.d.payments[id]
		if !ok || p.Status != model.PaymentStatusPending {
			return nil
		}
		p.Status = o.Status
		if o.PaymentID != "" {
			v := o.PaymentID
			p.GatewayPaymentID = &v
		}
		if o.Signature != "" {
			v := o.Signature
			p.GatewaySignature = &v
		}
		p.FailureReason = nil
		if o.Reason != "" {
			v := o.Reason
			p.FailureReason = &v
		}
		p.UpdatedAt = time.Now()
		r.s.d.payments[id] = p
		applied = true
		return nil
	})
	return applied, err
}
