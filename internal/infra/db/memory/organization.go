package memory

import (
	"context"
	"sort"

	"workforce-billing/internal/domain"
	"workforce-billing/internal/domain/model"
	"workforce-billing/internal/domain/ports/repository"
)

var (
	_ repository.OrganizationRepository = (*OrganizationRepo)(nil)
	_ repository.AgentRepository        = (*AgentRepo)(nil)
)

type OrganizationRepo struct{ s *Store }

func (r *OrganizationRepo) Save(_ context.Context, tx repository.Tx, o *model.Organization) error {
	return r.s.run(tx, func() error {
		if err := r.s.injected("organizations.Save"); err != nil {
			return err
		}
		if _, ok := r.s.d.orgs[o.ID]; ok {
			return domain.ErrAlreadyExists
		}
		for _, cur := range r.s.d.orgs {
			if cur.UserID == o.UserID {
				return domain.ErrAlreadyExists
			}
		}
		r.s.d.orgs[o.ID] = *o
		return nil
	})
}

func (r *OrganizationRepo) FindByID(_ context.Context, tx repository.Tx, id string) (*model.Organization, error) {
	var out *model.Organization
	err := r.s.run(tx, func() error {
		if err := r.s.injected("organizations.FindByID"); err != nil {
			return err
		}
		o, ok := r.s.d.orgs[id]
		if !ok {
			return domain.ErrNotFound
		}
		out = &o
		return nil
	})
	return out, err
}

func (r *OrganizationRepo) FindByUserID(_ context.Context, tx repository.Tx, userID string) (*model.Organization, error) {
	var out *model.Organization
	err := r.s.run(tx, func() error {
		for _, o := range r.s.d.orgs {
			if o.UserID == userID {
				o := o
				out = &o
				return nil
			}
		}
		return domain.ErrNotFound
	})
	return out, err
}

type AgentRepo struct{ s *Store }

func (r *AgentRepo) Save(_ context.Context, tx repository.Tx, a *model.Agent) error {
	return r.s.run(tx, func() error {
		if _, ok := r.s.d.agents[a.ID]; ok {
			return domain.ErrAlreadyExists
		}
		for _, cur := range r.s.d.agents {
			if cur.OrgID == a.OrgID && cur.Type == a.Type {
				return domain.ErrAlreadyExists
			}
		}
		r.s.d.agents[a.ID] = *a
		return nil
	})
}

func (r *AgentRepo) FindByID(_ context.Context, tx repository.Tx, id string) (*model.Agent, error) {
	var out *model.Agent
	err := r.s.run(tx, func() error {
		if err := r.s.injected("agents.FindByID"); err != nil {
			return err
		}
		a, ok := r.s.d.agents[id]
		if !ok {
			return domain.ErrNotFound
		}
		out = &a
		return nil
	})
	return out, err
}

func (r *AgentRepo) ListByOrg(_ context.Context, tx repository.Tx, orgID string) ([]*model.Agent, error) {
	var out []*model.Agent
	err := r.s.run(tx, func() error {
		for _, a := range r.s.d.agents {
			if a.OrgID == orgID {
				a := a
				out = append(out, &a)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, err
}

func (r *AgentRepo) SetCurrentSubscription(_ context.Context, tx repository.Tx, agentID, subscriptionID string) error {
	return r.s.run(tx, func() error {
		if err := r.s.injected("agents.SetCurrentSubscription"); err != nil {
			return err
		}
		a, ok := r.s.d.agents[agentID]
		if !ok {
			return domain.ErrNotFound
		}
		id := subscriptionID
		a.CurrentSubscriptionID = &id
		r.s.d.agents[agentID] = a
		return nil
	})
}
