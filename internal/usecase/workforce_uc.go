package usecase

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"workforce-billing/internal/domain"
	"workforce-billing/internal/domain/model"
	"workforce-billing/internal/domain/ports/repository"
)

// Compile-time check
var _ WorkforceUseCase = (*workforceUC)(nil)

type WorkforceUseCase interface {
	CreateOrganization(ctx context.Context, viewer *model.Identity, name, description string) (*model.Organization, error)
	MyOrganization(ctx context.Context, viewer *model.Identity) (*model.Organization, error)
	CreateAgent(ctx context.Context, viewer *model.Identity, orgID string, typ model.AgentType, name string) (*model.Agent, error)
	// Workforce lists the organization's agents with their evaluated subscriptions.
	Workforce(ctx context.Context, viewer *model.Identity, orgID string) ([]AgentView, error)
}

type AgentView struct {
	Agent        *model.Agent
	Subscription *model.Subscription // nil when no trial was started
	State        model.SubscriptionState
	DaysLeft     int
}

type workforceUC struct {
	orgs   repository.OrganizationRepository
	agents repository.AgentRepository
	subs   repository.SubscriptionRepository
	clock  Clock
	log    *zerolog.Logger
}

func NewWorkforceUseCase(
	orgs repository.OrganizationRepository,
	agents repository.AgentRepository,
	subs repository.SubscriptionRepository,
	clock Clock,
	logger *zerolog.Logger,
) *workforceUC {
	return &workforceUC{orgs: orgs, agents: agents, subs: subs, clock: clock, log: logger}
}

func (u *workforceUC) CreateOrganization(ctx context.Context, viewer *model.Identity, name, description string) (*model.Organization, error) {
	if viewer == nil {
		return nil, domain.ErrUnauthorized
	}
	org, err := model.NewOrganization(uuid.NewString(), viewer.UserID, name, description)
	if err != nil {
		return nil, err
	}
	org.CreatedAt = u.clock.now()
	if err := u.orgs.Save(ctx, repository.NoTX, org); err != nil {
		return nil, err
	}
	u.log.Info().Str("org_id", org.ID).Str("user_id", viewer.UserID).Msg("organization created")
	return org, nil
}

func (u *workforceUC) MyOrganization(ctx context.Context, viewer *model.Identity) (*model.Organization, error) {
	if viewer == nil {
		return nil, domain.ErrUnauthorized
	}
	return u.orgs.FindByUserID(ctx, repository.NoTX, viewer.UserID)
}

func (u *workforceUC) ownedOrg(ctx context.Context, viewer *model.Identity, orgID string) (*model.Organization, error) {
	if viewer == nil {
		return nil, domain.ErrUnauthorized
	}
	org, err := u.orgs.FindByID(ctx, repository.NoTX, orgID)
	if err != nil {
		return nil, err
	}
	if org.UserID != viewer.UserID {
		return nil, domain.ErrNotFound
	}
	return org, nil
}

func (u *workforceUC) CreateAgent(ctx context.Context, viewer *model.Identity, orgID string, typ model.AgentType, name string) (*model.Agent, error) {
	org, err := u.ownedOrg(ctx, viewer, orgID)
	if err != nil {
		return nil, err
	}
	agent, err := model.NewAgent(uuid.NewString(), org.ID, typ, name)
	if err != nil {
		return nil, err
	}
	agent.CreatedAt = u.clock.now()
	if err := u.agents.Save(ctx, repository.NoTX, agent); err != nil {
		return nil, err
	}
	u.log.Info().Str("org_id", org.ID).Str("agent_id", agent.ID).Str("type", string(agent.Type)).Msg("agent created")
	return agent, nil
}

func (u *workforceUC) Workforce(ctx context.Context, viewer *model.Identity, orgID string) ([]AgentView, error) {
	org, err := u.ownedOrg(ctx, viewer, orgID)
	if err != nil {
		return nil, err
	}
	agents, err := u.agents.ListByOrg(ctx, repository.NoTX, org.ID)
	if err != nil {
		return nil, err
	}
	now := u.clock.now()
	out := make([]AgentView, 0, len(agents))
	for _, a := range agents {
		v := AgentView{Agent: a, State: model.StateNone}
		if a.CurrentSubscriptionID != nil {
			sub, err := u.subs.FindByID(ctx, repository.NoTX, *a.CurrentSubscriptionID)
			if err != nil {
				return nil, err
			}
			v.Subscription = sub
			v.State = model.State(sub, now)
			v.DaysLeft = model.DaysLeft(sub, now)
		}
		out = append(out, v)
	}
	return out, nil
}
