package usecase

import (
	"context"
	"time"

	"workforce-billing/internal/domain"
	"workforce-billing/internal/domain/model"
	"workforce-billing/internal/domain/ports/repository"
)

// Clock returns the current time. A nil Clock means time.Now.
type Clock func() time.Time

func (c Clock) now() time.Time {
	if c == nil {
		return time.Now().UTC()
	}
	return c().UTC()
}

// ownedAgent loads the agent and checks that its organization belongs to the viewer.
// A foreign agent is reported as domain.ErrNotFound.
func ownedAgent(ctx context.Context, tx repository.Tx, agents repository.AgentRepository, orgs repository.OrganizationRepository, viewer *model.Identity, agentID string) (*model.Agent, error) {
	if viewer == nil {
		return nil, domain.ErrUnauthorized
	}
	if agentID == "" {
		return nil, domain.ErrNotFound
	}
	agent, err := agents.FindByID(ctx, tx, agentID)
	if err != nil {
		return nil, err
	}
	org, err := orgs.FindByID(ctx, tx, agent.OrgID)
	if err != nil {
		return nil, err
	}
	if org.UserID != viewer.UserID {
		return nil, domain.ErrNotFound
	}
	return agent, nil
}
