package repository

import (
	"context"

	"workforce-billing/internal/domain/model"
)

// OrganizationRepository is the port for organizations.
type OrganizationRepository interface {
	// Save inserts the organization; a second organization for the same user
	// fails with domain.ErrAlreadyExists.
	Save(ctx context.Context, tx Tx, org *model.Organization) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.Organization, error)
	FindByUserID(ctx context.Context, tx Tx, userID string) (*model.Organization, error)
}

// AgentRepository is the port for agents.
type AgentRepository interface {
	// Save inserts the agent; a second agent of the same type in an organization
	// fails with domain.ErrAlreadyExists.
	Save(ctx context.Context, tx Tx, a *model.Agent) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.Agent, error)
	ListByOrg(ctx context.Context, tx Tx, orgID string) ([]*model.Agent, error)
	SetCurrentSubscription(ctx context.Context, tx Tx, agentID, subscriptionID string) error
}
