package model

import (
	"strings"
	"time"

	"workforce-billing/internal/domain"
)

// Identity is the authenticated viewer of a request.
type Identity struct {
	UserID string
	Email  string
}

// Organization owns agents and belongs to exactly one user.
type Organization struct {
	ID          string
	UserID      string
	Name        string
	Description string
	CreatedAt   time.Time
}

func NewOrganization(id, userID, name, description string) (*Organization, error) {
	name = strings.TrimSpace(name)
	if id == "" || userID == "" || name == "" {
		return nil, domain.ErrInvalidArgument
	}
	return &Organization{
		ID:          id,
		UserID:      userID,
		Name:        name,
		Description: strings.TrimSpace(description),
		CreatedAt:   time.Now(),
	}, nil
}

type AgentType string

const (
	AgentTypeSales       AgentType = "SALES"
	AgentTypeProcurement AgentType = "PROCUREMENT"
)

// ParseAgentType accepts the type case-insensitively.
func ParseAgentType(s string) (AgentType, error) {
	switch AgentType(strings.ToUpper(strings.TrimSpace(s))) {
	case AgentTypeSales:
		return AgentTypeSales, nil
	case AgentTypeProcurement:
		return AgentTypeProcurement, nil
	}
	return "", domain.ErrInvalidArgument
}

// Agent is an AI worker of an organization. At most one agent of each type exists per organization.
type Agent struct {
	ID                    string
	OrgID                 string
	Type                  AgentType
	Name                  string
	CurrentSubscriptionID *string
	CreatedAt             time.Time
}

func NewAgent(id, orgID string, typ AgentType, name string) (*Agent, error) {
	if id == "" || orgID == "" {
		return nil, domain.ErrInvalidArgument
	}
	if _, err := ParseAgentType(string(typ)); err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		name = string(typ) + " Agent"
	}
	return &Agent{
		ID:        id,
		OrgID:     orgID,
		Type:      typ,
		Name:      name,
		CreatedAt: time.Now(),
	}, nil
}
