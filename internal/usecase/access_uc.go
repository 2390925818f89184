package usecase

import (
	"context"
	"errors"
	"net/url"

	"github.com/rs/zerolog"

	"workforce-billing/internal/domain"
	"workforce-billing/internal/domain/model"
	"workforce-billing/internal/domain/ports/repository"
	"workforce-billing/internal/infra/metrics"
)

// Compile-time check
var _ AccessUseCase = (*accessUC)(nil)

// AccessUseCase guards agent console routes.
type AccessUseCase interface {
	Decide(ctx context.Context, viewer *model.Identity, orgID, agentID string) Decision
}

// Decision is either Allow or a Redirect target. Reason is for logs and metrics only.
type Decision struct {
	Allow    bool
	Redirect string
	Reason   string
}

const (
	ReasonUnauthenticated = "unauthenticated"
	ReasonAgentMismatch   = "agent_not_found"
	ReasonNotOwner        = "org_not_owned"
	ReasonNoSubscription  = "no_subscription"
	ReasonExpired         = "expired"
)

const LoginPath = "/auth/login"

func WorkforcePath(orgID string) string {
	return "/organizations/" + url.PathEscape(orgID) + "/workforce"
}

func OrganizationsPath() string { return "/organizations" }

func BillingPath(orgID, agentID string) string {
	return "/organizations/" + url.PathEscape(orgID) + "/billing?agent=" + url.QueryEscape(agentID)
}

type accessUC struct {
	orgs   repository.OrganizationRepository
	agents repository.AgentRepository
	subs   repository.SubscriptionRepository
	clock  Clock
	log    *zerolog.Logger
}

func NewAccessUseCase(
	orgs repository.OrganizationRepository,
	agents repository.AgentRepository,
	subs repository.SubscriptionRepository,
	clock Clock,
	logger *zerolog.Logger,
) *accessUC {
	return &accessUC{orgs: orgs, agents: agents, subs: subs, clock: clock, log: logger}
}

// Decide runs the checks in order and stops at the first failure. Any storage
// error yields the redirect of the step that failed.
func (u *accessUC) Decide(ctx context.Context, viewer *model.Identity, orgID, agentID string) Decision {
	d := u.decide(ctx, viewer, orgID, agentID)
	outcome := "allow"
	if !d.Allow {
		outcome = d.Reason
	}
	metrics.IncAccessDecision(outcome)
	return d
}

func (u *accessUC) decide(ctx context.Context, viewer *model.Identity, orgID, agentID string) Decision {
	if viewer == nil {
		return Decision{Redirect: LoginPath, Reason: ReasonUnauthenticated}
	}

	agent, err := u.agents.FindByID(ctx, repository.NoTX, agentID)
	if err != nil || agent.OrgID != orgID {
		u.logErr(err, "agent lookup failed")
		return Decision{Redirect: WorkforcePath(orgID), Reason: ReasonAgentMismatch}
	}

	org, err := u.orgs.FindByID(ctx, repository.NoTX, orgID)
	if err != nil || org.UserID != viewer.UserID {
		u.logErr(err, "organization lookup failed")
		return Decision{Redirect: OrganizationsPath(), Reason: ReasonNotOwner}
	}

	sub, err := u.subs.FindCurrentByAgent(ctx, repository.NoTX, agent.ID)
	if err != nil {
		u.logErr(err, "subscription lookup failed")
		return Decision{Redirect: BillingPath(orgID, agent.ID), Reason: ReasonNoSubscription}
	}

	if !model.IsAccessible(sub, u.clock.now()) {
		return Decision{Redirect: BillingPath(orgID, agent.ID), Reason: ReasonExpired}
	}
	return Decision{Allow: true}
}

func (u *accessUC) logErr(err error, msg string) {
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		u.log.Error().Err(err).Msg(msg)
	}
}
