package model

import (
	"math"
	"time"

	"workforce-billing/internal/domain"
)

type SubscriptionStatus string

const (
	SubscriptionStatusTrial   SubscriptionStatus = "trial"
	SubscriptionStatusActive  SubscriptionStatus = "active"
	SubscriptionStatusExpired SubscriptionStatus = "expired" // derived; may also be stored by legacy rows
)

// SubscriptionState is the evaluated state of an agent's current subscription at a point in time.
type SubscriptionState string

const (
	StateNone    SubscriptionState = "none"
	StateTrial   SubscriptionState = "trial"
	StateActive  SubscriptionState = "active"
	StateExpired SubscriptionState = "expired"
)

const (
	TrialPeriod = 30 * 24 * time.Hour
	PaidPeriod  = 30 * 24 * time.Hour

	// SubscriptionPrice is the monthly price in rupees; the gateway is charged in paise.
	SubscriptionPrice      int64 = 800
	SubscriptionPriceMinor int64 = SubscriptionPrice * 100
	SubscriptionCurrency         = "INR"
)

// Subscription is one entitlement row of an agent. The agent's CurrentSubscriptionID
// points at the authoritative one; older rows are history.
type Subscription struct {
	ID                    string
	AgentID               string
	Status                SubscriptionStatus
	TrialStartedAt        *time.Time
	TrialExpiresAt        *time.Time
	SubscriptionStartedAt *time.Time // paid window start
	SubscriptionExpiresAt *time.Time // paid window end
	Amount                int64
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

// NewTrialSubscription builds a trial row starting at now.
func NewTrialSubscription(id, agentID string, now time.Time) (*Subscription, error) {
	if id == "" || agentID == "" {
		return nil, domain.ErrInvalidArgument
	}
	start := now
	end := now.Add(TrialPeriod)
	return &Subscription{
		ID:             id,
		AgentID:        agentID,
		Status:         SubscriptionStatusTrial,
		TrialStartedAt: &start,
		TrialExpiresAt: &end,
		Amount:         SubscriptionPrice,
		CreatedAt:      now,
		UpdatedAt:      now,
	}, nil
}

// IsAccessible reports whether the subscription grants console access at now.
// A nil subscription is never accessible.
func IsAccessible(s *Subscription, now time.Time) bool {
	if s == nil {
		return false
	}
	switch s.Status {
	case SubscriptionStatusTrial:
		return s.TrialExpiresAt != nil && s.TrialExpiresAt.After(now)
	case SubscriptionStatusActive:
		return s.SubscriptionExpiresAt != nil && s.SubscriptionExpiresAt.After(now)
	default:
		return false
	}
}

// State evaluates the subscription by wall clock. Expiry is never stored by this
// service; it is computed on every read.
func State(s *Subscription, now time.Time) SubscriptionState {
	if s == nil {
		return StateNone
	}
	if !IsAccessible(s, now) {
		return StateExpired
	}
	if s.Status == SubscriptionStatusTrial {
		return StateTrial
	}
	return StateActive
}

// DaysLeft returns the whole days (rounded up) until the relevant window closes,
// or 0 when the subscription is not accessible.
func DaysLeft(s *Subscription, now time.Time) int {
	if !IsAccessible(s, now) {
		return 0
	}
	end := s.TrialExpiresAt
	if s.Status == SubscriptionStatusActive {
		end = s.SubscriptionExpiresAt
	}
	return int(math.Ceil(end.Sub(now).Hours() / 24))
}

// Activate moves the subscription to ACTIVE with a fresh paid window starting at now.
// It is only called after a successful payment resolution.
func (s *Subscription) Activate(now time.Time) {
	start := now
	end := now.Add(PaidPeriod)
	s.Status = SubscriptionStatusActive
	s.SubscriptionStartedAt = &start
	s.SubscriptionExpiresAt = &end
	s.UpdatedAt = now
}

type SubscriptionEventKind string

const (
	SubscriptionEventTrialStarted SubscriptionEventKind = "trial_started"
	SubscriptionEventActivated    SubscriptionEventKind = "activated"
)

// SubscriptionEvent is an append-only record of a subscription transition.
type SubscriptionEvent struct {
	ID             string
	SubscriptionID string
	AgentID        string
	Kind           SubscriptionEventKind
	TransactionID  *string // set for activations
	OccurredAt     time.Time
}
