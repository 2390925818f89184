package postgres

import (
	"context"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"workforce-billing/internal/domain/model"
	"workforce-billing/internal/domain/ports/repository"
)

var _ repository.SubscriptionRepository = (*subscriptionRepo)(nil)

type subscriptionRepo struct{ pool *pgxpool.Pool }

func NewSubscriptionRepo(pool *pgxpool.Pool) *subscriptionRepo {
	return &subscriptionRepo{pool: pool}
}

// Save upserts by id.
func (r *subscriptionRepo) Save(ctx context.Context, tx repository.Tx, s *model.Subscription) error {
	const q = `
INSERT INTO subscriptions (
  id, agent_id, status, trial_started_at, trial_expires_at, subscription_started_at, subscription_expires_at, amount, created_at, updated_at
) VALUES (
  $1,$2,$3,$4,$5,$6,$7,$8,$9,$10
) ON CONFLICT (id) DO UPDATE SET
  status=$3, trial_started_at=$4, trial_expires_at=$5, subscription_started_at=$6, subscription_expires_at=$7, amount=$8, updated_at=$10;`
	_, err := execSQL(ctx, r.pool, tx, q, s.ID, s.AgentID, string(s.Status), s.TrialStartedAt, s.TrialExpiresAt,
		s.SubscriptionStartedAt, s.SubscriptionExpiresAt, s.Amount, s.CreatedAt, s.UpdatedAt)
	return err
}

const subscriptionColumns = `s.id, s.agent_id, s.status, s.trial_started_at, s.trial_expires_at, s.subscription_started_at, s.subscription_expires_at, s.amount, s.created_at, s.updated_at`

func scanSubscription(row pgx.Row) (*model.Subscription, error) {
	s := &model.Subscription{}
	var status string
	if err := row.Scan(&s.ID, &s.AgentID, &status, &s.TrialStartedAt, &s.TrialExpiresAt,
		&s.SubscriptionStartedAt, &s.SubscriptionExpiresAt, &s.Amount, &s.CreatedAt, &s.UpdatedAt); err != nil {
		return nil, scanErr(err)
	}
	s.Status = model.SubscriptionStatus(status)
	return s, nil
}

func (r *subscriptionRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Subscription, error) {
	q := forUpdate(`SELECT `+subscriptionColumns+` FROM subscriptions s WHERE s.id=$1`, tx)
	row, err := pickRow(ctx, r.pool, tx, q, id)
	if err != nil {
		return nil, err
	}
	return scanSubscription(row)
}

func (r *subscriptionRepo) FindCurrentByAgent(ctx context.Context, tx repository.Tx, agentID string) (*model.Subscription, error) {
	q := `SELECT ` + subscriptionColumns + `
FROM agents a JOIN subscriptions s ON s.id = a.current_subscription_id
WHERE a.id=$1`
	if _, ok := tx.(pgx.Tx); ok {
		q += " FOR UPDATE OF s"
	}
	row, err := pickRow(ctx, r.pool, tx, q, agentID)
	if err != nil {
		return nil, err
	}
	return scanSubscription(row)
}

func (r *subscriptionRepo) CountByAgent(ctx context.Context, tx repository.Tx, agentID string) (int, error) {
	const q = `SELECT COUNT(*) FROM subscriptions WHERE agent_id=$1;`
	row, err := pickRow(ctx, r.pool, tx, q, agentID)
	if err != nil {
		return 0, err
	}
	var n int
	if err := row.Scan(&n); err != nil {
		return 0, scanErr(err)
	}
	return n, nil
}

func (r *subscriptionRepo) AppendEvent(ctx context.Context, tx repository.Tx, e *model.SubscriptionEvent) error {
	const q = `
INSERT INTO subscription_events (id, subscription_id, agent_id, kind, transaction_id, occurred_at)
VALUES ($1,$2,$3,$4,$5,$6);`
	_, err := execSQL(ctx, r.pool, tx, q, e.ID, e.SubscriptionID, e.AgentID, string(e.Kind), e.TransactionID, e.OccurredAt)
	return err
}

func (r *subscriptionRepo) ListEvents(ctx context.Context, tx repository.Tx, subscriptionID string) ([]*model.SubscriptionEvent, error) {
	const q = `
SELECT id, subscription_id, agent_id, kind, transaction_id, occurred_at
FROM subscription_events WHERE subscription_id=$1 ORDER BY occurred_at ASC, id ASC;`
	rows, err := queryRows(ctx, r.pool, tx, q, subscriptionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.SubscriptionEvent
	for rows.Next() {
		e := &model.SubscriptionEvent{}
		var kind string
		if err := rows.Scan(&e.ID, &e.SubscriptionID, &e.AgentID, &kind, &e.TransactionID, &e.OccurredAt); err != nil {
			return nil, scanErr(err)
		}
		e.Kind = model.SubscriptionEventKind(kind)
		out = append(out, e)
	}
	return out, mapErr(rows.Err())
}
