package postgres

import (
	"context"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"workforce-billing/internal/domain"
	"workforce-billing/internal/domain/model"
	"workforce-billing/internal/domain/ports/repository"
)

var (
	_ repository.OrganizationRepository = (*organizationRepo)(nil)
	_ repository.AgentRepository        = (*agentRepo)(nil)
)

type organizationRepo struct{ pool *pgxpool.Pool }

func NewOrganizationRepo(pool *pgxpool.Pool) *organizationRepo {
	return &organizationRepo{pool: pool}
}

func (r *organizationRepo) Save(ctx context.Context, tx repository.Tx, o *model.Organization) error {
	const q = `
INSERT INTO organizations (id, user_id, name, description, created_at)
VALUES ($1,$2,$3,$4,$5);`
	_, err := execSQL(ctx, r.pool, tx, q, o.ID, o.UserID, o.Name, o.Description, o.CreatedAt)
	return err
}

const orgColumns = `id, user_id, name, description, created_at`

func scanOrganization(row pgx.Row) (*model.Organization, error) {
	o := &model.Organization{}
	if err := row.Scan(&o.ID, &o.UserID, &o.Name, &o.Description, &o.CreatedAt); err != nil {
		return nil, scanErr(err)
	}
	return o, nil
}

func (r *organizationRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Organization, error) {
	q := forUpdate(`SELECT `+orgColumns+` FROM organizations WHERE id=$1`, tx)
	row, err := pickRow(ctx, r.pool, tx, q, id)
	if err != nil {
		return nil, err
	}
	return scanOrganization(row)
}

func (r *organizationRepo) FindByUserID(ctx context.Context, tx repository.Tx, userID string) (*model.Organization, error) {
	q := forUpdate(`SELECT `+orgColumns+` FROM organizations WHERE user_id=$1`, tx)
	row, err := pickRow(ctx, r.pool, tx, q, userID)
	if err != nil {
		return nil, err
	}
	return scanOrganization(row)
}

type agentRepo struct{ pool *pgxpool.Pool }

func NewAgentRepo(pool *pgxpool.Pool) *agentRepo {
	return &agentRepo{pool: pool}
}

func (r *agentRepo) Save(ctx context.Context, tx repository.Tx, a *model.Agent) error {
	const q = `
INSERT INTO agents (id, org_id, type, name, current_subscription_id, created_at)
VALUES ($1,$2,$3,$4,$5,$6);`
	_, err := execSQL(ctx, r.pool, tx, q, a.ID, a.OrgID, string(a.Type), a.Name, a.CurrentSubscriptionID, a.CreatedAt)
	return err
}

const agentColumns = `id, org_id, type, name, current_subscription_id, created_at`

func scanAgent(row pgx.Row) (*model.Agent, error) {
	a := &model.Agent{}
	var typ string
	if err := row.Scan(&a.ID, &a.OrgID, &typ, &a.Name, &a.CurrentSubscriptionID, &a.CreatedAt); err != nil {
		return nil, scanErr(err)
	}
	a.Type = model.AgentType(typ)
	return a, nil
}

func (r *agentRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Agent, error) {
	q := forUpdate(`SELECT `+agentColumns+` FROM agents WHERE id=$1`, tx)
	row, err := pickRow(ctx, r.pool, tx, q, id)
	if err != nil {
		return nil, err
	}
	return scanAgent(row)
}

func (r *agentRepo) ListByOrg(ctx context.Context, tx repository.Tx, orgID string) ([]*model.Agent, error) {
	const q = `SELECT ` + agentColumns + ` FROM agents WHERE org_id=$1 ORDER BY created_at ASC;`
	rows, err := queryRows(ctx, r.pool, tx, q, orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.Agent
	for rows.Next() {
		a, err := scanAgent(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, mapErr(rows.Err())
}

func (r *agentRepo) SetCurrentSubscription(ctx context.Context, tx repository.Tx, agentID, subscriptionID string) error {
	const q = `UPDATE agents SET current_subscription_id=$2 WHERE id=$1;`
	tag, err := execSQL(ctx, r.pool, tx, q, agentID, subscriptionID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}
