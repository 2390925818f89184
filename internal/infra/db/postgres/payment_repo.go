package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"workforce-billing/internal/domain"
	"workforce-billing/internal/domain/model"
	"workforce-billing/internal/domain/ports/repository"
)

var _ repository.PaymentRepository = (*paymentRepo)(nil)

type paymentRepo struct{ pool *pgxpool.Pool }

func NewPaymentRepo(pool *pgxpool.Pool) *paymentRepo {
	return &paymentRepo{pool: pool}
}

func (r *paymentRepo) Save(ctx context.Context, tx repository.Tx, p *model.PaymentTransaction) error {
	const q = `
INSERT INTO payment_transactions (
  id, agent_id, subscription_id, receipt, gateway_order_id, gateway_payment_id, gateway_signature, amount, currency, status, failure_reason, created_at, updated_at
) VALUES (
  $1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13
);`
	_, err := execSQL(ctx, r.pool, tx, q, p.ID, p.AgentID, p.SubscriptionID, p.Receipt, p.GatewayOrderID,
		p.GatewayPaymentID, p.GatewaySignature, p.Amount, p.Currency, string(p.Status), p.FailureReason, p.CreatedAt, p.UpdatedAt)
	return err
}

func (r *paymentRepo) Delete(ctx context.Context, tx repository.Tx, id string) error {
	const q = `DELETE FROM payment_transactions WHERE id=$1;`
	_, err := execSQL(ctx, r.pool, tx, q, id)
	return err
}

const paymentColumns = `id, agent_id, subscription_id, receipt, gateway_order_id, gateway_payment_id, gateway_signature, amount, currency, status, failure_reason, created_at, updated_at`

func scanPayment(row pgx.Row) (*model.PaymentTransaction, error) {
	p := &model.PaymentTransaction{}
	var status string
	if err := row.Scan(&p.ID, &p.AgentID, &p.SubscriptionID, &p.Receipt, &p.GatewayOrderID, &p.GatewayPaymentID,
		&p.GatewaySignature, &p.Amount, &p.Currency, &status, &p.FailureReason, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, scanErr(err)
	}
	p.Status = model.PaymentStatus(status)
	return p, nil
}

func (r *paymentRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.PaymentTransaction, error) {
	q := forUpdate(`SELECT `+paymentColumns+` FROM payment_transactions WHERE id=$1`, tx)
	row, err := pickRow(ctx, r.pool, tx, q, id)
	if err != nil {
		return nil, err
	}
	return scanPayment(row)
}

func (r *paymentRepo) FindByOrderID(ctx context.Context, tx repository.Tx, orderID string) (*model.PaymentTransaction, error) {
	if orderID == "" {
		return nil, domain.ErrNotFound
	}
	q := forUpdate(`SELECT `+paymentColumns+` FROM payment_transactions WHERE gateway_order_id=$1`, tx)
	row, err := pickRow(ctx, r.pool, tx, q, orderID)
	if err != nil {
		return nil, err
	}
	return scanPayment(row)
}

func (r *paymentRepo) ListByAgent(ctx context.Context, tx repository.Tx, agentID string, limit int) ([]*model.PaymentTransaction, error) {
	if limit <= 0 {
		limit = 50
	}
	const q = `SELECT ` + paymentColumns + ` FROM payment_transactions WHERE agent_id=$1 ORDER BY created_at DESC LIMIT $2;`
	return r.list(ctx, tx, q, agentID, limit)
}

func (r *paymentRepo) AttachOrder(ctx context.Context, tx repository.Tx, id, orderID string) error {
	const q = `UPDATE payment_transactions SET gateway_order_id=$2, updated_at=NOW() WHERE id=$1 AND gateway_order_id IS NULL;`
	tag, err := execSQL(ctx, r.pool, tx, q, id, orderID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *paymentRepo) ListPendingOlderThan(ctx context.Context, tx repository.Tx, cutoff time.Time, limit int) ([]*model.PaymentTransaction, error) {
	if limit <= 0 {
		limit = 50
	}
	const q = `SELECT ` + paymentColumns + ` FROM payment_transactions WHERE status='pending' AND created_at < $1 ORDER BY created_at ASC LIMIT $2;`
	return r.list(ctx, tx, q, cutoff, limit)
}

func (r *paymentRepo) list(ctx context.Context, tx repository.Tx, q string, args ...interface{}) ([]*model.PaymentTransaction, error) {
	rows, err := queryRows(ctx, r.pool, tx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.PaymentTransaction
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, mapErr(rows.Err())
}

// TransitionFromPending is a compare-and-swap on status='pending'.
func (r *paymentRepo) TransitionFromPending(ctx context.Context, tx repository.Tx, id string, o model.PaymentOutcome) (bool, error) {
	const q = `
UPDATE payment_transactions
   SET status = $2,
       gateway_payment_id = COALESCE(NULLIF($3, ''), gateway_payment_id),
       gateway_signature = COALESCE(NULLIF($4, ''), gateway_signature),
       failure_reason = NULLIF($5, ''),
       updated_at = NOW()
 WHERE id = $1
   AND status = 'pending';`
	tag, err := execSQL(ctx, r.pool, tx, q, id, string(o.Status), o.PaymentID, o.Signature, o.Reason)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}
