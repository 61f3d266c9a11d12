package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"ai-image-studio/internal/domain"
	"ai-image-studio/internal/domain/model"
	"ai-image-studio/internal/domain/ports/repository"
)

var _ repository.PaymentRepository = (*paymentRepo)(nil)

type paymentRepo struct{ pool *pgxpool.Pool }

func NewPaymentRepo(pool *pgxpool.Pool) *paymentRepo {
	return &paymentRepo{pool: pool}
}

const paymentColumns = `id, user_id, amount, currency, credits, status, session_id, provider_payment_id, created_at, updated_at, paid_at`

func scanPayment(row pgx.Row) (*model.Payment, error) {
	p := &model.Payment{}
	if err := row.Scan(&p.ID, &p.UserID, &p.Amount, &p.Currency, &p.Credits, &p.Status, &p.SessionID, &p.ProviderPaymentID, &p.CreatedAt, &p.UpdatedAt, &p.PaidAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	return p, nil
}

func (r *paymentRepo) Save(ctx context.Context, tx repository.Tx, p *model.Payment) error {
	ex, err := getExecutor(r.pool, tx)
	if err != nil {
		return err
	}
	const q = `
INSERT INTO payments (
  id, user_id, amount, currency, credits, status, session_id, provider_payment_id, created_at, updated_at, paid_at
) VALUES (
  $1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11
) ON CONFLICT (id) DO UPDATE SET
  status=$6, session_id=$7, provider_payment_id=$8, updated_at=$10, paid_at=$11;`
	if _, err := ex.Exec(ctx, q, p.ID, p.UserID, p.Amount, p.Currency, p.Credits, p.Status, p.SessionID, p.ProviderPaymentID, p.CreatedAt, p.UpdatedAt, p.PaidAt); err != nil {
		return domain.ErrOperationFailed
	}
	return nil
}

func (r *paymentRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Payment, error) {
	ex, err := getExecutor(r.pool, tx)
	if err != nil {
		return nil, err
	}
	return scanPayment(ex.QueryRow(ctx, `SELECT `+paymentColumns+` FROM payments WHERE id=$1;`, id))
}

func (r *paymentRepo) FindBySessionID(ctx context.Context, tx repository.Tx, sessionID string) (*model.Payment, error) {
	ex, err := getExecutor(r.pool, tx)
	if err != nil {
		return nil, err
	}
	return scanPayment(ex.QueryRow(ctx, `SELECT `+paymentColumns+` FROM payments WHERE session_id=$1 LIMIT 1;`, sessionID))
}

func (r *paymentRepo) ListByUser(ctx context.Context, tx repository.Tx, userID string, limit int) ([]*model.Payment, error) {
	if limit <= 0 {
		limit = 50
	}
	ex, err := getExecutor(r.pool, tx)
	if err != nil {
		return nil, err
	}
	rows, err := ex.Query(ctx, `SELECT `+paymentColumns+` FROM payments WHERE user_id=$1 ORDER BY created_at DESC LIMIT $2;`, userID, limit)
	if err != nil {
		return nil, domain.ErrOperationFailed
	}
	defer rows.Close()
	var out []*model.Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

func (r *paymentRepo) AttachSession(ctx context.Context, tx repository.Tx, paymentID, sessionID string) error {
	ex, err := getExecutor(r.pool, tx)
	if err != nil {
		return err
	}
	cmd, err := ex.Exec(ctx, `UPDATE payments SET session_id=$2, updated_at=NOW() WHERE id=$1;`, paymentID, sessionID)
	if err != nil {
		return domain.ErrOperationFailed
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// MarkCompletedIfPending atomically flips status only when it is still
// pending, which makes replayed and out-of-order provider events no-ops.
func (r *paymentRepo) MarkCompletedIfPending(ctx context.Context, tx repository.Tx, paymentID, providerPaymentID string, paidAt time.Time) (bool, error) {
	ex, err := getExecutor(r.pool, tx)
	if err != nil {
		return false, err
	}
	const q = `
UPDATE payments
   SET status = 'completed',
       provider_payment_id = $2,
       paid_at = $3,
       updated_at = NOW()
 WHERE id = $1
   AND status = 'pending';`
	cmd, err := ex.Exec(ctx, q, paymentID, providerPaymentID, paidAt)
	if err != nil {
		return false, domain.ErrOperationFailed
	}
	return cmd.RowsAffected() >= 1, nil
}

func (r *paymentRepo) MarkCancelledIfPending(ctx context.Context, tx repository.Tx, paymentID string) (bool, error) {
	ex, err := getExecutor(r.pool, tx)
	if err != nil {
		return false, err
	}
	const q = `UPDATE payments SET status='cancelled', updated_at=NOW() WHERE id=$1 AND status='pending';`
	cmd, err := ex.Exec(ctx, q, paymentID)
	if err != nil {
		return false, domain.ErrOperationFailed
	}
	return cmd.RowsAffected() >= 1, nil
}

func (r *paymentRepo) ListPendingOlderThan(ctx context.Context, tx repository.Tx, olderThan time.Time, limit int) ([]*model.Payment, error) {
	if limit <= 0 {
		limit = 100
	}
	ex, err := getExecutor(r.pool, tx)
	if err != nil {
		return nil, err
	}
	rows, err := ex.Query(ctx, `SELECT `+paymentColumns+` FROM payments WHERE status='pending' AND created_at < $1 ORDER BY created_at ASC LIMIT $2;`, olderThan, limit)
	if err != nil {
		return nil, domain.ErrOperationFailed
	}
	defer rows.Close()
	var out []*model.Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

func (r *paymentRepo) SumByPeriod(ctx context.Context, tx repository.Tx, period string) (int64, error) {
	ex, err := getExecutor(r.pool, tx)
	if err != nil {
		return 0, err
	}
	var sum int64
	const q = `SELECT COALESCE(SUM(amount),0) FROM payments WHERE status='completed' AND paid_at >= DATE_TRUNC($1, NOW());`
	if err := ex.QueryRow(ctx, q, period).Scan(&sum); err != nil {
		return 0, domain.ErrReadDatabaseRow
	}
	return sum, nil
}
