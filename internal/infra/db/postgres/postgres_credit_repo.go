package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"ai-image-studio/internal/domain"
	"ai-image-studio/internal/domain/ports/repository"
)

var _ repository.CreditRepository = (*creditRepo)(nil)

type creditRepo struct{ pool *pgxpool.Pool }

func NewCreditRepo(pool *pgxpool.Pool) *creditRepo {
	return &creditRepo{pool: pool}
}

func (r *creditRepo) GetBalance(ctx context.Context, tx repository.Tx, userID string) (int64, error) {
	ex, err := getExecutor(r.pool, tx)
	if err != nil {
		return 0, err
	}
	var credits int64
	err = ex.QueryRow(ctx, `SELECT credits FROM user_credits WHERE user_id=$1;`, userID).Scan(&credits)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, domain.ErrNotFound
		}
		return 0, domain.ErrReadDatabaseRow
	}
	return credits, nil
}

func (r *creditRepo) Initialize(ctx context.Context, tx repository.Tx, userID string, startingCredits int64) error {
	if startingCredits < 0 {
		return domain.ErrInvalidArgument
	}
	ex, err := getExecutor(r.pool, tx)
	if err != nil {
		return err
	}
	const q = `
INSERT INTO user_credits (user_id, credits, created_at, updated_at)
VALUES ($1, $2, NOW(), NOW())
ON CONFLICT (user_id) DO NOTHING;`
	cmd, err := ex.Exec(ctx, q, userID, startingCredits)
	if err != nil {
		return domain.ErrOperationFailed
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrAlreadyExists
	}
	return nil
}

// Adjust applies delta in a single conditional update so concurrent
// adjustments serialize at the row and the balance can never be observed
// negative. A zero row count is disambiguated into NotFound vs
// InsufficientCredits with a follow-up existence probe.
func (r *creditRepo) Adjust(ctx context.Context, tx repository.Tx, userID string, delta int64) error {
	ex, err := getExecutor(r.pool, tx)
	if err != nil {
		return err
	}
	const q = `
UPDATE user_credits
   SET credits = credits + $2, updated_at = NOW()
 WHERE user_id = $1
   AND credits + $2 >= 0;`
	cmd, err := ex.Exec(ctx, q, userID, delta)
	if err != nil {
		return domain.ErrOperationFailed
	}
	if cmd.RowsAffected() >= 1 {
		return nil
	}
	var exists bool
	if err := ex.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM user_credits WHERE user_id=$1);`, userID).Scan(&exists); err != nil {
		return domain.ErrReadDatabaseRow
	}
	if !exists {
		return domain.ErrNotFound
	}
	return domain.ErrInsufficientCredits
}

func (r *creditRepo) Grant(ctx context.Context, tx repository.Tx, userID string, amount int64) error {
	if amount <= 0 {
		return domain.ErrInvalidArgument
	}
	ex, err := getExecutor(r.pool, tx)
	if err != nil {
		return err
	}
	const q = `
INSERT INTO user_credits (user_id, credits, created_at, updated_at)
VALUES ($1, $2, NOW(), NOW())
ON CONFLICT (user_id) DO UPDATE
   SET credits = user_credits.credits + EXCLUDED.credits, updated_at = NOW();`
	if _, err := ex.Exec(ctx, q, userID, amount); err != nil {
		return domain.ErrOperationFailed
	}
	return nil
}

func (r *creditRepo) TotalOutstanding(ctx context.Context, tx repository.Tx) (int64, error) {
	ex, err := getExecutor(r.pool, tx)
	if err != nil {
		return 0, err
	}
	var total int64
	if err := ex.QueryRow(ctx, `SELECT COALESCE(SUM(credits),0) FROM user_credits;`).Scan(&total); err != nil {
		return 0, domain.ErrReadDatabaseRow
	}
	return total, nil
}
