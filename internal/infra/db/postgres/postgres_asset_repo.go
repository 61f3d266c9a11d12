package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"ai-image-studio/internal/domain"
	"ai-image-studio/internal/domain/model"
	"ai-image-studio/internal/domain/ports/repository"
)

var _ repository.AssetRepository = (*assetRepo)(nil)

type assetRepo struct{ pool *pgxpool.Pool }

func NewAssetRepo(pool *pgxpool.Pool) *assetRepo {
	return &assetRepo{pool: pool}
}

func (r *assetRepo) Save(ctx context.Context, tx repository.Tx, a *model.Asset) error {
	ex, err := getExecutor(r.pool, tx)
	if err != nil {
		return err
	}
	const q = `
INSERT INTO assets (id, user_id, url, prompt, mirrored, created_at)
VALUES ($1,$2,$3,$4,$5,$6)
ON CONFLICT (id) DO UPDATE SET url=$3, mirrored=$5;`
	if _, err := ex.Exec(ctx, q, a.ID, a.UserID, a.URL, a.Prompt, a.Mirrored, a.CreatedAt); err != nil {
		return domain.ErrOperationFailed
	}
	return nil
}

func (r *assetRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Asset, error) {
	ex, err := getExecutor(r.pool, tx)
	if err != nil {
		return nil, err
	}
	a := &model.Asset{}
	err = ex.QueryRow(ctx, `SELECT id, user_id, url, prompt, mirrored, created_at FROM assets WHERE id=$1;`, id).
		Scan(&a.ID, &a.UserID, &a.URL, &a.Prompt, &a.Mirrored, &a.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	return a, nil
}

func (r *assetRepo) ListByUser(ctx context.Context, tx repository.Tx, userID string, limit int) ([]*model.Asset, error) {
	if limit <= 0 {
		limit = 100
	}
	ex, err := getExecutor(r.pool, tx)
	if err != nil {
		return nil, err
	}
	rows, err := ex.Query(ctx, `SELECT id, user_id, url, prompt, mirrored, created_at FROM assets WHERE user_id=$1 ORDER BY created_at DESC LIMIT $2;`, userID, limit)
	if err != nil {
		return nil, domain.ErrOperationFailed
	}
	defer rows.Close()
	var out []*model.Asset
	for rows.Next() {
		a := &model.Asset{}
		if err := rows.Scan(&a.ID, &a.UserID, &a.URL, &a.Prompt, &a.Mirrored, &a.CreatedAt); err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
		out = append(out, a)
	}
	return out, nil
}

func (r *assetRepo) Delete(ctx context.Context, tx repository.Tx, id string) error {
	ex, err := getExecutor(r.pool, tx)
	if err != nil {
		return err
	}
	cmd, err := ex.Exec(ctx, `DELETE FROM assets WHERE id=$1;`, id)
	if err != nil {
		return domain.ErrOperationFailed
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *assetRepo) SetMirrored(ctx context.Context, tx repository.Tx, id, url string) error {
	ex, err := getExecutor(r.pool, tx)
	if err != nil {
		return err
	}
	cmd, err := ex.Exec(ctx, `UPDATE assets SET url=$2, mirrored=TRUE WHERE id=$1;`, id, url)
	if err != nil {
		return domain.ErrOperationFailed
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}
