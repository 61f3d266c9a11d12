package repository

import (
	"context"

	"ai-image-studio/internal/domain/model"
)

// AssetRepository persists generated image records.
type AssetRepository interface {
	Save(ctx context.Context, tx Tx, a *model.Asset) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.Asset, error)
	ListByUser(ctx context.Context, tx Tx, userID string, limit int) ([]*model.Asset, error)
	Delete(ctx context.Context, tx Tx, id string) error
	// SetMirrored updates the URL after the image is copied into our bucket.
	SetMirrored(ctx context.Context, tx Tx, id, url string) error
}
