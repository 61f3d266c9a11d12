package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"ai-image-studio/internal/domain"
	"ai-image-studio/internal/domain/model"
	"ai-image-studio/internal/domain/ports/adapter"
	"ai-image-studio/internal/domain/ports/repository"
	"ai-image-studio/internal/infra/logging"
)

// Compile-time check
var _ AssetUseCase = (*assetUC)(nil)

// AssetUseCase manages a user's generated images and uploads.
type AssetUseCase interface {
	List(ctx context.Context, userID string, limit int) ([]*model.Asset, error)
	// Delete removes the asset record and, best effort, its stored object.
	// domain.ErrForbidden when the asset belongs to someone else.
	Delete(ctx context.Context, userID, assetID string) error
	// Upload stores a user-provided image in the staging area and returns its
	// public URL.
	Upload(ctx context.Context, userID string, data []byte, contentType string) (string, error)
}

type assetUC struct {
	assets repository.AssetRepository
	store  adapter.ObjectStore
	log    *zerolog.Logger
}

func NewAssetUseCase(assets repository.AssetRepository, store adapter.ObjectStore, logger *zerolog.Logger) *assetUC {
	return &assetUC{assets: assets, store: store, log: logger}
}

func (u *assetUC) List(ctx context.Context, userID string, limit int) ([]*model.Asset, error) {
	defer logging.TraceDuration(u.log, "AssetUC.List")()
	return u.assets.ListByUser(ctx, repository.NoTX, userID, limit)
}

func (u *assetUC) Delete(ctx context.Context, userID, assetID string) error {
	defer logging.TraceDuration(u.log, "AssetUC.Delete")()

	a, err := u.assets.FindByID(ctx, repository.NoTX, assetID)
	if err != nil {
		return err
	}
	if a.UserID != userID {
		return domain.ErrForbidden
	}

	// Storage cleanup must not block the delete: a dangling object is a cost
	// problem, a dangling row pointing at nothing is a user-facing bug.
	if key, kErr := u.store.KeyFromURL(a.URL); kErr == nil {
		if dErr := u.store.Delete(ctx, key); dErr != nil {
			u.log.Warn().Err(dErr).Str("asset_id", a.ID).Str("key", key).Msg("failed to delete stored object")
		}
	} else if !errors.Is(kErr, domain.ErrInvalidArgument) {
		u.log.Warn().Err(kErr).Str("asset_id", a.ID).Msg("could not resolve object key")
	}

	return u.assets.Delete(ctx, repository.NoTX, assetID)
}

func (u *assetUC) Upload(ctx context.Context, userID string, data []byte, contentType string) (string, error) {
	defer logging.TraceDuration(u.log, "AssetUC.Upload")()

	if len(data) == 0 {
		return "", fmt.Errorf("%w: empty file", domain.ErrInvalidArgument)
	}
	if contentType == "" {
		contentType = "image/png"
	}
	key := "temp/" + ulid.Make().String() + extFor(contentType)
	url, err := u.store.Upload(ctx, key, data, contentType)
	if err != nil {
		return "", err
	}
	u.log.Debug().Str("user_id", userID).Str("key", key).Msg("upload stored")
	return url, nil
}
