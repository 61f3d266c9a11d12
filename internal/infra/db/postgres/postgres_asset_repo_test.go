//go:build integration

package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"ai-image-studio/internal/domain"
	"ai-image-studio/internal/domain/model"
	"ai-image-studio/internal/domain/ports/repository"
)

func TestAssetRepo_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode.")
	}

	ctx := context.Background()
	repo := NewAssetRepo(testPool)

	newAsset := func(userID, url string, createdAt time.Time) *model.Asset {
		return &model.Asset{
			ID:        uuid.NewString(),
			UserID:    userID,
			URL:       url,
			Prompt:    "a red fox",
			CreatedAt: createdAt,
		}
	}

	t.Run("save and find", func(t *testing.T) {
		cleanup(t)
		a := newAsset("u1", "https://provider.example/tmp/1.png", time.Now())
		if err := repo.Save(ctx, repository.NoTX, a); err != nil {
			t.Fatalf("Save failed: %v", err)
		}
		found, err := repo.FindByID(ctx, repository.NoTX, a.ID)
		if err != nil {
			t.Fatalf("FindByID failed: %v", err)
		}
		if found.UserID != "u1" || found.Mirrored {
			t.Fatalf("found asset = %+v", found)
		}
	})

	t.Run("set mirrored rewrites the url", func(t *testing.T) {
		cleanup(t)
		a := newAsset("u1", "https://provider.example/tmp/1.png", time.Now())
		repo.Save(ctx, repository.NoTX, a)

		if err := repo.SetMirrored(ctx, repository.NoTX, a.ID, "https://cdn.example.test/generated/1.png"); err != nil {
			t.Fatalf("SetMirrored failed: %v", err)
		}
		found, _ := repo.FindByID(ctx, repository.NoTX, a.ID)
		if !found.Mirrored || found.URL != "https://cdn.example.test/generated/1.png" {
			t.Errorf("asset after mirror = %+v", found)
		}
	})

	t.Run("list is newest first and scoped to the user", func(t *testing.T) {
		cleanup(t)
		older := newAsset("u1", "https://cdn.example.test/a.png", time.Now().Add(-time.Hour))
		newer := newAsset("u1", "https://cdn.example.test/b.png", time.Now())
		other := newAsset("u2", "https://cdn.example.test/c.png", time.Now())
		repo.Save(ctx, repository.NoTX, older)
		repo.Save(ctx, repository.NoTX, newer)
		repo.Save(ctx, repository.NoTX, other)

		list, err := repo.ListByUser(ctx, repository.NoTX, "u1", 10)
		if err != nil {
			t.Fatalf("ListByUser failed: %v", err)
		}
		if len(list) != 2 || list[0].ID != newer.ID {
			t.Errorf("list = %v", list)
		}
	})

	t.Run("delete removes the row", func(t *testing.T) {
		cleanup(t)
		a := newAsset("u1", "https://cdn.example.test/a.png", time.Now())
		repo.Save(ctx, repository.NoTX, a)

		if err := repo.Delete(ctx, repository.NoTX, a.ID); err != nil {
			t.Fatalf("Delete failed: %v", err)
		}
		if _, err := repo.FindByID(ctx, repository.NoTX, a.ID); !errors.Is(err, domain.ErrNotFound) {
			t.Errorf("err = %v, want ErrNotFound", err)
		}
	})
}
