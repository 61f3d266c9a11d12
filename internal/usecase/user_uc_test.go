//go:build !integration

package usecase_test

import (
	"context"
	"errors"
	"testing"

	"ai-image-studio/internal/domain"
	"ai-image-studio/internal/usecase"
)

func TestUserUseCase_EnsureAccount(t *testing.T) {
	ctx := context.Background()
	testLogger := newTestLogger()

	t.Run("should create the account and grant signup credits once", func(t *testing.T) {
		users := NewMockUserRepo()
		credits := NewMockCreditRepo()
		uc := usecase.NewUserUseCase(users, credits, &MockTxManager{}, 10, testLogger)

		u, created, err := uc.EnsureAccount(ctx, "user-1", "user@example.com")
		if err != nil {
			t.Fatalf("expected no error, but got: %v", err)
		}
		if !created {
			t.Error("expected created=true on first sight")
		}
		if u.Email != "user@example.com" {
			t.Errorf("unexpected email %q", u.Email)
		}
		if got := credits.Balance("user-1"); got != 10 {
			t.Errorf("expected the 10-credit signup grant, got %d", got)
		}

		// Second login: same account, no second grant.
		_, created, err = uc.EnsureAccount(ctx, "user-1", "user@example.com")
		if err != nil {
			t.Fatalf("expected no error, but got: %v", err)
		}
		if created {
			t.Error("expected created=false on repeat login")
		}
		if got := credits.Balance("user-1"); got != 10 {
			t.Errorf("signup grant must not repeat, got %d", got)
		}
	})

	t.Run("should tolerate a pre-existing ledger row", func(t *testing.T) {
		users := NewMockUserRepo()
		credits := NewMockCreditRepo()
		if err := credits.Initialize(ctx, nil, "user-1", 42); err != nil {
			t.Fatalf("seed credits: %v", err)
		}
		uc := usecase.NewUserUseCase(users, credits, &MockTxManager{}, 10, testLogger)

		_, created, err := uc.EnsureAccount(ctx, "user-1", "user@example.com")
		if err != nil {
			t.Fatalf("expected no error, but got: %v", err)
		}
		if created {
			t.Error("a user whose ledger already exists did not get a fresh grant")
		}
		if got := credits.Balance("user-1"); got != 42 {
			t.Errorf("existing balance must be preserved, got %d", got)
		}
	})

	t.Run("should reject an invalid identity", func(t *testing.T) {
		uc := usecase.NewUserUseCase(NewMockUserRepo(), NewMockCreditRepo(), &MockTxManager{}, 10, testLogger)
		_, _, err := uc.EnsureAccount(ctx, "user-1", "not-an-email")
		if !errors.Is(err, domain.ErrInvalidArgument) {
			t.Fatalf("expected ErrInvalidArgument, got %v", err)
		}
	})

	t.Run("should update last activity for an existing user", func(t *testing.T) {
		users := NewMockUserRepo()
		uc := usecase.NewUserUseCase(users, NewMockCreditRepo(), &MockTxManager{}, 10, testLogger)

		first, _, err := uc.EnsureAccount(ctx, "user-1", "user@example.com")
		if err != nil {
			t.Fatalf("first login: %v", err)
		}
		second, _, err := uc.EnsureAccount(ctx, "user-1", "user@example.com")
		if err != nil {
			t.Fatalf("second login: %v", err)
		}
		if second.LastActiveAt.Before(first.LastActiveAt) {
			t.Error("last activity should move forward")
		}
	})
}
