//go:build integration

package postgres

import (
	"context"
	"errors"
	"sync"
	"testing"

	"ai-image-studio/internal/domain"
	"ai-image-studio/internal/domain/ports/repository"
)

func TestCreditRepo_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode.")
	}

	ctx := context.Background()
	repo := NewCreditRepo(testPool)

	t.Run("initialize then read balance", func(t *testing.T) {
		cleanup(t)
		if err := repo.Initialize(ctx, repository.NoTX, "u1", 10); err != nil {
			t.Fatalf("Initialize failed: %v", err)
		}
		bal, err := repo.GetBalance(ctx, repository.NoTX, "u1")
		if err != nil {
			t.Fatalf("GetBalance failed: %v", err)
		}
		if bal != 10 {
			t.Errorf("balance = %d, want 10", bal)
		}
	})

	t.Run("initialize twice conflicts", func(t *testing.T) {
		cleanup(t)
		if err := repo.Initialize(ctx, repository.NoTX, "u1", 10); err != nil {
			t.Fatalf("Initialize failed: %v", err)
		}
		if err := repo.Initialize(ctx, repository.NoTX, "u1", 10); !errors.Is(err, domain.ErrAlreadyExists) {
			t.Errorf("second Initialize err = %v, want ErrAlreadyExists", err)
		}
	})

	t.Run("balance of unknown user", func(t *testing.T) {
		cleanup(t)
		if _, err := repo.GetBalance(ctx, repository.NoTX, "nobody"); !errors.Is(err, domain.ErrNotFound) {
			t.Errorf("err = %v, want ErrNotFound", err)
		}
	})

	t.Run("adjust guards against overdraw", func(t *testing.T) {
		cleanup(t)
		repo.Initialize(ctx, repository.NoTX, "u1", 2)

		if err := repo.Adjust(ctx, repository.NoTX, "u1", -1); err != nil {
			t.Fatalf("first debit failed: %v", err)
		}
		if err := repo.Adjust(ctx, repository.NoTX, "u1", -1); err != nil {
			t.Fatalf("second debit failed: %v", err)
		}
		if err := repo.Adjust(ctx, repository.NoTX, "u1", -1); !errors.Is(err, domain.ErrInsufficientCredits) {
			t.Errorf("overdraw err = %v, want ErrInsufficientCredits", err)
		}
		bal, _ := repo.GetBalance(ctx, repository.NoTX, "u1")
		if bal != 0 {
			t.Errorf("balance = %d, want 0", bal)
		}
	})

	t.Run("adjust on missing row", func(t *testing.T) {
		cleanup(t)
		if err := repo.Adjust(ctx, repository.NoTX, "nobody", -1); !errors.Is(err, domain.ErrNotFound) {
			t.Errorf("err = %v, want ErrNotFound", err)
		}
	})

	t.Run("grant upserts missing rows", func(t *testing.T) {
		cleanup(t)
		// No Initialize first: webhook may land before the signup bootstrap.
		if err := repo.Grant(ctx, repository.NoTX, "u1", 100); err != nil {
			t.Fatalf("Grant failed: %v", err)
		}
		if err := repo.Grant(ctx, repository.NoTX, "u1", 50); err != nil {
			t.Fatalf("second Grant failed: %v", err)
		}
		bal, _ := repo.GetBalance(ctx, repository.NoTX, "u1")
		if bal != 150 {
			t.Errorf("balance = %d, want 150", bal)
		}
	})

	t.Run("concurrent debits never overspend", func(t *testing.T) {
		cleanup(t)
		repo.Initialize(ctx, repository.NoTX, "u1", 5)

		var wg sync.WaitGroup
		var mu sync.Mutex
		successes := 0
		for i := 0; i < 20; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if err := repo.Adjust(ctx, repository.NoTX, "u1", -1); err == nil {
					mu.Lock()
					successes++
					mu.Unlock()
				}
			}()
		}
		wg.Wait()

		if successes != 5 {
			t.Errorf("successful debits = %d, want 5", successes)
		}
		bal, _ := repo.GetBalance(ctx, repository.NoTX, "u1")
		if bal != 0 {
			t.Errorf("balance = %d, want 0", bal)
		}
	})

	t.Run("total outstanding sums all users", func(t *testing.T) {
		cleanup(t)
		repo.Initialize(ctx, repository.NoTX, "u1", 10)
		repo.Initialize(ctx, repository.NoTX, "u2", 32)
		total, err := repo.TotalOutstanding(ctx, repository.NoTX)
		if err != nil {
			t.Fatalf("TotalOutstanding failed: %v", err)
		}
		if total != 42 {
			t.Errorf("total = %d, want 42", total)
		}
	})
}
