package repository

import (
	"context"

	"ai-image-studio/internal/domain/model"
)

// CreditRepository is the persistent user->balance ledger.
type CreditRepository interface {
	// GetBalance returns the current balance. domain.ErrNotFound when no
	// ledger row exists (distinct from a zero balance).
	GetBalance(ctx context.Context, tx Tx, userID string) (int64, error)

	// Initialize creates the ledger row with a starting balance.
	// domain.ErrAlreadyExists when the row is already present.
	Initialize(ctx context.Context, tx Tx, userID string, startingCredits int64) error

	// Adjust atomically adds delta (positive or negative) to the balance in a
	// single conditional update. domain.ErrInsufficientCredits when the result
	// would go negative, domain.ErrNotFound when no row exists.
	Adjust(ctx context.Context, tx Tx, userID string, delta int64) error

	// Grant adds amount to the balance, creating the row if absent. Used by
	// the webhook path, which must not assume the row exists.
	Grant(ctx context.Context, tx Tx, userID string, amount int64) error

	// TotalOutstanding sums all balances (admin stats).
	TotalOutstanding(ctx context.Context, tx Tx) (int64, error)
}

// UserRepository persists account records.
type UserRepository interface {
	Save(ctx context.Context, tx Tx, u *model.User) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.User, error)
	CountUsers(ctx context.Context, tx Tx) (int, error)
}
