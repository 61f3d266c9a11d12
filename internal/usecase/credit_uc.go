package usecase

import (
	"context"

	"github.com/rs/zerolog"

	"ai-image-studio/internal/domain/ports/repository"
	"ai-image-studio/internal/infra/logging"
)

// Compile-time check
var _ CreditUseCase = (*creditUC)(nil)

// CreditUseCase reads the credit ledger. All mutations go through the
// webhook, signup and generation flows, never through here.
type CreditUseCase interface {
	// Balance returns the user's remaining credits. domain.ErrNotFound when
	// the account has no ledger row.
	Balance(ctx context.Context, userID string) (int64, error)
	TotalOutstanding(ctx context.Context) (int64, error)
}

type creditUC struct {
	credits repository.CreditRepository
	log     *zerolog.Logger
}

func NewCreditUseCase(credits repository.CreditRepository, logger *zerolog.Logger) *creditUC {
	return &creditUC{credits: credits, log: logger}
}

func (c *creditUC) Balance(ctx context.Context, userID string) (int64, error) {
	defer logging.TraceDuration(c.log, "CreditUC.Balance")()
	return c.credits.GetBalance(ctx, repository.NoTX, userID)
}

func (c *creditUC) TotalOutstanding(ctx context.Context) (int64, error) {
	defer logging.TraceDuration(c.log, "CreditUC.TotalOutstanding")()
	return c.credits.TotalOutstanding(ctx, repository.NoTX)
}
