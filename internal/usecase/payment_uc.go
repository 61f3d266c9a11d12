package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"ai-image-studio/internal/domain"
	"ai-image-studio/internal/domain/model"
	"ai-image-studio/internal/domain/ports/adapter"
	"ai-image-studio/internal/domain/ports/repository"
	"ai-image-studio/internal/infra/logging"
	"ai-image-studio/internal/infra/metrics"
	"ai-image-studio/internal/infra/redis"
)

// Compile-time check
var _ PaymentUseCase = (*paymentUC)(nil)

// CheckoutOffer is the single credit pack currently on sale.
type CheckoutOffer struct {
	Credits     int64
	AmountCents int64
	Currency    string
}

type PaymentUseCase interface {
	// InitiateCheckout creates the pending payment record and a provider
	// checkout session, returning the payment and the redirect URL.
	// Zero credits/priceCents fall back to the configured offer; negative or
	// partial requests are rejected with domain.ErrInvalidArgument.
	// domain.ErrCheckoutInFlight when the user already has one in progress.
	InitiateCheckout(ctx context.Context, userID, email string, credits, priceCents int64) (*model.Payment, string, error)
	History(ctx context.Context, userID string, limit int) ([]*model.Payment, error)
	// Totals per period (used by the admin panel)
	SumByPeriod(ctx context.Context, period string) (int64, error)
}

type paymentUC struct {
	payments repository.PaymentRepository
	gateway  adapter.PaymentGateway
	locker   redis.Locker
	offer    CheckoutOffer
	log      *zerolog.Logger
}

func NewPaymentUseCase(payments repository.PaymentRepository, gateway adapter.PaymentGateway, locker redis.Locker, offer CheckoutOffer, logger *zerolog.Logger) *paymentUC {
	return &paymentUC{payments: payments, gateway: gateway, locker: locker, offer: offer, log: logger}
}

func (u *paymentUC) InitiateCheckout(ctx context.Context, userID, email string, credits, priceCents int64) (*model.Payment, string, error) {
	defer logging.TraceDuration(u.log, "PaymentUC.InitiateCheckout")()

	if credits == 0 && priceCents == 0 {
		credits, priceCents = u.offer.Credits, u.offer.AmountCents
	}
	if credits <= 0 || priceCents <= 0 {
		return nil, "", fmt.Errorf("%w: credits and price must be positive", domain.ErrInvalidArgument)
	}

	// One checkout at a time per user; a second click must not create a
	// second pending payment row.
	lockKey := redis.CheckoutLockKey(userID)
	token, err := u.locker.TryLock(ctx, lockKey, 30*time.Second)
	if err != nil {
		return nil, "", err
	}
	defer func() { _ = u.locker.Unlock(ctx, lockKey, token) }()

	// The payment row exists before the provider session does, so an early
	// webhook always finds something to reconcile against.
	now := time.Now()
	p := &model.Payment{
		ID:        uuid.NewString(),
		UserID:    userID,
		Amount:    priceCents,
		Currency:  u.offer.Currency,
		Credits:   credits,
		Status:    model.PaymentStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := u.payments.Save(ctx, repository.NoTX, p); err != nil {
		return nil, "", err
	}

	sess, err := u.gateway.CreateCheckoutSession(ctx, adapter.CheckoutRequest{
		PaymentID:   p.ID,
		UserID:      userID,
		Email:       email,
		Credits:     credits,
		AmountCents: priceCents,
		Currency:    u.offer.Currency,
	})
	if err != nil {
		// Roll the orphaned row forward to cancelled so the reconciler never
		// chases a session that was never created.
		if _, cErr := u.payments.MarkCancelledIfPending(ctx, repository.NoTX, p.ID); cErr != nil {
			u.log.Error().Err(cErr).Str("payment_id", p.ID).Msg("failed to cancel orphaned payment")
		}
		metrics.IncPayment("failed")
		return nil, "", err
	}

	if err := u.payments.AttachSession(ctx, repository.NoTX, p.ID, sess.ID); err != nil {
		u.log.Error().Err(err).Str("payment_id", p.ID).Str("session_id", sess.ID).Msg("failed to attach session id")
		return nil, "", err
	}
	p.SessionID = sess.ID

	metrics.IncPayment("initiated")
	u.log.Info().Str("payment_id", p.ID).Str("session_id", sess.ID).Msg("checkout session created")
	return p, sess.URL, nil
}

func (u *paymentUC) History(ctx context.Context, userID string, limit int) ([]*model.Payment, error) {
	defer logging.TraceDuration(u.log, "PaymentUC.History")()
	return u.payments.ListByUser(ctx, repository.NoTX, userID, limit)
}

func (u *paymentUC) SumByPeriod(ctx context.Context, period string) (int64, error) {
	return u.payments.SumByPeriod(ctx, repository.NoTX, period)
}
