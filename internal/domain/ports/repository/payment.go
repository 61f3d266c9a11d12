package repository

import (
	"context"
	"time"

	"ai-image-studio/internal/domain/model"
)

// PaymentRepository persists credit purchase attempts.
type PaymentRepository interface {
	Save(ctx context.Context, tx Tx, p *model.Payment) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.Payment, error)
	FindBySessionID(ctx context.Context, tx Tx, sessionID string) (*model.Payment, error)
	ListByUser(ctx context.Context, tx Tx, userID string, limit int) ([]*model.Payment, error)

	// AttachSession records the external checkout session id on a payment.
	AttachSession(ctx context.Context, tx Tx, paymentID, sessionID string) error

	// MarkCompletedIfPending transitions pending->completed and returns whether
	// the transition happened. A false return with nil error means the payment
	// had already left pending; callers must treat that as a no-op.
	MarkCompletedIfPending(ctx context.Context, tx Tx, paymentID, providerPaymentID string, paidAt time.Time) (bool, error)

	// MarkCancelledIfPending transitions pending->cancelled with the same
	// idempotence contract as MarkCompletedIfPending.
	MarkCancelledIfPending(ctx context.Context, tx Tx, paymentID string) (bool, error)

	// ListPendingOlderThan returns stale pending payments for the reconciler.
	ListPendingOlderThan(ctx context.Context, tx Tx, olderThan time.Time, limit int) ([]*model.Payment, error)

	// SumByPeriod totals completed payment amounts since the start of the
	// given date-trunc period ("week", "month", "year").
	SumByPeriod(ctx context.Context, tx Tx, period string) (int64, error)
}
