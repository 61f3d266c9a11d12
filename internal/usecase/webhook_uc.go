package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"ai-image-studio/internal/domain"
	"ai-image-studio/internal/domain/model"
	"ai-image-studio/internal/domain/ports/adapter"
	"ai-image-studio/internal/domain/ports/repository"
	"ai-image-studio/internal/infra/logging"
	"ai-image-studio/internal/infra/metrics"
)

// Compile-time check
var _ WebhookUseCase = (*webhookUC)(nil)

// WebhookUseCase turns verified provider events into payment transitions and
// credit grants. Every effect is idempotent: replayed, duplicated or
// out-of-order events are acknowledged without granting twice.
type WebhookUseCase interface {
	// HandleEvent verifies and applies one raw webhook delivery.
	// domain.ErrInvalidSignature means the payload must be rejected; any
	// other error is a processing failure on an authenticated event, which
	// the transport still acknowledges (the pending sweep recovers it).
	HandleEvent(ctx context.Context, payload []byte, signatureHeader string) error

	// ReconcileSession polls the provider for the session's outcome and
	// applies it. Fallback for lost webhook deliveries.
	ReconcileSession(ctx context.Context, sessionID string) error

	// SweepPending reconciles stale pending payments, cancelling those that
	// never got a session. Returns how many payments were examined.
	SweepPending(ctx context.Context, olderThan time.Time, limit int) (int, error)
}

type webhookUC struct {
	payments repository.PaymentRepository
	credits  repository.CreditRepository
	tm       repository.TransactionManager
	gateway  adapter.PaymentGateway
	log      *zerolog.Logger
}

func NewWebhookUseCase(payments repository.PaymentRepository, credits repository.CreditRepository, tm repository.TransactionManager, gateway adapter.PaymentGateway, logger *zerolog.Logger) *webhookUC {
	return &webhookUC{payments: payments, credits: credits, tm: tm, gateway: gateway, log: logger}
}

func (u *webhookUC) HandleEvent(ctx context.Context, payload []byte, signatureHeader string) error {
	defer logging.TraceDuration(u.log, "WebhookUC.HandleEvent")()

	event, err := u.gateway.VerifyWebhook(payload, signatureHeader)
	if err != nil {
		return err
	}

	switch event.Kind {
	case adapter.EventCheckoutCompleted:
		return u.handleCompleted(ctx, event)
	case adapter.EventCheckoutExpired:
		return u.handleExpired(ctx, event)
	default:
		// Unsubscribed event types still arrive; acknowledge and move on.
		metrics.IncWebhookEvent(string(event.Kind), "ignored")
		return nil
	}
}

func (u *webhookUC) handleCompleted(ctx context.Context, ev *adapter.WebhookEvent) error {
	if !ev.Paid {
		// Async payment methods complete the session before the money moves;
		// the paid notification arrives later as its own event.
		u.log.Info().Str("session_id", ev.SessionID).Msg("session completed but not paid, skipping")
		metrics.IncWebhookDropped("unpaid")
		return nil
	}

	p, err := u.resolvePayment(ctx, ev)
	if err != nil {
		return err
	}
	if p == nil {
		// A session we cannot attribute is not retryable; dropping beats an
		// endless redelivery loop. The reconciler cannot save it either.
		u.log.Warn().Str("event_id", ev.ID).Str("session_id", ev.SessionID).Msg("completed session matches no payment, dropping")
		metrics.IncWebhookDropped("unmatched")
		return nil
	}

	applied, err := u.applyCompletion(ctx, p, ev.ProviderPaymentID)
	if err != nil {
		metrics.IncWebhookEvent(string(ev.Kind), "error")
		return err
	}
	if applied {
		metrics.IncWebhookEvent(string(ev.Kind), "applied")
	} else {
		metrics.IncWebhookEvent(string(ev.Kind), "duplicate")
	}
	return nil
}

func (u *webhookUC) handleExpired(ctx context.Context, ev *adapter.WebhookEvent) error {
	p, err := u.resolvePayment(ctx, ev)
	if err != nil {
		return err
	}
	if p == nil {
		metrics.IncWebhookDropped("unmatched")
		return nil
	}

	cancelled, err := u.payments.MarkCancelledIfPending(ctx, repository.NoTX, p.ID)
	if err != nil {
		metrics.IncWebhookEvent(string(ev.Kind), "error")
		return err
	}
	if cancelled {
		metrics.IncPayment("cancelled")
		metrics.IncWebhookEvent(string(ev.Kind), "applied")
		u.log.Info().Str("payment_id", p.ID).Msg("payment cancelled after session expiry")
	} else {
		// Already completed or cancelled; expiry after completion is normal
		// when the user paid near the session deadline.
		metrics.IncWebhookEvent(string(ev.Kind), "duplicate")
	}
	return nil
}

// resolvePayment locates the payment a provider event refers to, preferring
// the payment id round-tripped through metadata and falling back to the
// session id. A nil payment with nil error means the event is unattributable.
func (u *webhookUC) resolvePayment(ctx context.Context, ev *adapter.WebhookEvent) (*model.Payment, error) {
	if id := ev.Metadata["payment_id"]; id != "" {
		p, err := u.payments.FindByID(ctx, repository.NoTX, id)
		if err == nil {
			return p, nil
		}
		if !errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
	}
	if ev.SessionID != "" {
		p, err := u.payments.FindBySessionID(ctx, repository.NoTX, ev.SessionID)
		if err == nil {
			return p, nil
		}
		if !errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
	}
	return nil, nil
}

// applyCompletion flips the payment to completed and grants its credits in
// one transaction. The conditional transition carries the idempotence: only
// the delivery that wins the flip performs the grant.
func (u *webhookUC) applyCompletion(ctx context.Context, p *model.Payment, providerPaymentID string) (bool, error) {
	var applied bool
	txOpts := pgx.TxOptions{IsoLevel: pgx.Serializable}
	err := u.tm.WithTx(ctx, txOpts, func(ctx context.Context, tx repository.Tx) error {
		ok, err := u.payments.MarkCompletedIfPending(ctx, tx, p.ID, providerPaymentID, time.Now())
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		if err := u.credits.Grant(ctx, tx, p.UserID, p.Credits); err != nil {
			return err
		}
		applied = true
		return nil
	})
	if err != nil {
		return false, err
	}

	if applied {
		metrics.IncPayment("completed")
		metrics.AddCreditsGranted("purchase", p.Credits)
		metrics.AddPaymentRevenue(p.Currency, p.Amount)
		u.log.Info().
			Str("payment_id", p.ID).
			Str("user_id", p.UserID).
			Int64("credits", p.Credits).
			Msg("payment completed, credits granted")
	}
	return applied, nil
}

func (u *webhookUC) ReconcileSession(ctx context.Context, sessionID string) error {
	defer logging.TraceDuration(u.log, "WebhookUC.ReconcileSession")()

	p, err := u.payments.FindBySessionID(ctx, repository.NoTX, sessionID)
	if err != nil {
		return err
	}
	if p.Terminal() {
		return nil
	}

	st, err := u.gateway.GetSession(ctx, sessionID)
	if err != nil {
		return err
	}
	switch {
	case st.Paid:
		_, err = u.applyCompletion(ctx, p, st.ProviderPaymentID)
		return err
	case st.Expired:
		cancelled, err := u.payments.MarkCancelledIfPending(ctx, repository.NoTX, p.ID)
		if err != nil {
			return err
		}
		if cancelled {
			metrics.IncPayment("cancelled")
		}
		return nil
	default:
		// Session still open; leave it for the next sweep.
		return nil
	}
}

func (u *webhookUC) SweepPending(ctx context.Context, olderThan time.Time, limit int) (int, error) {
	defer logging.TraceDuration(u.log, "WebhookUC.SweepPending")()

	stale, err := u.payments.ListPendingOlderThan(ctx, repository.NoTX, olderThan, limit)
	if err != nil {
		return 0, err
	}
	for _, p := range stale {
		if p.SessionID == "" {
			// Session creation failed after the row was written and the
			// cancel path also failed; finish the job here.
			if _, err := u.payments.MarkCancelledIfPending(ctx, repository.NoTX, p.ID); err != nil {
				u.log.Error().Err(err).Str("payment_id", p.ID).Msg("sweep failed to cancel sessionless payment")
			}
			continue
		}
		if err := u.ReconcileSession(ctx, p.SessionID); err != nil {
			u.log.Error().Err(err).Str("payment_id", p.ID).Str("session_id", p.SessionID).Msg("sweep failed to reconcile session")
		}
	}
	return len(stale), nil
}
