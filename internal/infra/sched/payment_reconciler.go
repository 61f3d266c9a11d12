package sched

import (
	"context"
	"log"
	"time"

	"ai-image-studio/internal/usecase"
)

// PaymentReconciler periodically sweeps stale pending payments and tries to
// finalize them by polling the gateway. This covers cases where the webhook
// was lost or the process crashed mid-grant.
type PaymentReconciler struct {
	uc         usecase.WebhookUseCase
	interval   time.Duration // how often to scan
	staleAfter time.Duration // how old a pending payment must be to retry
}

func NewPaymentReconciler(uc usecase.WebhookUseCase, interval, staleAfter time.Duration) *PaymentReconciler {
	if interval <= 0 {
		interval = 10 * time.Minute
	}
	if staleAfter <= 0 {
		staleAfter = time.Hour
	}
	return &PaymentReconciler{uc: uc, interval: interval, staleAfter: staleAfter}
}

func (w *PaymentReconciler) Start(ctx context.Context) {
	t := time.NewTicker(w.interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			w.tick(ctx)
		}
	}
}

func (w *PaymentReconciler) tick(ctx context.Context) {
	cutoff := time.Now().Add(-w.staleAfter)
	n, err := w.uc.SweepPending(ctx, cutoff, 200)
	if err != nil {
		log.Printf("payment-reconciler: sweep error: %v", err)
		return
	}
	if n > 0 {
		log.Printf("payment-reconciler: examined %d stale payments", n)
	}
}
