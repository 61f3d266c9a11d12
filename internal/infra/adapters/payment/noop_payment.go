package payment

import (
	"context"
	"fmt"
	"sync"

	"ai-image-studio/internal/domain"
	"ai-image-studio/internal/domain/ports/adapter"
)

var _ adapter.PaymentGateway = (*NoopPaymentGateway)(nil)

// NoopPaymentGateway is a simple in-memory gateway to use in tests and local
// development. Sessions are "paid" by calling MarkPaid.
type NoopPaymentGateway struct {
	mu       sync.Mutex
	seq      int64
	sessions map[string]*adapter.SessionStatus
}

func NewNoopPaymentGateway() *NoopPaymentGateway {
	return &NoopPaymentGateway{
		sessions: make(map[string]*adapter.SessionStatus),
	}
}

func (g *NoopPaymentGateway) Name() string { return "noop" }

func (g *NoopPaymentGateway) next() string {
	g.seq++
	return fmt.Sprintf("noop-sess-%d", g.seq)
}

func (g *NoopPaymentGateway) CreateCheckoutSession(ctx context.Context, req adapter.CheckoutRequest) (*adapter.CheckoutSession, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	id := g.next()
	g.sessions[id] = &adapter.SessionStatus{
		Metadata: map[string]string{
			"payment_id": req.PaymentID,
			"user_id":    req.UserID,
			"credits":    fmt.Sprintf("%d", req.Credits),
		},
	}
	return &adapter.CheckoutSession{ID: id, URL: "https://example.test/pay/" + id}, nil
}

func (g *NoopPaymentGateway) VerifyWebhook(payload []byte, signatureHeader string) (*adapter.WebhookEvent, error) {
	return nil, domain.ErrInvalidSignature
}

func (g *NoopPaymentGateway) GetSession(ctx context.Context, sessionID string) (*adapter.SessionStatus, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	st, ok := g.sessions[sessionID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *st
	return &cp, nil
}

// MarkPaid flips a session to paid, simulating a completed checkout.
func (g *NoopPaymentGateway) MarkPaid(sessionID, providerPaymentID string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if st, ok := g.sessions[sessionID]; ok {
		st.Paid = true
		st.ProviderPaymentID = providerPaymentID
	}
}
