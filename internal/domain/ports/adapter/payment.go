package adapter

import "context"

type EventKind string

const (
	EventCheckoutCompleted EventKind = "checkout.session.completed"
	EventCheckoutExpired   EventKind = "checkout.session.expired"
)

// CheckoutRequest carries everything the provider needs to build a hosted
// checkout page for a credit purchase.
type CheckoutRequest struct {
	PaymentID   string // our payment row id, round-tripped via metadata
	UserID      string
	Email       string
	Credits     int64
	AmountCents int64
	Currency    string
}

type CheckoutSession struct {
	ID  string
	URL string
}

// WebhookEvent is a provider event after signature verification, reduced to
// the fields the reconciler consumes.
type WebhookEvent struct {
	ID        string
	Kind      EventKind
	SessionID string
	// ProviderPaymentID is the provider-side payment identifier
	// (Stripe: payment_intent), empty for expired sessions.
	ProviderPaymentID string
	// Paid reports whether the provider confirmed the money moved.
	Paid     bool
	Metadata map[string]string
}

// SessionStatus is the result of polling a checkout session directly,
// used by the reconciler as a webhook fallback.
type SessionStatus struct {
	Paid              bool
	Expired           bool
	ProviderPaymentID string
	Metadata          map[string]string
}

// PaymentGateway abstracts the hosted-checkout payment provider.
type PaymentGateway interface {
	Name() string
	CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (*CheckoutSession, error)
	// VerifyWebhook authenticates the raw request body against the signature
	// header and returns the parsed event. domain.ErrInvalidSignature when
	// verification fails; no payload content may be trusted before this.
	VerifyWebhook(payload []byte, signatureHeader string) (*WebhookEvent, error)
	GetSession(ctx context.Context, sessionID string) (*SessionStatus, error)
}
