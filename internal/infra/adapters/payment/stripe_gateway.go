package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/stripe/stripe-go/v82"
	checkoutsession "github.com/stripe/stripe-go/v82/checkout/session"
	"github.com/stripe/stripe-go/v82/webhook"

	"ai-image-studio/internal/domain"
	"ai-image-studio/internal/domain/ports/adapter"
)

var _ adapter.PaymentGateway = (*StripeGateway)(nil)

// StripeGateway implements adapter.PaymentGateway over Stripe hosted
// Checkout. Payment metadata round-trips our payment row id so the webhook
// side can resolve the purchase without relying on session lookups alone.
type StripeGateway struct {
	webhookSecret string
	successURL    string
	cancelURL     string
	productName   string
}

func NewStripeGateway(secretKey, webhookSecret, successURL, cancelURL string) (*StripeGateway, error) {
	if secretKey == "" {
		return nil, errors.New("stripe secret key empty")
	}
	if webhookSecret == "" {
		return nil, errors.New("stripe webhook secret empty")
	}
	stripe.Key = secretKey
	return &StripeGateway{
		webhookSecret: webhookSecret,
		successURL:    successURL,
		cancelURL:     cancelURL,
		productName:   "Image Credits",
	}, nil
}

func (g *StripeGateway) Name() string { return "stripe" }

func (g *StripeGateway) CreateCheckoutSession(ctx context.Context, req adapter.CheckoutRequest) (*adapter.CheckoutSession, error) {
	if req.Credits <= 0 {
		return nil, fmt.Errorf("%w: credits must be positive", domain.ErrInvalidArgument)
	}
	params := &stripe.CheckoutSessionParams{
		Mode:       stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL: stripe.String(g.successURL),
		CancelURL:  stripe.String(g.cancelURL),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency: stripe.String(req.Currency),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String(g.productName),
					},
					UnitAmount: stripe.Int64(req.AmountCents),
				},
				Quantity: stripe.Int64(1),
			},
		},
		Metadata: map[string]string{
			"payment_id": req.PaymentID,
			"user_id":    req.UserID,
			"credits":    fmt.Sprintf("%d", req.Credits),
		},
	}
	if req.Email != "" {
		params.CustomerEmail = stripe.String(req.Email)
	}
	params.Context = ctx

	sess, err := checkoutsession.New(params)
	if err != nil {
		return nil, fmt.Errorf("create checkout session: %w", err)
	}
	return &adapter.CheckoutSession{ID: sess.ID, URL: sess.URL}, nil
}

func (g *StripeGateway) VerifyWebhook(payload []byte, signatureHeader string) (*adapter.WebhookEvent, error) {
	event, err := webhook.ConstructEventWithOptions(payload, signatureHeader, g.webhookSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		return nil, domain.ErrInvalidSignature
	}

	var kind adapter.EventKind
	switch event.Type {
	case "checkout.session.completed":
		kind = adapter.EventCheckoutCompleted
	case "checkout.session.expired":
		kind = adapter.EventCheckoutExpired
	default:
		return &adapter.WebhookEvent{ID: event.ID, Kind: adapter.EventKind(event.Type)}, nil
	}

	var session stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
		return nil, fmt.Errorf("%w: parse session payload", domain.ErrOperationFailed)
	}

	out := &adapter.WebhookEvent{
		ID:        event.ID,
		Kind:      kind,
		SessionID: session.ID,
		Paid:      session.PaymentStatus == stripe.CheckoutSessionPaymentStatusPaid,
		Metadata:  session.Metadata,
	}
	if session.PaymentIntent != nil {
		out.ProviderPaymentID = session.PaymentIntent.ID
	}
	return out, nil
}

func (g *StripeGateway) GetSession(ctx context.Context, sessionID string) (*adapter.SessionStatus, error) {
	if sessionID == "" {
		return nil, fmt.Errorf("%w: missing session id", domain.ErrInvalidArgument)
	}
	params := &stripe.CheckoutSessionParams{}
	params.Context = ctx
	sess, err := checkoutsession.Get(sessionID, params)
	if err != nil {
		return nil, fmt.Errorf("fetch session: %w", err)
	}
	st := &adapter.SessionStatus{
		Paid:     sess.PaymentStatus == stripe.CheckoutSessionPaymentStatusPaid,
		Expired:  sess.Status == stripe.CheckoutSessionStatusExpired,
		Metadata: sess.Metadata,
	}
	if sess.PaymentIntent != nil {
		st.ProviderPaymentID = sess.PaymentIntent.ID
	}
	return st, nil
}
