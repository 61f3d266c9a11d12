package model

import "time"

type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"   // row created; awaiting provider outcome
	PaymentStatusCompleted PaymentStatus = "completed" // checkout session paid, credits granted
	PaymentStatusCancelled PaymentStatus = "cancelled" // session expired or creation rolled back
)

// Payment records a credit purchase attempt. It is created in `pending`
// before the external checkout session exists, so an early webhook can always
// resolve the linkage. Transitions out of `pending` happen at most once;
// `completed` and `cancelled` are absorbing.
type Payment struct {
	ID                string // UUID
	UserID            string
	Amount            int64  // price in cents, integer to avoid float errors
	Currency          string // lowercase ISO code, e.g. "usd"
	Credits           int64  // quantity purchased
	Status            PaymentStatus
	SessionID         string // external checkout session id, attached after creation
	ProviderPaymentID string // provider payment intent id, set on completion
	CreatedAt         time.Time
	UpdatedAt         time.Time
	PaidAt            *time.Time // set when completed
}

func (p *Payment) Terminal() bool {
	return p.Status == PaymentStatusCompleted || p.Status == PaymentStatusCancelled
}
