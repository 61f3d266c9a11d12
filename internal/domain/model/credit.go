package model

import "time"

// UserCredit is the ledger row tracking how many paid generations a user has
// left. One row per user; the balance never goes negative (enforced at the
// storage layer with a conditional update, not here).
type UserCredit struct {
	UserID    string
	Credits   int64
	CreatedAt time.Time
	UpdatedAt time.Time
}
