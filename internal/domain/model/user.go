package model

import (
	"strings"
	"time"

	"ai-image-studio/internal/domain"
)

// User is a domain entity representing an authenticated account.
// Identity itself comes from the external auth provider; we only keep the
// fields the ledger and asset ownership checks need.
type User struct {
	ID           string
	Email        string
	RegisteredAt time.Time
	LastActiveAt time.Time
}

func NewUser(id, email string) (*User, error) {
	if id == "" {
		return nil, domain.ErrInvalidArgument
	}
	if email == "" || !strings.Contains(email, "@") {
		return nil, domain.ErrInvalidArgument
	}
	now := time.Now()
	return &User{
		ID:           id,
		Email:        email,
		RegisteredAt: now,
		LastActiveAt: now,
	}, nil
}

func (u *User) IsZero() bool { return u == nil || u.ID == "" }
func (u *User) Touch()       { u.LastActiveAt = time.Now() }
