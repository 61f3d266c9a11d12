package model

import "time"

// Asset is a generated image owned by a user. URL points at the public
// object-storage location once mirrored; until then it may point at the
// provider's ephemeral URL.
type Asset struct {
	ID        string // UUID
	UserID    string
	URL       string
	Prompt    string
	Mirrored  bool // true once the image lives in our own bucket
	CreatedAt time.Time
}
