package models

import (
	"time"
)

// RefreshToken lives in Redis, keyed by Token, and expires at ExpiresAt.
type RefreshToken struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}
