package model

import (
	"time"
)

const TokenTypePasswordReset = "password_reset"

// Token is a single use secret sent out of band. Only its SHA-256 is stored.
type Token struct {
	ID        string     `db:"id"`
	UserID    string     `db:"user_id"`
	Type      string     `db:"type"`
	TokenHash string     `db:"token_hash"`
	ExpiresAt time.Time  `db:"expires_at"`
	UsedAt    *time.Time `db:"used_at"`
	CreatedAt time.Time  `db:"created_at"`
}
