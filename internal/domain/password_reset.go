package domain

import "time"

// PasswordReset is a one-time credential recovery token. Only the hash is
// stored.
type PasswordReset struct {
	ID        string
	UserID    string
	TokenHash string
	ExpiresAt time.Time
	UsedAt    *time.Time
	CreatedAt time.Time
}
