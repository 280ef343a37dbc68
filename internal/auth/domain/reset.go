package domain

import "time"

// PasswordReset models a single-use, time-limited reset request. Only the
// SHA-256 fingerprint of the mailed secret is stored.
type PasswordReset struct {
	ID        string
	UserID    string
	TokenHash string
	ExpiresAt time.Time
	Used      bool
	CreatedAt time.Time
}
