package domain

import "time"

// User is the account record. Email is unique case-insensitively; it is
// normalised to lower case before storage.
type User struct {
	ID              string
	Name            string
	Email           string
	PasswordHash    string // bcrypt encoded
	RoleID          string // Foreign key to roles table
	EmailVerified   bool
	EmailVerifiedAt *time.Time
	MFAEnabled      bool // true iff an enabled MFA secret exists for this user
	IsActive        bool
	LastLogin       *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Profile is the sanitized user view returned to callers. It never carries
// the password hash.
type Profile struct {
	ID            string     `json:"id"`
	Name          string     `json:"name"`
	Email         string     `json:"email"`
	Role          string     `json:"role"`
	EmailVerified bool       `json:"email_verified"`
	MFAEnabled    bool       `json:"mfa_enabled"`
	IsActive      bool       `json:"is_active"`
	LastLogin     *time.Time `json:"last_login,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}
