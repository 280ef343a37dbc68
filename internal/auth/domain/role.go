package domain

import "time"

// Role names grant coarse-grained access; the role name rides inside access
// token claims.
type Role struct {
	ID          string
	Name        string
	Description string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Seeded role names.
const (
	RoleUser  = "USER"
	RoleAdmin = "ADMIN"
)
