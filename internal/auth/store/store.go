package store

import (
	"context"
	"errors"
	"time"

	"github.com/Mir00r/planify-backend/internal/auth/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// Store is the root data access interface. Concrete drivers (sqlite for now)
// implement this. Sub-repositories keep concerns tidy and let services take
// exactly the slice of storage they need.
type Store interface {
	Users() Users
	Roles() Roles
	RefreshTokens() RefreshTokens
	PasswordResets() PasswordResets
	MFASecrets() MFASecrets

	ApplyMigrations() error

	// Tx starts a read/write transaction and returns a Tx-scoped Store.
	// The caller MUST call Commit() or Rollback() on the returned Tx.
	Tx(ctx context.Context) (Tx, error)

	// WithTx executes fn within a transaction; rollback on error, commit on
	// nil. Preferred for multi-step operations that must be atomic (refresh
	// rotation, reset consumption, MFA flag flips).
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	// Close releases any underlying resources.
	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

// Tx is a transactional store. It embeds the same repos but adds Commit/Rollback.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

type Users interface {
	// GetUserByID returns a user by id.
	GetUserByID(ctx context.Context, id string) (domain.User, error)

	// GetUserByEmail looks up by normalised (lower-cased) email.
	GetUserByEmail(ctx context.Context, email string) (domain.User, error)

	// CreateUser inserts a new user (id is provided by app via ULID).
	// Returns ErrAlreadyExists if the email is taken.
	CreateUser(ctx context.Context, u domain.User) error

	// UpdatePasswordHash sets the password_hash and bumps updated_at.
	UpdatePasswordHash(ctx context.Context, userID string, newHash string) error

	// MarkEmailVerified sets email_verified and email_verified_at.
	MarkEmailVerified(ctx context.Context, userID string, at time.Time) error

	// UpdateLastLogin records a successful login.
	UpdateLastLogin(ctx context.Context, userID string, at time.Time) error

	// SetMFAEnabled flips the denormalised is_mfa_enabled flag. Callers pair
	// this with the matching MFA secret write inside one transaction.
	SetMFAEnabled(ctx context.Context, userID string, enabled bool) error

	// UpdateProfile mutates name and email (email re-normalised by caller).
	UpdateProfile(ctx context.Context, userID, name, email string) error

	// DeleteUser cascades to refresh_tokens, password_resets, mfa_secrets.
	DeleteUser(ctx context.Context, userID string) error
}

type Roles interface {
	// GetRoleByID fetches a role by its ID.
	GetRoleByID(ctx context.Context, id string) (domain.Role, error)

	// GetRoleByName fetches a role by name (default role assignment).
	GetRoleByName(ctx context.Context, name string) (domain.Role, error)
}

type RefreshTokens interface {
	// CreateRefreshToken stores a new refresh token record.
	CreateRefreshToken(ctx context.Context, t domain.RefreshToken) error

	// GetRefreshTokenByToken returns the row matching the opaque token value,
	// revoked or not; callers decide how to treat revocation and expiry.
	GetRefreshTokenByToken(ctx context.Context, token string) (domain.RefreshToken, error)

	// ClaimRefreshToken revokes the token only if it is still unrevoked and
	// reports whether this call won the claim. Concurrent rotation attempts
	// on the same token are decided here: exactly one caller sees true.
	ClaimRefreshToken(ctx context.Context, token string) (bool, error)

	// RevokeRefreshToken flips revoked unconditionally; no-op if absent.
	RevokeRefreshToken(ctx context.Context, token string) error

	// RevokeAllUserRefreshTokens bulk-revokes every live token for a user
	// ("logout from all devices").
	RevokeAllUserRefreshTokens(ctx context.Context, userID string) error

	// DeleteExpiredRefreshTokens is optional housekeeping.
	DeleteExpiredRefreshTokens(ctx context.Context, now time.Time) error
}

type PasswordResets interface {
	// CreatePasswordReset inserts a new reset record (token_hash only).
	CreatePasswordReset(ctx context.Context, r domain.PasswordReset) error

	// GetValidPasswordResetByHash returns the newest unused, unexpired record
	// matching the fingerprint.
	GetValidPasswordResetByHash(ctx context.Context, hash string, now time.Time) (domain.PasswordReset, error)

	// InvalidateUserPasswordResets marks every unused token for the user as
	// used; issuing a new request calls this first.
	InvalidateUserPasswordResets(ctx context.Context, userID string) error

	// MarkPasswordResetUsed consumes a single record.
	MarkPasswordResetUsed(ctx context.Context, id string) error
}

type MFASecrets interface {
	// GetMFASecretByUserID returns the user's enrolment record.
	GetMFASecretByUserID(ctx context.Context, userID string) (domain.MFASecret, error)

	// UpsertMFASecret creates or replaces the user's enrolment record. The
	// user_id unique constraint guarantees at most one row per user.
	UpsertMFASecret(ctx context.Context, s domain.MFASecret) error

	// UpdateBackupCodes replaces the unconsumed code list after one is used.
	UpdateBackupCodes(ctx context.Context, id string, codes []string) error

	// MarkMFAVerified flips is_enabled and stamps verified_at.
	MarkMFAVerified(ctx context.Context, id string, at time.Time) error

	// UpdateLastUsed stamps last_used_at after a successful verification.
	UpdateLastUsed(ctx context.Context, id string, at time.Time) error

	// DeleteMFASecretByUserID hard-deletes the enrolment record.
	DeleteMFASecretByUserID(ctx context.Context, userID string) error
}
