package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/Mir00r/planify-backend/internal/auth/domain"
)

type usersRepo struct {
	db dbtx
}

const userColumns = `id, name, email, password_hash, role_id, email_verified,
	email_verified_at, is_mfa_enabled, is_active, last_login, created_at, updated_at`

func (r *usersRepo) scanUser(row *sql.Row) (domain.User, error) {
	var u domain.User
	var verifiedAt, lastLogin sql.NullTime
	err := row.Scan(
		&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.RoleID, &u.EmailVerified,
		&verifiedAt, &u.MFAEnabled, &u.IsActive, &lastLogin, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return domain.User{}, mapNotFound(err)
	}
	u.EmailVerifiedAt = mapNullTimePtr(verifiedAt)
	u.LastLogin = mapNullTimePtr(lastLogin)
	return u, nil
}

func (r *usersRepo) GetUserByID(ctx context.Context, id string) (domain.User, error) {
	return r.scanUser(r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ?`, id))
}

func (r *usersRepo) GetUserByEmail(ctx context.Context, email string) (domain.User, error) {
	return r.scanUser(r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = ?`, email))
}

func (r *usersRepo) CreateUser(ctx context.Context, u domain.User) error {
	now := time.Now().UTC()
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO users (id, name, email, password_hash, role_id, email_verified,
			is_mfa_enabled, is_active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		u.ID, u.Name, u.Email, u.PasswordHash, u.RoleID, u.EmailVerified,
		u.MFAEnabled, u.IsActive, now, now,
	)
	return mapConflict(err)
}

func (r *usersRepo) UpdatePasswordHash(ctx context.Context, userID string, newHash string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE users SET password_hash = ?, updated_at = ? WHERE id = ?`,
		newHash, time.Now().UTC(), userID)
	return err
}

func (r *usersRepo) MarkEmailVerified(ctx context.Context, userID string, at time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE users SET email_verified = 1, email_verified_at = ?, updated_at = ? WHERE id = ?`,
		at.UTC(), time.Now().UTC(), userID)
	return err
}

func (r *usersRepo) UpdateLastLogin(ctx context.Context, userID string, at time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE users SET last_login = ?, updated_at = ? WHERE id = ?`,
		at.UTC(), time.Now().UTC(), userID)
	return err
}

func (r *usersRepo) SetMFAEnabled(ctx context.Context, userID string, enabled bool) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE users SET is_mfa_enabled = ?, updated_at = ? WHERE id = ?`,
		enabled, time.Now().UTC(), userID)
	return err
}

func (r *usersRepo) UpdateProfile(ctx context.Context, userID, name, email string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE users SET name = ?, email = ?, updated_at = ? WHERE id = ?`,
		name, email, time.Now().UTC(), userID)
	return mapConflict(err)
}

func (r *usersRepo) DeleteUser(ctx context.Context, userID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, userID)
	return err
}
