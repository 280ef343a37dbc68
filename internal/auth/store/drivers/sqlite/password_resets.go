package sqlite

import (
	"context"
	"time"

	"github.com/Mir00r/planify-backend/internal/auth/domain"
)

type passwordResetsRepo struct {
	db dbtx
}

func (r *passwordResetsRepo) CreatePasswordReset(ctx context.Context, p domain.PasswordReset) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO password_resets (id, user_id, token_hash, expires_at, is_used, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		p.ID, p.UserID, p.TokenHash, p.ExpiresAt.UTC(), p.Used, time.Now().UTC(),
	)
	return err
}

// GetValidPasswordResetByHash returns the newest unused, unexpired record for
// the fingerprint. Invalidation on request leaves at most one live row per
// user; the ordering picks the newest if older rows linger.
func (r *passwordResetsRepo) GetValidPasswordResetByHash(
	ctx context.Context,
	hash string,
	now time.Time,
) (domain.PasswordReset, error) {
	var p domain.PasswordReset
	err := r.db.QueryRowContext(ctx, `
		SELECT id, user_id, token_hash, expires_at, is_used, created_at
		FROM password_resets
		WHERE token_hash = ? AND is_used = 0 AND expires_at > ?
		ORDER BY created_at DESC
		LIMIT 1`,
		hash, now.UTC(),
	).Scan(&p.ID, &p.UserID, &p.TokenHash, &p.ExpiresAt, &p.Used, &p.CreatedAt)
	if err != nil {
		return domain.PasswordReset{}, mapNotFound(err)
	}
	return p, nil
}

func (r *passwordResetsRepo) InvalidateUserPasswordResets(ctx context.Context, userID string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE password_resets SET is_used = 1 WHERE user_id = ? AND is_used = 0`,
		userID)
	return err
}

func (r *passwordResetsRepo) MarkPasswordResetUsed(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE password_resets SET is_used = 1 WHERE id = ?`, id)
	return err
}
