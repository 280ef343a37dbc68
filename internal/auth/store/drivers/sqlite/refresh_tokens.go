package sqlite

import (
	"context"
	"time"

	"github.com/Mir00r/planify-backend/internal/auth/domain"
)

type refreshTokensRepo struct {
	db dbtx
}

func (r *refreshTokensRepo) CreateRefreshToken(ctx context.Context, t domain.RefreshToken) error {
	now := time.Now().UTC()
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO refresh_tokens (id, user_id, token, expires_at, is_revoked, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.UserID, t.Token, t.ExpiresAt.UTC(), t.Revoked, now, now,
	)
	return mapConflict(err)
}

func (r *refreshTokensRepo) GetRefreshTokenByToken(ctx context.Context, token string) (domain.RefreshToken, error) {
	var t domain.RefreshToken
	err := r.db.QueryRowContext(ctx, `
		SELECT id, user_id, token, expires_at, is_revoked, created_at, updated_at
		FROM refresh_tokens WHERE token = ?`, token,
	).Scan(&t.ID, &t.UserID, &t.Token, &t.ExpiresAt, &t.Revoked, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return domain.RefreshToken{}, mapNotFound(err)
	}
	return t, nil
}

// ClaimRefreshToken is the single-use gate for rotation. The conditional
// update closes the read-then-write race: of two concurrent redeemers, only
// one observes an affected row.
func (r *refreshTokensRepo) ClaimRefreshToken(ctx context.Context, token string) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE refresh_tokens SET is_revoked = 1, updated_at = ? WHERE token = ? AND is_revoked = 0`,
		time.Now().UTC(), token)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (r *refreshTokensRepo) RevokeRefreshToken(ctx context.Context, token string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE refresh_tokens SET is_revoked = 1, updated_at = ? WHERE token = ?`,
		time.Now().UTC(), token)
	return err
}

func (r *refreshTokensRepo) RevokeAllUserRefreshTokens(ctx context.Context, userID string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE refresh_tokens SET is_revoked = 1, updated_at = ? WHERE user_id = ? AND is_revoked = 0`,
		time.Now().UTC(), userID)
	return err
}

func (r *refreshTokensRepo) DeleteExpiredRefreshTokens(ctx context.Context, now time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM refresh_tokens WHERE expires_at < ?`, now.UTC())
	return err
}
