package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/Mir00r/planify-backend/internal/auth/domain"
)

type mfaSecretsRepo struct {
	db dbtx
}

func (r *mfaSecretsRepo) GetMFASecretByUserID(ctx context.Context, userID string) (domain.MFASecret, error) {
	var s domain.MFASecret
	var codes string
	var lastUsed, verified sql.NullTime
	err := r.db.QueryRowContext(ctx, `
		SELECT id, user_id, secret, backup_codes, is_enabled, last_used_at, verified_at,
			created_at, updated_at
		FROM mfa_secrets WHERE user_id = ?`, userID,
	).Scan(&s.ID, &s.UserID, &s.Secret, &codes, &s.Enabled, &lastUsed, &verified,
		&s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return domain.MFASecret{}, mapNotFound(err)
	}
	s.BackupCodes = splitCodes(codes)
	s.LastUsedAt = mapNullTimePtr(lastUsed)
	s.VerifiedAt = mapNullTimePtr(verified)
	return s, nil
}

// UpsertMFASecret replaces any prior enrolment wholesale: new secret, new
// backup codes, enablement reset until the next successful verification.
func (r *mfaSecretsRepo) UpsertMFASecret(ctx context.Context, s domain.MFASecret) error {
	now := time.Now().UTC()
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO mfa_secrets (id, user_id, secret, backup_codes, is_enabled,
			last_used_at, verified_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			secret = excluded.secret,
			backup_codes = excluded.backup_codes,
			is_enabled = excluded.is_enabled,
			last_used_at = NULL,
			verified_at = NULL,
			updated_at = excluded.updated_at`,
		s.ID, s.UserID, s.Secret, joinCodes(s.BackupCodes), s.Enabled,
		mapOptionalTime(s.LastUsedAt), mapOptionalTime(s.VerifiedAt), now, now,
	)
	return err
}

func (r *mfaSecretsRepo) UpdateBackupCodes(ctx context.Context, id string, codes []string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE mfa_secrets SET backup_codes = ?, updated_at = ? WHERE id = ?`,
		joinCodes(codes), time.Now().UTC(), id)
	return err
}

func (r *mfaSecretsRepo) MarkMFAVerified(ctx context.Context, id string, at time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE mfa_secrets SET is_enabled = 1, verified_at = ?, updated_at = ? WHERE id = ?`,
		at.UTC(), time.Now().UTC(), id)
	return err
}

func (r *mfaSecretsRepo) UpdateLastUsed(ctx context.Context, id string, at time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE mfa_secrets SET last_used_at = ?, updated_at = ? WHERE id = ?`,
		at.UTC(), time.Now().UTC(), id)
	return err
}

func (r *mfaSecretsRepo) DeleteMFASecretByUserID(ctx context.Context, userID string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM mfa_secrets WHERE user_id = ?`, userID)
	return err
}
