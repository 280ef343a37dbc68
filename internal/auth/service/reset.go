package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Mir00r/planify-backend/internal/auth/domain"
	"github.com/Mir00r/planify-backend/internal/auth/mail"
	"github.com/Mir00r/planify-backend/internal/auth/store"
	"github.com/Mir00r/planify-backend/pkg/cryptox"
	"github.com/Mir00r/planify-backend/pkg/idx"
	"github.com/Mir00r/planify-backend/pkg/slogx"
)

// DefaultResetTokenTTL is how long a password reset link stays valid.
const DefaultResetTokenTTL = time.Hour

// ErrNoValidResetToken reports an absent, consumed or expired reset token.
var ErrNoValidResetToken = errors.New("no_valid_reset_token")

// PasswordResetService manages single-use, time-limited password reset
// tokens. Only a SHA-256 fingerprint of the mailed secret is persisted; a
// stolen database snapshot yields nothing redeemable.
type PasswordResetService struct {
	Store    store.Store
	Mailer   mail.Sender
	HashCost int
	ResetTTL time.Duration
}

// RequestReset starts a reset flow for the email, if it belongs to a user.
// The response is uniform whether or not the account exists, so the endpoint
// cannot be used to probe for registered emails. Returns the plaintext token
// handed to the mailer (empty when no account matched).
func (s *PasswordResetService) RequestReset(ctx context.Context, email string) (string, error) {
	l := slogx.FromContext(ctx)
	email = NormalizeEmail(email)

	u, err := s.Store.Users().GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			l.Info("password reset requested for unknown email")
			return "", nil
		}
		return "", err
	}

	plaintext, err := cryptox.GenerateHexToken(cryptox.TokenSize256)
	if err != nil {
		return "", fmt.Errorf("failed to generate reset token: %w", err)
	}

	record := domain.PasswordReset{
		ID:        idx.New().String(),
		UserID:    u.ID,
		TokenHash: cryptox.FingerprintToken(plaintext),
		ExpiresAt: time.Now().Add(s.resetTTL()),
		Used:      false,
	}

	// A new request supersedes every outstanding one for this user; the
	// invalidation and the insert land together.
	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.PasswordResets().InvalidateUserPasswordResets(ctx, u.ID); err != nil {
			return err
		}
		return tx.PasswordResets().CreatePasswordReset(ctx, record)
	})
	if err != nil {
		return "", err
	}

	// Delivery failures are logged, never surfaced: the reset request has
	// already succeeded.
	if err := s.Mailer.SendPasswordResetEmail(ctx, u.Email, plaintext); err != nil {
		l.Error("failed to send password reset email", "error", err, "user_id", u.ID)
	}

	return plaintext, nil
}

// ResetPassword consumes a reset token and sets the new password. The
// password update and the token consumption commit together or not at all.
func (s *PasswordResetService) ResetPassword(ctx context.Context, token, newPassword string) error {
	record, err := s.Store.PasswordResets().GetValidPasswordResetByHash(
		ctx, cryptox.FingerprintToken(token), time.Now())
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrNoValidResetToken
		}
		return err
	}

	newHash, err := cryptox.HashPassword(newPassword, s.HashCost)
	if err != nil {
		return err
	}

	return s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.Users().UpdatePasswordHash(ctx, record.UserID, newHash); err != nil {
			return err
		}
		return tx.PasswordResets().MarkPasswordResetUsed(ctx, record.ID)
	})
}

func (s *PasswordResetService) resetTTL() time.Duration {
	if s.ResetTTL > 0 {
		return s.ResetTTL
	}
	return DefaultResetTokenTTL
}
