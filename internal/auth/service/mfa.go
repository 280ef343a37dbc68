package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/Mir00r/planify-backend/internal/auth/domain"
	"github.com/Mir00r/planify-backend/internal/auth/store"
	"github.com/Mir00r/planify-backend/pkg/cryptox"
	"github.com/Mir00r/planify-backend/pkg/idx"
	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
)

const (
	// DefaultBackupCodeCount is how many single-use codes enrolment hands out.
	DefaultBackupCodeCount = 8
	// DefaultBackupCodeLength is the character length of each backup code.
	DefaultBackupCodeLength = 10

	totpPeriod = 30
)

var (
	ErrMFAAlreadyEnabled = errors.New("mfa_already_enabled")
	ErrMFANotEnabled     = errors.New("mfa_not_enabled")
	ErrInvalidMFACode    = errors.New("invalid_mfa_code")
)

// MFAService manages TOTP enrolment and verification plus backup codes.
// Enrolment material (secret, provisioning URI, backup codes) is returned
// exactly once; regenerating it means disabling and re-enabling MFA.
type MFAService struct {
	Store  store.Store
	Issuer string // issuer label embedded in provisioning URIs

	BackupCodeCount  int
	BackupCodeLength int
}

// Enable starts (or restarts) MFA enrolment for the user. A fresh secret and
// backup codes replace any unverified prior enrolment; an already-enabled
// secret is never touched.
func (s *MFAService) Enable(ctx context.Context, userID, email string) (domain.MFAEnrollResponse, error) {
	existing, err := s.Store.MFASecrets().GetMFASecretByUserID(ctx, userID)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return domain.MFAEnrollResponse{}, fmt.Errorf("failed to load MFA secret: %w", err)
	}
	if err == nil && existing.Enabled {
		return domain.MFAEnrollResponse{}, ErrMFAAlreadyEnabled
	}

	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      s.Issuer,
		AccountName: email,
		Period:      totpPeriod,
		Digits:      otp.DigitsSix,
		Algorithm:   otp.AlgorithmSHA1,
	})
	if err != nil {
		return domain.MFAEnrollResponse{}, fmt.Errorf("failed to generate TOTP key: %w", err)
	}

	codes, err := s.generateBackupCodes()
	if err != nil {
		return domain.MFAEnrollResponse{}, err
	}

	record := domain.MFASecret{
		ID:          idx.New().String(),
		UserID:      userID,
		Secret:      key.Secret(),
		BackupCodes: codes,
		Enabled:     false, // stays false until the first successful verification
	}
	if err := s.Store.MFASecrets().UpsertMFASecret(ctx, record); err != nil {
		return domain.MFAEnrollResponse{}, fmt.Errorf("failed to store MFA secret: %w", err)
	}

	return domain.MFAEnrollResponse{
		Secret:          key.Secret(),
		ProvisioningURI: key.URL(),
		BackupCodes:     codes,
	}, nil
}

// Verify checks a TOTP or backup code. TOTP codes from the previous, current
// or next 30-second window are accepted; backup codes match exactly and are
// consumed on use. The first successful verification of any kind enables MFA
// on both the secret and the user record, in one transaction.
func (s *MFAService) Verify(ctx context.Context, userID, code string) (domain.MFAVerifyResponse, error) {
	secret, err := s.Store.MFASecrets().GetMFASecretByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.MFAVerifyResponse{}, ErrMFANotEnabled
		}
		return domain.MFAVerifyResponse{}, err
	}

	now := time.Now()

	totpOK := validateTOTP(code, secret.Secret, now)

	usedBackup := false
	remaining := secret.BackupCodes
	if !totpOK {
		i := slices.Index(secret.BackupCodes, code)
		if i < 0 {
			return domain.MFAVerifyResponse{}, ErrInvalidMFACode
		}
		usedBackup = true
		remaining = slices.Delete(slices.Clone(secret.BackupCodes), i, i+1)
	}

	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		if usedBackup {
			// A consumed backup code must never verify again.
			if err := tx.MFASecrets().UpdateBackupCodes(ctx, secret.ID, remaining); err != nil {
				return err
			}
		}
		if !secret.Enabled {
			if err := tx.MFASecrets().MarkMFAVerified(ctx, secret.ID, now); err != nil {
				return err
			}
			if err := tx.Users().SetMFAEnabled(ctx, userID, true); err != nil {
				return err
			}
		}
		return tx.MFASecrets().UpdateLastUsed(ctx, secret.ID, now)
	})
	if err != nil {
		return domain.MFAVerifyResponse{}, err
	}

	return domain.MFAVerifyResponse{
		Verified: true,
		Message:  "MFA verification successful",
	}, nil
}

// Disable removes the user's MFA enrolment: the secret row (backup codes
// included) and the user flag go together.
func (s *MFAService) Disable(ctx context.Context, userID string) error {
	if _, err := s.Store.MFASecrets().GetMFASecretByUserID(ctx, userID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrMFANotEnabled
		}
		return err
	}

	return s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.MFASecrets().DeleteMFASecretByUserID(ctx, userID); err != nil {
			return err
		}
		return tx.Users().SetMFAEnabled(ctx, userID, false)
	})
}

func (s *MFAService) generateBackupCodes() ([]string, error) {
	count := s.BackupCodeCount
	if count <= 0 {
		count = DefaultBackupCodeCount
	}
	length := s.BackupCodeLength
	if length <= 0 {
		length = DefaultBackupCodeLength
	}

	codes := make([]string, count)
	for i := range codes {
		code, err := cryptox.GenerateBackupCode(length)
		if err != nil {
			return nil, fmt.Errorf("failed to generate backup code: %w", err)
		}
		codes[i] = code
	}
	return codes, nil
}

// validateTOTP accepts codes from the current 30-second window plus one
// window of clock skew either side. Input the validator refuses to process
// (backup codes are 10 characters, not 6 digits) is simply not a TOTP match;
// the backup-code list gets its turn next.
func validateTOTP(code, secret string, at time.Time) bool {
	ok, err := totp.ValidateCustom(code, secret, at, totp.ValidateOpts{
		Period:    totpPeriod,
		Skew:      1,
		Digits:    otp.DigitsSix,
		Algorithm: otp.AlgorithmSHA1,
	})
	return err == nil && ok
}
