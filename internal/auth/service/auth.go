package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Mir00r/planify-backend/internal/auth/domain"
	"github.com/Mir00r/planify-backend/internal/auth/mail"
	"github.com/Mir00r/planify-backend/internal/auth/store"
	"github.com/Mir00r/planify-backend/pkg/cryptox"
	"github.com/Mir00r/planify-backend/pkg/idx"
	"github.com/Mir00r/planify-backend/pkg/jwtx"
	"github.com/Mir00r/planify-backend/pkg/slogx"
)

var (
	ErrInvalidCredentials       = errors.New("invalid_credentials")
	ErrEmailAlreadyRegistered   = errors.New("email_already_registered")
	ErrEmailNotVerified         = errors.New("email_not_verified")
	ErrInvalidVerificationToken = errors.New("invalid_verification_token")
	ErrVerificationTokenExpired = errors.New("verification_token_expired")
	ErrIncorrectCurrentPassword = errors.New("incorrect_current_password")
	ErrUserNotFound             = errors.New("user_not_found")
	ErrRoleNotFound             = errors.New("role_not_found")
)

// NormalizeEmail lower-cases and trims an email address. Every lookup and
// every stored email goes through this so case variants hit the same account.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// AuthService orchestrates registration, login, email verification and
// password changes over the store, the token codec and the mailer.
type AuthService struct {
	Store    store.Store
	Codec    *jwtx.Codec
	Tokens   *TokenService
	Mailer   mail.Sender
	HashCost int
}

// RegisterResult is what a successful registration hands back: the created
// profile plus an immediate access token. No refresh token is issued until
// the email is verified and the user logs in.
type RegisterResult struct {
	User        domain.Profile
	AccessToken string
}

// Register creates an account, emails a verification link and returns an
// access token. An empty roleID assigns the default USER role; a non-empty
// one must name an existing role. Duplicate emails are reported as such;
// unlike the reset flow this endpoint is expected to tell the caller the
// address is taken.
func (s *AuthService) Register(ctx context.Context, name, email, password, roleID string) (RegisterResult, error) {
	l := slogx.FromContext(ctx)
	email = NormalizeEmail(email)

	hash, err := cryptox.HashPassword(password, s.HashCost)
	if err != nil {
		return RegisterResult{}, err
	}

	var role domain.Role
	if roleID == "" {
		role, err = s.Store.Roles().GetRoleByName(ctx, domain.RoleUser)
		if err != nil {
			return RegisterResult{}, fmt.Errorf("failed to resolve default role: %w", err)
		}
	} else {
		role, err = s.Store.Roles().GetRoleByID(ctx, roleID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return RegisterResult{}, ErrRoleNotFound
			}
			return RegisterResult{}, err
		}
	}

	u := domain.User{
		ID:           idx.New().String(),
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		RoleID:       role.ID,
		IsActive:     true,
	}
	if err := s.Store.Users().CreateUser(ctx, u); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return RegisterResult{}, ErrEmailAlreadyRegistered
		}
		return RegisterResult{}, err
	}

	verification, err := s.Codec.SignVerificationToken(u.ID)
	if err != nil {
		return RegisterResult{}, err
	}
	// The account exists either way; a failed send only costs the user a
	// resend, so it is logged and swallowed.
	if err := s.Mailer.SendVerificationEmail(ctx, u.Email, u.Name, verification); err != nil {
		l.Error("failed to send verification email", "error", err, "user_id", u.ID)
	}

	access, err := s.Codec.SignAccessToken(u.ID, u.Email, role.Name)
	if err != nil {
		return RegisterResult{}, err
	}

	l.Info("user registered", "user_id", u.ID)
	return RegisterResult{
		User:        profileOf(u, role.Name),
		AccessToken: access,
	}, nil
}

// Login verifies credentials and issues an access/refresh pair. Unknown
// email, wrong password and deactivated account all collapse into
// ErrInvalidCredentials; only an unverified email is reported distinctly.
//
// Login does not consult is_mfa_enabled: MFA verification is a separate
// explicit call after login, not a second login factor.
func (s *AuthService) Login(ctx context.Context, email, password string) (domain.TokenPair, error) {
	email = NormalizeEmail(email)

	u, err := s.Store.Users().GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.TokenPair{}, ErrInvalidCredentials
		}
		return domain.TokenPair{}, err
	}
	if !u.IsActive || !cryptox.VerifyPassword(password, u.PasswordHash) {
		return domain.TokenPair{}, ErrInvalidCredentials
	}
	if !u.EmailVerified {
		return domain.TokenPair{}, ErrEmailNotVerified
	}

	pair, err := s.Tokens.Issue(ctx, u)
	if err != nil {
		return domain.TokenPair{}, err
	}

	if err := s.Store.Users().UpdateLastLogin(ctx, u.ID, time.Now()); err != nil {
		slogx.FromContext(ctx).Warn("failed to record last login", "error", err, "user_id", u.ID)
	}

	return pair, nil
}

// VerifyEmail redeems an email-verification token. Verifying an
// already-verified account is a no-op success.
func (s *AuthService) VerifyEmail(ctx context.Context, token string) error {
	claims, err := s.Codec.VerifyVerificationToken(token)
	if err != nil {
		if errors.Is(err, jwtx.ErrTokenExpired) {
			return ErrVerificationTokenExpired
		}
		return ErrInvalidVerificationToken
	}

	u, err := s.Store.Users().GetUserByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrInvalidVerificationToken
		}
		return err
	}
	if u.EmailVerified {
		return nil
	}

	return s.Store.Users().MarkEmailVerified(ctx, u.ID, time.Now())
}

// ChangePassword swaps the password after checking the current one.
//
// TODO: call s.Tokens.RevokeAll here so a password change invalidates open
// sessions; today they deliberately stay valid until they expire or rotate.
func (s *AuthService) ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) error {
	u, err := s.Store.Users().GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrUserNotFound
		}
		return err
	}
	if !cryptox.VerifyPassword(currentPassword, u.PasswordHash) {
		return ErrIncorrectCurrentPassword
	}

	hash, err := cryptox.HashPassword(newPassword, s.HashCost)
	if err != nil {
		return err
	}
	return s.Store.Users().UpdatePasswordHash(ctx, u.ID, hash)
}

// Logout revokes the presented refresh token. Idempotent.
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	return s.Tokens.Revoke(ctx, refreshToken)
}

// LogoutAll revokes every refresh token the user holds.
func (s *AuthService) LogoutAll(ctx context.Context, userID string) error {
	return s.Tokens.RevokeAll(ctx, userID)
}

// profileOf builds the sanitized view of a user.
func profileOf(u domain.User, roleName string) domain.Profile {
	return domain.Profile{
		ID:            u.ID,
		Name:          u.Name,
		Email:         u.Email,
		Role:          roleName,
		EmailVerified: u.EmailVerified,
		MFAEnabled:    u.MFAEnabled,
		IsActive:      u.IsActive,
		LastLogin:     u.LastLogin,
		CreatedAt:     u.CreatedAt,
	}
}
