package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Mir00r/planify-backend/internal/auth/domain"
	"github.com/Mir00r/planify-backend/internal/auth/store"
	"github.com/Mir00r/planify-backend/pkg/cryptox"
	"github.com/Mir00r/planify-backend/pkg/idx"
	"github.com/Mir00r/planify-backend/pkg/jwtx"
	"github.com/Mir00r/planify-backend/pkg/slogx"
)

// DefaultRefreshTokenTTL is how long an opaque refresh token stays redeemable.
const DefaultRefreshTokenTTL = 7 * 24 * time.Hour

var (
	// ErrTokenNotFound covers absent, revoked and already-rotated refresh
	// tokens alike.
	ErrTokenNotFound = errors.New("refresh_token_not_found")

	// ErrTokenExpired reports a refresh token past its expiry. Observing an
	// expired token also marks it revoked.
	ErrTokenExpired = errors.New("refresh_token_expired")
)

// TokenService manages the refresh token lifecycle: issuance, rotation,
// revocation. Access tokens are stateless JWTs signed via the codec; refresh
// tokens are opaque random strings persisted as issued.
type TokenService struct {
	Store      store.Store
	Codec      *jwtx.Codec
	RefreshTTL time.Duration
}

// Issue returns a fresh access/refresh pair for the user.
func (s *TokenService) Issue(ctx context.Context, u domain.User) (domain.TokenPair, error) {
	access, err := s.signAccess(ctx, u)
	if err != nil {
		return domain.TokenPair{}, err
	}

	refresh, err := s.issueRefresh(ctx, s.Store, u.ID)
	if err != nil {
		return domain.TokenPair{}, err
	}

	return domain.TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "Bearer",
		ExpiresIn:    int64(s.Codec.AccessTTL.Seconds()),
	}, nil
}

// Rotate redeems a presented refresh token and issues a new pair. The
// presented token is single-use: the rotation transaction claims it with a
// conditional revoke, so of two concurrent redeemers exactly one succeeds and
// the other fails with ErrTokenNotFound.
func (s *TokenService) Rotate(ctx context.Context, presented string) (domain.TokenPair, error) {
	now := time.Now()

	rt, err := s.Store.RefreshTokens().GetRefreshTokenByToken(ctx, presented)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.TokenPair{}, ErrTokenNotFound
		}
		return domain.TokenPair{}, err
	}
	if rt.Revoked {
		return domain.TokenPair{}, ErrTokenNotFound
	}
	if now.After(rt.ExpiresAt) {
		// An expired token observed at redemption is retired for good.
		if err := s.Store.RefreshTokens().RevokeRefreshToken(ctx, presented); err != nil {
			return domain.TokenPair{}, err
		}
		return domain.TokenPair{}, ErrTokenExpired
	}

	u, err := s.Store.Users().GetUserByID(ctx, rt.UserID)
	if err != nil {
		return domain.TokenPair{}, err
	}

	access, err := s.signAccess(ctx, u)
	if err != nil {
		return domain.TokenPair{}, err
	}

	var refresh string
	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		claimed, err := tx.RefreshTokens().ClaimRefreshToken(ctx, presented)
		if err != nil {
			return err
		}
		if !claimed {
			// Lost the race to a concurrent rotation of the same token.
			return ErrTokenNotFound
		}

		refresh, err = s.issueRefresh(ctx, tx, u.ID)
		return err
	})
	if err != nil {
		return domain.TokenPair{}, err
	}

	return domain.TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "Bearer",
		ExpiresIn:    int64(s.Codec.AccessTTL.Seconds()),
	}, nil
}

// Revoke marks a single refresh token revoked. Idempotent: revoking an
// unknown token is not an error.
func (s *TokenService) Revoke(ctx context.Context, token string) error {
	return s.Store.RefreshTokens().RevokeRefreshToken(ctx, token)
}

// RevokeAll revokes every live refresh token for the user ("logout from all
// devices").
func (s *TokenService) RevokeAll(ctx context.Context, userID string) error {
	return s.Store.RefreshTokens().RevokeAllUserRefreshTokens(ctx, userID)
}

func (s *TokenService) refreshTTL() time.Duration {
	if s.RefreshTTL > 0 {
		return s.RefreshTTL
	}
	return DefaultRefreshTokenTTL
}

// issueRefresh generates and persists a new opaque refresh token. st may be a
// transaction so rotation can pair the claim and the insert atomically.
func (s *TokenService) issueRefresh(ctx context.Context, st store.Store, userID string) (string, error) {
	opaque, err := cryptox.GenerateHexToken(cryptox.TokenSize320)
	if err != nil {
		return "", fmt.Errorf("failed to generate refresh token: %w", err)
	}

	rt := domain.RefreshToken{
		ID:        idx.New().String(),
		UserID:    userID,
		Token:     opaque,
		ExpiresAt: time.Now().Add(s.refreshTTL()),
		Revoked:   false,
	}
	if err := st.RefreshTokens().CreateRefreshToken(ctx, rt); err != nil {
		return "", err
	}
	return opaque, nil
}

// signAccess signs an access token with the user's role name in the claims.
// Users referencing a missing role fall back to the default role name rather
// than failing the issuance.
func (s *TokenService) signAccess(ctx context.Context, u domain.User) (string, error) {
	roleName := domain.RoleUser
	role, err := s.Store.Roles().GetRoleByID(ctx, u.RoleID)
	switch {
	case err == nil:
		roleName = role.Name
	case errors.Is(err, store.ErrNotFound):
		slogx.FromContext(ctx).Warn("user references unknown role", "user_id", u.ID, "role_id", u.RoleID)
	default:
		return "", err
	}
	return s.Codec.SignAccessToken(u.ID, u.Email, roleName)
}
