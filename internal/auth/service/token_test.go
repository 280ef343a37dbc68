package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/Mir00r/planify-backend/internal/auth/domain"
	"github.com/Mir00r/planify-backend/pkg/cryptox"
	"github.com/Mir00r/planify-backend/pkg/idx"
	"github.com/stretchr/testify/require"
)

func TestIssue(t *testing.T) {
	_, tokens, _, _, st := newTestServices(t)
	ctx := context.Background()

	u := createVerifiedUser(t, st, "issue@example.com", "correct-horse")

	pair, err := tokens.Issue(ctx, u)
	require.NoError(t, err)
	require.Equal(t, "Bearer", pair.TokenType)
	require.Equal(t, int64(tokens.Codec.AccessTTL.Seconds()), pair.ExpiresIn)

	claims, err := tokens.Codec.VerifyAccessToken(pair.AccessToken)
	require.NoError(t, err)
	require.Equal(t, u.ID, claims.UserID)
	require.Equal(t, u.Email, claims.Email)
	require.Equal(t, domain.RoleUser, claims.Role)

	// 40 random bytes hex-encoded
	require.Len(t, pair.RefreshToken, 80)

	stored, err := st.RefreshTokens().GetRefreshTokenByToken(ctx, pair.RefreshToken)
	require.NoError(t, err)
	require.Equal(t, u.ID, stored.UserID)
	require.False(t, stored.Revoked)
	require.WithinDuration(t, time.Now().Add(DefaultRefreshTokenTTL), stored.ExpiresAt, time.Minute)
}

func TestRotate_SingleUse(t *testing.T) {
	_, tokens, _, _, st := newTestServices(t)
	ctx := context.Background()

	u := createVerifiedUser(t, st, "rotate@example.com", "correct-horse")

	pair, err := tokens.Issue(ctx, u)
	require.NoError(t, err)

	next, err := tokens.Rotate(ctx, pair.RefreshToken)
	require.NoError(t, err)
	require.NotEqual(t, pair.RefreshToken, next.RefreshToken)

	// The consumed token never rotates again.
	_, err = tokens.Rotate(ctx, pair.RefreshToken)
	require.ErrorIs(t, err, ErrTokenNotFound)

	// Its replacement does.
	_, err = tokens.Rotate(ctx, next.RefreshToken)
	require.NoError(t, err)
}

func TestRotate_Concurrent(t *testing.T) {
	_, tokens, _, _, st := newTestServices(t)
	ctx := context.Background()

	u := createVerifiedUser(t, st, "race@example.com", "correct-horse")

	pair, err := tokens.Issue(ctx, u)
	require.NoError(t, err)

	const redeemers = 8
	errs := make([]error, redeemers)

	var wg sync.WaitGroup
	for i := range redeemers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = tokens.Rotate(ctx, pair.RefreshToken)
		}()
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
		} else {
			require.ErrorIs(t, err, ErrTokenNotFound)
		}
	}
	require.Equal(t, 1, succeeded, "exactly one concurrent redeemer may win")
}

func TestRotate_Expired(t *testing.T) {
	_, tokens, _, _, st := newTestServices(t)
	ctx := context.Background()

	u := createVerifiedUser(t, st, "expired@example.com", "correct-horse")

	opaque, err := cryptox.GenerateHexToken(cryptox.TokenSize320)
	require.NoError(t, err)
	require.NoError(t, st.RefreshTokens().CreateRefreshToken(ctx, domain.RefreshToken{
		ID:        idx.New().String(),
		UserID:    u.ID,
		Token:     opaque,
		ExpiresAt: time.Now().Add(-time.Minute),
	}))

	_, err = tokens.Rotate(ctx, opaque)
	require.ErrorIs(t, err, ErrTokenExpired)

	// Redeeming an expired token retires it for good.
	stored, err := st.RefreshTokens().GetRefreshTokenByToken(ctx, opaque)
	require.NoError(t, err)
	require.True(t, stored.Revoked)

	_, err = tokens.Rotate(ctx, opaque)
	require.ErrorIs(t, err, ErrTokenNotFound)
}

func TestRotate_Unknown(t *testing.T) {
	_, tokens, _, _, _ := newTestServices(t)

	_, err := tokens.Rotate(context.Background(), "no-such-token")
	require.ErrorIs(t, err, ErrTokenNotFound)
}

func TestRevoke(t *testing.T) {
	_, tokens, _, _, st := newTestServices(t)
	ctx := context.Background()

	u := createVerifiedUser(t, st, "revoke@example.com", "correct-horse")

	pair, err := tokens.Issue(ctx, u)
	require.NoError(t, err)

	require.NoError(t, tokens.Revoke(ctx, pair.RefreshToken))
	_, err = tokens.Rotate(ctx, pair.RefreshToken)
	require.ErrorIs(t, err, ErrTokenNotFound)

	// Revocation is idempotent, including for unknown tokens.
	require.NoError(t, tokens.Revoke(ctx, pair.RefreshToken))
	require.NoError(t, tokens.Revoke(ctx, "no-such-token"))
}

func TestRevokeAll_LeavesOtherUsersAlone(t *testing.T) {
	_, tokens, _, _, st := newTestServices(t)
	ctx := context.Background()

	alice := createVerifiedUser(t, st, "alice-ra@example.com", "correct-horse")
	bob := createVerifiedUser(t, st, "bob-ra@example.com", "correct-horse")

	alicePair, err := tokens.Issue(ctx, alice)
	require.NoError(t, err)
	bobPair, err := tokens.Issue(ctx, bob)
	require.NoError(t, err)

	require.NoError(t, tokens.RevokeAll(ctx, alice.ID))

	_, err = tokens.Rotate(ctx, alicePair.RefreshToken)
	require.ErrorIs(t, err, ErrTokenNotFound)

	_, err = tokens.Rotate(ctx, bobPair.RefreshToken)
	require.NoError(t, err, "revoking one user's tokens must not touch another's")
}
