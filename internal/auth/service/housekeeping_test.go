package service

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/Mir00r/planify-backend/internal/auth/domain"
	"github.com/Mir00r/planify-backend/internal/auth/store"
	"github.com/Mir00r/planify-backend/pkg/cryptox"
	"github.com/Mir00r/planify-backend/pkg/idx"
	"github.com/stretchr/testify/require"
)

func seedRefreshToken(t *testing.T, st store.Store, userID string, expiresAt time.Time) string {
	t.Helper()
	opaque, err := cryptox.GenerateHexToken(cryptox.TokenSize320)
	require.NoError(t, err)
	require.NoError(t, st.RefreshTokens().CreateRefreshToken(context.Background(), domain.RefreshToken{
		ID:        idx.New().String(),
		UserID:    userID,
		Token:     opaque,
		ExpiresAt: expiresAt,
	}))
	return opaque
}

func TestHousekeepingSweep(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	u := createVerifiedUser(t, st, "sweep@example.com", "correct-horse")

	expired := seedRefreshToken(t, st, u.ID, time.Now().Add(-time.Hour))
	live := seedRefreshToken(t, st, u.ID, time.Now().Add(time.Hour))

	hk := NewHousekeepingService(st, slog.Default(), time.Hour)
	hk.sweep(ctx)

	_, err := st.RefreshTokens().GetRefreshTokenByToken(ctx, expired)
	require.ErrorIs(t, err, store.ErrNotFound)

	kept, err := st.RefreshTokens().GetRefreshTokenByToken(ctx, live)
	require.NoError(t, err)
	require.Equal(t, u.ID, kept.UserID)
}

func TestHousekeepingLifecycle(t *testing.T) {
	st := newTestStore(t)

	u := createVerifiedUser(t, st, "lifecycle@example.com", "correct-horse")
	expired := seedRefreshToken(t, st, u.ID, time.Now().Add(-time.Hour))

	// Start runs an immediate sweep before the first tick; Stop blocks until
	// the worker is done.
	hk := NewHousekeepingService(st, slog.Default(), time.Hour)
	hk.Start()
	hk.Stop()

	_, err := st.RefreshTokens().GetRefreshTokenByToken(context.Background(), expired)
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestNewHousekeepingService_DefaultInterval(t *testing.T) {
	hk := NewHousekeepingService(newTestStore(t), slog.Default(), 0)
	require.Equal(t, time.Hour, hk.Interval)
}
