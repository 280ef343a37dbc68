package service

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/Mir00r/planify-backend/internal/auth/domain"
	"github.com/Mir00r/planify-backend/internal/auth/mail"
	"github.com/Mir00r/planify-backend/internal/auth/store"
	"github.com/Mir00r/planify-backend/internal/auth/store/drivers/sqlite"
	"github.com/Mir00r/planify-backend/pkg/cryptox"
	"github.com/Mir00r/planify-backend/pkg/idx"
	"github.com/Mir00r/planify-backend/pkg/jwtx"
	"github.com/stretchr/testify/require"
)

// testHashCost keeps the bcrypt work factor at the floor so the suite stays fast.
const testHashCost = cryptox.MinHashCost

func newTestStore(t *testing.T) store.Store {
	t.Helper()

	dsn := "file:" + filepath.Join(t.TempDir(), "auth_test.db")
	st, err := sqlite.NewStore(dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	require.NoError(t, st.ApplyMigrations())
	return st
}

func newTestCodec() *jwtx.Codec {
	return jwtx.NewCodec([]byte("test-secret-at-least-32-bytes-long!"), "test-issuer", 0, 0)
}

func newTestServices(t *testing.T) (*AuthService, *TokenService, *PasswordResetService, *MFAService, store.Store) {
	t.Helper()

	st := newTestStore(t)
	codec := newTestCodec()
	mailer := &mail.LogSender{}

	tokens := &TokenService{Store: st, Codec: codec}
	auth := &AuthService{
		Store:    st,
		Codec:    codec,
		Tokens:   tokens,
		Mailer:   mailer,
		HashCost: testHashCost,
	}
	resets := &PasswordResetService{Store: st, Mailer: mailer, HashCost: testHashCost}
	mfa := &MFAService{Store: st, Issuer: "test-issuer"}

	return auth, tokens, resets, mfa, st
}

// createVerifiedUser seeds a user directly so login-dependent tests don't
// have to run the registration and verification flow each time.
func createVerifiedUser(t *testing.T, st store.Store, email, password string) domain.User {
	t.Helper()
	ctx := context.Background()

	role, err := st.Roles().GetRoleByName(ctx, domain.RoleUser)
	require.NoError(t, err)

	hash, err := cryptox.HashPassword(password, testHashCost)
	require.NoError(t, err)

	u := domain.User{
		ID:            idx.New().String(),
		Name:          "Test User",
		Email:         NormalizeEmail(email),
		PasswordHash:  hash,
		RoleID:        role.ID,
		EmailVerified: true,
		IsActive:      true,
	}
	require.NoError(t, st.Users().CreateUser(ctx, u))
	require.NoError(t, st.Users().MarkEmailVerified(ctx, u.ID, time.Now()))

	created, err := st.Users().GetUserByID(ctx, u.ID)
	require.NoError(t, err)
	return created
}
