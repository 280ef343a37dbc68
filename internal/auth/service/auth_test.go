package service

import (
	"context"
	"testing"
	"time"

	"github.com/Mir00r/planify-backend/internal/auth/domain"
	"github.com/stretchr/testify/require"
)

func TestRegister(t *testing.T) {
	auth, _, _, _, st := newTestServices(t)
	ctx := context.Background()

	result, err := auth.Register(ctx, "Alice", "alice@example.com", "hunter2secret", "")
	require.NoError(t, err)
	require.Equal(t, "alice@example.com", result.User.Email)
	require.Equal(t, domain.RoleUser, result.User.Role)
	require.False(t, result.User.EmailVerified)
	require.True(t, result.User.IsActive)
	require.NotEmpty(t, result.AccessToken)

	claims, err := auth.Codec.VerifyAccessToken(result.AccessToken)
	require.NoError(t, err)
	require.Equal(t, result.User.ID, claims.UserID)
	require.Equal(t, domain.RoleUser, claims.Role)

	u, err := st.Users().GetUserByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	require.Equal(t, result.User.ID, u.ID)
	require.NotEqual(t, "hunter2secret", u.PasswordHash, "password must never be stored in plaintext")
}

func TestRegister_NormalizesEmail(t *testing.T) {
	auth, _, _, _, st := newTestServices(t)
	ctx := context.Background()

	result, err := auth.Register(ctx, "Bob", "  Bob@Example.COM ", "hunter2secret", "")
	require.NoError(t, err)
	require.Equal(t, "bob@example.com", result.User.Email)

	_, err = st.Users().GetUserByEmail(ctx, "bob@example.com")
	require.NoError(t, err)
}

func TestRegister_DuplicateEmail(t *testing.T) {
	auth, _, _, _, _ := newTestServices(t)
	ctx := context.Background()

	_, err := auth.Register(ctx, "Alice", "alice@example.com", "hunter2secret", "")
	require.NoError(t, err)

	// Same address, different case: still the same account.
	_, err = auth.Register(ctx, "Impostor", "ALICE@example.com", "otherpassword", "")
	require.ErrorIs(t, err, ErrEmailAlreadyRegistered)
}

func TestRegister_ExplicitRole(t *testing.T) {
	auth, _, _, _, st := newTestServices(t)
	ctx := context.Background()

	admin, err := st.Roles().GetRoleByName(ctx, domain.RoleAdmin)
	require.NoError(t, err)

	result, err := auth.Register(ctx, "Heidi", "heidi@example.com", "hunter2secret", admin.ID)
	require.NoError(t, err)
	require.Equal(t, domain.RoleAdmin, result.User.Role)

	claims, err := auth.Codec.VerifyAccessToken(result.AccessToken)
	require.NoError(t, err)
	require.Equal(t, domain.RoleAdmin, claims.Role)

	u, err := st.Users().GetUserByEmail(ctx, "heidi@example.com")
	require.NoError(t, err)
	require.Equal(t, admin.ID, u.RoleID)
}

func TestRegister_UnknownRole(t *testing.T) {
	auth, _, _, _, st := newTestServices(t)
	ctx := context.Background()

	_, err := auth.Register(ctx, "Ivan", "ivan@example.com", "hunter2secret", "no-such-role")
	require.ErrorIs(t, err, ErrRoleNotFound)

	// The rejected registration must not leave an account behind.
	_, err = st.Users().GetUserByEmail(ctx, "ivan@example.com")
	require.Error(t, err)
}

func TestLogin(t *testing.T) {
	auth, _, _, _, st := newTestServices(t)
	ctx := context.Background()

	u := createVerifiedUser(t, st, "carol@example.com", "correct-horse")
	require.Nil(t, u.LastLogin)

	pair, err := auth.Login(ctx, "carol@example.com", "correct-horse")
	require.NoError(t, err)
	require.NotEmpty(t, pair.AccessToken)
	require.NotEmpty(t, pair.RefreshToken)
	require.Equal(t, "Bearer", pair.TokenType)

	after, err := st.Users().GetUserByID(ctx, u.ID)
	require.NoError(t, err)
	require.NotNil(t, after.LastLogin, "login should record last_login")
}

func TestLogin_BadCredentials(t *testing.T) {
	auth, _, _, _, st := newTestServices(t)
	ctx := context.Background()

	createVerifiedUser(t, st, "dave@example.com", "correct-horse")

	t.Run("wrong password", func(t *testing.T) {
		_, err := auth.Login(ctx, "dave@example.com", "battery-staple")
		require.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("unknown email", func(t *testing.T) {
		_, err := auth.Login(ctx, "nobody@example.com", "correct-horse")
		require.ErrorIs(t, err, ErrInvalidCredentials)
	})
}

func TestLogin_UnverifiedEmail(t *testing.T) {
	auth, _, _, _, _ := newTestServices(t)
	ctx := context.Background()

	_, err := auth.Register(ctx, "Eve", "eve@example.com", "hunter2secret", "")
	require.NoError(t, err)

	_, err = auth.Login(ctx, "eve@example.com", "hunter2secret")
	require.ErrorIs(t, err, ErrEmailNotVerified)
}

func TestVerifyEmail(t *testing.T) {
	auth, _, _, _, st := newTestServices(t)
	ctx := context.Background()

	result, err := auth.Register(ctx, "Frank", "frank@example.com", "hunter2secret", "")
	require.NoError(t, err)

	token, err := auth.Codec.SignVerificationToken(result.User.ID)
	require.NoError(t, err)

	require.NoError(t, auth.VerifyEmail(ctx, token))

	u, err := st.Users().GetUserByID(ctx, result.User.ID)
	require.NoError(t, err)
	require.True(t, u.EmailVerified)
	require.NotNil(t, u.EmailVerifiedAt)

	// Idempotent: re-verifying is a no-op success.
	require.NoError(t, auth.VerifyEmail(ctx, token))

	// And the user can now log in.
	_, err = auth.Login(ctx, "frank@example.com", "hunter2secret")
	require.NoError(t, err)
}

func TestVerifyEmail_BadTokens(t *testing.T) {
	auth, _, _, _, _ := newTestServices(t)
	ctx := context.Background()

	result, err := auth.Register(ctx, "Grace", "grace@example.com", "hunter2secret", "")
	require.NoError(t, err)

	t.Run("garbage token", func(t *testing.T) {
		err := auth.VerifyEmail(ctx, "not-a-jwt")
		require.ErrorIs(t, err, ErrInvalidVerificationToken)
	})

	t.Run("expired token", func(t *testing.T) {
		expiredCodec := newTestCodec()
		expiredCodec.VerificationTTL = -time.Minute
		token, err := expiredCodec.SignVerificationToken(result.User.ID)
		require.NoError(t, err)

		err = auth.VerifyEmail(ctx, token)
		require.ErrorIs(t, err, ErrVerificationTokenExpired)
	})

	t.Run("token for deleted user", func(t *testing.T) {
		token, err := auth.Codec.SignVerificationToken("01JGONEUSER00000000000000X")
		require.NoError(t, err)

		err = auth.VerifyEmail(ctx, token)
		require.ErrorIs(t, err, ErrInvalidVerificationToken)
	})
}

func TestChangePassword(t *testing.T) {
	auth, _, _, _, st := newTestServices(t)
	ctx := context.Background()

	u := createVerifiedUser(t, st, "heidi@example.com", "old-password")

	require.NoError(t, auth.ChangePassword(ctx, u.ID, "old-password", "new-password"))

	_, err := auth.Login(ctx, "heidi@example.com", "old-password")
	require.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = auth.Login(ctx, "heidi@example.com", "new-password")
	require.NoError(t, err)
}

func TestChangePassword_WrongCurrent(t *testing.T) {
	auth, _, _, _, st := newTestServices(t)
	ctx := context.Background()

	u := createVerifiedUser(t, st, "ivan@example.com", "old-password")

	err := auth.ChangePassword(ctx, u.ID, "not-the-password", "new-password")
	require.ErrorIs(t, err, ErrIncorrectCurrentPassword)

	_, err = auth.Login(ctx, "ivan@example.com", "old-password")
	require.NoError(t, err, "a rejected change must leave the password untouched")
}

func TestChangePassword_SessionsSurvive(t *testing.T) {
	// Pins current behaviour: a password change leaves issued refresh tokens
	// redeemable. See the note on AuthService.ChangePassword.
	auth, tokens, _, _, st := newTestServices(t)
	ctx := context.Background()

	u := createVerifiedUser(t, st, "judy@example.com", "old-password")

	pair, err := auth.Login(ctx, "judy@example.com", "old-password")
	require.NoError(t, err)

	require.NoError(t, auth.ChangePassword(ctx, u.ID, "old-password", "new-password"))

	_, err = tokens.Rotate(ctx, pair.RefreshToken)
	require.NoError(t, err, "refresh tokens issued before a password change still rotate")
}

func TestLogoutAll(t *testing.T) {
	auth, tokens, _, _, st := newTestServices(t)
	ctx := context.Background()

	u := createVerifiedUser(t, st, "kate@example.com", "correct-horse")

	pair1, err := auth.Login(ctx, "kate@example.com", "correct-horse")
	require.NoError(t, err)
	pair2, err := auth.Login(ctx, "kate@example.com", "correct-horse")
	require.NoError(t, err)

	require.NoError(t, auth.LogoutAll(ctx, u.ID))

	_, err = tokens.Rotate(ctx, pair1.RefreshToken)
	require.ErrorIs(t, err, ErrTokenNotFound)
	_, err = tokens.Rotate(ctx, pair2.RefreshToken)
	require.ErrorIs(t, err, ErrTokenNotFound)
}

func TestNormalizeEmail(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"User@Example.COM", "user@example.com"},
		{"  padded@example.com  ", "padded@example.com"},
		{"already@example.com", "already@example.com"},
		{"", ""},
	}
	for _, tt := range tests {
		require.Equal(t, tt.want, NormalizeEmail(tt.in))
	}
}
