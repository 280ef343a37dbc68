package cryptox

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestHashPassword(t *testing.T) {
	tests := []struct {
		name     string
		password string
	}{
		{"simple password", "password123"},
		{"complex password", "P@ssw0rd!#$%^&*()"},
		{"empty password", ""},
		{"unicode password", "пароль密码"},
		{"whitespace password", "   spaces   "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hash, err := HashPassword(tt.password, DefaultHashCost)
			require.NoError(t, err)
			require.NotEmpty(t, hash)

			// bcrypt's modular crypt format embeds version and cost
			require.True(t, strings.HasPrefix(hash, "$2a$"),
				"hash should be in bcrypt modular format")

			cost, err := bcrypt.Cost([]byte(hash))
			require.NoError(t, err)
			require.Equal(t, DefaultHashCost, cost)
		})
	}
}

func TestHashPassword_CostFloor(t *testing.T) {
	// Costs below the floor are bumped to the default, never used as-is.
	for _, tooLow := range []int{0, -1, MinHashCost - 1} {
		hash, err := HashPassword("password", tooLow)
		require.NoError(t, err)

		cost, err := bcrypt.Cost([]byte(hash))
		require.NoError(t, err)
		require.Equal(t, DefaultHashCost, cost)
	}

	// A valid cost above the floor is honoured.
	hash, err := HashPassword("password", MinHashCost)
	require.NoError(t, err)
	cost, err := bcrypt.Cost([]byte(hash))
	require.NoError(t, err)
	require.Equal(t, MinHashCost, cost)
}

func TestHashPassword_UniqueSalts(t *testing.T) {
	password := "samepassword"

	hash1, err := HashPassword(password, MinHashCost)
	require.NoError(t, err)
	hash2, err := HashPassword(password, MinHashCost)
	require.NoError(t, err)

	require.NotEqual(t, hash1, hash2, "hashes should differ due to unique salts")

	require.True(t, VerifyPassword(password, hash1))
	require.True(t, VerifyPassword(password, hash2))
}

func TestVerifyPassword_WrongPassword(t *testing.T) {
	hash, err := HashPassword("correct-password", MinHashCost)
	require.NoError(t, err)

	tests := []struct {
		name          string
		wrongPassword string
	}{
		{"completely wrong", "wrong-password"},
		{"case difference", "Correct-Password"},
		{"extra space", "correct-password "},
		{"empty password", ""},
		{"truncated", "correct-passwor"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.False(t, VerifyPassword(tt.wrongPassword, hash))
		})
	}
}

func TestVerifyPassword_MalformedHash(t *testing.T) {
	tests := []struct {
		name        string
		invalidHash string
	}{
		{"empty hash", ""},
		{"not a hash", "plaintext"},
		{"wrong algorithm", "$argon2id$v=19$m=19456,t=2,p=1$c2FsdA$aGFzaA"},
		{"truncated bcrypt", "$2a$12$tooshort"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Malformed hashes fail closed, no panic, no error surface.
			require.False(t, VerifyPassword("any-password", tt.invalidHash))
		})
	}
}
