package cryptox

import (
	"encoding/hex"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGenerateHexToken(t *testing.T) {
	token, err := GenerateHexToken(TokenSize320)
	require.NoError(t, err)

	// 40 random bytes hex-encode to 80 characters
	require.Len(t, token, 80)

	decoded, err := hex.DecodeString(token)
	require.NoError(t, err)
	require.Len(t, decoded, TokenSize320)
}

func TestGenerateHexToken_InvalidSize(t *testing.T) {
	for _, size := range []int{0, -1} {
		_, err := GenerateHexToken(size)
		require.Error(t, err)
	}
}

func TestGenerateHexToken_Uniqueness(t *testing.T) {
	const count = 100
	seen := make(map[string]bool, count)

	for range count {
		token, err := GenerateHexToken(TokenSize256)
		require.NoError(t, err)
		require.NotContains(t, seen, token, "duplicate token generated")
		seen[token] = true
	}
}

func TestFingerprintToken(t *testing.T) {
	token, err := GenerateHexToken(TokenSize256)
	require.NoError(t, err)

	fp1 := FingerprintToken(token)
	fp2 := FingerprintToken(token)
	require.Equal(t, fp1, fp2, "fingerprint must be deterministic")
	require.NotEqual(t, token, fp1)

	other, err := GenerateHexToken(TokenSize256)
	require.NoError(t, err)
	require.NotEqual(t, FingerprintToken(other), fp1)

	// SHA-256 digest base64url-encodes to 43 characters unpadded
	require.Len(t, fp1, 43)
}

func TestGenerateBackupCode(t *testing.T) {
	for range 20 {
		code, err := GenerateBackupCode(10)
		require.NoError(t, err)
		require.Len(t, code, 10)

		for _, char := range code {
			require.True(t, strings.ContainsRune(backupCodeCharset, char),
				"backup code should only contain charset characters, got %q", char)
		}
	}
}

func TestGenerateBackupCode_InvalidLength(t *testing.T) {
	_, err := GenerateBackupCode(0)
	require.Error(t, err)
}
