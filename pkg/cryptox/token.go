package cryptox

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"math/big"
)

// Token size constants (in bytes before encoding).
const (
	// TokenSize256 provides 256 bits of entropy (password reset secrets).
	TokenSize256 = 32
	// TokenSize320 provides 320 bits of entropy (opaque refresh tokens).
	TokenSize320 = 40
)

// GenerateHexToken creates a cryptographically random token of the given byte
// length, hex encoded. Refresh and reset tokens use this form so they survive
// copy-paste and URL embedding untouched.
func GenerateHexToken(size int) (string, error) {
	if size <= 0 {
		return "", fmt.Errorf("token size must be positive, got %d", size)
	}
	buf := make([]byte, size)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate random token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// FingerprintToken returns a deterministic SHA-256 fingerprint of a token,
// base64url encoded. Single-use secrets (password reset tokens) are stored as
// fingerprints only; the plaintext is handed to the user and never persisted.
func FingerprintToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}

// backupCodeCharset restricts backup codes to unambiguous uppercase
// alphanumerics so users can read them back over the phone.
const backupCodeCharset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// GenerateBackupCode creates a single random backup code of the given length.
func GenerateBackupCode(length int) (string, error) {
	if length <= 0 {
		return "", fmt.Errorf("backup code length must be positive, got %d", length)
	}
	code := make([]byte, length)
	for i := range code {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(backupCodeCharset))))
		if err != nil {
			return "", fmt.Errorf("failed to generate backup code: %w", err)
		}
		code[i] = backupCodeCharset[n.Int64()]
	}
	return string(code), nil
}
