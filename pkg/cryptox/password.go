package cryptox

import "golang.org/x/crypto/bcrypt"

const (
	// DefaultHashCost matches the cost factor used when the user table was
	// first populated. Lowering it would not break verification (the cost is
	// embedded in each hash) but new hashes must stay at or above MinHashCost.
	DefaultHashCost = 12

	// MinHashCost is the floor for adaptive hashing of credentials.
	MinHashCost = 10
)

// HashPassword hashes a plaintext password with bcrypt. The returned string is
// self-describing: it embeds the algorithm version, cost and salt, so the cost
// can be tuned over time without invalidating existing hashes.
func HashPassword(password string, cost int) (string, error) {
	if cost < MinHashCost {
		cost = DefaultHashCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// VerifyPassword reports whether password matches the stored bcrypt hash.
// Malformed hashes never panic or error out; they simply fail verification.
func VerifyPassword(password, encodedHash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(encodedHash), []byte(password)) == nil
}
