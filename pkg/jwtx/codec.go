// Package jwtx signs and verifies the stateless tokens this service issues:
// access tokens for protected requests and email-verification tokens. Both are
// HS256 JWTs signed with a single process-wide secret loaded at startup.
// Rotating that secret invalidates every outstanding token; that is an
// accepted operational consequence, not something handled in-process.
package jwtx

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Default token lifetimes. Overridable through Codec fields.
const (
	DefaultAccessTokenTTL       = 15 * time.Minute
	DefaultVerificationTokenTTL = 24 * time.Hour
)

var (
	// ErrTokenInvalid reports a token whose signature or structure failed
	// verification. Callers surface this distinctly from expiry so clients
	// know whether to re-request or to fix a malformed request.
	ErrTokenInvalid = errors.New("jwtx: invalid token")

	// ErrTokenExpired reports a structurally valid token past its expiry.
	ErrTokenExpired = errors.New("jwtx: token expired")
)

// Codec signs and verifies the service's stateless tokens.
type Codec struct {
	Secret          []byte
	Issuer          string
	AccessTTL       time.Duration
	VerificationTTL time.Duration
}

// NewCodec builds a Codec with default TTLs applied where zero.
func NewCodec(secret []byte, issuer string, accessTTL, verificationTTL time.Duration) *Codec {
	if accessTTL <= 0 {
		accessTTL = DefaultAccessTokenTTL
	}
	if verificationTTL <= 0 {
		verificationTTL = DefaultVerificationTokenTTL
	}
	return &Codec{
		Secret:          secret,
		Issuer:          issuer,
		AccessTTL:       accessTTL,
		VerificationTTL: verificationTTL,
	}
}

// SignAccessToken produces a signed access token carrying identity and role
// claims.
func (c *Codec) SignAccessToken(userID, email, role string) (string, error) {
	now := time.Now()
	claims := AccessClaims{
		UserID: userID,
		Email:  email,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			Issuer:    c.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.AccessTTL)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.Secret)
}

// SignVerificationToken produces a signed email-verification token with a
// single user-id claim.
func (c *Codec) SignVerificationToken(userID string) (string, error) {
	now := time.Now()
	claims := VerificationClaims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			Issuer:    c.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.VerificationTTL)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.Secret)
}

// VerifyAccessToken parses and verifies an access token. Expired tokens fail
// with ErrTokenExpired, everything else with ErrTokenInvalid.
func (c *Codec) VerifyAccessToken(tokenString string) (AccessClaims, error) {
	var claims AccessClaims
	if err := c.verify(tokenString, &claims); err != nil {
		return AccessClaims{}, err
	}
	return claims, nil
}

// VerifyVerificationToken parses and verifies an email-verification token.
func (c *Codec) VerifyVerificationToken(tokenString string) (VerificationClaims, error) {
	var claims VerificationClaims
	if err := c.verify(tokenString, &claims); err != nil {
		return VerificationClaims{}, err
	}
	return claims, nil
}

func (c *Codec) verify(tokenString string, claims jwt.Claims) error {
	token, err := jwt.ParseWithClaims(
		tokenString,
		claims,
		func(t *jwt.Token) (any, error) { return c.Secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return ErrTokenExpired
		}
		return ErrTokenInvalid
	}
	if !token.Valid {
		return ErrTokenInvalid
	}
	return nil
}
