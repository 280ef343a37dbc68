package jwtx

import "github.com/golang-jwt/jwt/v5"

// AccessClaims are the claims embedded in short-lived access tokens. They
// carry just enough identity for protected-route authorisation decisions.
type AccessClaims struct {
	UserID string `json:"id"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// VerificationClaims are the claims embedded in email-verification tokens.
// A single user reference is all the verification flow needs.
type VerificationClaims struct {
	UserID string `json:"id"`
	jwt.RegisteredClaims
}
