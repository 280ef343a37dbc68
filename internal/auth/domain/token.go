package domain

import "time"

// TokenPair is what credential-issuing operations return: the short-lived
// access token (JWT) and the opaque refresh token.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type,omitempty"` // typically "Bearer"
	ExpiresIn    int64  `json:"expires_in"`           // access token lifetime in seconds
}

// RefreshToken models the stored refresh token record. The opaque token value
// is stored as issued and looked up by exact match.
type RefreshToken struct {
	ID        string
	UserID    string
	Token     string
	ExpiresAt time.Time
	Revoked   bool
	CreatedAt time.Time
	UpdatedAt time.Time
}
