package domain

import "time"

// TokenTypeBearer is the token_type reported alongside access tokens.
const TokenTypeBearer = "bearer"

// Session is what Login hands back: a short-lived signed access token and
// the opaque refresh token that can mint new ones.
type Session struct {
	SubjectID    string
	AccessToken  string
	RefreshToken string
	TokenType    string
	ExpiresIn    time.Duration
}

// Rotation is the result of a refresh attempt. Rotated is false when the
// presented access token was still live and was handed back unchanged.
type Rotation struct {
	SubjectID   string
	AccessToken string
	TokenType   string
	Rotated     bool
}

// AccessClaims are the verified facts about an access token.
type AccessClaims struct {
	SubjectID string
	TokenID   string
	IssuedAt  time.Time
	ExpiresAt time.Time
}
