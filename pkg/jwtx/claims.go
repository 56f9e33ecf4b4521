package jwtx

import (
	"time"

	"github.com/aussiebroadwan/authsession/pkg/idx"
	"github.com/golang-jwt/jwt/v5"
)

// Default token TTL constants. Services override these through config.
const (
	// DefaultAccessTokenTTL is the default lifetime for access tokens.
	DefaultAccessTokenTTL = 15 * time.Minute

	// DefaultRefreshTokenTTL is the default lifetime for refresh tokens.
	DefaultRefreshTokenTTL = 7 * 24 * time.Hour

	// DefaultResetTokenTTL is the lifetime embedded in password reset tokens.
	DefaultResetTokenTTL = time.Hour
)

// Purpose tags stop a token minted for one flow from being replayed in another.
const (
	PurposeAccess        = "access"
	PurposePasswordReset = "password_reset"
)

// Claims carried by every token this service signs.
type Claims struct {
	jwt.RegisteredClaims

	// Purpose is the flow the token was minted for, see the Purpose* constants.
	Purpose string `json:"purpose,omitempty"`
}

// NewClaims builds minimally-correct claims for subject.
func NewClaims(subject, purpose, issuer string, ttl time.Duration, now time.Time) Claims {
	return Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        idx.NewAt(now).String(),
		},
		Purpose: purpose,
	}
}

// ValidatePurpose checks the purpose tag matches. An empty expectation
// enforces nothing.
func (c *Claims) ValidatePurpose(expected string) error {
	if expected == "" {
		return nil
	}
	if c.Purpose != expected {
		return ErrPurposeMismatch
	}
	return nil
}

// ExpiresAtTime returns exp in UTC, zero if absent.
func (c *Claims) ExpiresAtTime() time.Time {
	if c.ExpiresAt == nil {
		return time.Time{}
	}
	return c.ExpiresAt.UTC()
}

// IssuedAtTime returns iat in UTC, zero if absent.
func (c *Claims) IssuedAtTime() time.Time {
	if c.IssuedAt == nil {
		return time.Time{}
	}
	return c.IssuedAt.UTC()
}
