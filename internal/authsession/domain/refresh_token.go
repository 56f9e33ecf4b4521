package domain

import "time"

// RefreshToken models the stored refresh token record. There is at most one
// row per subject; a new login overwrites it.
type RefreshToken struct {
	ID        string
	SubjectID string
	TokenHash string // deterministic fingerprint (base64url SHA-256)
	ExpiresAt time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Expired reports whether the token is no longer usable at now.
func (t RefreshToken) Expired(now time.Time) bool {
	return !now.Before(t.ExpiresAt)
}
