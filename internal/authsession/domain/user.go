package domain

import (
	"strings"
	"time"
)

// User is the slice of the account record this service needs: who the
// subject is and where to send their mail.
type User struct {
	ID        string
	Email     string
	Name      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NormalizeEmail lowercases and trims an address so lookups and code store
// keys agree regardless of how the client typed it.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
