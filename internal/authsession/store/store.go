package store

import (
	"context"
	"errors"
	"time"

	"github.com/aussiebroadwan/authsession/internal/authsession/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")

	// ErrUnavailable wraps every backend failure that is not a clean miss.
	// Callers must never treat it as ErrNotFound.
	ErrUnavailable = errors.New("store: unavailable")
)

// Store is the root data access interface. Concrete drivers (sqlite,
// postgres) implement this and expose sub-repositories per table.
type Store interface {
	Users() Users
	RefreshTokens() RefreshTokens

	ApplyMigrations() error

	// Close releases any underlying resources.
	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

type Users interface {
	// GetUserByID returns a user by id.
	GetUserByID(ctx context.Context, id string) (domain.User, error)

	// GetUserByEmail backs the password reset flow. email must already be
	// normalised.
	GetUserByEmail(ctx context.Context, email string) (domain.User, error)

	// CreateUser inserts a new user. Returns ErrAlreadyExists on a duplicate
	// id or email.
	CreateUser(ctx context.Context, u domain.User) error
}

type RefreshTokens interface {
	// PutRefreshToken upserts the single refresh token row for t.SubjectID.
	PutRefreshToken(ctx context.Context, t domain.RefreshToken) error

	// GetRefreshToken returns the subject's token or ErrNotFound.
	GetRefreshToken(ctx context.Context, subjectID string) (domain.RefreshToken, error)

	// DeleteRefreshToken removes the subject's token. Missing rows are not an error.
	DeleteRefreshToken(ctx context.Context, subjectID string) error

	// DeleteExpiredRefreshTokens is housekeeping; it returns the rows removed.
	DeleteExpiredRefreshTokens(ctx context.Context, now time.Time) (int64, error)
}
