// Package codestore keeps short-lived one-time values (email verification
// codes, password reset tokens) in Redis and lets Redis expire them.
package codestore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	ErrNotFound    = errors.New("codestore: not found")
	ErrUnavailable = errors.New("codestore: redis unavailable")
)

// Key namespaces. A user's verification code and reset token never collide.
const (
	PurposeVerification  = "verification"
	PurposePasswordReset = "password_reset"
)

// Key builds the "{purpose}:{recipient}" key.
func Key(purpose, recipient string) string {
	return purpose + ":" + recipient
}

func VerificationKey(email string) string  { return Key(PurposeVerification, email) }
func PasswordResetKey(email string) string { return Key(PurposePasswordReset, email) }

// Store is the contract the credential service needs.
type Store interface {
	SetWithTTL(ctx context.Context, key, value string, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	Ping(ctx context.Context) error
}

// RedisStore implements Store. It is safe for concurrent use because the
// underlying client is.
type RedisStore struct {
	redis redis.UniversalClient
}

var _ Store = (*RedisStore)(nil)

func NewRedisStore(client redis.UniversalClient) *RedisStore {
	return &RedisStore{redis: client}
}

// SetWithTTL overwrites any existing value and resets its TTL.
func (s *RedisStore) SetWithTTL(ctx context.Context, key, value string, ttl time.Duration) error {
	if ttl <= 0 {
		return fmt.Errorf("codestore: ttl must be positive, got %s", ttl)
	}
	if err := s.redis.Set(ctx, key, value, ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// Get returns ErrNotFound once the TTL has elapsed.
func (s *RedisStore) Get(ctx context.Context, key string) (string, error) {
	v, err := s.redis.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return v, nil
}

func (s *RedisStore) Ping(ctx context.Context) error {
	if err := s.redis.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}
