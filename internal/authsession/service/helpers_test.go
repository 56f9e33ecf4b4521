package service_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/aussiebroadwan/authsession/internal/authsession/codestore"
	"github.com/aussiebroadwan/authsession/internal/authsession/domain"
	"github.com/aussiebroadwan/authsession/internal/authsession/mail"
	"github.com/aussiebroadwan/authsession/internal/authsession/service"
	"github.com/aussiebroadwan/authsession/internal/authsession/store"
	"github.com/aussiebroadwan/authsession/internal/authsession/store/drivers/sqlite"
	"github.com/aussiebroadwan/authsession/pkg/jwtx"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

const (
	accessTTL  = 15 * time.Minute
	refreshTTL = 7 * 24 * time.Hour
)

type testClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

type recordingMailer struct {
	mu   sync.Mutex
	msgs []mail.Message
	err  error
}

func (m *recordingMailer) Send(_ context.Context, msg mail.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.msgs = append(m.msgs, msg)
	return nil
}

func (m *recordingMailer) Sent() []mail.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]mail.Message(nil), m.msgs...)
}

// spyStore counts refresh token calls and can inject a backend failure.
type spyStore struct {
	store.Store

	mu    sync.Mutex
	calls int
	err   error
}

func (s *spyStore) RefreshTokens() store.RefreshTokens {
	return &spyRefreshTokens{inner: s.Store.RefreshTokens(), spy: s}
}

func (s *spyStore) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func (s *spyStore) FailWith(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}

func (s *spyStore) record() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	return s.err
}

type spyRefreshTokens struct {
	inner store.RefreshTokens
	spy   *spyStore
}

func (r *spyRefreshTokens) PutRefreshToken(ctx context.Context, t domain.RefreshToken) error {
	if err := r.spy.record(); err != nil {
		return err
	}
	return r.inner.PutRefreshToken(ctx, t)
}

func (r *spyRefreshTokens) GetRefreshToken(ctx context.Context, subjectID string) (domain.RefreshToken, error) {
	if err := r.spy.record(); err != nil {
		return domain.RefreshToken{}, err
	}
	return r.inner.GetRefreshToken(ctx, subjectID)
}

func (r *spyRefreshTokens) DeleteRefreshToken(ctx context.Context, subjectID string) error {
	if err := r.spy.record(); err != nil {
		return err
	}
	return r.inner.DeleteRefreshToken(ctx, subjectID)
}

func (r *spyRefreshTokens) DeleteExpiredRefreshTokens(ctx context.Context, now time.Time) (int64, error) {
	if err := r.spy.record(); err != nil {
		return 0, err
	}
	return r.inner.DeleteExpiredRefreshTokens(ctx, now)
}

type fixture struct {
	clock    *testClock
	codec    *jwtx.Codec
	store    *spyStore
	redis    *miniredis.Miniredis
	codes    *codestore.RedisStore
	mailer   *recordingMailer
	sessions *service.SessionService
	creds    *service.CredentialService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	clock := &testClock{t: time.Date(2026, 6, 1, 9, 0, 0, 0, time.UTC)}
	codec, err := jwtx.NewHS256([]byte("test-secret-test-secret-test-secret!"), "authsession", jwtx.WithClock(clock.Now))
	require.NoError(t, err)

	db, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	require.NoError(t, db.ApplyMigrations())
	t.Cleanup(func() { _ = db.Close() })

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { _ = client.Close() })

	spy := &spyStore{Store: db}
	codes := codestore.NewRedisStore(client)
	mailer := &recordingMailer{}

	return &fixture{
		clock:  clock,
		codec:  codec,
		store:  spy,
		redis:  mr,
		codes:  codes,
		mailer: mailer,
		sessions: &service.SessionService{
			Codec:      codec,
			Store:      spy,
			AccessTTL:  accessTTL,
			RefreshTTL: refreshTTL,
			Now:        clock.Now,
		},
		creds: &service.CredentialService{
			Codec:           codec,
			Codes:           codes,
			Store:           spy,
			Mailer:          mailer,
			VerificationTTL: 24 * time.Hour,
			ResetStoreTTL:   15 * time.Minute,
			ResetTokenTTL:   time.Hour,
			ResetLinkBase:   "https://app.example.com/reset",
			CallTimeout:     time.Second,
		},
	}
}

// advance moves both the token clock and redis time.
func (f *fixture) advance(d time.Duration) {
	f.clock.Advance(d)
	f.redis.FastForward(d)
}
