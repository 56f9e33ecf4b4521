package http_test

import (
	"context"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/aussiebroadwan/authsession/internal/authsession/codestore"
	authhttp "github.com/aussiebroadwan/authsession/internal/authsession/http"
	"github.com/aussiebroadwan/authsession/internal/authsession/mail"
	"github.com/aussiebroadwan/authsession/internal/authsession/service"
	"github.com/aussiebroadwan/authsession/internal/authsession/store/drivers/sqlite"
	"github.com/aussiebroadwan/authsession/pkg/authsdk"
	"github.com/aussiebroadwan/authsession/pkg/httpx"
	"github.com/aussiebroadwan/authsession/pkg/jwtx"
	"github.com/aussiebroadwan/authsession/pkg/slogx"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

const serviceName = "auth"

var relaxed = httpx.RateLimitConfig{RequestsPerWindow: 1000, Window: time.Minute, Burst: 1000}

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

type outbox struct {
	mu   sync.Mutex
	msgs []mail.Message
}

func (o *outbox) Send(_ context.Context, msg mail.Message) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.msgs = append(o.msgs, msg)
	return nil
}

func (o *outbox) Last(t *testing.T) mail.Message {
	t.Helper()
	o.mu.Lock()
	defer o.mu.Unlock()
	require.NotEmpty(t, o.msgs, "no mail sent")
	return o.msgs[len(o.msgs)-1]
}

type server struct {
	clock  *testClock
	db     *sqlite.Store
	redis  *miniredis.Miniredis
	outbox *outbox
	srv    *httptest.Server
	client *authsdk.SDKClient
}

type option func(*authhttp.Router)

func withLimits(strict, moderate httpx.RateLimitConfig) option {
	return func(r *authhttp.Router) {
		r.StrictLimit = strict
		r.ModerateLimit = moderate
	}
}

func withTrustedProxies(cidrs string) option {
	return func(r *authhttp.Router) {
		trusted, err := httpx.ParseTrustedProxies(cidrs)
		if err != nil {
			panic(err)
		}
		r.TrustedProxies = trusted
	}
}

func newServer(t *testing.T, opts ...option) *server {
	t.Helper()

	clock := &testClock{t: time.Date(2026, 6, 1, 9, 0, 0, 0, time.UTC)}
	codec, err := jwtx.NewHS256([]byte("http-test-secret-http-test-secret"), "authsession", jwtx.WithClock(clock.Now))
	require.NoError(t, err)

	db, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	require.NoError(t, db.ApplyMigrations())
	t.Cleanup(func() { _ = db.Close() })

	mr := miniredis.RunT(t)
	rc := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { _ = rc.Close() })
	codes := codestore.NewRedisStore(rc)

	box := &outbox{}

	router := authhttp.NewRouter(serviceName, "test", db, codes, slogx.Discard())
	router.StrictLimit = relaxed
	router.ModerateLimit = relaxed
	router.SessionService = &service.SessionService{
		Codec:      codec,
		Store:      db,
		AccessTTL:  jwtx.DefaultAccessTokenTTL,
		RefreshTTL: jwtx.DefaultRefreshTokenTTL,
		Now:        clock.Now,
	}
	router.CredentialService = &service.CredentialService{
		Codec:           codec,
		Codes:           codes,
		Store:           db,
		Mailer:          box,
		VerificationTTL: 24 * time.Hour,
		ResetStoreTTL:   15 * time.Minute,
		ResetTokenTTL:   jwtx.DefaultResetTokenTTL,
		ResetLinkBase:   "https://app.example.com/reset",
		CallTimeout:     time.Second,
	}
	for _, opt := range opts {
		opt(router)
	}
	router.ApplyRoutes()

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	return &server{
		clock:  clock,
		db:     db,
		redis:  mr,
		outbox: box,
		srv:    srv,
		client: authsdk.NewSDKClient(srv.URL, serviceName),
	}
}

func (s *server) advance(d time.Duration) {
	s.clock.Advance(d)
	s.redis.FastForward(d)
}

func (s *server) url(route string) string {
	return s.srv.URL + "/api/v1/" + serviceName + route
}
