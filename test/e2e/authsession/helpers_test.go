//go:build e2e

package authsession_test

import (
	"context"
	"errors"
	"fmt"
	"net/http/httptest"
	"net/url"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aussiebroadwan/authsession/internal/authsession/app"
	"github.com/aussiebroadwan/authsession/internal/authsession/mail"
	"github.com/aussiebroadwan/authsession/pkg/authsdk"
	"github.com/aussiebroadwan/authsession/pkg/slogx"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

/*
 * Shared setup for the session service end-to-end tests. Each test gets a
 * fresh application backed by a real Redis container and an in-memory
 * sqlite database, so rate limit budgets and stored state never leak
 * between tests.
 */

const (
	redisImage  = "redis:7-alpine"
	testSecret  = "e2e-secret-e2e-secret-e2e-secret"
	resetPage   = "https://app.example.com/reset-password"
	serviceName = "auth"
)

var codePattern = regexp.MustCompile(`\b\d{6}\b`)

// outbox records every message the application tries to send.
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

func (o *outbox) last(t *testing.T, to string) mail.Message {
	t.Helper()
	o.mu.Lock()
	defer o.mu.Unlock()
	for i := len(o.msgs) - 1; i >= 0; i-- {
		if o.msgs[i].To == to {
			return o.msgs[i]
		}
	}
	t.Fatalf("no message sent to %s", to)
	return mail.Message{}
}

type env struct {
	app    *app.Application
	client *authsdk.SDKClient
	mail   *outbox
	redis  *redis.Client
}

// startRedis runs a Redis container for the duration of the test.
func startRedis(t *testing.T) string {
	t.Helper()
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        redisImage,
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor: wait.ForLog("Ready to accept connections").
				WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "6379")
	require.NoError(t, err)

	return fmt.Sprintf("%s:%s", host, port.Port())
}

func testConfig(redisAddr string) app.Config {
	return app.Config{
		SecretKey:             testSecret,
		Issuer:                "authsession-e2e",
		ServiceName:           serviceName,
		AccessTokenTTL:        15 * time.Minute,
		RefreshTokenTTL:       7 * 24 * time.Hour,
		VerificationCodeTTL:   24 * time.Hour,
		PasswordResetStoreTTL: 15 * time.Minute,
		PasswordResetTokenTTL: time.Hour,
		ResetLinkBase:         resetPage,
		StoreTimeout:          3 * time.Second,
		DatabaseDriver:        "sqlite",
		DatabaseFile:          ":memory:",
		RedisAddr:             redisAddr,
		EmailTransport:        "log",
		Env:                   "test",
		LogLevel:              "info",
		LogFormat:             "json",
		ShutdownGracePeriod:   time.Second,
		HousekeepingInterval:  time.Hour,
	}
}

// setupService starts Redis and an application wired to it, served over a
// real HTTP listener.
func setupService(t *testing.T) *env {
	t.Helper()

	addr := startRedis(t)
	rc := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() { _ = rc.Close() })

	box := &outbox{}
	application, err := app.New(testConfig(addr),
		app.WithLogger(slogx.Discard()),
		app.WithRedis(rc),
		app.WithMailer(box),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = application.Close() })

	srv := httptest.NewServer(application.Handler())
	t.Cleanup(srv.Close)

	return &env{
		app:    application,
		client: authsdk.NewSDKClient(srv.URL, serviceName),
		mail:   box,
		redis:  rc,
	}
}

func codeFrom(t *testing.T, msg mail.Message) string {
	t.Helper()
	code := codePattern.FindString(msg.Text)
	require.NotEmpty(t, code, "no code in %q", msg.Text)
	return code
}

func resetTokenFrom(t *testing.T, msg mail.Message) string {
	t.Helper()
	i := strings.Index(msg.Text, resetPage)
	require.GreaterOrEqual(t, i, 0, "no reset link in %q", msg.Text)

	link, err := url.Parse(strings.Fields(msg.Text[i:])[0])
	require.NoError(t, err)
	token := link.Query().Get("token")
	require.NotEmpty(t, token)
	return token
}

func requireAPIError(t *testing.T, err error, status int) *authsdk.APIError {
	t.Helper()
	var apiErr *authsdk.APIError
	require.True(t, errors.As(err, &apiErr), "expected an API error, got %v", err)
	require.Equal(t, status, apiErr.StatusCode, "unexpected error %v", apiErr)
	return apiErr
}

func assertHealthy(t *testing.T, health *authsdk.HealthResponse, err error) {
	t.Helper()
	require.NoError(t, err)
	require.NotNil(t, health)
	require.Equal(t, "ok", health.Status)
}
