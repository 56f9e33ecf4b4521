package http_test

import (
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/aussiebroadwan/authsession/pkg/authsdk"
	"github.com/aussiebroadwan/authsession/pkg/httpx"
	"github.com/aussiebroadwan/authsession/pkg/slogx"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestHealth(t *testing.T) {
	s := newServer(t)

	live, err := s.client.GetLiveness(t.Context())
	require.NoError(t, err)
	require.Equal(t, "ok", live.Status)
	require.Equal(t, "test", live.Version)

	ready, err := s.client.GetReadiness(t.Context())
	require.NoError(t, err)
	require.Equal(t, "ok", ready.Status)
	require.Equal(t, &authsdk.HealthChecks{Database: "ok", CodeStore: "ok"}, ready.Checks)

	t.Run("code store down", func(t *testing.T) {
		s.redis.Close()

		ready, err := s.client.GetReadiness(t.Context())
		require.ErrorIs(t, err, authsdk.ErrNotReady)
		require.Equal(t, "degraded", ready.Status)
		require.Equal(t, "ok", ready.Checks.Database)
		require.Contains(t, ready.Checks.CodeStore, "error")

		live, err := s.client.GetLiveness(t.Context())
		require.NoError(t, err)
		require.Equal(t, "ok", live.Status)
	})
}

func TestRequestID(t *testing.T) {
	s := newServer(t)

	req, err := http.NewRequestWithContext(t.Context(), http.MethodGet, s.srv.URL+"/livez", nil)
	require.NoError(t, err)
	req.Header.Set(slogx.RequestIDHeader, "req-123")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, "req-123", resp.Header.Get(slogx.RequestIDHeader))

	resp, err = http.Get(s.srv.URL + "/livez")
	require.NoError(t, err)
	resp.Body.Close()
	require.Len(t, resp.Header.Get(slogx.RequestIDHeader), 26)
}

func TestRateLimit(t *testing.T) {
	one := httpx.RateLimitConfig{RequestsPerWindow: 1, Window: time.Minute, Burst: 1}
	s := newServer(t, withLimits(one, one))
	ctx := t.Context()

	_, err := s.client.Login(ctx, uuid.NewString())
	require.NoError(t, err)

	resp, err := http.Post(s.url("/login"), "application/json", nil)
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()

	require.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	require.NotEmpty(t, resp.Header.Get("Retry-After"))
	require.Contains(t, string(body), authsdk.ErrorCodeRateLimitExceeded)

	t.Run("routes have separate budgets", func(t *testing.T) {
		_, err := s.client.VerifyToken(ctx, "a.b.c")
		require.ErrorIs(t, err, authsdk.ErrInvalidToken)
	})

	t.Run("send endpoints are keyed by recipient", func(t *testing.T) {
		require.NoError(t, s.client.SendVerificationCode(ctx, "a@example.com"))
		require.NoError(t, s.client.SendVerificationCode(ctx, "b@example.com"))

		err := s.client.SendVerificationCode(ctx, "A@example.com")
		var apiErr *authsdk.APIError
		require.ErrorAs(t, err, &apiErr)
		require.Equal(t, http.StatusTooManyRequests, apiErr.StatusCode)
	})
}

func TestRateLimit_ForwardedFor(t *testing.T) {
	one := httpx.RateLimitConfig{RequestsPerWindow: 1, Window: time.Minute, Burst: 1}

	loginAs := func(t *testing.T, s *server, forwardedFor string) int {
		t.Helper()
		req, err := http.NewRequest(http.MethodPost, s.url("/login"), nil)
		require.NoError(t, err)
		req.Header.Set("X-Forwarded-For", forwardedFor)
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		resp.Body.Close()
		return resp.StatusCode
	}

	t.Run("ignored from untrusted peers", func(t *testing.T) {
		s := newServer(t, withLimits(one, one))

		require.NotEqual(t, http.StatusTooManyRequests, loginAs(t, s, "203.0.113.1"))
		require.Equal(t, http.StatusTooManyRequests, loginAs(t, s, "203.0.113.2"))
	})

	t.Run("honored from a trusted proxy", func(t *testing.T) {
		s := newServer(t, withLimits(one, one), withTrustedProxies("127.0.0.1, ::1"))

		require.NotEqual(t, http.StatusTooManyRequests, loginAs(t, s, "203.0.113.1"))
		require.NotEqual(t, http.StatusTooManyRequests, loginAs(t, s, "203.0.113.2"))
		require.Equal(t, http.StatusTooManyRequests, loginAs(t, s, "203.0.113.1"))
	})
}

func TestSwagger(t *testing.T) {
	s := newServer(t)

	resp, err := http.Get(s.srv.URL + "/swagger/doc.json")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Contains(t, string(body), "/api/v1/{service}/refresh_token")
}
