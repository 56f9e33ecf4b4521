package httpx_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/aussiebroadwan/authsession/pkg/httpx"
	"github.com/stretchr/testify/require"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func hit(h http.Handler, target, remote string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, target, nil)
	req.RemoteAddr = remote
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestIPKeyExtractor(t *testing.T) {
	t.Run("extracts from RemoteAddr", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "192.168.1.1:12345"
		require.Equal(t, "192.168.1.1", httpx.IPKeyExtractor(req))
	})

	t.Run("ignores forwarding headers", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "192.168.1.1:12345"
		req.Header.Set("X-Forwarded-For", "203.0.113.1")
		req.Header.Set("X-Real-IP", "203.0.113.2")
		require.Equal(t, "192.168.1.1", httpx.IPKeyExtractor(req))
	})
}

func TestClientIPExtractor(t *testing.T) {
	trusted, err := httpx.ParseTrustedProxies("10.0.0.0/8, 192.168.1.1")
	require.NoError(t, err)
	extract := httpx.ClientIPExtractor(trusted)

	tests := []struct {
		name   string
		remote string
		xff    string
		xri    string
		want   string
	}{
		{"spoofed header from untrusted peer", "198.51.100.7:4000", "203.0.113.1", "", "198.51.100.7"},
		{"spoofed real ip from untrusted peer", "198.51.100.7:4000", "", "203.0.113.2", "198.51.100.7"},
		{"trusted proxy forwards client", "10.1.2.3:4000", "203.0.113.1", "", "203.0.113.1"},
		{"client prepends a fake hop", "10.1.2.3:4000", "1.2.3.4, 203.0.113.1", "", "203.0.113.1"},
		{"skips trusted hops", "192.168.1.1:4000", "203.0.113.1, 10.9.9.9", "", "203.0.113.1"},
		{"all hops trusted", "10.1.2.3:4000", "10.0.0.5", "", "10.1.2.3"},
		{"garbage hop", "10.1.2.3:4000", "203.0.113.1, nonsense", "", "10.1.2.3"},
		{"real ip from trusted proxy", "10.1.2.3:4000", "", "203.0.113.2", "203.0.113.2"},
		{"no headers", "10.1.2.3:4000", "", "", "10.1.2.3"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remote
			if tt.xff != "" {
				req.Header.Set("X-Forwarded-For", tt.xff)
			}
			if tt.xri != "" {
				req.Header.Set("X-Real-IP", tt.xri)
			}
			require.Equal(t, tt.want, extract(req))
		})
	}

	t.Run("no trusted proxies ignores headers", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "10.1.2.3:4000"
		req.Header.Set("X-Forwarded-For", "203.0.113.1")
		require.Equal(t, "10.1.2.3", httpx.ClientIPExtractor(nil)(req))
	})
}

func TestParseTrustedProxies(t *testing.T) {
	got, err := httpx.ParseTrustedProxies(" 10.0.0.0/8 ,,::1, 172.16.5.9/12")
	require.NoError(t, err)
	require.Equal(t, []string{"10.0.0.0/8", "::1/128", "172.16.0.0/12"}, func() []string {
		var out []string
		for _, p := range got {
			out = append(out, p.String())
		}
		return out
	}())

	empty, err := httpx.ParseTrustedProxies("")
	require.NoError(t, err)
	require.Empty(t, empty)

	_, err = httpx.ParseTrustedProxies("10.0.0.0/33")
	require.Error(t, err)
	_, err = httpx.ParseTrustedProxies("proxy.internal")
	require.Error(t, err)
}

func TestRateLimitByIP_SpoofedForwardedFor(t *testing.T) {
	cfg := httpx.RateLimitConfig{RequestsPerWindow: 1, Window: time.Minute, Burst: 1}
	h := httpx.RateLimitByIP(cfg, httpx.ClientIPExtractor(nil))(okHandler())

	for i, fake := range []string{"203.0.113.1", "203.0.113.2"} {
		req := httptest.NewRequest(http.MethodPost, "/", nil)
		req.RemoteAddr = "198.51.100.7:4000"
		req.Header.Set("X-Forwarded-For", fake)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if i == 0 {
			require.Equal(t, http.StatusOK, rec.Code)
		} else {
			require.Equal(t, http.StatusTooManyRequests, rec.Code)
		}
	}
}

func TestQueryKeyExtractor(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/?email=Alice@Example.com", nil)
	require.Equal(t, "alice@example.com", httpx.QueryKeyExtractor("email")(req))

	req = httptest.NewRequest(http.MethodPost, "/", nil)
	require.Empty(t, httpx.QueryKeyExtractor("email")(req))
}

func TestCompositeKeyExtractor(t *testing.T) {
	extractor := httpx.CompositeKeyExtractor(":", httpx.IPKeyExtractor, httpx.QueryKeyExtractor("email"))

	t.Run("combines extractors", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/?email=a@b.com", nil)
		req.RemoteAddr = "192.168.1.1:12345"
		require.Equal(t, "192.168.1.1:a@b.com", extractor(req))
	})

	t.Run("skips empty values", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", nil)
		req.RemoteAddr = "192.168.1.1:12345"
		require.Equal(t, "192.168.1.1", extractor(req))
	})
}

func TestRateLimitMiddleware(t *testing.T) {
	t.Run("blocks requests over limit", func(t *testing.T) {
		cfg := httpx.RateLimitConfig{RequestsPerWindow: 3, Window: time.Minute, Burst: 3}
		h := httpx.RateLimitMiddleware(cfg, httpx.IPKeyExtractor)(okHandler())

		for i := range 3 {
			rec := hit(h, "/", "192.168.1.1:12345")
			require.Equal(t, http.StatusOK, rec.Code, "request %d should succeed", i+1)
		}

		rec := hit(h, "/", "192.168.1.1:12345")
		require.Equal(t, http.StatusTooManyRequests, rec.Code)
		require.NotEmpty(t, rec.Header().Get("Retry-After"))
		require.Equal(t, "3", rec.Header().Get("X-RateLimit-Limit"))
		require.Equal(t, "1m0s", rec.Header().Get("X-RateLimit-Window"))
		require.Contains(t, rec.Body.String(), "rate_limit_exceeded")
		require.Contains(t, rec.Body.String(), "error_description")
	})

	t.Run("different keys are tracked separately", func(t *testing.T) {
		cfg := httpx.RateLimitConfig{RequestsPerWindow: 1, Window: time.Minute, Burst: 1}
		h := httpx.RateLimitByIP(cfg, httpx.IPKeyExtractor)(okHandler())

		require.Equal(t, http.StatusOK, hit(h, "/", "192.168.1.1:1").Code)
		require.Equal(t, http.StatusTooManyRequests, hit(h, "/", "192.168.1.1:1").Code)
		require.Equal(t, http.StatusOK, hit(h, "/", "192.168.1.2:1").Code)
	})

	t.Run("allows request when key extractor returns empty", func(t *testing.T) {
		cfg := httpx.RateLimitConfig{RequestsPerWindow: 1, Window: time.Minute, Burst: 1}
		h := httpx.RateLimitMiddleware(cfg, func(*http.Request) string { return "" })(okHandler())

		for range 3 {
			require.Equal(t, http.StatusOK, hit(h, "/", "").Code)
		}
	})
}

func TestRateLimitByIPAndQuery(t *testing.T) {
	cfg := httpx.RateLimitConfig{RequestsPerWindow: 2, Window: time.Minute, Burst: 2}
	h := httpx.RateLimitByIPAndQuery(cfg, httpx.IPKeyExtractor, "email")(okHandler())

	for range 2 {
		require.Equal(t, http.StatusOK, hit(h, "/?email=alice@example.com", "10.0.0.1:1").Code)
	}
	require.Equal(t, http.StatusTooManyRequests, hit(h, "/?email=ALICE@example.com", "10.0.0.1:1").Code)
	require.Equal(t, http.StatusOK, hit(h, "/?email=bob@example.com", "10.0.0.1:1").Code)
}

func TestRateLimitProfiles(t *testing.T) {
	for name, cfg := range map[string]httpx.RateLimitConfig{
		"strict":   httpx.StrictLimit,
		"moderate": httpx.ModerateLimit,
	} {
		t.Run(name, func(t *testing.T) {
			require.Positive(t, cfg.RequestsPerWindow)
			require.Positive(t, cfg.Window)
			require.Positive(t, cfg.Burst)
		})
	}
	require.Less(t, httpx.StrictLimit.RequestsPerWindow, httpx.ModerateLimit.RequestsPerWindow)
}

func TestParseRateLimitFromEnv(t *testing.T) {
	def := httpx.RateLimitConfig{RequestsPerWindow: 10, Window: time.Minute, Burst: 10}

	t.Run("no env uses defaults", func(t *testing.T) {
		require.Equal(t, def, httpx.ParseRateLimitFromEnv("TEST", def))
	})

	t.Run("overrides", func(t *testing.T) {
		t.Setenv("RATELIMIT_TEST_REQUESTS", "200")
		t.Setenv("RATELIMIT_TEST_WINDOW_SEC", "30")
		t.Setenv("RATELIMIT_TEST_BURST", "250")

		cfg := httpx.ParseRateLimitFromEnv("TEST", def)
		require.Equal(t, 200, cfg.RequestsPerWindow)
		require.Equal(t, 30*time.Second, cfg.Window)
		require.Equal(t, 250, cfg.Burst)
	})

	t.Run("invalid values use defaults", func(t *testing.T) {
		t.Setenv("RATELIMIT_TEST_REQUESTS", "invalid")
		t.Setenv("RATELIMIT_TEST_WINDOW_SEC", "-10")
		t.Setenv("RATELIMIT_TEST_BURST", "0")

		require.Equal(t, def, httpx.ParseRateLimitFromEnv("TEST", def))
	})
}
