package httpx

import (
	"fmt"
	"net"
	"net/http"
	"net/netip"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/aussiebroadwan/authsession/pkg/slogx"
	"golang.org/x/time/rate"
)

// RateLimitConfig defines the rate limiting parameters.
type RateLimitConfig struct {
	// RequestsPerWindow is the number of requests allowed in the time window
	RequestsPerWindow int
	// Window is the time window for rate limiting
	Window time.Duration
	// Burst allows for temporary bursts above the rate limit
	Burst int
}

// Rate limit profiles. Override with RATELIMIT_{STRICT,MODERATE}_{REQUESTS,WINDOW_SEC,BURST}.
var (
	// StrictLimit guards credential minting and code checks (login, send_*, verify_*).
	StrictLimit = RateLimitConfig{RequestsPerWindow: 5, Window: time.Minute, Burst: 5}

	// ModerateLimit guards refresh and logout, which clients call routinely.
	ModerateLimit = RateLimitConfig{RequestsPerWindow: 30, Window: time.Minute, Burst: 30}
)

func init() {
	StrictLimit = ParseRateLimitFromEnv("STRICT", StrictLimit)
	ModerateLimit = ParseRateLimitFromEnv("MODERATE", ModerateLimit)
}

// ParseRateLimitFromEnv reads RATELIMIT_{prefix}_REQUESTS, _WINDOW_SEC and
// _BURST, keeping the default for anything unset or non-positive.
func ParseRateLimitFromEnv(prefix string, def RateLimitConfig) RateLimitConfig {
	cfg := def
	if n, ok := positiveEnvInt("RATELIMIT_" + prefix + "_REQUESTS"); ok {
		cfg.RequestsPerWindow = n
	}
	if n, ok := positiveEnvInt("RATELIMIT_" + prefix + "_WINDOW_SEC"); ok {
		cfg.Window = time.Duration(n) * time.Second
	}
	if n, ok := positiveEnvInt("RATELIMIT_" + prefix + "_BURST"); ok {
		cfg.Burst = n
	}
	return cfg
}

func positiveEnvInt(key string) (int, bool) {
	v := os.Getenv(key)
	if v == "" {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}

// KeyExtractor is a function that extracts a unique key from the request
// for rate limiting purposes.
type KeyExtractor func(*http.Request) string

// IPKeyExtractor keys on the peer address. Forwarding headers are ignored.
func IPKeyExtractor(r *http.Request) string {
	if peer, ok := peerAddr(r); ok {
		return peer.String()
	}
	return r.RemoteAddr
}

// ClientIPExtractor keys on the client address as seen through the trusted
// proxies. X-Forwarded-For and X-Real-IP are read only when the peer falls
// inside one of the trusted prefixes. The client is the right-most
// X-Forwarded-For hop that is not itself trusted. With no trusted prefixes
// it behaves like IPKeyExtractor.
func ClientIPExtractor(trusted []netip.Prefix) KeyExtractor {
	if len(trusted) == 0 {
		return IPKeyExtractor
	}
	isTrusted := func(ip netip.Addr) bool {
		for _, p := range trusted {
			if p.Contains(ip) {
				return true
			}
		}
		return false
	}

	return func(r *http.Request) string {
		peer, ok := peerAddr(r)
		if !ok {
			return r.RemoteAddr
		}
		if !isTrusted(peer) {
			return peer.String()
		}

		if values := r.Header.Values("X-Forwarded-For"); len(values) > 0 {
			hops := strings.Split(strings.Join(values, ","), ",")
			for i := len(hops) - 1; i >= 0; i-- {
				ip, err := netip.ParseAddr(strings.TrimSpace(hops[i]))
				if err != nil {
					return peer.String()
				}
				if ip = ip.Unmap(); !isTrusted(ip) {
					return ip.String()
				}
			}
			return peer.String()
		}

		if ip, err := netip.ParseAddr(strings.TrimSpace(r.Header.Get("X-Real-IP"))); err == nil {
			return ip.Unmap().String()
		}
		return peer.String()
	}
}

// ParseTrustedProxies reads a comma separated list of CIDR prefixes or bare
// addresses.
func ParseTrustedProxies(s string) ([]netip.Prefix, error) {
	var out []netip.Prefix
	for _, field := range strings.Split(s, ",") {
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}
		if strings.Contains(field, "/") {
			p, err := netip.ParsePrefix(field)
			if err != nil {
				return nil, fmt.Errorf("trusted proxy %q: %w", field, err)
			}
			out = append(out, p.Masked())
			continue
		}
		ip, err := netip.ParseAddr(field)
		if err != nil {
			return nil, fmt.Errorf("trusted proxy %q: %w", field, err)
		}
		ip = ip.Unmap()
		out = append(out, netip.PrefixFrom(ip, ip.BitLen()))
	}
	return out, nil
}

func peerAddr(r *http.Request) (netip.Addr, bool) {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	ip, err := netip.ParseAddr(host)
	if err != nil {
		return netip.Addr{}, false
	}
	return ip.Unmap(), true
}

// QueryKeyExtractor keys on a query parameter such as ?email=.
// Values are lowercased so case variants share a bucket.
func QueryKeyExtractor(name string) KeyExtractor {
	return func(r *http.Request) string {
		return strings.ToLower(strings.TrimSpace(r.URL.Query().Get(name)))
	}
}

// CompositeKeyExtractor joins the non-empty keys of several extractors.
func CompositeKeyExtractor(sep string, extractors ...KeyExtractor) KeyExtractor {
	return func(r *http.Request) string {
		var parts []string
		for _, extractor := range extractors {
			if key := extractor(r); key != "" {
				parts = append(parts, key)
			}
		}
		return strings.Join(parts, sep)
	}
}

// KeyedLimiter hands out one token bucket per key and forgets buckets that
// have been idle for longer than idleTTL.
type KeyedLimiter struct {
	cfg     RateLimitConfig
	limit   rate.Limit
	idleTTL time.Duration
	now     func() time.Time

	mu        sync.Mutex
	buckets   map[string]*bucket
	lastSweep time.Time
}

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewKeyedLimiter builds a limiter for cfg.
func NewKeyedLimiter(cfg RateLimitConfig) *KeyedLimiter {
	return &KeyedLimiter{
		cfg:       cfg,
		limit:     rate.Limit(float64(cfg.RequestsPerWindow) / cfg.Window.Seconds()),
		idleTTL:   max(cfg.Window*2, 5*time.Minute),
		now:       time.Now,
		buckets:   make(map[string]*bucket),
		lastSweep: time.Now(),
	}
}

// Allow consumes a token for key. When the bucket is empty it reports how
// long until the next token.
func (l *KeyedLimiter) Allow(key string) (bool, time.Duration) {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	l.sweepLocked(now)

	b, ok := l.buckets[key]
	if !ok {
		b = &bucket{limiter: rate.NewLimiter(l.limit, l.cfg.Burst)}
		l.buckets[key] = b
	}
	b.lastSeen = now

	if b.limiter.AllowN(now, 1) {
		return true, 0
	}

	r := b.limiter.ReserveN(now, 1)
	delay := r.DelayFrom(now)
	r.CancelAt(now)
	return false, delay
}

// Len reports the number of tracked keys.
func (l *KeyedLimiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.buckets)
}

func (l *KeyedLimiter) sweepLocked(now time.Time) {
	if now.Sub(l.lastSweep) < l.idleTTL {
		return
	}
	l.lastSweep = now
	for k, b := range l.buckets {
		if now.Sub(b.lastSeen) >= l.idleTTL {
			delete(l.buckets, k)
		}
	}
}

// RateLimitMiddleware rejects requests over the per-key budget with 429.
// Requests without a key pass through.
func RateLimitMiddleware(cfg RateLimitConfig, keyExtractor KeyExtractor) Middleware {
	return NewKeyedLimiter(cfg).Middleware(keyExtractor)
}

// Middleware exposes the limiter as HTTP middleware.
func (l *KeyedLimiter) Middleware(keyExtractor KeyExtractor) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			log := slogx.FromContext(r.Context())

			key := keyExtractor(r)
			if key == "" {
				log.Warn("rate limit: unable to extract key, allowing request")
				next.ServeHTTP(w, r)
				return
			}

			ok, delay := l.Allow(key)
			if ok {
				next.ServeHTTP(w, r)
				return
			}

			retryAfter := max(int(delay.Round(time.Second).Seconds()), 1)
			w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(l.cfg.RequestsPerWindow))
			w.Header().Set("X-RateLimit-Window", l.cfg.Window.String())

			log.Warn("rate limit exceeded",
				"key", key,
				"endpoint", r.URL.Path,
				"retry_after", retryAfter,
			)

			Error{
				Code:        "rate_limit_exceeded",
				Description: "Too many requests. Please try again later.",
			}.Write(w, http.StatusTooManyRequests)
		})
	}
}

// RateLimitByIP limits by client IP only.
func RateLimitByIP(cfg RateLimitConfig, clientIP KeyExtractor) Middleware {
	return RateLimitMiddleware(cfg, clientIP)
}

// RateLimitByIPAndQuery limits by client IP plus a query parameter such as
// the target email.
func RateLimitByIPAndQuery(cfg RateLimitConfig, clientIP KeyExtractor, name string) Middleware {
	return RateLimitMiddleware(cfg, CompositeKeyExtractor(":", clientIP, QueryKeyExtractor(name)))
}
