package http

import (
	"log/slog"
	"net/http"
	"net/netip"
	"time"

	"github.com/aussiebroadwan/authsession/internal/authsession/codestore"
	"github.com/aussiebroadwan/authsession/internal/authsession/service"
	"github.com/aussiebroadwan/authsession/internal/authsession/store"
	"github.com/aussiebroadwan/authsession/pkg/httpx"
	"github.com/aussiebroadwan/authsession/pkg/slogx"

	_ "github.com/aussiebroadwan/authsession/api/authsession" // Swagger docs
	httpSwagger "github.com/swaggo/http-swagger"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware
	handler     http.Handler
	clientIP    httpx.KeyExtractor

	prefix       string
	buildVersion string
	startTime    time.Time
	logger       *slog.Logger

	store store.Store
	codes codestore.Store

	SessionService    *service.SessionService
	CredentialService *service.CredentialService

	// Limits applied to credential endpoints (strict) and to routine session
	// calls (moderate).
	StrictLimit   httpx.RateLimitConfig
	ModerateLimit httpx.RateLimitConfig

	// SecureCookie marks the access_token cookie Secure.
	SecureCookie bool

	// TrustedProxies are the peers whose X-Forwarded-For and X-Real-IP
	// headers name the client for rate limiting. Empty means none.
	TrustedProxies []netip.Prefix
}

// NewRouter creates a router mounting the API under /api/v1/{serviceName}.
func NewRouter(
	serviceName, buildVersion string,
	st store.Store,
	codes codestore.Store,
	logger *slog.Logger,
) *Router {
	r := &Router{
		Mux:           http.NewServeMux(),
		prefix:        "/api/v1/" + serviceName,
		buildVersion:  buildVersion,
		startTime:     time.Now(),
		logger:        logger,
		store:         st,
		codes:         codes,
		StrictLimit:   httpx.StrictLimit,
		ModerateLimit: httpx.ModerateLimit,
	}

	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
	}

	return r
}

// ApplyRoutes registers every handler and builds the middleware chain.
// Call it once, after the services are set.
func (r *Router) ApplyRoutes() {
	r.clientIP = httpx.ClientIPExtractor(r.TrustedProxies)

	r.registerSession()
	r.registerCredentials()
	r.registerSystem()

	r.Mux.Handle("/swagger/", httpSwagger.Handler())

	r.handler = httpx.Chain(r.Mux, r.middlewares...)
}

// ServeHTTP implements http.Handler for Router and applies the global middleware chain.
//
//	@title			Auth Session Service API
//	@version		0.1.0
//	@description	Issues short-lived HS256 access tokens and opaque refresh tokens, rotates expired
//	@description	access tokens while a stored refresh token is valid, and emails verification codes
//	@description	and password reset links.
//
//	@contact.name				AussieBroadWAN Team
//	@contact.url				https://github.com/aussiebroadwan/authsession
//
//	@license.name				MIT
//	@license.url				https://opensource.org/licenses/MIT
//
//	@host						localhost:8080
//	@BasePath					/
//
//	@schemes					http https
//
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				JWT access token. Format: "Bearer {token}".
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	if r.handler == nil {
		http.Error(w, "routes not applied", http.StatusServiceUnavailable)
		return
	}
	r.handler.ServeHTTP(w, req)
}

func (r *Router) registerSession() {
	login := &LoginHandler{
		SessionService: r.SessionService,
		SecureCookie:   r.SecureCookie,
	}
	refresh := &RefreshHandler{SessionService: r.SessionService}
	verify := &VerifyTokenHandler{SessionService: r.SessionService}
	logout := &LogoutHandler{
		SessionService: r.SessionService,
		SecureCookie:   r.SecureCookie,
	}

	// POST /login - strict rate limit by IP (mints credentials)
	r.Mux.Handle("POST "+r.prefix+"/login",
		httpx.Chain(login,
			httpx.RateLimitByIP(r.StrictLimit, r.clientIP),
		),
	)

	// POST /refresh_token - moderate, clients call it whenever a token lapses
	r.Mux.Handle("POST "+r.prefix+"/refresh_token",
		httpx.Chain(refresh,
			httpx.RateLimitByIP(r.ModerateLimit, r.clientIP),
		),
	)

	r.Mux.Handle("POST "+r.prefix+"/verify_token",
		httpx.Chain(verify,
			httpx.RateLimitByIP(r.StrictLimit, r.clientIP),
		),
	)

	r.Mux.Handle("POST "+r.prefix+"/logout",
		httpx.Chain(logout,
			httpx.RateLimitByIP(r.ModerateLimit, r.clientIP),
		),
	)

	// GET /session - authenticated, returns the caller's claims
	r.Mux.Handle("GET "+r.prefix+"/session",
		httpx.Chain(http.HandlerFunc(SessionInfoHandler),
			httpx.RateLimitByIP(r.ModerateLimit, r.clientIP),
			httpx.AuthnMiddleware(r.SessionService.Codec),
		),
	)
}

func (r *Router) registerCredentials() {
	h := &CredentialsHandler{CredentialService: r.CredentialService}

	// send_* endpoints are keyed by IP and target address so one client
	// cannot flood a mailbox from many addresses or many mailboxes from one.
	r.Mux.Handle("POST "+r.prefix+"/send_verification_code",
		httpx.Chain(http.HandlerFunc(h.HandleSendVerificationCode),
			httpx.RateLimitByIPAndQuery(r.StrictLimit, r.clientIP, "email"),
		),
	)
	r.Mux.Handle("POST "+r.prefix+"/send_password_reset_link",
		httpx.Chain(http.HandlerFunc(h.HandleSendPasswordResetLink),
			httpx.RateLimitByIPAndQuery(r.StrictLimit, r.clientIP, "email"),
		),
	)

	// verify_* endpoints - strict by IP to slow down code guessing
	r.Mux.Handle("POST "+r.prefix+"/verify_email_code",
		httpx.Chain(http.HandlerFunc(h.HandleVerifyEmailCode),
			httpx.RateLimitByIP(r.StrictLimit, r.clientIP),
		),
	)
	r.Mux.Handle("POST "+r.prefix+"/verify_password_reset",
		httpx.Chain(http.HandlerFunc(h.HandleVerifyPasswordReset),
			httpx.RateLimitByIP(r.StrictLimit, r.clientIP),
		),
	)
}

func (r *Router) registerSystem() {
	h := &health{
		started: r.startTime,
		version: r.buildVersion,
		db:      r.store,
		codes:   r.codes,
	}
	r.Mux.HandleFunc("GET /livez", h.Livez)
	r.Mux.HandleFunc("GET /readyz", h.Readyz)
}
