package httpx

import (
	"errors"
	"net/http"
	"strings"

	"github.com/aussiebroadwan/authsession/pkg/jwtx"
	"github.com/aussiebroadwan/authsession/pkg/slogx"
)

// ErrNoBearer is returned by BearerToken when the header is missing or not
// a bearer credential.
var ErrNoBearer = errors.New("httpx: missing bearer token")

// BearerToken pulls the token out of "Authorization: Bearer <token>". The
// scheme is matched case-insensitively.
func BearerToken(r *http.Request) (string, error) {
	authz := r.Header.Get("Authorization")
	scheme, token, ok := strings.Cut(authz, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", ErrNoBearer
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return "", ErrNoBearer
	}
	return token, nil
}

// AuthnMiddleware admits requests carrying a live access token, stores the
// claims on the request context and tags the request logger with the subject.
func AuthnMiddleware(v jwtx.Verifier) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			log := slogx.FromContext(ctx)

			raw, err := BearerToken(r)
			if err != nil {
				writeBearerError(w, "missing bearer token")
				return
			}

			claims, err := v.VerifyPurpose(raw, jwtx.PurposeAccess)
			switch {
			case err == nil:
			case errors.Is(err, jwtx.ErrExpired):
				writeBearerError(w, "token expired")
				return
			case errors.Is(err, jwtx.ErrSignatureInvalid):
				log.Warn("bearer token rejected", "reason", "signature_invalid")
				writeBearerError(w, "token verification failed")
				return
			default:
				log.Debug("bearer token rejected", "reason", "malformed", "error", err)
				writeBearerError(w, "token verification failed")
				return
			}

			ctx = slogx.WithAttrs(ctx, "subject_id", claims.Subject)
			next.ServeHTTP(w, r.WithContext(WithClaims(ctx, claims)))
		})
	}
}

// RFC 6750-compliant error response for bearer auth.
func writeBearerError(w http.ResponseWriter, desc string) {
	w.Header().Set("WWW-Authenticate", `Bearer error="invalid_token", error_description="`+desc+`"`)
	Error{Code: "invalid_token", Description: desc}.Write(w, http.StatusUnauthorized)
}
