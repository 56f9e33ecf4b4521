package httpx

import (
	"context"

	"github.com/aussiebroadwan/authsession/pkg/jwtx"
)

type ctxKey string

const (
	ctxKeySubject ctxKey = "subject_id"
	ctxKeyClaims  ctxKey = "claims"
)

// WithClaims stores verified claims and their subject on ctx.
func WithClaims(ctx context.Context, c *jwtx.Claims) context.Context {
	ctx = context.WithValue(ctx, ctxKeySubject, c.Subject)
	return context.WithValue(ctx, ctxKeyClaims, c)
}

// SubjectFromContext returns the authenticated subject, or "".
func SubjectFromContext(ctx context.Context) string {
	s, _ := ctx.Value(ctxKeySubject).(string)
	return s
}

// ClaimsFromContext returns the claims AuthnMiddleware verified.
func ClaimsFromContext(ctx context.Context) (*jwtx.Claims, bool) {
	c, ok := ctx.Value(ctxKeyClaims).(*jwtx.Claims)
	return c, ok
}
