package jwtx

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// MinSecretSize is the shortest HMAC secret accepted, in bytes.
const MinSecretSize = 32

// Issuer mints signed tokens.
type Issuer interface {
	Issue(subject string, ttl time.Duration, opts ...IssueOption) (string, error)
}

// Verifier validates tokens and hands back their claims.
type Verifier interface {
	Verify(token string) (*Claims, error)
	VerifyPurpose(token, purpose string) (*Claims, error)
	DecodeUnverified(token string) (*Claims, error)
}

// Option configures a Codec.
type Option func(*Codec)

// WithClock overrides the time source used for both issuing and verifying.
func WithClock(now func() time.Time) Option {
	return func(c *Codec) { c.now = now }
}

// IssueOption tweaks a single Issue call.
type IssueOption func(*Claims)

// WithPurpose sets the purpose tag. Tokens default to PurposeAccess.
func WithPurpose(purpose string) IssueOption {
	return func(c *Claims) { c.Purpose = purpose }
}

// Codec signs and verifies HS256 tokens with a single symmetric secret.
// It is safe for concurrent use.
type Codec struct {
	secret []byte
	issuer string
	now    func() time.Time
}

var (
	_ Issuer   = (*Codec)(nil)
	_ Verifier = (*Codec)(nil)
)

// NewHS256 builds a codec. issuer is stamped on every token and enforced on
// verification when non-empty.
func NewHS256(secret []byte, issuer string, opts ...Option) (*Codec, error) {
	if len(secret) < MinSecretSize {
		return nil, fmt.Errorf("%w: need %d bytes, got %d", ErrWeakSecret, MinSecretSize, len(secret))
	}

	c := &Codec{
		secret: append([]byte(nil), secret...),
		issuer: issuer,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Issue signs a token for subject that expires ttl from now.
func (c *Codec) Issue(subject string, ttl time.Duration, opts ...IssueOption) (string, error) {
	if subject == "" {
		return "", fmt.Errorf("jwtx: issue: empty subject")
	}
	if ttl <= 0 {
		return "", fmt.Errorf("jwtx: issue: ttl must be positive, got %s", ttl)
	}

	claims := NewClaims(subject, PurposeAccess, c.issuer, ttl, c.now().UTC())
	for _, opt := range opts {
		opt(&claims)
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("jwtx: sign: %w", err)
	}
	return signed, nil
}

// Verify checks the signature, then the expiry, then the required claims.
// Failures are always one of ErrMalformed, ErrSignatureInvalid or ErrExpired.
func (c *Codec) Verify(tokenStr string) (*Claims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(c.now),
	}
	if c.issuer != "" {
		opts = append(opts, jwt.WithIssuer(c.issuer))
	}

	token, err := jwt.NewParser(opts...).ParseWithClaims(tokenStr, &Claims{}, c.keyFunc)
	if err != nil {
		err = classify(err)
		// The parser reports expiry before we get to see the claims, so a
		// signed token without a subject would otherwise pass as expired.
		if errors.Is(err, ErrExpired) && token != nil {
			if claims, ok := token.Claims.(*Claims); ok && claims.Subject == "" {
				return nil, fmt.Errorf("%w: missing sub", ErrMalformed)
			}
		}
		return nil, err
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrMalformed
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: missing sub", ErrMalformed)
	}
	return claims, nil
}

// VerifyPurpose is Verify plus a purpose check.
func (c *Codec) VerifyPurpose(tokenStr, purpose string) (*Claims, error) {
	claims, err := c.Verify(tokenStr)
	if err != nil {
		return nil, err
	}
	if err := claims.ValidatePurpose(purpose); err != nil {
		return nil, err
	}
	return claims, nil
}

// DecodeUnverified extracts claims without checking the signature or the
// clock. Only call it after Verify returned ErrExpired, and only use the
// result as a lookup key.
func (c *Codec) DecodeUnverified(tokenStr string) (*Claims, error) {
	claims := &Claims{}
	if _, _, err := jwt.NewParser().ParseUnverified(tokenStr, claims); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: missing sub", ErrMalformed)
	}
	if claims.ExpiresAt == nil {
		return nil, fmt.Errorf("%w: missing exp", ErrMalformed)
	}
	return claims, nil
}

func (c *Codec) keyFunc(t *jwt.Token) (any, error) {
	if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
		return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
	}
	return c.secret, nil
}

// classify folds jwt/v5 parse errors into the three outcomes callers act on.
// The parser checks the signature before any claim, so an expiry error here
// implies the signature was valid.
func classify(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrTokenUnverifiable):
		return fmt.Errorf("%w: %v", ErrSignatureInvalid, err)
	case errors.Is(err, jwt.ErrTokenRequiredClaimMissing):
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	case errors.Is(err, jwt.ErrTokenExpired) && !errors.Is(err, jwt.ErrTokenInvalidIssuer):
		return ErrExpired
	default:
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
}
