package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aussiebroadwan/authsession/internal/authsession/domain"
	"github.com/aussiebroadwan/authsession/internal/authsession/store"
	"github.com/aussiebroadwan/authsession/pkg/cryptox"
	"github.com/aussiebroadwan/authsession/pkg/jwtx"
	"github.com/aussiebroadwan/authsession/pkg/slogx"
	"github.com/google/uuid"
)

// TokenCodec is what the services need from jwtx.Codec.
type TokenCodec interface {
	jwtx.Issuer
	jwtx.Verifier
}

// SessionService runs the login, verify, refresh and logout flows.
type SessionService struct {
	Codec      TokenCodec
	Store      store.Store
	AccessTTL  time.Duration
	RefreshTTL time.Duration

	// CallTimeout bounds each store round trip. Zero means no extra bound.
	CallTimeout time.Duration

	// Now defaults to time.Now.
	Now func() time.Time
}

// Login issues an access token and stores a fresh refresh token for
// subjectID, replacing any previous one.
func (s *SessionService) Login(ctx context.Context, subjectID string) (*domain.Session, error) {
	l := slogx.FromContext(ctx)

	id, err := uuid.Parse(subjectID)
	if err != nil {
		return nil, fmt.Errorf("%w: subject_id must be a UUID", ErrInvalidRequest)
	}
	subjectID = id.String()

	access, err := s.Codec.Issue(subjectID, s.AccessTTL)
	if err != nil {
		return nil, err
	}

	refresh, err := cryptox.GenerateToken(cryptox.TokenSize256)
	if err != nil {
		return nil, err
	}

	sctx, cancel := s.callCtx(ctx)
	defer cancel()

	err = s.Store.RefreshTokens().PutRefreshToken(sctx, domain.RefreshToken{
		SubjectID: subjectID,
		TokenHash: cryptox.FingerprintToken(refresh),
		ExpiresAt: s.now().Add(s.RefreshTTL),
	})
	if err != nil {
		l.Error("failed to store refresh token", slog.String("subject_id", subjectID), slogx.Err(err))
		return nil, fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}

	l.Info("session started", slog.String("subject_id", subjectID))
	return &domain.Session{
		SubjectID:    subjectID,
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    domain.TokenTypeBearer,
		ExpiresIn:    s.AccessTTL,
	}, nil
}

// VerifyAccess checks an access token and returns its claims.
func (s *SessionService) VerifyAccess(ctx context.Context, token string) (*domain.AccessClaims, error) {
	if token == "" {
		return nil, fmt.Errorf("%w: token is required", ErrInvalidRequest)
	}

	claims, err := s.Codec.VerifyPurpose(token, jwtx.PurposeAccess)
	if err != nil {
		return nil, s.rejectToken(ctx, "verify", err)
	}
	return toAccessClaims(claims), nil
}

// Refresh mints a new access token once the presented one has expired.
//
// A live token is handed back unchanged. An expired one is only rotated when
// its signature checked out, the subject still has a stored refresh token,
// that token has not expired and, if the caller sent one explicitly, it
// matches the stored fingerprint. Malformed or forged tokens never reach the
// store.
func (s *SessionService) Refresh(ctx context.Context, accessToken, explicitRefresh string) (*domain.Rotation, error) {
	l := slogx.FromContext(ctx)

	claims, err := s.Codec.VerifyPurpose(accessToken, jwtx.PurposeAccess)
	if err == nil {
		return &domain.Rotation{
			SubjectID:   claims.Subject,
			AccessToken: accessToken,
			TokenType:   domain.TokenTypeBearer,
			Rotated:     false,
		}, nil
	}
	if !errors.Is(err, jwtx.ErrExpired) {
		return nil, s.rejectToken(ctx, "refresh", err)
	}

	// Signature was valid and only the clock check failed, so the subject
	// can be used as a lookup key.
	claims, err = s.Codec.DecodeUnverified(accessToken)
	if err != nil {
		return nil, ErrTokenInvalid
	}
	if claims.ValidatePurpose(jwtx.PurposeAccess) != nil {
		return nil, ErrTokenInvalid
	}
	subjectID := claims.Subject
	l = l.With(slog.String("subject_id", subjectID))

	sctx, cancel := s.callCtx(ctx)
	defer cancel()

	stored, err := s.Store.RefreshTokens().GetRefreshToken(sctx, subjectID)
	switch {
	case errors.Is(err, store.ErrNotFound):
		l.Info("refresh rejected", slog.String("reason", "no_refresh_token"))
		return nil, ErrNoRefreshToken
	case err != nil:
		l.Error("failed to load refresh token", slogx.Err(err))
		return nil, fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}

	if explicitRefresh != "" && !cryptox.EqualFingerprint(explicitRefresh, stored.TokenHash) {
		l.Warn("refresh rejected", slog.String("reason", "refresh_token_mismatch"))
		return nil, ErrRefreshMismatch
	}

	if stored.Expired(s.now()) {
		l.Info("refresh rejected", slog.String("reason", "refresh_token_expired"))
		if err := s.Store.RefreshTokens().DeleteRefreshToken(sctx, subjectID); err != nil {
			l.Warn("failed to delete expired refresh token", slogx.Err(err))
		}
		return nil, ErrRefreshExpired
	}

	access, err := s.Codec.Issue(subjectID, s.AccessTTL)
	if err != nil {
		return nil, err
	}

	l.Info("access token rotated")
	return &domain.Rotation{
		SubjectID:   subjectID,
		AccessToken: access,
		TokenType:   domain.TokenTypeBearer,
		Rotated:     true,
	}, nil
}

// Logout drops the subject's refresh token. Stale access tokens are accepted
// so a client can always sign out; unknown subjects are a no-op.
func (s *SessionService) Logout(ctx context.Context, accessToken string) error {
	l := slogx.FromContext(ctx)

	var subjectID string
	claims, err := s.Codec.VerifyPurpose(accessToken, jwtx.PurposeAccess)
	switch {
	case err == nil:
		subjectID = claims.Subject
	case errors.Is(err, jwtx.ErrExpired):
		claims, err = s.Codec.DecodeUnverified(accessToken)
		if err != nil || claims.ValidatePurpose(jwtx.PurposeAccess) != nil {
			return ErrTokenInvalid
		}
		subjectID = claims.Subject
	default:
		return s.rejectToken(ctx, "logout", err)
	}

	sctx, cancel := s.callCtx(ctx)
	defer cancel()

	if err := s.Store.RefreshTokens().DeleteRefreshToken(sctx, subjectID); err != nil {
		l.Error("failed to delete refresh token", slog.String("subject_id", subjectID), slogx.Err(err))
		return fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}

	l.Info("session ended", slog.String("subject_id", subjectID))
	return nil
}

// rejectToken maps a codec failure to the API error and logs forged tokens
// as a security signal.
func (s *SessionService) rejectToken(ctx context.Context, op string, err error) error {
	l := slogx.FromContext(ctx)
	switch {
	case errors.Is(err, jwtx.ErrExpired):
		return ErrTokenExpired
	case errors.Is(err, jwtx.ErrSignatureInvalid):
		l.Warn("token rejected", slog.String("op", op), slog.String("reason", "signature_invalid"))
		return ErrTokenInvalid
	default:
		l.Debug("token rejected", slog.String("op", op), slog.String("reason", "malformed"), slogx.Err(err))
		return ErrTokenInvalid
	}
}

func (s *SessionService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *SessionService) callCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	return withTimeout(ctx, s.CallTimeout)
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, d)
}

func toAccessClaims(c *jwtx.Claims) *domain.AccessClaims {
	return &domain.AccessClaims{
		SubjectID: c.Subject,
		TokenID:   c.ID,
		IssuedAt:  c.IssuedAtTime(),
		ExpiresAt: c.ExpiresAtTime(),
	}
}
