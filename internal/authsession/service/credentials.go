package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	netmail "net/mail"
	"net/url"
	"strings"
	"time"

	"github.com/aussiebroadwan/authsession/internal/authsession/codestore"
	"github.com/aussiebroadwan/authsession/internal/authsession/domain"
	"github.com/aussiebroadwan/authsession/internal/authsession/mail"
	"github.com/aussiebroadwan/authsession/internal/authsession/store"
	"github.com/aussiebroadwan/authsession/pkg/cryptox"
	"github.com/aussiebroadwan/authsession/pkg/jwtx"
	"github.com/aussiebroadwan/authsession/pkg/slogx"
)

// VerificationCodeDigits is the length of emailed verification codes.
const VerificationCodeDigits = 6

// CredentialService issues and checks the one-time credentials sent by
// email: verification codes and password reset tokens.
type CredentialService struct {
	Codec  TokenCodec
	Codes  codestore.Store
	Store  store.Store
	Mailer mail.Sender

	VerificationTTL time.Duration // lifetime of a stored verification code
	ResetStoreTTL   time.Duration // lifetime of the stored reset entry
	ResetTokenTTL   time.Duration // exp embedded in the reset token itself
	ResetLinkBase   string

	// CallTimeout bounds each store and mail round trip.
	CallTimeout time.Duration
}

// GenerateVerificationCode returns a zero padded 6 digit code.
func (s *CredentialService) GenerateVerificationCode() (string, error) {
	return cryptox.NumericCode(VerificationCodeDigits)
}

// SendVerificationCode stores a fresh code under verification:{email} and
// mails it. Resending overwrites the previous code.
func (s *CredentialService) SendVerificationCode(ctx context.Context, email string) error {
	l := slogx.FromContext(ctx)

	email, err := normalizeAddress(email)
	if err != nil {
		return err
	}

	code, err := s.GenerateVerificationCode()
	if err != nil {
		return err
	}

	if err := s.setCode(ctx, codestore.VerificationKey(email), code, s.VerificationTTL); err != nil {
		l.Error("failed to store verification code", slog.String("email", email), slogx.Err(err))
		return err
	}

	msg, err := mail.VerificationMessage(email, code)
	if err != nil {
		return err
	}
	if err := s.send(ctx, msg); err != nil {
		l.Error("failed to send verification email", slog.String("email", email), slogx.Err(err))
		return err
	}

	l.Info("verification code sent", slog.String("email", email))
	return nil
}

// VerifyEmailCode checks code against the stored one. Codes are not consumed
// on success; they simply expire.
func (s *CredentialService) VerifyEmailCode(ctx context.Context, email, code string) error {
	email, err := normalizeAddress(email)
	if err != nil {
		return err
	}
	code = strings.TrimSpace(code)
	if code == "" {
		return fmt.Errorf("%w: code is required", ErrInvalidRequest)
	}

	stored, err := s.getCode(ctx, codestore.VerificationKey(email))
	if err != nil {
		return err
	}
	if !cryptox.EqualCode(stored, code) {
		return ErrInvalidCode
	}
	return nil
}

// GenerateResetToken signs a password reset token for subjectID.
func (s *CredentialService) GenerateResetToken(subjectID string) (string, error) {
	return s.Codec.Issue(subjectID, s.ResetTokenTTL, jwtx.WithPurpose(jwtx.PurposePasswordReset))
}

// VerifyResetToken returns the subject a reset token was minted for. The
// returned error wraps both ErrInvalidCode and the codec reason.
func (s *CredentialService) VerifyResetToken(token string) (string, error) {
	claims, err := s.Codec.VerifyPurpose(token, jwtx.PurposePasswordReset)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidCode, err)
	}
	return claims.Subject, nil
}

// SendPasswordResetLink mails a reset link to a known address. Unknown
// addresses get ErrNotFound and nothing is stored or sent.
func (s *CredentialService) SendPasswordResetLink(ctx context.Context, email string) error {
	l := slogx.FromContext(ctx)

	email, err := normalizeAddress(email)
	if err != nil {
		return err
	}

	user, err := s.lookupUser(ctx, email)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			l.Error("failed to look up user", slog.String("email", email), slogx.Err(err))
		}
		return err
	}

	token, err := s.GenerateResetToken(user.ID)
	if err != nil {
		return err
	}

	if err := s.setCode(ctx, codestore.PasswordResetKey(email), token, s.ResetStoreTTL); err != nil {
		l.Error("failed to store reset token", slog.String("email", email), slogx.Err(err))
		return err
	}

	msg, err := mail.PasswordResetMessage(email, s.resetLink(token))
	if err != nil {
		return err
	}
	if err := s.send(ctx, msg); err != nil {
		l.Error("failed to send password reset email", slog.String("email", email), slogx.Err(err))
		return err
	}

	l.Info("password reset link sent", slog.String("subject_id", user.ID))
	return nil
}

// VerifyPasswordReset accepts token only while both the stored entry and the
// token's own exp are live, and only for the address it was sent to.
func (s *CredentialService) VerifyPasswordReset(ctx context.Context, email, token string) (string, error) {
	email, err := normalizeAddress(email)
	if err != nil {
		return "", err
	}
	if token == "" {
		return "", fmt.Errorf("%w: token is required", ErrInvalidRequest)
	}

	stored, err := s.getCode(ctx, codestore.PasswordResetKey(email))
	if err != nil {
		return "", err
	}
	if !cryptox.EqualCode(stored, token) {
		return "", ErrInvalidCode
	}

	subjectID, err := s.VerifyResetToken(token)
	if err != nil {
		return "", err
	}

	cctx, cancel := withTimeout(ctx, s.CallTimeout)
	defer cancel()

	user, err := s.Store.Users().GetUserByID(cctx, subjectID)
	switch {
	case errors.Is(err, store.ErrNotFound):
		return "", ErrInvalidCode
	case err != nil:
		return "", fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	if !strings.EqualFold(user.Email, email) {
		return "", ErrInvalidCode
	}
	return subjectID, nil
}

func (s *CredentialService) resetLink(token string) string {
	return strings.TrimRight(s.ResetLinkBase, "/") + "/?token=" + url.QueryEscape(token)
}

func (s *CredentialService) lookupUser(ctx context.Context, email string) (domain.User, error) {
	cctx, cancel := withTimeout(ctx, s.CallTimeout)
	defer cancel()

	user, err := s.Store.Users().GetUserByEmail(cctx, email)
	switch {
	case errors.Is(err, store.ErrNotFound):
		return domain.User{}, fmt.Errorf("%w: no user with that email", ErrNotFound)
	case err != nil:
		return domain.User{}, fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	return user, nil
}

func (s *CredentialService) setCode(ctx context.Context, key, value string, ttl time.Duration) error {
	cctx, cancel := withTimeout(ctx, s.CallTimeout)
	defer cancel()

	if err := s.Codes.SetWithTTL(cctx, key, value, ttl); err != nil {
		return fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	return nil
}

func (s *CredentialService) getCode(ctx context.Context, key string) (string, error) {
	cctx, cancel := withTimeout(ctx, s.CallTimeout)
	defer cancel()

	v, err := s.Codes.Get(cctx, key)
	switch {
	case errors.Is(err, codestore.ErrNotFound):
		return "", ErrInvalidCode
	case err != nil:
		slogx.FromContext(ctx).Error("failed to read code store", slog.String("key_purpose", purposeOf(key)), slogx.Err(err))
		return "", fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	return v, nil
}

func (s *CredentialService) send(ctx context.Context, msg mail.Message) error {
	cctx, cancel := withTimeout(ctx, s.CallTimeout)
	defer cancel()

	if err := s.Mailer.Send(cctx, msg); err != nil {
		return fmt.Errorf("%w: %v", ErrDelivery, err)
	}
	return nil
}

func normalizeAddress(email string) (string, error) {
	email = domain.NormalizeEmail(email)
	if email == "" {
		return "", fmt.Errorf("%w: email is required", ErrInvalidRequest)
	}
	addr, err := netmail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", fmt.Errorf("%w: invalid email address", ErrInvalidRequest)
	}
	return email, nil
}

func purposeOf(key string) string {
	purpose, _, _ := strings.Cut(key, ":")
	return purpose
}
