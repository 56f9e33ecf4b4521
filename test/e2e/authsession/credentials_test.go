//go:build e2e

package authsession_test

import (
	"net/http"
	"testing"
	"time"

	"github.com/aussiebroadwan/authsession/pkg/authsdk"
	"github.com/stretchr/testify/require"
)

// TestEmailVerificationFlow sends a code through the real Redis store and
// confirms it.
func TestEmailVerificationFlow(t *testing.T) {
	e := setupService(t)
	ctx := t.Context()
	const email = "new.user@example.com"

	require.NoError(t, e.client.SendVerificationCode(ctx, email))

	ttl, err := e.redis.TTL(ctx, "verification:"+email).Result()
	require.NoError(t, err)
	require.InDelta(t, (24 * time.Hour).Seconds(), ttl.Seconds(), 5)

	code := codeFrom(t, e.mail.last(t, email))

	err = e.client.VerifyEmailCode(ctx, email, "000000")
	if code != "000000" {
		apiErr := requireAPIError(t, err, http.StatusUnauthorized)
		require.Equal(t, authsdk.ErrorCodeInvalidCode, apiErr.Code)
	}

	require.NoError(t, e.client.VerifyEmailCode(ctx, email, code))
}

func TestEmailVerification_InvalidEmail(t *testing.T) {
	e := setupService(t)

	err := e.client.SendVerificationCode(t.Context(), "not-an-email")
	requireAPIError(t, err, http.StatusBadRequest)
}

// TestPasswordResetFlow covers a registered user receiving a reset link and
// redeeming the token it carries.
func TestPasswordResetFlow(t *testing.T) {
	e := setupService(t)
	ctx := t.Context()

	user, err := e.app.AddUser(ctx, "Reset.Me@Example.com")
	require.NoError(t, err)

	require.NoError(t, e.client.SendPasswordResetLink(ctx, "reset.me@example.com"))
	token := resetTokenFrom(t, e.mail.last(t, user.Email))

	resp, err := e.client.VerifyPasswordReset(ctx, user.Email, token)
	require.NoError(t, err)
	require.True(t, resp.IsValid)
	require.Equal(t, user.ID, resp.SubjectID)

	_, err = e.client.VerifyPasswordReset(ctx, "someone.else@example.com", token)
	requireAPIError(t, err, http.StatusBadRequest)
}

func TestPasswordReset_UnknownEmail(t *testing.T) {
	e := setupService(t)

	err := e.client.SendPasswordResetLink(t.Context(), "nobody@example.com")
	apiErr := requireAPIError(t, err, http.StatusNotFound)
	require.Equal(t, authsdk.ErrorCodeNotFound, apiErr.Code)
}
