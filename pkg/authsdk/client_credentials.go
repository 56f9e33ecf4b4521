package authsdk

import (
	"context"
	"net/http"
	"net/url"
)

// SendVerificationCode asks the service to email a verification code.
func (c *SDKClient) SendVerificationCode(ctx context.Context, email string) error {
	q := url.Values{"email": {email}}
	resp, err := c.doRequest(ctx, http.MethodPost, c.apiPath("/send_verification_code"), q, nil, "")
	if err != nil {
		return err
	}
	return decodeJSON(resp, nil, http.StatusOK)
}

// VerifyEmailCode checks a code previously emailed to email.
func (c *SDKClient) VerifyEmailCode(ctx context.Context, email, code string) error {
	body := VerifyEmailCodeRequest{Email: email, Code: code}
	resp, err := c.doRequest(ctx, http.MethodPost, c.apiPath("/verify_email_code"), nil, body, "")
	if err != nil {
		return err
	}
	return decodeJSON(resp, nil, http.StatusOK)
}

// SendPasswordResetLink asks the service to email a reset link. Unknown
// addresses yield ErrUserNotFound.
func (c *SDKClient) SendPasswordResetLink(ctx context.Context, email string) error {
	q := url.Values{"email": {email}}
	resp, err := c.doRequest(ctx, http.MethodPost, c.apiPath("/send_password_reset_link"), q, nil, "")
	if err != nil {
		return err
	}
	return decodeJSON(resp, nil, http.StatusOK)
}

// VerifyPasswordReset checks a reset token and returns the subject it was
// issued for.
func (c *SDKClient) VerifyPasswordReset(ctx context.Context, email, token string) (*VerifyResponse, error) {
	body := VerifyPasswordResetRequest{Email: email, Token: token}
	resp, err := c.doRequest(ctx, http.MethodPost, c.apiPath("/verify_password_reset"), nil, body, "")
	if err != nil {
		return nil, err
	}

	var out VerifyResponse
	if err := decodeJSON(resp, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}
