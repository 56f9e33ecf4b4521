package authsdk

import (
	"context"
	"net/http"
)

// Login issues a session for an already authenticated subject.
func (c *SDKClient) Login(ctx context.Context, subjectID string) (*LoginResponse, error) {
	resp, err := c.doRequest(ctx, http.MethodPost, c.apiPath("/login"), nil, LoginRequest{SubjectID: subjectID}, "")
	if err != nil {
		return nil, err
	}

	var out LoginResponse
	if err := decodeJSON(resp, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

// RefreshToken presents accessToken for rotation. refreshToken is optional;
// when set the service also checks it against the stored one.
func (c *SDKClient) RefreshToken(ctx context.Context, accessToken, refreshToken string) (*RefreshResponse, error) {
	var body any
	if refreshToken != "" {
		body = RefreshRequest{RefreshToken: refreshToken}
	}

	resp, err := c.doRequest(ctx, http.MethodPost, c.apiPath("/refresh_token"), nil, body, accessToken)
	if err != nil {
		return nil, err
	}

	var out RefreshResponse
	if err := decodeJSON(resp, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

// VerifyToken checks an access token and reports its subject.
func (c *SDKClient) VerifyToken(ctx context.Context, token string) (*VerifyResponse, error) {
	resp, err := c.doRequest(ctx, http.MethodPost, c.apiPath("/verify_token"), nil, VerifyTokenRequest{Token: token}, "")
	if err != nil {
		return nil, err
	}

	var out VerifyResponse
	if err := decodeJSON(resp, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

// Logout ends the session behind accessToken. Expired tokens are accepted.
func (c *SDKClient) Logout(ctx context.Context, accessToken string) (*MessageResponse, error) {
	resp, err := c.doRequest(ctx, http.MethodPost, c.apiPath("/logout"), nil, nil, accessToken)
	if err != nil {
		return nil, err
	}

	var out MessageResponse
	if err := decodeJSON(resp, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

// SessionInfo returns the claims of a live access token.
func (c *SDKClient) SessionInfo(ctx context.Context, accessToken string) (*SessionInfoResponse, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, c.apiPath("/session"), nil, nil, accessToken)
	if err != nil {
		return nil, err
	}

	var out SessionInfoResponse
	if err := decodeJSON(resp, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}
