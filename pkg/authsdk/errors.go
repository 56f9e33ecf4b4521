package authsdk

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/aussiebroadwan/authsession/pkg/httpx"
)

// Error codes carried in the "error" field of every error body.
const (
	ErrorCodeInvalidRequest    = "invalid_request"
	ErrorCodeInvalidToken      = "invalid_token"
	ErrorCodeInvalidCode       = "invalid_code"
	ErrorCodeNotFound          = "not_found"
	ErrorCodeServerError       = "server_error"
	ErrorCodeRateLimitExceeded = "rate_limit_exceeded"
	ErrorCodeNotReady          = "not_ready"
)

// APIError is the error envelope returned by the service. Handlers write it
// and the SDK client hands it back to callers.
type APIError struct {
	// StatusCode is the HTTP status the error travels with.
	StatusCode int `json:"-"`

	Code        string `json:"error"`
	Description string `json:"error_description"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Description)
}

// WriteError writes the error to an HTTP response.
func (e *APIError) WriteError(w http.ResponseWriter) {
	httpx.Error{Code: e.Code, Description: e.Description}.Write(w, e.StatusCode)
}

// WithDescription returns a copy of e carrying a more specific description.
func (e *APIError) WithDescription(desc string) *APIError {
	return &APIError{StatusCode: e.StatusCode, Code: e.Code, Description: desc}
}

// Is matches another *APIError with the same status and code, so callers can
// write errors.Is(err, authsdk.ErrInvalidToken).
func (e *APIError) Is(target error) bool {
	t, ok := target.(*APIError)
	if !ok {
		return false
	}
	return t.StatusCode == e.StatusCode && t.Code == e.Code
}

var (
	// ErrInvalidRequest is returned when a required parameter is missing or
	// the body cannot be parsed.
	ErrInvalidRequest = &APIError{
		StatusCode:  http.StatusBadRequest,
		Code:        ErrorCodeInvalidRequest,
		Description: "the request is malformed or missing required parameters",
	}

	// ErrInvalidToken is returned when a token is missing, invalid, expired
	// or has no refresh token behind it.
	ErrInvalidToken = &APIError{
		StatusCode:  http.StatusUnauthorized,
		Code:        ErrorCodeInvalidToken,
		Description: "the token is missing, invalid or expired",
	}

	// ErrInvalidCode is returned when a verification code does not match.
	ErrInvalidCode = &APIError{
		StatusCode:  http.StatusUnauthorized,
		Code:        ErrorCodeInvalidCode,
		Description: "invalid or expired code",
	}

	// ErrInvalidResetToken is returned when a password reset token is
	// expired, unknown or was sent to a different address.
	ErrInvalidResetToken = &APIError{
		StatusCode:  http.StatusBadRequest,
		Code:        ErrorCodeInvalidCode,
		Description: "invalid or expired password reset token",
	}

	// ErrUserNotFound is returned when no user has the given email.
	ErrUserNotFound = &APIError{
		StatusCode:  http.StatusNotFound,
		Code:        ErrorCodeNotFound,
		Description: "user not found",
	}

	// ErrServerError is returned for storage and delivery failures. The
	// request may be retried.
	ErrServerError = &APIError{
		StatusCode:  http.StatusInternalServerError,
		Code:        ErrorCodeServerError,
		Description: "internal server error",
	}
)

// parseErrorResponse turns a non-2xx response into an *APIError.
func parseErrorResponse(resp *http.Response, body []byte) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	var env struct {
		Error            string `json:"error"`
		ErrorDescription string `json:"error_description"`
	}
	if err := json.Unmarshal(body, &env); err == nil && env.Error != "" {
		return &APIError{
			StatusCode:  resp.StatusCode,
			Code:        env.Error,
			Description: env.ErrorDescription,
		}
	}

	return &APIError{
		StatusCode:  resp.StatusCode,
		Code:        ErrorCodeServerError,
		Description: fmt.Sprintf("HTTP %d: %s", resp.StatusCode, http.StatusText(resp.StatusCode)),
	}
}
