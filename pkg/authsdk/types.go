package authsdk

// ============================================================================
// Session Types
// ============================================================================

// LoginRequest is the body of POST /login. The subject has already been
// authenticated upstream.
type LoginRequest struct {
	SubjectID string `json:"subject_id"`
}

// LoginResponse carries a fresh session.
type LoginResponse struct {
	// AccessToken is the signed, short-lived bearer token.
	AccessToken string `json:"access_token"`

	// RefreshToken is the opaque token that can be presented to
	// /refresh_token alongside an expired access token.
	RefreshToken string `json:"refresh_token"`

	// TokenType is always "bearer".
	TokenType string `json:"token_type"`

	// ExpiresIn is the access token lifetime in seconds.
	ExpiresIn int `json:"expires_in"`

	SubjectID string `json:"subject_id"`
}

// RefreshRequest is the optional body of POST /refresh_token.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token,omitempty"`
}

// RefreshResponse is returned by POST /refresh_token. Rotated is false when
// the presented access token was still valid and is returned as is.
type RefreshResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	SubjectID   string `json:"subject_id"`
	Rotated     bool   `json:"rotated"`
	Message     string `json:"message,omitempty"`
}

// VerifyTokenRequest is the body of POST /verify_token.
type VerifyTokenRequest struct {
	Token string `json:"token"`
}

// VerifyResponse reports a successful check. SubjectID is set for token
// checks and omitted for verification codes.
type VerifyResponse struct {
	IsValid   bool   `json:"is_valid"`
	SubjectID string `json:"subject_id,omitempty"`
}

// SessionInfoResponse describes the access token used to call GET /session.
type SessionInfoResponse struct {
	SubjectID string `json:"subject_id"`
	TokenID   string `json:"token_id"`
	IssuedAt  int64  `json:"iat"`
	ExpiresAt int64  `json:"exp"`
}

// ============================================================================
// Credential Types
// ============================================================================

// VerifyEmailCodeRequest is the body of POST /verify_email_code.
type VerifyEmailCodeRequest struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

// VerifyPasswordResetRequest is the body of POST /verify_password_reset.
type VerifyPasswordResetRequest struct {
	Email string `json:"email"`
	Token string `json:"token"`
}

// MessageResponse is a plain acknowledgement.
type MessageResponse struct {
	Message string `json:"message"`
}

// ============================================================================
// Health Types
// ============================================================================

// HealthResponse is returned by /livez and /readyz (readyz adds Checks).
type HealthResponse struct {
	Status  string        `json:"status"`
	Uptime  string        `json:"uptime,omitempty"`
	Version string        `json:"version,omitempty"`
	Checks  *HealthChecks `json:"checks,omitempty"`
}

// HealthChecks is the status of each backing store.
type HealthChecks struct {
	Database  string `json:"database"`
	CodeStore string `json:"code_store"`
}
