package http

import (
	"errors"
	"net/http"

	"github.com/aussiebroadwan/authsession/internal/authsession/service"
	"github.com/aussiebroadwan/authsession/pkg/authsdk"
	"github.com/aussiebroadwan/authsession/pkg/httpx"
)

// CredentialsHandler serves the verification code and password reset routes.
type CredentialsHandler struct {
	CredentialService *service.CredentialService
}

// HandleSendVerificationCode godoc
//
//	@Summary		Email a verification code
//	@Description	Stores a 6 digit code for 24 hours under the address and emails it. Resending replaces the code.
//	@Tags			Credentials
//	@Produce		json
//	@Param			email	query		string	true	"Recipient address"
//	@Success		200		{object}	authsdk.MessageResponse
//	@Failure		400		{object}	authsdk.APIError	"email missing or invalid"
//	@Failure		500		{object}	authsdk.APIError	"code store or email failure"
//	@Router			/api/v1/{service}/send_verification_code [post].
func (h *CredentialsHandler) HandleSendVerificationCode(w http.ResponseWriter, r *http.Request) {
	email := r.URL.Query().Get("email")

	if err := h.CredentialService.SendVerificationCode(r.Context(), email); err != nil {
		writeServiceError(w, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, authsdk.MessageResponse{
		Message: "Verification code sent and saved successfully",
	})
}

// HandleVerifyEmailCode godoc
//
//	@Summary		Check a verification code
//	@Description	Codes stay valid until they expire; a successful check does not consume them.
//	@Tags			Credentials
//	@Accept			json
//	@Produce		json
//	@Param			body	body		authsdk.VerifyEmailCodeRequest	true	"Address and code"
//	@Success		200		{object}	authsdk.VerifyResponse
//	@Failure		400		{object}	authsdk.APIError	"email or code missing"
//	@Failure		401		{object}	authsdk.APIError	"code wrong or expired"
//	@Failure		500		{object}	authsdk.APIError	"code store unavailable"
//	@Router			/api/v1/{service}/verify_email_code [post].
func (h *CredentialsHandler) HandleVerifyEmailCode(w http.ResponseWriter, r *http.Request) {
	var req authsdk.VerifyEmailCodeRequest
	if err := httpx.DecodeJSON(w, r, &req, false); err != nil {
		authsdk.ErrInvalidRequest.WithDescription(err.Error()).WriteError(w)
		return
	}

	if err := h.CredentialService.VerifyEmailCode(r.Context(), req.Email, req.Code); err != nil {
		writeServiceError(w, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, authsdk.VerifyResponse{IsValid: true})
}

// HandleSendPasswordResetLink godoc
//
//	@Summary		Email a password reset link
//	@Description	Only known addresses receive a link. The stored entry lives 15 minutes and the token itself 1 hour.
//	@Tags			Credentials
//	@Produce		json
//	@Param			email	query		string	true	"Account address"
//	@Success		200		{object}	authsdk.MessageResponse
//	@Failure		400		{object}	authsdk.APIError	"email missing or invalid"
//	@Failure		404		{object}	authsdk.APIError	"no user with that email"
//	@Failure		500		{object}	authsdk.APIError	"store or email failure"
//	@Router			/api/v1/{service}/send_password_reset_link [post].
func (h *CredentialsHandler) HandleSendPasswordResetLink(w http.ResponseWriter, r *http.Request) {
	email := r.URL.Query().Get("email")

	if err := h.CredentialService.SendPasswordResetLink(r.Context(), email); err != nil {
		writeServiceError(w, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, authsdk.MessageResponse{
		Message: "Password reset link sent successfully",
	})
}

// HandleVerifyPasswordReset godoc
//
//	@Summary		Check a password reset token
//	@Tags			Credentials
//	@Accept			json
//	@Produce		json
//	@Param			body	body		authsdk.VerifyPasswordResetRequest	true	"Address and token from the link"
//	@Success		200		{object}	authsdk.VerifyResponse
//	@Failure		400		{object}	authsdk.APIError	"token missing, invalid or expired"
//	@Failure		500		{object}	authsdk.APIError	"store unavailable"
//	@Router			/api/v1/{service}/verify_password_reset [post].
func (h *CredentialsHandler) HandleVerifyPasswordReset(w http.ResponseWriter, r *http.Request) {
	var req authsdk.VerifyPasswordResetRequest
	if err := httpx.DecodeJSON(w, r, &req, false); err != nil {
		authsdk.ErrInvalidRequest.WithDescription(err.Error()).WriteError(w)
		return
	}

	subjectID, err := h.CredentialService.VerifyPasswordReset(r.Context(), req.Email, req.Token)
	switch {
	case err == nil:
	case errors.Is(err, service.ErrInvalidCode), errors.Is(err, service.ErrNotFound):
		authsdk.ErrInvalidResetToken.WriteError(w)
		return
	default:
		writeServiceError(w, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, authsdk.VerifyResponse{
		IsValid:   true,
		SubjectID: subjectID,
	})
}
