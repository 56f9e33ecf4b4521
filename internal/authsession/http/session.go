package http

import (
	"net/http"

	"github.com/aussiebroadwan/authsession/internal/authsession/service"
	"github.com/aussiebroadwan/authsession/pkg/authsdk"
	"github.com/aussiebroadwan/authsession/pkg/httpx"
	"github.com/aussiebroadwan/authsession/pkg/slogx"
)

// AccessTokenCookie carries the access token for browser clients.
const AccessTokenCookie = "access_token"

// LoginHandler serves POST /login.
type LoginHandler struct {
	SessionService *service.SessionService
	SecureCookie   bool
}

// ServeHTTP godoc
//
//	@Summary		Start a session
//	@Description	Issues an access token and stores a refresh token for a subject that was authenticated upstream.
//	@Description	A previous refresh token for the same subject is replaced. The access token is also set as an HttpOnly cookie.
//	@Tags			Session
//	@Accept			json
//	@Produce		json
//	@Param			body	body		authsdk.LoginRequest	true	"Subject to log in"
//	@Success		200		{object}	authsdk.LoginResponse
//	@Failure		400		{object}	authsdk.APIError	"subject_id missing or not a UUID"
//	@Failure		500		{object}	authsdk.APIError	"refresh token could not be stored"
//	@Router			/api/v1/{service}/login [post].
func (h *LoginHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req authsdk.LoginRequest
	if err := httpx.DecodeJSON(w, r, &req, false); err != nil {
		authsdk.ErrInvalidRequest.WithDescription(err.Error()).WriteError(w)
		return
	}

	sess, err := h.SessionService.Login(r.Context(), req.SubjectID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     AccessTokenCookie,
		Value:    sess.AccessToken,
		Path:     "/",
		MaxAge:   int(sess.ExpiresIn.Seconds()),
		HttpOnly: true,
		Secure:   h.SecureCookie,
		SameSite: http.SameSiteLaxMode,
	})

	httpx.WriteJSON(w, http.StatusOK, authsdk.LoginResponse{
		AccessToken:  sess.AccessToken,
		RefreshToken: sess.RefreshToken,
		TokenType:    sess.TokenType,
		ExpiresIn:    int(sess.ExpiresIn.Seconds()),
		SubjectID:    sess.SubjectID,
	})
}

// RefreshHandler serves POST /refresh_token.
type RefreshHandler struct {
	SessionService *service.SessionService
}

// ServeHTTP godoc
//
//	@Summary		Rotate an access token
//	@Description	Returns the presented access token unchanged while it is valid. Once it has expired, a new one is
//	@Description	minted if the subject still holds an unexpired refresh token. When refresh_token is sent it must
//	@Description	match the stored one. Tampered or malformed tokens are rejected without a store lookup.
//	@Tags			Session
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			body	body		authsdk.RefreshRequest	false	"Optional explicit refresh token"
//	@Success		200		{object}	authsdk.RefreshResponse
//	@Failure		401		{object}	authsdk.APIError	"invalid token, no refresh token found, mismatch or expired"
//	@Failure		500		{object}	authsdk.APIError	"storage unavailable, retry later"
//	@Router			/api/v1/{service}/refresh_token [post].
func (h *RefreshHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	token, err := httpx.BearerToken(r)
	if err != nil {
		authsdk.ErrInvalidToken.WithDescription("missing or invalid access token").WriteError(w)
		return
	}

	var req authsdk.RefreshRequest
	if err := httpx.DecodeJSON(w, r, &req, true); err != nil {
		authsdk.ErrInvalidRequest.WithDescription(err.Error()).WriteError(w)
		return
	}

	rot, err := h.SessionService.Refresh(r.Context(), token, req.RefreshToken)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	resp := authsdk.RefreshResponse{
		AccessToken: rot.AccessToken,
		TokenType:   rot.TokenType,
		SubjectID:   rot.SubjectID,
		Rotated:     rot.Rotated,
	}
	if rot.Rotated {
		resp.Message = "Access token refreshed successfully"
	}
	httpx.WriteJSON(w, http.StatusOK, resp)
}

// VerifyTokenHandler serves POST /verify_token.
type VerifyTokenHandler struct {
	SessionService *service.SessionService
}

// ServeHTTP godoc
//
//	@Summary		Verify an access token
//	@Tags			Session
//	@Accept			json
//	@Produce		json
//	@Param			body	body		authsdk.VerifyTokenRequest	true	"Token to check"
//	@Success		200		{object}	authsdk.VerifyResponse
//	@Failure		400		{object}	authsdk.APIError	"token missing"
//	@Failure		401		{object}	authsdk.APIError	"token invalid or expired"
//	@Router			/api/v1/{service}/verify_token [post].
func (h *VerifyTokenHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req authsdk.VerifyTokenRequest
	if err := httpx.DecodeJSON(w, r, &req, false); err != nil {
		authsdk.ErrInvalidRequest.WithDescription(err.Error()).WriteError(w)
		return
	}

	claims, err := h.SessionService.VerifyAccess(r.Context(), req.Token)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, authsdk.VerifyResponse{
		IsValid:   true,
		SubjectID: claims.SubjectID,
	})
}

// LogoutHandler serves POST /logout.
type LogoutHandler struct {
	SessionService *service.SessionService
	SecureCookie   bool
}

// ServeHTTP godoc
//
//	@Summary		End a session
//	@Description	Deletes the subject's refresh token and clears the access_token cookie. Expired access tokens are
//	@Description	accepted and repeating the call is harmless.
//	@Tags			Session
//	@Produce		json
//	@Security		BearerAuth
//	@Success		200	{object}	authsdk.MessageResponse
//	@Failure		401	{object}	authsdk.APIError	"token missing or unreadable"
//	@Failure		500	{object}	authsdk.APIError	"storage unavailable, retry later"
//	@Router			/api/v1/{service}/logout [post].
func (h *LogoutHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     AccessTokenCookie,
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.SecureCookie,
		SameSite: http.SameSiteLaxMode,
	})

	token, err := httpx.BearerToken(r)
	if err != nil {
		authsdk.ErrInvalidToken.WithDescription("missing or invalid access token").WriteError(w)
		return
	}

	if err := h.SessionService.Logout(r.Context(), token); err != nil {
		writeServiceError(w, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, authsdk.MessageResponse{Message: "Logged out successfully"})
}

// SessionInfoHandler godoc
//
//	@Summary		Describe the caller's access token
//	@Tags			Session
//	@Produce		json
//	@Security		BearerAuth
//	@Success		200	{object}	authsdk.SessionInfoResponse
//	@Failure		401	{object}	authsdk.APIError	"token missing, invalid or expired"
//	@Router			/api/v1/{service}/session [get].
func SessionInfoHandler(w http.ResponseWriter, r *http.Request) {
	claims, ok := httpx.ClaimsFromContext(r.Context())
	if !ok {
		slogx.FromContext(r.Context()).Error("session info reached without claims")
		authsdk.ErrInvalidToken.WriteError(w)
		return
	}

	resp := authsdk.SessionInfoResponse{
		SubjectID: claims.Subject,
		TokenID:   claims.ID,
	}
	if claims.IssuedAt != nil {
		resp.IssuedAt = claims.IssuedAt.Unix()
	}
	if claims.ExpiresAt != nil {
		resp.ExpiresAt = claims.ExpiresAt.Unix()
	}
	httpx.WriteJSON(w, http.StatusOK, resp)
}
