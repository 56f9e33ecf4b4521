package http

import (
	"errors"
	"net/http"

	"github.com/aussiebroadwan/authsession/internal/authsession/service"
	"github.com/aussiebroadwan/authsession/pkg/authsdk"
)

// writeServiceError maps a service error onto the API error envelope.
func writeServiceError(w http.ResponseWriter, err error) {
	var unauthorized *service.UnauthorizedError

	switch {
	case errors.Is(err, service.ErrInvalidRequest):
		authsdk.ErrInvalidRequest.WithDescription(err.Error()).WriteError(w)
	case errors.As(err, &unauthorized):
		authsdk.ErrInvalidToken.WithDescription(unauthorized.Reason).WriteError(w)
	case errors.Is(err, service.ErrUnauthorized):
		authsdk.ErrInvalidToken.WriteError(w)
	case errors.Is(err, service.ErrNotFound):
		authsdk.ErrUserNotFound.WriteError(w)
	case errors.Is(err, service.ErrInvalidCode):
		authsdk.ErrInvalidCode.WriteError(w)
	case errors.Is(err, service.ErrDelivery):
		authsdk.ErrServerError.WithDescription("failed to send email").WriteError(w)
	case errors.Is(err, service.ErrStorageUnavailable):
		authsdk.ErrServerError.WithDescription("storage unavailable, retry later").WriteError(w)
	default:
		authsdk.ErrServerError.WriteError(w)
	}
}
