package service

import "errors"

var (
	// ErrUnauthorized is the root of every credential rejection. Match it
	// with errors.Is; the concrete *UnauthorizedError carries the reason.
	ErrUnauthorized = errors.New("unauthorized")

	ErrStorageUnavailable = errors.New("storage unavailable")
	ErrNotFound           = errors.New("not found")
	ErrDelivery           = errors.New("email delivery failed")
	ErrInvalidCode        = errors.New("invalid or expired code")
	ErrInvalidRequest     = errors.New("invalid request")
)

// UnauthorizedError is a credential rejection with a client-safe reason.
type UnauthorizedError struct {
	Reason string
}

func (e *UnauthorizedError) Error() string { return e.Reason }

func (e *UnauthorizedError) Is(target error) bool { return target == ErrUnauthorized }

var (
	ErrTokenInvalid    = &UnauthorizedError{Reason: "invalid token"}
	ErrTokenExpired    = &UnauthorizedError{Reason: "token expired"}
	ErrNoRefreshToken  = &UnauthorizedError{Reason: "no refresh token found"}
	ErrRefreshMismatch = &UnauthorizedError{Reason: "refresh token does not match"}
	ErrRefreshExpired  = &UnauthorizedError{Reason: "refresh token expired"}
)
