package jwtx

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformed covers anything structurally wrong: bad segments, unknown
	// algorithm families, missing exp or sub, wrong issuer.
	ErrMalformed = errors.New("jwtx: malformed token")

	// ErrSignatureInvalid means the token parsed but its signature did not
	// match. Treat it as tampering.
	ErrSignatureInvalid = errors.New("jwtx: invalid signature")

	// ErrExpired is only returned when the signature checked out and the
	// clock check failed.
	ErrExpired = errors.New("jwtx: token expired")

	// ErrPurposeMismatch wraps ErrMalformed so callers that only care about
	// the three-way split can keep using errors.Is(err, ErrMalformed).
	ErrPurposeMismatch = fmt.Errorf("%w: purpose mismatch", ErrMalformed)

	// ErrWeakSecret is returned by NewHS256 for secrets shorter than MinSecretSize.
	ErrWeakSecret = errors.New("jwtx: secret too short")
)
