package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for domain-level error discrimination.
// Services wrap these so handlers can map to HTTP status codes without leaking infrastructure details.
var (
	ErrNotFound        = errors.New("not found")
	ErrConflict        = errors.New("conflict")
	ErrUnauthorized    = errors.New("unauthorized")
	ErrForbidden       = errors.New("forbidden")
	ErrBadRequest      = errors.New("bad request")
	ErrTooManyRequests = errors.New("too many requests")
)

// Authentication failures. Both wrap ErrUnauthorized.
var (
	ErrInvalidCredentials = fmt.Errorf("invalid credentials: %w", ErrUnauthorized)
	ErrWrongLoginMethod   = fmt.Errorf("account uses a different sign-in method: %w", ErrUnauthorized)
)

// One-time code failures.
var (
	ErrNoPendingCode   = errors.New("no pending verification code")
	ErrCodeExpired     = errors.New("verification code expired")
	ErrCodeMismatch    = errors.New("verification code is incorrect")
	ErrTooManyAttempts = errors.New("too many failed verification attempts")
)

// IsCodeError reports whether err belongs to the one-time code family.
func IsCodeError(err error) bool {
	return errors.Is(err, ErrNoPendingCode) ||
		errors.Is(err, ErrCodeExpired) ||
		errors.Is(err, ErrCodeMismatch)
}
