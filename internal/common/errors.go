// Package common defines shared constants and sentinel errors used across
// the gearhub server layers. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Service-level errors.
	ErrorInternal        = errors.New("internal error")
	ErrorValidation      = errors.New("validation error")
	ErrAlreadySettled    = errors.New("order already settled")
	ErrInsufficientStock = errors.New("insufficient stock")

	// ErrUpstream marks failures of the store or the payment processor.
	// They are retryable from the caller's point of view.
	ErrUpstream = errors.New("upstream failure")

	// Access errors.
	ErrorUnauthenticated = errors.New("unauthenticated")
	ErrorForbidden       = errors.New("forbidden")

	// Token verification errors.
	ErrTokenMalformed   = errors.New("token malformed")
	ErrTokenExpired     = errors.New("token expired")
	ErrInvalidSignature = errors.New("token signature invalid")
)
