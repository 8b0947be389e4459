package domain

import "errors"

// Sentinel errors for domain-level error discrimination.
// Services wrap these so handlers can map to HTTP status codes without leaking infrastructure details.
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrBadRequest   = errors.New("bad request")

	// ErrPersistence marks a failure of the backing key-value or document store.
	ErrPersistence = errors.New("persistence failure")
	// ErrEmailDispatch marks a failure to hand a message to the mail transport.
	ErrEmailDispatch = errors.New("email dispatch failure")
)
