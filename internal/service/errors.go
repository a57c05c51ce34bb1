package service

import "errors"

// Error categories. Every error returned by a service either matches one of these with
// errors.Is, wraps dbconn.ErrUnavailable, or is internal.
var (
	ErrValidation      = errors.New("validation failed")
	ErrConflict        = errors.New("conflict")
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrNotFound        = errors.New("not found")
)

// serviceError is a client-safe message tagged with its category.
type serviceError struct {
	kind error
	msg  string
}

func (e *serviceError) Error() string { return e.msg }
func (e *serviceError) Unwrap() error { return e.kind }

func newError(kind error, msg string) error {
	return &serviceError{kind: kind, msg: msg}
}

var (
	ErrFieldsRequired      = newError(ErrValidation, "all fields are required")
	ErrPasswordTooShort    = newError(ErrValidation, "password must be at least 6 characters")
	ErrPasswordTooLong     = newError(ErrValidation, "password must be at most 72 bytes")
	ErrCredentialsRequired = newError(ErrValidation, "email and password are required")
	ErrEmailTaken          = newError(ErrConflict, "email already registered")
	ErrInvalidCredentials  = newError(ErrUnauthenticated, "invalid credentials")
	ErrInvalidToken        = newError(ErrUnauthenticated, "invalid or expired token")
	ErrUserNotFound        = newError(ErrNotFound, "user not found")

	ErrContactFieldsRequired = newError(ErrValidation, "please provide name, email, and message")
	ErrMessageTooLong        = newError(ErrValidation, "message must be at most 5000 characters")
)
