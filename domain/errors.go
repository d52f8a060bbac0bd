package domain

import (
	"errors"
	"fmt"
)

// ErrorCode represents a semantic classification shared across transport layers.
type ErrorCode string

const (
	ErrCodeNotFound     ErrorCode = "NOT_FOUND"
	ErrCodeInvalid      ErrorCode = "INVALID"
	ErrCodeConflict     ErrorCode = "CONFLICT"
	ErrCodeState        ErrorCode = "STATE"
	ErrCodeUnavailable  ErrorCode = "UNAVAILABLE"
	ErrCodeForbidden    ErrorCode = "FORBIDDEN"
	ErrCodeUnauthorized ErrorCode = "UNAUTHORIZED"
	ErrCodeInternal     ErrorCode = "INTERNAL"
)

// Error represents a domain-level error.
type Error struct {
	Code    ErrorCode
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is matches another *Error with the same code and message, so sentinel
// comparisons keep working after a sentinel has been wrapped.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) || e == nil || t == nil {
		return false
	}
	return e.Code == t.Code && e.Message == t.Message
}

// NewError builds a domain error.
func NewError(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message}
}

// WrapError wraps an existing error with a domain classification.
func WrapError(code ErrorCode, message string, err error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Invalid is a shorthand for validation failures.
func Invalid(format string, args ...interface{}) *Error {
	return NewError(ErrCodeInvalid, fmt.Sprintf(format, args...))
}

// Unavailable marks err as a retryable collaborator failure.
func Unavailable(message string, err error) *Error {
	return WrapError(ErrCodeUnavailable, message, err)
}

// Common domain errors.
var (
	ErrUserNotFound        = NewError(ErrCodeNotFound, "user not found")
	ErrTaskNotFound        = NewError(ErrCodeNotFound, "task not found")
	ErrSessionNotFound     = NewError(ErrCodeNotFound, "session not found")
	ErrAuthSessionNotFound = NewError(ErrCodeNotFound, "auth session not found")
	ErrNoActiveSession     = NewError(ErrCodeNotFound, "no active session")
	ErrProofNotFound       = NewError(ErrCodeNotFound, "proof not found")
	ErrStreakNotFound      = NewError(ErrCodeNotFound, "streak not found")
	ErrActiveSessionExists = NewError(ErrCodeConflict, "an active session already exists")
	ErrEmailTaken          = NewError(ErrCodeConflict, "email already registered")
	ErrSessionClosed       = NewError(ErrCodeState, "session already ended")
	ErrUnauthorized        = NewError(ErrCodeUnauthorized, "unauthorized")
	ErrInvalidCredentials  = NewError(ErrCodeUnauthorized, "invalid email or password")
	ErrInvalidPayload      = NewError(ErrCodeInvalid, "invalid payload")
)

// IsDomainError helps checking error codes.
func IsDomainError(err error, code ErrorCode) bool {
	var dErr *Error
	if errors.As(err, &dErr) {
		return dErr.Code == code
	}
	return false
}

// CodeOf returns the code of the outermost domain error, or ErrCodeInternal.
func CodeOf(err error) ErrorCode {
	var dErr *Error
	if errors.As(err, &dErr) {
		return dErr.Code
	}
	return ErrCodeInternal
}

// IsRetryable reports whether the caller may retry err with backoff.
func IsRetryable(err error) bool {
	return IsDomainError(err, ErrCodeUnavailable)
}

// PublicMessage is the human-readable text for err that is safe to show to users.
func PublicMessage(err error) string {
	var dErr *Error
	if errors.As(err, &dErr) {
		if dErr.Code == ErrCodeInternal {
			return "internal error"
		}
		return dErr.Message
	}
	return "internal error"
}
