package domain

import (
	"errors"
	"fmt"
)

// ErrorCode represents a semantic classification shared across transport layers.
type ErrorCode string

const (
	ErrCodeNotFound           ErrorCode = "NOT_FOUND"
	ErrCodeValidation         ErrorCode = "VALIDATION"
	ErrCodeConflict           ErrorCode = "CONFLICT"
	ErrCodeInvalidCredentials ErrorCode = "INVALID_CREDENTIALS"
	ErrCodeInvalidToken       ErrorCode = "INVALID_TOKEN"
	ErrCodeUnauthenticated    ErrorCode = "UNAUTHENTICATED"
	ErrCodeForbidden          ErrorCode = "FORBIDDEN"
	ErrCodeThrottled          ErrorCode = "THROTTLED"
	ErrCodeInternal           ErrorCode = "INTERNAL"
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

// Common domain errors. Credential failures deliberately collapse into
// non-distinguishing messages so responses cannot be used to enumerate
// accounts.
var (
	ErrUserNotFound       = NewError(ErrCodeNotFound, "user not found")
	ErrCarNotFound        = NewError(ErrCodeNotFound, "car not found")
	ErrEmailTaken         = NewError(ErrCodeConflict, "email already in use")
	ErrInvalidCredentials = NewError(ErrCodeInvalidCredentials, "incorrect email or password")
	ErrInvalidOrExpired   = NewError(ErrCodeInvalidToken, "token is invalid or has expired")
	ErrUnauthenticated    = NewError(ErrCodeUnauthenticated, "you are not logged in")
	ErrTooManyAttempts    = NewError(ErrCodeThrottled, "too many login attempts, try again later")
	ErrInvalidPayload     = NewError(ErrCodeValidation, "invalid payload")
)

// IsDomainError helps checking error codes.
func IsDomainError(err error, code ErrorCode) bool {
	var dErr *Error
	if errors.As(err, &dErr) {
		return dErr.Code == code
	}
	return false
}
