// Package apperr defines the typed failure taxonomy shared by every service.
//
// Services return *Error values; the HTTP boundary translates Kind into a
// status code and Code into a stable machine-readable identifier. Nothing
// in the codebase branches on error message text.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a failure for transport mapping.
type Kind string

const (
	KindValidation    Kind = "validation"
	KindAuth          Kind = "authentication"
	KindAuthorization Kind = "authorization"
	KindConflict      Kind = "conflict"
	KindNotFound      Kind = "not_found"
	KindInternal      Kind = "internal"
)

// Code is a stable machine-readable error code.
type Code string

const (
	// Validation
	CodeValidationFailed Code = "VALIDATION_FAILED"
	CodeStadiumRequired  Code = "STADIUM_REQUIRED"

	// Authentication
	CodeInvalidCredentials Code = "INVALID_CREDENTIALS"
	CodeTokenExpired       Code = "TOKEN_EXPIRED"
	CodeTokenRevoked       Code = "TOKEN_REVOKED"
	CodeInvalidSignature   Code = "INVALID_SIGNATURE"
	CodeInvalidToken       Code = "INVALID_TOKEN"

	// Authorization
	CodeCrossTenantAccess Code = "CROSS_TENANT_ACCESS"
	CodeRoomNotAssigned   Code = "ROOM_NOT_ASSIGNED"
	CodeInsufficientRole  Code = "INSUFFICIENT_ROLE"

	// Conflict
	CodeAlreadyCheckedIn Code = "ALREADY_CHECKED_IN"
	CodeNotCheckedIn     Code = "NOT_CHECKED_IN"
	CodeVersionConflict  Code = "VERSION_CONFLICT"

	CodeNotFound Code = "NOT_FOUND"
	CodeInternal Code = "INTERNAL"
)

// Kind returns the failure class a code belongs to.
func (c Code) Kind() Kind {
	switch c {
	case CodeValidationFailed, CodeStadiumRequired:
		return KindValidation
	case CodeInvalidCredentials, CodeTokenExpired, CodeTokenRevoked, CodeInvalidSignature, CodeInvalidToken:
		return KindAuth
	case CodeCrossTenantAccess, CodeRoomNotAssigned, CodeInsufficientRole:
		return KindAuthorization
	case CodeAlreadyCheckedIn, CodeNotCheckedIn, CodeVersionConflict:
		return KindConflict
	case CodeNotFound:
		return KindNotFound
	default:
		return KindInternal
	}
}

// HTTPStatus maps a failure class to its HTTP status.
func (k Kind) HTTPStatus() int {
	switch k {
	case KindValidation:
		return http.StatusUnprocessableEntity
	case KindAuth:
		return http.StatusUnauthorized
	case KindAuthorization:
		return http.StatusForbidden
	case KindConflict:
		return http.StatusConflict
	case KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// Error is a domain failure.
type Error struct {
	Code    Code
	Message string
	// Details carries structured context for clients (e.g. the prior
	// check-in time on ALREADY_CHECKED_IN).
	Details map[string]any
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

// Kind returns the failure class of the error.
func (e *Error) Kind() Kind { return e.Code.Kind() }

// WithDetail returns a copy of e carrying an additional detail entry.
func (e *Error) WithDetail(key string, value any) *Error {
	cp := *e
	cp.Details = make(map[string]any, len(e.Details)+1)
	for k, v := range e.Details {
		cp.Details[k] = v
	}
	cp.Details[key] = value
	return &cp
}

// New creates an error with the given code.
func New(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap creates an error with the given code that unwraps to cause.
func Wrap(cause error, code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), cause: cause}
}

func Validation(format string, args ...any) *Error {
	return New(CodeValidationFailed, format, args...)
}

func NotFound(format string, args ...any) *Error {
	return New(CodeNotFound, format, args...)
}

// As extracts a domain error from err's chain.
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// IsCode reports whether err carries the given code.
func IsCode(err error, code Code) bool {
	e, ok := As(err)
	return ok && e.Code == code
}

// KindOf returns the failure class of err; non-domain errors are internal.
func KindOf(err error) Kind {
	if e, ok := As(err); ok {
		return e.Kind()
	}
	return KindInternal
}
