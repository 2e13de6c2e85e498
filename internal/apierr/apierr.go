// Package apierr is the single place where internal errors become HTTP responses.
// Every error body has the shape {"success":false,"message":...,"errorCode":...}.
package apierr

import (
	"errors"
	"net/http"
)

type Kind string

const (
	KindValidation         Kind = "validation"
	KindInvalidCredentials Kind = "invalid_credentials"
	KindUnauthorized       Kind = "unauthorized"
	KindForbidden          Kind = "forbidden"
	KindNotFound           Kind = "not_found"
	KindMethodNotAllowed   Kind = "method_not_allowed"
	KindConflict           Kind = "conflict"
	KindRateLimited        Kind = "rate_limited"
	KindInternal           Kind = "internal"
)

// Error is a client-safe error. Message is shown to the caller verbatim.
type Error struct {
	Kind    Kind
	Message string
	Code    string
	Details map[string]string
}

func (e *Error) Error() string { return string(e.Kind) + ": " + e.Message }

// Status maps the kind to its HTTP status code.
func (e *Error) Status() int {
	switch e.Kind {
	case KindValidation:
		return http.StatusBadRequest
	case KindInvalidCredentials, KindUnauthorized:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindMethodNotAllowed:
		return http.StatusMethodNotAllowed
	case KindConflict:
		return http.StatusConflict
	case KindRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

func Validation(msg string, details map[string]string) *Error {
	return &Error{Kind: KindValidation, Message: msg, Code: "VALIDATION_ERROR", Details: details}
}

// InvalidCredentials is shared by "no such user" and "wrong password".
func InvalidCredentials() *Error {
	return &Error{Kind: KindInvalidCredentials, Message: "Invalid email or password", Code: "INVALID_CREDENTIALS"}
}

func Unauthorized(msg string) *Error {
	if msg == "" {
		msg = "Authentication required"
	}
	return &Error{Kind: KindUnauthorized, Message: msg, Code: "UNAUTHORIZED"}
}

// SessionExpired is the uniform refresh failure.
func SessionExpired() *Error {
	return &Error{Kind: KindUnauthorized, Message: "Session expired, please login again", Code: "SESSION_EXPIRED"}
}

func Forbidden(msg string) *Error {
	if msg == "" {
		msg = "You do not have permission to perform this action"
	}
	return &Error{Kind: KindForbidden, Message: msg, Code: "FORBIDDEN"}
}

func NotFound(msg string) *Error {
	if msg == "" {
		msg = "Resource not found"
	}
	return &Error{Kind: KindNotFound, Message: msg, Code: "NOT_FOUND"}
}

func MethodNotAllowed() *Error {
	return &Error{Kind: KindMethodNotAllowed, Message: "Method not allowed", Code: "METHOD_NOT_ALLOWED"}
}

func Conflict(msg string) *Error {
	return &Error{Kind: KindConflict, Message: msg, Code: "CONFLICT"}
}

func RateLimited() *Error {
	return &Error{Kind: KindRateLimited, Message: "Too many requests, please slow down", Code: "RATE_LIMITED"}
}

func Internal() *Error {
	return &Error{Kind: KindInternal, Message: "Internal server error", Code: "INTERNAL_ERROR"}
}

// From returns err as an *Error, or a generic internal error when err carries no
// client-safe classification.
func From(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Internal()
}

// Is reports whether err is an *Error of the given kind.
func Is(err error, kind Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}
