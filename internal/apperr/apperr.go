// Package apperr defines the error kinds surfaced by the API and their HTTP mapping.
package apperr

import (
	"errors"
	"net/http"
)

// Kind classifies an application error
type Kind string

const (
	KindUnauthorized  Kind = "Unauthorized"
	KindValidation    Kind = "ValidationError"
	KindQuotaExceeded Kind = "QuotaExceeded"
	KindNotFound      Kind = "NotFound"
	KindRateLimited   Kind = "RateLimited"
	KindUpstream      Kind = "UpstreamProviderError"
	KindPersistence   Kind = "PersistenceError"
	KindParse         Kind = "ParseError"
	KindInternal      Kind = "InternalError"
)

// Error is an application error with a kind and a caller-safe message
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		if e.Message != "" {
			return e.Message + ": " + e.Err.Error()
		}
		return e.Err.Error()
	}
	if e.Message != "" {
		return e.Message
	}
	return string(e.Kind)
}

func (e *Error) Unwrap() error { return e.Err }

// New creates an Error of the given kind
func New(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

func Unauthorized(message string) *Error {
	return New(KindUnauthorized, message, nil)
}

func Validation(message string) *Error {
	return New(KindValidation, message, nil)
}

func QuotaExceeded(message string) *Error {
	return New(KindQuotaExceeded, message, nil)
}

func NotFound(message string) *Error {
	return New(KindNotFound, message, nil)
}

func RateLimited(message string) *Error {
	return New(KindRateLimited, message, nil)
}

func Upstream(message string, err error) *Error {
	return New(KindUpstream, message, err)
}

func Persistence(message string, err error) *Error {
	return New(KindPersistence, message, err)
}

func Parse(message string, err error) *Error {
	return New(KindParse, message, err)
}

// KindOf returns the kind of the first Error in err's chain, or KindInternal
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

// Is reports whether err carries the given kind
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// HTTPStatus maps an error kind to its response status code
func HTTPStatus(kind Kind) int {
	switch kind {
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindValidation:
		return http.StatusBadRequest
	case KindQuotaExceeded:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// PublicMessage returns the message that is safe to show to the caller.
// Server-side kinds never expose their wrapped detail.
func PublicMessage(err error) string {
	var appErr *Error
	if !errors.As(err, &appErr) {
		return "An unexpected error occurred"
	}
	switch appErr.Kind {
	case KindUnauthorized, KindValidation, KindQuotaExceeded, KindNotFound, KindRateLimited:
		if appErr.Message != "" {
			return appErr.Message
		}
		return string(appErr.Kind)
	default:
		if appErr.Message != "" {
			return appErr.Message
		}
		return "An unexpected error occurred"
	}
}
