// Package errors provides unified error handling with a small set of error kinds
// shared by every provider client and the HTTP surface.
package errors

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/http"
)

// Kind classifies a failure so callers can decide whether to retry, skip or surface it.
type Kind uint8

const (
	Unknown Kind = iota
	Internal
	InvalidArgument
	NotFound
	Unavailable       // missing credential or circuit open
	ProviderFailed    // network or model error from an external provider
	MalformedResponse // unparseable or incomplete provider payload
	EmptyInput        // nothing to work with: no transcript, no text for TTS
	Timeout
	Cancelled
	RateLimited
)

var kindNames = [...]string{
	Unknown:           "UNKNOWN",
	Internal:          "INTERNAL",
	InvalidArgument:   "INVALID_ARGUMENT",
	NotFound:          "NOT_FOUND",
	Unavailable:       "UNAVAILABLE",
	ProviderFailed:    "PROVIDER_FAILED",
	MalformedResponse: "MALFORMED_RESPONSE",
	EmptyInput:        "EMPTY_INPUT",
	Timeout:           "TIMEOUT",
	Cancelled:         "CANCELLED",
	RateLimited:       "RATE_LIMITED",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return kindNames[Unknown]
}

// httpStatusMap maps kinds to the status the HTTP surface reports.
var httpStatusMap = map[Kind]int{
	Unknown:           http.StatusInternalServerError,
	Internal:          http.StatusInternalServerError,
	InvalidArgument:   http.StatusBadRequest,
	NotFound:          http.StatusNotFound,
	Unavailable:       http.StatusServiceUnavailable,
	ProviderFailed:    http.StatusBadGateway,
	MalformedResponse: http.StatusBadGateway,
	EmptyInput:        http.StatusUnprocessableEntity,
	Timeout:           http.StatusGatewayTimeout,
	Cancelled:         499,
	RateLimited:       http.StatusTooManyRequests,
}

// AppError is the base error type with a kind and metadata.
type AppError struct {
	Kind     Kind
	Message  string
	Metadata map[string]string
	Cause    error
}

// Error implements the error interface.
func (e *AppError) Error() string {
	s := fmt.Sprintf("[%s] %s", e.Kind, e.Message)
	if len(e.Metadata) > 0 {
		s += fmt.Sprintf(" %v", e.Metadata)
	}
	if e.Cause != nil {
		s += fmt.Sprintf(" caused by: %v", e.Cause)
	}
	return s
}

// Unwrap returns the underlying cause for errors.Is/As.
func (e *AppError) Unwrap() error { return e.Cause }

// HTTPStatus returns the status code the kind maps to.
func (e *AppError) HTTPStatus() int {
	if c, ok := httpStatusMap[e.Kind]; ok {
		return c
	}
	return http.StatusInternalServerError
}

// New creates a new AppError with the given kind and message.
func New(kind Kind, msg string) *AppError {
	return &AppError{Kind: kind, Message: msg}
}

// Newf creates a new AppError with formatted message.
func Newf(kind Kind, format string, args ...any) *AppError {
	return &AppError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap wraps an existing error with an AppError.
func Wrap(err error, kind Kind, msg string) *AppError {
	return &AppError{Kind: kind, Message: msg, Cause: err}
}

// Wrapf wraps an existing error with formatted message.
func Wrapf(err error, kind Kind, format string, args ...any) *AppError {
	return &AppError{Kind: kind, Message: fmt.Sprintf(format, args...), Cause: err}
}

// WithMetadata adds metadata to an AppError.
func (e *AppError) WithMetadata(key, value string) *AppError {
	if e.Metadata == nil {
		e.Metadata = make(map[string]string)
	}
	e.Metadata[key] = value
	return e
}

// KindOf reports the kind of err. Context errors map to Timeout and Cancelled
// even when they were never wrapped.
func KindOf(err error) Kind {
	if err == nil {
		return Unknown
	}
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Kind
	}
	switch {
	case stderrors.Is(err, context.DeadlineExceeded):
		return Timeout
	case stderrors.Is(err, context.Canceled):
		return Cancelled
	}
	return Unknown
}

// IsKind checks if an error carries a specific kind.
func IsKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// IsRetryable returns true if the error is potentially retryable.
func IsRetryable(err error) bool {
	switch KindOf(err) {
	case ProviderFailed, Timeout, RateLimited:
		return true
	default:
		return false
	}
}

// HTTPStatus returns the HTTP status for any error.
func HTTPStatus(err error) int {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.HTTPStatus()
	}
	return http.StatusInternalServerError
}

// FromHTTPStatus classifies a non-2xx provider response.
func FromHTTPStatus(code int, msg string) *AppError {
	var kind Kind
	switch {
	case code == http.StatusTooManyRequests:
		kind = RateLimited
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		kind = Unavailable
	case code == http.StatusRequestTimeout || code == http.StatusGatewayTimeout:
		kind = Timeout
	case code >= 400 && code < 500:
		kind = InvalidArgument
	default:
		kind = ProviderFailed
	}
	return New(kind, msg).WithMetadata("status", fmt.Sprint(code))
}

// FromTransport classifies a failed provider round trip. Classified errors and
// context expiry keep their kind; anything else is ProviderFailed.
func FromTransport(err error, msg string) *AppError {
	kind := KindOf(err)
	if kind == Unknown {
		kind = ProviderFailed
	}
	return Wrap(err, kind, msg)
}
