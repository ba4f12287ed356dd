package api

import (
	"errors"
	"fmt"
)

// Sentinel errors for the failure taxonomy of POS API calls.
var (
	// ErrTransport covers network failures and non-2xx statuses.
	ErrTransport = errors.New("transport failure")
	// ErrMalformedResponse means the body was not the JSON shape expected.
	ErrMalformedResponse = errors.New("malformed response")
	// ErrUnsuccessful means the envelope carried success=false.
	ErrUnsuccessful = errors.New("unsuccessful response")
	// ErrUnauthorized means the API rejected the bearer token (401/403).
	ErrUnauthorized = errors.New("unauthorized")
)

// Kind classifies an API failure.
type Kind string

const (
	KindTransport    Kind = "transport"
	KindMalformed    Kind = "malformed"
	KindUnsuccessful Kind = "unsuccessful"
	KindUnauthorized Kind = "unauthorized"
)

// Error describes a failed API call.
// It wraps one of the sentinel errors so callers can use errors.Is.
type Error struct {
	Op      string // Endpoint operation, e.g. "products.list"
	Kind    Kind
	Status  int    // HTTP status, zero when no response arrived
	Message string // Server-provided message, if any
	Err     error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Op, e.Kind)
	if e.Status != 0 {
		msg += fmt.Sprintf(" (HTTP %d)", e.Status)
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(op string, kind Kind, status int, message string, cause error) *Error {
	var sentinel error
	switch kind {
	case KindTransport:
		sentinel = ErrTransport
	case KindMalformed:
		sentinel = ErrMalformedResponse
	case KindUnsuccessful:
		sentinel = ErrUnsuccessful
	case KindUnauthorized:
		sentinel = ErrUnauthorized
	}
	err := sentinel
	if cause != nil {
		err = fmt.Errorf("%w: %w", sentinel, cause)
	}
	return &Error{Op: op, Kind: kind, Status: status, Message: message, Err: err}
}

// KindOf returns the Kind of an API error, or "" when err is not one.
func KindOf(err error) Kind {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Kind
	}
	return ""
}

// IsUnauthorized reports whether the API rejected the session token.
func IsUnauthorized(err error) bool {
	return errors.Is(err, ErrUnauthorized)
}
