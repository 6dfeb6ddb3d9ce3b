package api

import (
	"errors"
	"fmt"
)

// Kind classifies a request failure. It is set once, where the HTTP exchange
// happens, so callers never need to inspect messages.
type Kind string

const (
	KindTransport    Kind = "transport"
	KindTimeout      Kind = "timeout"
	KindStatus       Kind = "status"
	KindUnauthorized Kind = "unauthorized"
	KindMalformed    Kind = "malformed"
)

// DefaultErrorMessage is used when a failed response carries no message.
const DefaultErrorMessage = "request failed"

// Error is the uniform failure returned by Client.
type Error struct {
	Kind    Kind
	Status  int
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s (%d): %s", e.Kind, e.Status, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf returns the kind of err, or "" when err did not come from Client.
func KindOf(err error) Kind {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Kind
	}
	return ""
}

// IsUnauthorized reports whether the server rejected the session.
func IsUnauthorized(err error) bool { return KindOf(err) == KindUnauthorized }

// IsTimeout reports whether the request exceeded its deadline.
func IsTimeout(err error) bool { return KindOf(err) == KindTimeout }

// Message returns the human readable message carried by err.
func Message(err error) string {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	if err == nil {
		return ""
	}
	return err.Error()
}
