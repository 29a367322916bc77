// Package apperr defines the error kinds surfaced by the funding-request
// attachment and access-control core.
//
// Everything below the HTTP layer translates filesystem, resolution and
// storage failures into an *Error carrying one of the Kind values below, so
// callers can switch on a stable, machine-checkable kind instead of
// inspecting low-level errors.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind is a stable, machine-checkable error category.
type Kind string

const (
	Unauthorized       Kind = "unauthorized"
	Forbidden          Kind = "forbidden"
	NotFound           Kind = "not_found"
	InvalidIndex       Kind = "invalid_index"
	InvalidKind        Kind = "invalid_kind"
	PayloadTooLarge    Kind = "payload_too_large"
	TooManyAttachments Kind = "too_many_attachments"
	IntegrityFault     Kind = "integrity_fault"
	InvalidUpload      Kind = "invalid_upload"
	BadRequest         Kind = "bad_request"
	RateLimited        Kind = "rate_limited"
	Internal           Kind = "internal"
)

// Error is a typed error with a short human message and an optional cause.
// The cause is for server-side logs only and is never rendered to clients.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// Is lets errors.Is(err, apperr.New(kind, "")) match on kind alone.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// New returns an *Error of the given kind.
func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

// Wrap returns an *Error of the given kind that keeps err as its cause.
func Wrap(kind Kind, msg string, err error) *Error {
	return &Error{Kind: kind, Message: msg, Err: err}
}

// KindOf reports the kind of err. Untyped errors are Internal.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Internal
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// Status maps a kind to its HTTP status code.
func Status(kind Kind) int {
	switch kind {
	case Unauthorized:
		return http.StatusUnauthorized
	case Forbidden:
		return http.StatusForbidden
	case NotFound, IntegrityFault:
		return http.StatusNotFound
	case InvalidIndex, InvalidKind, InvalidUpload, BadRequest:
		return http.StatusBadRequest
	case PayloadTooLarge:
		return http.StatusRequestEntityTooLarge
	case TooManyAttachments:
		return http.StatusConflict
	case RateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}
