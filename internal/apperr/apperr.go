// Package apperr defines the closed set of domain error kinds and the immutable
// error value that carries them from the service layer to the HTTP boundary.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

// Kind enumerates the error categories understood by the HTTP boundary.
type Kind int

const (
	KindInternal Kind = iota
	KindNotFound
	KindValidation
	KindUnauthorized
	KindForbidden
	KindConflict
	KindRateLimit
	KindServiceUnavailable
)

type kindInfo struct {
	status  int
	code    string
	name    string
	message string
}

var kinds = map[Kind]kindInfo{
	KindNotFound:           {http.StatusNotFound, "RESOURCE_NOT_FOUND", "NotFoundError", "Resource not found"},
	KindValidation:         {http.StatusBadRequest, "VALIDATION_ERROR", "ValidationError", "Validation failed"},
	KindUnauthorized:       {http.StatusUnauthorized, "UNAUTHORIZED", "UnauthorizedError", "Unauthorized"},
	KindForbidden:          {http.StatusForbidden, "FORBIDDEN", "ForbiddenError", "Forbidden"},
	KindConflict:           {http.StatusConflict, "CONFLICT", "ConflictError", "Conflict"},
	KindRateLimit:          {http.StatusTooManyRequests, "RATE_LIMIT_EXCEEDED", "RateLimitError", "Too many requests"},
	KindServiceUnavailable: {http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "ServiceUnavailableError", "Service unavailable"},
	KindInternal:           {http.StatusInternalServerError, "INTERNAL_ERROR", "InternalError", "Internal server error"},
}

func (k Kind) info() kindInfo {
	if info, ok := kinds[k]; ok {
		return info
	}
	return kinds[KindInternal]
}

// Status is the HTTP status code associated with the kind.
func (k Kind) Status() int { return k.info().status }

// Code is the machine-readable error code associated with the kind.
func (k Kind) Code() string { return k.info().code }

// Name is the error name rendered in the "error" field.
func (k Kind) Name() string { return k.info().name }

func (k Kind) String() string { return k.info().code }

// Error is an immutable domain error. Construct it with New, Wrap or one of the
// per-kind helpers; all fields are fixed at construction time.
type Error struct {
	kind      Kind
	message   string
	details   any
	timestamp time.Time
	cause     error
}

// New builds an error of the given kind. An empty message falls back to the
// kind's default message. At most one details value is used.
func New(kind Kind, message string, details ...any) *Error {
	if message == "" {
		message = kind.info().message
	}
	var d any
	if len(details) > 0 {
		d = details[0]
	}
	return &Error{
		kind:      kind,
		message:   message,
		details:   d,
		timestamp: time.Now().UTC(),
	}
}

// Wrap builds an error of the given kind that keeps cause for diagnostics.
func Wrap(kind Kind, message string, cause error) *Error {
	e := New(kind, message)
	e.cause = cause
	return e
}

func NotFound(message string, details ...any) *Error {
	return New(KindNotFound, message, details...)
}

func Validation(message string, details ...any) *Error {
	return New(KindValidation, message, details...)
}

func Unauthorized(message string, details ...any) *Error {
	return New(KindUnauthorized, message, details...)
}

func Forbidden(message string, details ...any) *Error {
	return New(KindForbidden, message, details...)
}

func Conflict(message string, details ...any) *Error {
	return New(KindConflict, message, details...)
}

func RateLimit(message string, details ...any) *Error {
	return New(KindRateLimit, message, details...)
}

func ServiceUnavailable(message string, details ...any) *Error {
	return New(KindServiceUnavailable, message, details...)
}

func Internal(message string, details ...any) *Error {
	return New(KindInternal, message, details...)
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.kind.Code(), e.message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.kind.Code(), e.message)
}

// Unwrap exposes the cause to errors.Is / errors.As.
func (e *Error) Unwrap() error { return e.cause }

// Is matches another *Error of the same kind.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return t.kind == e.kind
	}
	return false
}

func (e *Error) Kind() Kind           { return e.kind }
func (e *Error) Message() string      { return e.message }
func (e *Error) Status() int          { return e.kind.Status() }
func (e *Error) Code() string         { return e.kind.Code() }
func (e *Error) Name() string         { return e.kind.Name() }
func (e *Error) Details() any         { return e.details }
func (e *Error) Timestamp() time.Time { return e.timestamp }

// KindOf reports the kind of the first *Error found in err's chain.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.kind, true
	}
	return KindInternal, false
}

// IsKind reports whether err's chain contains an *Error of the given kind.
func IsKind(err error, kind Kind) bool {
	k, ok := KindOf(err)
	return ok && k == kind
}

// KindForStatus returns the kind whose status equals status, if any.
func KindForStatus(status int) (Kind, bool) {
	for k, info := range kinds {
		if info.status == status {
			return k, true
		}
	}
	return KindInternal, false
}
