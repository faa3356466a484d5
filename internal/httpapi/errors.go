package httpapi

import (
	"fmt"
	"net/http"
)

// StatusError is a transport-level failure (unknown route, wrong method,
// oversized body) that carries its own HTTP status.
type StatusError struct {
	Status  int
	Message string
	Err     error
}

func (e *StatusError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%d %s: %v", e.Status, e.Message, e.Err)
	}
	return fmt.Sprintf("%d %s", e.Status, e.Message)
}

func (e *StatusError) Unwrap() error { return e.Err }

func errRouteNotFound(r *http.Request) error {
	return &StatusError{Status: http.StatusNotFound, Message: fmt.Sprintf("Cannot %s %s", r.Method, r.URL.Path)}
}

func errMethodNotAllowed() error {
	return &StatusError{Status: http.StatusMethodNotAllowed, Message: "Method not allowed"}
}

// panicError carries a recovered panic value and the stack at recovery.
type panicError struct {
	value any
	stack []byte
}

func (e *panicError) Error() string { return fmt.Sprintf("panic: %v", e.value) }
