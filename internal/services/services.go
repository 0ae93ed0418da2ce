package services

import (
	"fmt"
	"net/http"

	"github.com/desertthunder/scorify/internal/shared"
)

// ErrorKind classifies a [TransportError].
type ErrorKind int

const (
	KindUnknown ErrorKind = iota
	KindUnauthorized
	KindAuthExpired
)

func (k ErrorKind) String() string {
	switch k {
	case KindUnauthorized:
		return "unauthorized"
	case KindAuthExpired:
		return "auth_expired"
	default:
		return "unknown"
	}
}

// NavigationKind enumerates the navigation commands the core can emit.
type NavigationKind int

const (
	NavigateNone NavigationKind = iota
	NavigateLogin
)

// Navigation is a command for the shell. The core never navigates by itself.
type Navigation struct {
	Kind NavigationKind
	URL  string
}

// Required reports whether the shell has to act on the command.
func (n Navigation) Required() bool {
	return n.Kind != NavigateNone
}

// TransportError is the failure half of every backend call.
type TransportError struct {
	Kind       ErrorKind
	Status     int
	Message    string
	Navigation Navigation
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s (%d): %s", e.Kind, e.Status, e.Message)
}

// Unwrap maps the kind onto the shared sentinel errors.
func (e *TransportError) Unwrap() error {
	switch e.Kind {
	case KindAuthExpired:
		return shared.ErrTokenExpired
	case KindUnauthorized:
		return shared.ErrNotAuthenticated
	default:
		return shared.ErrAPIRequest
	}
}

// Redirect reports whether the failure requires sending the user to the login page.
func (e *TransportError) Redirect() bool {
	return e.Kind == KindAuthExpired || e.Kind == KindUnauthorized
}

func unknownError(status int, message string) *TransportError {
	if message == "" {
		message = http.StatusText(status)
	}
	return &TransportError{Kind: KindUnknown, Status: status, Message: message}
}

// Result is the tagged outcome of a fetcher: Err is nil on success.
type Result[T any] struct {
	Value  T
	Status int
	Err    *TransportError
}

// Success builds a successful [Result].
func Success[T any](v T, status int) Result[T] {
	return Result[T]{Value: v, Status: status}
}

// Failure builds a failed [Result] carrying the error's status.
func Failure[T any](err *TransportError) Result[T] {
	return Result[T]{Status: err.Status, Err: err}
}

// OK reports whether the result is a success.
func (r Result[T]) OK() bool {
	return r.Err == nil
}
