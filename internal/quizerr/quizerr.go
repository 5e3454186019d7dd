// Package quizerr provides the failure taxonomy shared by services and the
// route layer, with mapping to HTTP status codes.
package quizerr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind categorizes a failure for response mapping.
type Kind string

const (
	// KindNotFound indicates an unknown quiz, question or team (HTTP 404).
	KindNotFound Kind = "not_found"
	// KindForbidden indicates an authorization failure (HTTP 403).
	KindForbidden Kind = "forbidden"
	// KindInvalidState indicates an operation illegal for the current lifecycle state (HTTP 422).
	KindInvalidState Kind = "invalid_state"
	// KindConflict indicates a duplicate team name or concurrent roster mutation (HTTP 409).
	KindConflict Kind = "conflict"
	// KindInvalidInput indicates malformed configuration (HTTP 400).
	KindInvalidInput Kind = "invalid_input"
	// KindInternal indicates an infrastructure failure (HTTP 500).
	KindInternal Kind = "internal"
)

// Error is a categorized failure with an optional underlying cause.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *Error) Unwrap() error {
	return e.Cause
}

// HTTPStatus returns the status code the route layer should respond with.
func (e *Error) HTTPStatus() int {
	switch e.Kind {
	case KindNotFound:
		return http.StatusNotFound
	case KindForbidden:
		return http.StatusForbidden
	case KindInvalidState:
		return http.StatusUnprocessableEntity
	case KindConflict:
		return http.StatusConflict
	case KindInvalidInput:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func NotFound(message string) *Error {
	return &Error{Kind: KindNotFound, Message: message}
}

func Forbidden(message string) *Error {
	return &Error{Kind: KindForbidden, Message: message}
}

func InvalidState(message string) *Error {
	return &Error{Kind: KindInvalidState, Message: message}
}

func Conflict(message string) *Error {
	return &Error{Kind: KindConflict, Message: message}
}

func InvalidInput(message string) *Error {
	return &Error{Kind: KindInvalidInput, Message: message}
}

func Internal(message string, cause error) *Error {
	return &Error{Kind: KindInternal, Message: message, Cause: cause}
}

// From coerces any error into an *Error. Errors already carrying a kind are
// returned unchanged; everything else is wrapped as internal.
func From(err error) *Error {
	if err == nil {
		return nil
	}
	var qe *Error
	if errors.As(err, &qe) {
		return qe
	}
	return Internal("internal error", err)
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	var qe *Error
	return errors.As(err, &qe) && qe.Kind == kind
}
