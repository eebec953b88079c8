package client

import (
	"errors"
	"fmt"
	"net/http"
)

// Kinds of failure. Every error returned by Client unwraps to exactly one.
var (
	ErrAuth       = errors.New("authentication error")
	ErrValidation = errors.New("validation error")
	ErrNotFound   = errors.New("not found")
	ErrTransport  = errors.New("transport error")
)

// Error carries a human readable message: the server's own text when it
// sent one, otherwise a generic description.
type Error struct {
	Kind       error
	StatusCode int
	Message    string
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Kind
}

func newError(kind error, status int, format string, args ...any) *Error {
	return &Error{
		Kind:       kind,
		StatusCode: status,
		Message:    fmt.Sprintf(format, args...),
	}
}

func validationError(format string, args ...any) *Error {
	return newError(ErrValidation, 0, format, args...)
}

func kindForStatus(code int) error {
	switch code {
	case http.StatusUnauthorized:
		return ErrAuth
	// 403 refuses the request itself, e.g. a proxy domain outside the
	// allow list. The credential stays valid.
	case http.StatusBadRequest, http.StatusForbidden, http.StatusConflict, http.StatusUnprocessableEntity:
		return ErrValidation
	case http.StatusNotFound:
		return ErrNotFound
	default:
		return ErrTransport
	}
}

// ErrorResponse is the body shape the service uses for failures.
type ErrorResponse struct {
	Err string `json:"error"`
}
