// Package apperr defines the error kinds shared by the authorization engine,
// the mutation protocol and the HTTP layer.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

type Kind string

const (
	KindAuthFailed     Kind = "AUTH_FAILED"
	KindForbidden      Kind = "FORBIDDEN"
	KindNotFound       Kind = "NOT_FOUND"
	KindDuplicate      Kind = "DB_DUPLICATE"
	KindInvalidRequest Kind = "INVALID_REQUEST"
	KindStorage        Kind = "DB_WRITE"
)

// Error carries a kind, the operation that produced it and an optional cause.
type Error struct {
	Kind    Kind
	Op      string
	Message string
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = string(e.Kind)
	}
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

func New(kind Kind, op, message string) *Error {
	return &Error{Kind: kind, Op: op, Message: message}
}

func Wrap(kind Kind, op, message string, err error) *Error {
	return &Error{Kind: kind, Op: op, Message: message, Err: err}
}

func NotFound(op, message string) *Error { return New(KindNotFound, op, message) }
func Forbidden(op, message string) *Error { return New(KindForbidden, op, message) }
func Invalid(op, message string) *Error { return New(KindInvalidRequest, op, message) }
func Duplicate(op, message string) *Error { return New(KindDuplicate, op, message) }
func AuthFailed(op, message string) *Error { return New(KindAuthFailed, op, message) }
func Storage(op string, err error) *Error { return Wrap(KindStorage, op, "storage write failed", err) }

// KindOf returns the kind of err. Errors that did not come from this package
// are reported as storage failures.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindStorage
}

// Is reports whether err carries kind k.
func Is(err error, k Kind) bool {
	return err != nil && KindOf(err) == k
}

// Message returns the client-facing message for err.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Message != "" {
		return e.Message
	}
	return "Internal server error"
}

func HTTPStatus(k Kind) int {
	switch k {
	case KindAuthFailed:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindDuplicate:
		return http.StatusConflict
	case KindInvalidRequest:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
