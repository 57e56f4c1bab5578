package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindNotFound
	KindStateConflict
	KindUpstream
	KindMalformed
	KindPersistence
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "ValidationError"
	case KindNotFound:
		return "NotFoundError"
	case KindStateConflict:
		return "StateConflictError"
	case KindUpstream:
		return "UpstreamUnavailable"
	case KindMalformed:
		return "MalformedMessage"
	case KindPersistence:
		return "PersistenceError"
	default:
		return "InternalFailure"
	}
}

// Error carries a Kind plus the operator-facing message. Err is the wrapped cause.
type Error struct {
	Kind    Kind
	Op      string
	Message string
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

func E(kind Kind, op, message string, err error) *Error {
	return &Error{Kind: kind, Op: op, Message: message, Err: err}
}

func Validation(op, message string) *Error { return E(KindValidation, op, message, nil) }

func NotFound(op, message string) *Error { return E(KindNotFound, op, message, nil) }

func Conflict(op, message string) *Error { return E(KindStateConflict, op, message, nil) }

func Upstream(op, message string, err error) *Error { return E(KindUpstream, op, message, err) }

func Persistence(op, message string, err error) *Error {
	return E(KindPersistence, op, message, err)
}

// KindOf returns KindInternal for errors that were not produced by this package.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// Message returns the outermost operator-facing message, or a generic one.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Message != "" {
		return e.Message
	}
	return "An unexpected error occurred"
}

func HTTPStatus(kind Kind) int {
	switch kind {
	case KindValidation, KindMalformed:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindStateConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// Status maps err straight to an HTTP status code.
func Status(err error) int { return HTTPStatus(KindOf(err)) }

// Body is the JSON error body returned by the control API.
func Body(err error) map[string]string { return map[string]string{"message": Message(err)} }
