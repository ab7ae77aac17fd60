// Package apperr carries a classified error from handlers to the HTTP
// error responder.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

type Kind string

const (
	KindValidation         Kind = "VALIDATION_FAILED"
	KindUnauthenticated    Kind = "UNAUTHENTICATED"
	KindInvalidCredentials Kind = "INVALID_CREDENTIALS"
	KindForbidden          Kind = "FORBIDDEN"
	KindNotFound           Kind = "NOT_FOUND"
	KindServer             Kind = "SERVER_ERROR"
)

var statusByKind = map[Kind]int{
	KindValidation:         http.StatusUnprocessableEntity,
	KindUnauthenticated:    http.StatusUnauthorized,
	KindInvalidCredentials: http.StatusUnauthorized,
	KindForbidden:          http.StatusForbidden,
	KindNotFound:           http.StatusNotFound,
	KindServer:             http.StatusInternalServerError,
}

// FieldError describes one rejected input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type Error struct {
	Kind    Kind
	Message string
	Details []FieldError
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.cause }

// Status is the HTTP status for the error's kind.
func (e *Error) Status() int {
	if s, ok := statusByKind[e.Kind]; ok {
		return s
	}
	return http.StatusInternalServerError
}

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap classifies cause under kind.
func Wrap(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, cause: cause}
}

func Validation(message string, details []FieldError) *Error {
	return &Error{Kind: KindValidation, Message: message, Details: details}
}

func Unauthenticated(message string) *Error    { return New(KindUnauthenticated, message) }
func InvalidCredentials(message string) *Error { return New(KindInvalidCredentials, message) }
func Forbidden(message string) *Error          { return New(KindForbidden, message) }
func NotFound(message string) *Error           { return New(KindNotFound, message) }

func Internal(cause error) *Error {
	return Wrap(KindServer, "An internal error occurred.", cause)
}

// As extracts an *Error from the chain.
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// IsKind reports whether err is classified as kind.
func IsKind(err error, kind Kind) bool {
	e, ok := As(err)
	return ok && e.Kind == kind
}
