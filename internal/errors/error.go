// Package errors provides the typed error taxonomy shared by every request stage.
package errors

import (
	"errors"
	"net/http"
)

var ErrProductNotFound = errors.New("product not found")

// Kind classifies an Error and decides its HTTP status.
type Kind int

const (
	KindInternal Kind = iota
	KindNotFound
	KindValidation
	KindAuthentication
)

const internalMessage = "Internal Server Error"

// Status returns the HTTP status code for the kind.
func (k Kind) Status() int {
	switch k {
	case KindNotFound:
		return http.StatusNotFound
	case KindValidation:
		return http.StatusBadRequest
	case KindAuthentication:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// Type returns the error type name reported to clients.
func (k Kind) Type() string {
	switch k {
	case KindNotFound:
		return "NotFoundError"
	case KindValidation:
		return "ValidationError"
	case KindAuthentication:
		return "AuthenticationError"
	default:
		return "InternalServerError"
	}
}

// Error is a classified failure carrying a client-facing message.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func NotFound(message string, err error) *Error {
	return &Error{Kind: KindNotFound, Message: message, Err: err}
}

func Validation(message string) *Error {
	return &Error{Kind: KindValidation, Message: message}
}

func Authentication(message string) *Error {
	return &Error{Kind: KindAuthentication, Message: message}
}

// Internal wraps err as an unclassified failure. An empty message is reported as "Internal Server Error".
func Internal(message string, err error) *Error {
	return &Error{Kind: KindInternal, Message: message, Err: err}
}

// Translate maps any error onto the status, type and message written to the client.
// Errors outside the taxonomy never expose their text.
func Translate(err error) (status int, errType, message string) {
	var e *Error
	if !errors.As(err, &e) {
		return http.StatusInternalServerError, KindInternal.Type(), internalMessage
	}
	message = e.Message
	if message == "" {
		message = internalMessage
	}
	return e.Kind.Status(), e.Kind.Type(), message
}
