// Package domainerrors carries typed, code-bearing errors from services to the
// transport layer. Handlers translate codes into HTTP statuses; stores never
// return these directly and instead use sentinel errors.
package domainerrors

import (
	"errors"
	"net/http"
)

// Code classifies a domain error for clients.
type Code string

const (
	CodeBadRequest         Code = "bad_request"
	CodeValidation         Code = "validation_error"
	CodeUnauthorized       Code = "unauthorized"
	CodeForbidden          Code = "forbidden"
	CodeNotFound           Code = "not_found"
	CodeConflict           Code = "conflict"
	CodeAlreadyIssued      Code = "already_issued"
	CodeInternal           Code = "internal_error"
	CodeTimeout            Code = "timeout"
	CodeRateLimited        Code = "rate_limited"
	CodeInvariantViolation Code = "invariant_violation"
)

// Error is a domain error with a client-facing code and message.
type Error struct {
	Code    Code
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

// Is matches another *Error with the same code and message, so tests can use
// errors.Is against a freshly constructed value.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return e.Code == t.Code && e.Message == t.Message
}

func New(code Code, msg string) error {
	return &Error{Code: code, Message: msg}
}

func Wrap(err error, code Code, msg string) error {
	return &Error{Code: code, Message: msg, Err: err}
}

// HasCode reports whether any error in err's chain is a domain error with code.
func HasCode(err error, code Code) bool {
	var de *Error
	if errors.As(err, &de) {
		return de.Code == code
	}
	return false
}

// As returns the outermost domain error in err's chain.
func As(err error) (*Error, bool) {
	var de *Error
	if errors.As(err, &de) {
		return de, true
	}
	return nil, false
}

func ToHTTPStatus(code Code) int {
	switch code {
	case CodeBadRequest, CodeValidation, CodeInvariantViolation:
		return http.StatusBadRequest
	case CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeForbidden:
		return http.StatusForbidden
	case CodeNotFound:
		return http.StatusNotFound
	case CodeConflict, CodeAlreadyIssued:
		return http.StatusConflict
	case CodeTimeout:
		return http.StatusGatewayTimeout
	case CodeRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}
