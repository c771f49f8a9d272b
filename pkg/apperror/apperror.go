// Package apperror defines the error taxonomy shared by every layer.
//
// Services return *Error values built with the constructors below. Handlers
// never inspect message text: they match the kind with errors.Is and write the
// message back to the caller verbatim.
package apperror

import (
	"errors"
	"net/http"
)

// Kinds. Match them with errors.Is.
var (
	ErrValidation         = errors.New("validation failed")
	ErrConflict           = errors.New("conflict")
	ErrNotFound           = errors.New("not found")
	ErrInvalidTransition  = errors.New("invalid transition")
	ErrStorageUnavailable = errors.New("storage unavailable")
	ErrForbidden          = errors.New("forbidden")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrPaymentFailed      = errors.New("payment failed")
)

// Machine-readable codes carried next to the kind.
const (
	CodeMalformed        = "malformed"
	CodeInverted         = "inverted"
	CodeInPast           = "in_past"
	CodeInvalidRange     = "invalid_range"
	CodeInvalidInput     = "invalid_input"
	CodeCarUnavailable   = "car_unavailable"
	CodeAmountMismatch   = "amount_mismatch"
	CodeOverlap          = "overlap"
	CodeAlreadySubmitted = "already_submitted"
	CodeAlreadyPaid      = "already_paid"
	CodeDuplicate        = "duplicate"
	CodeNotEligible      = "not_eligible"
	CodeNotOwner         = "not_owner"
	CodeStale            = "stale"
	CodePaymentDeclined  = "payment_declined"
)

// Error is a classified, user-facing error.
type Error struct {
	Kind    error
	Code    string
	Message string
	Fields  map[string]string
	Err     error
}

// Error returns the user-facing message only. The cause stays reachable
// through Unwrap for logging.
func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func newError(kind error, code, message string) *Error {
	return &Error{Kind: kind, Code: code, Message: message}
}

// Wrap attaches a cause to e and returns it.
func (e *Error) Wrap(cause error) *Error {
	e.Err = cause
	return e
}

func Validation(code, message string) *Error {
	return newError(ErrValidation, code, message)
}

// ValidationFields reports per-field validation failures.
func ValidationFields(message string, fields map[string]string) *Error {
	e := newError(ErrValidation, CodeInvalidInput, message)
	e.Fields = fields
	return e
}

func Conflict(code, message string) *Error {
	return newError(ErrConflict, code, message)
}

func NotFound(message string) *Error {
	return newError(ErrNotFound, "not_found", message)
}

func InvalidTransition(message string) *Error {
	return newError(ErrInvalidTransition, "invalid_transition", message)
}

// StorageUnavailable hides the infrastructure cause from the caller.
func StorageUnavailable(cause error) *Error {
	return newError(ErrStorageUnavailable, "storage_unavailable", "storage temporarily unavailable, try again later").Wrap(cause)
}

func Forbidden(code, message string) *Error {
	return newError(ErrForbidden, code, message)
}

func Unauthorized(message string) *Error {
	return newError(ErrUnauthorized, "unauthorized", message)
}

// PaymentFailed reports a charge the payment provider refused.
func PaymentFailed(message string) *Error {
	return newError(ErrPaymentFailed, CodePaymentDeclined, message)
}

// As extracts the *Error from a wrapped chain.
func As(err error) (*Error, bool) {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// CodeOf returns the code of the first *Error in the chain, or "".
func CodeOf(err error) string {
	if appErr, ok := As(err); ok {
		return appErr.Code
	}
	return ""
}

// HTTPStatus maps an error kind to its response status.
func HTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrConflict), errors.Is(err, ErrInvalidTransition):
		return http.StatusConflict
	case errors.Is(err, ErrPaymentFailed):
		return http.StatusPaymentRequired
	case errors.Is(err, ErrStorageUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
