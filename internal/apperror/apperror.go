package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a failure so transport code can pick a status and code
// without inspecting message text.
type Kind int

const (
	KindValidation Kind = iota
	KindAuthentication
	KindNotFound
	KindConflict
	KindDelivery
	KindProcessing
	KindCertificate
)

// Code returns the machine-readable error code for the kind.
func (k Kind) Code() string {
	switch k {
	case KindValidation:
		return "VALIDATION_ERROR"
	case KindAuthentication:
		return "AUTHENTICATION_FAILED"
	case KindNotFound:
		return "NOT_FOUND"
	case KindConflict:
		return "CONFLICT"
	case KindDelivery:
		return "OTP_DELIVERY_FAILED"
	case KindCertificate:
		return "CERTIFICATE_ERROR"
	default:
		return "PROCESSING_ERROR"
	}
}

// Status maps the kind to an HTTP status.
func (k Kind) Status() int {
	switch k {
	case KindValidation:
		return http.StatusBadRequest
	case KindAuthentication:
		return http.StatusUnauthorized
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindDelivery:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// Error is the single error type carried across service boundaries. It wraps
// an optional cause and exposes a kind for uniform client responses.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Cause }

// New builds an error of the given kind.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Newf builds an error of the given kind with a formatted message.
func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a cause to an error of the given kind.
func Wrap(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}

// Validation is shorthand for a client-fault input error.
func Validation(message string) *Error { return New(KindValidation, message) }

// NotFound is shorthand for a missing-record error.
func NotFound(message string) *Error { return New(KindNotFound, message) }

// IsKind reports whether err is an *Error of the given kind.
func IsKind(err error, kind Kind) bool {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind == kind
	}
	return false
}

// KindOf extracts the kind from err, defaulting to Processing for unknown
// errors so internals never leak through responses.
func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return KindProcessing
}
