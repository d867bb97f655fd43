// Package apperror defines the error taxonomy shared by the patient
// service and its adapters. Callers discriminate on Kind rather than on
// concrete error types.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

type Kind int

const (
	KindUnknown Kind = iota
	KindNotFound
	KindConflict
	KindValidation
	KindUnavailable
	KindRejected
	KindPublishFailed
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "NotFound"
	case KindConflict:
		return "Conflict"
	case KindValidation:
		return "ValidationFailed"
	case KindUnavailable:
		return "Unavailable"
	case KindRejected:
		return "Rejected"
	case KindPublishFailed:
		return "PublishFailed"
	default:
		return "Unknown"
	}
}

type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func NotFound(format string, args ...any) error {
	return &Error{Kind: KindNotFound, Msg: fmt.Sprintf(format, args...)}
}

func Conflict(format string, args ...any) error {
	return &Error{Kind: KindConflict, Msg: fmt.Sprintf(format, args...)}
}

func Validation(format string, args ...any) error {
	return &Error{Kind: KindValidation, Msg: fmt.Sprintf(format, args...)}
}

func Unavailable(msg string, err error) error {
	return &Error{Kind: KindUnavailable, Msg: msg, Err: err}
}

func Rejected(msg string, err error) error {
	return &Error{Kind: KindRejected, Msg: msg, Err: err}
}

func PublishFailed(msg string, err error) error {
	return &Error{Kind: KindPublishFailed, Msg: msg, Err: err}
}

// KindOf extracts the Kind from an error chain. Errors outside the
// taxonomy report KindUnknown.
func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return KindUnknown
}

// HTTPStatus maps an error kind to the status code returned by the API.
func HTTPStatus(k Kind) int {
	switch k {
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindValidation:
		return http.StatusBadRequest
	case KindUnavailable:
		return http.StatusServiceUnavailable
	case KindRejected:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
