package sentiment

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorKind enumerates the failure classes the scoring core can return.
type ErrorKind string

const (
	// KindValidation is client-caused input (empty text, out-of-bounds batch). Never retried.
	KindValidation ErrorKind = "validation"
	// KindModelUnavailable means the model strategy was requested without a loaded bundle.
	KindModelUnavailable ErrorKind = "model_unavailable"
	// KindPrediction is an internal fault inside preprocessing, vectorization or prediction.
	KindPrediction ErrorKind = "prediction"
)

type Error struct {
	Kind    ErrorKind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// HTTPStatus maps the error kind onto the status code transports should use.
func (e *Error) HTTPStatus() int {
	switch e.Kind {
	case KindValidation:
		return http.StatusBadRequest
	case KindModelUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func ValidationError(message string) *Error {
	return &Error{Kind: KindValidation, Message: message}
}

func ModelUnavailableError(message string) *Error {
	return &Error{Kind: KindModelUnavailable, Message: message}
}

func PredictionError(message string, cause error) *Error {
	return &Error{Kind: KindPrediction, Message: message, Cause: cause}
}

// AsError returns err as a classified *Error. Unclassified errors become
// prediction errors so callers never see a bare fault.
func AsError(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return PredictionError("unclassified failure", err)
}

// KindOf returns the ErrorKind of err, or "" when err is nil.
func KindOf(err error) ErrorKind {
	if err == nil {
		return ""
	}
	return AsError(err).Kind
}
