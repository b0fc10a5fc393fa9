package errors

import (
	"net/http"
)

// NewError creates a new GateError with the given parameters.
// It is a general-purpose constructor that allows full control over
// the error's fields. For most cases, use one of the specialized
// constructors below.
func NewError(errType ErrorType, message string, code int, requestID string, err error) *GateError {
	return &GateError{
		Type:      errType,
		Message:   message,
		Code:      code,
		RequestID: requestID,
		err:       err,
	}
}

// NewValidationError creates a validation error with appropriate defaults.
// Use this for any request validation failure: malformed bodies, missing
// required fields, unknown agent or model identifiers.
func NewValidationError(requestID, message string) *GateError {
	return &GateError{
		Type:      ValidationError,
		Message:   message,
		Code:      http.StatusBadRequest,
		RequestID: requestID,
	}
}

// NewConfigError creates a configuration error. The message should name the
// missing environment variable so that the operator (and, when this surfaces
// during model resolution, the caller) can see exactly what is absent.
//
// The default status is 500; model resolution wraps these with a 400 since
// there a configuration gap means the caller picked an unsupported model.
func NewConfigError(requestID, message string, err error) *GateError {
	return &GateError{
		Type:      ConfigError,
		Message:   message,
		Code:      http.StatusInternalServerError,
		RequestID: requestID,
		err:       err,
	}
}

// NewResolutionConfigError is NewConfigError with a 400 status; it is used
// when a configuration gap is discovered while resolving a model the caller
// explicitly requested.
func NewResolutionConfigError(requestID, message string, err error) *GateError {
	return &GateError{
		Type:      ConfigError,
		Message:   message,
		Code:      http.StatusBadRequest,
		RequestID: requestID,
		err:       err,
	}
}

// NewProviderError creates a provider error. Upstream failures before any
// stream bytes are sent become a 500 JSON envelope carrying the upstream
// error's message; they are never retried.
func NewProviderError(requestID string, message string, err error) *GateError {
	return &GateError{
		Type:      ProviderError,
		Message:   message,
		Code:      http.StatusInternalServerError,
		RequestID: requestID,
		err:       err,
	}
}

// NewNotFoundError creates the error for an unmatched route.
func NewNotFoundError(requestID string) *GateError {
	return &GateError{
		Type:      NotFoundError,
		Message:   "Not Found",
		Code:      http.StatusNotFound,
		RequestID: requestID,
	}
}

// NewInternalError creates an internal server error for unexpected failures
// that are not covered by the other error types: panics, encoding failures,
// broken invariants.
func NewInternalError(requestID string, err error) *GateError {
	return &GateError{
		Type:      InternalError,
		Message:   "An internal error occurred",
		Code:      http.StatusInternalServerError,
		RequestID: requestID,
		err:       err,
	}
}
