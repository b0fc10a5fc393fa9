// Package errors provides the error handling system for the modelgate gateway.
// It defines structured error types for the request pipeline, a uniform JSON
// error envelope, request ID tracking, and integrated logging with Uber's zap.
//
// Every error response the gateway produces shares one envelope shape:
//
//	{"error": "<human-readable message>", "request_id": "..."}
//
// so clients need a single parsing path regardless of which layer failed.
//
// Basic usage:
//
//	// Simple error response
//	errors.Error(w, "Invalid messages", http.StatusBadRequest)
//
//	// Type-specific error
//	errors.ErrorWithType(w, "unknown agentId: x", errors.ValidationError, http.StatusBadRequest)
package errors

import (
	"encoding/json"
	"fmt"
	"net/http"

	"go.uber.org/zap"
)

// DefaultLogger is the default zap logger instance used throughout the package.
// It is initialized to a production configuration but can be overridden using SetLogger.
var DefaultLogger *zap.Logger

func init() {
	var err error
	DefaultLogger, err = zap.NewProduction()
	if err != nil {
		DefaultLogger = zap.NewNop()
	}
}

// SetLogger allows setting a custom zap logger instance.
// If nil is provided, the function will do nothing to prevent
// accidentally disabling logging.
func SetLogger(logger *zap.Logger) {
	if logger != nil {
		DefaultLogger = logger
	}
}

// ErrorType categorizes the failures the gateway can report. Each type maps
// onto one branch of the propagation policy: validation failures are reported
// at the boundary with a 400, configuration failures surface as 500 from the
// top level (or 400 when raised during model resolution, where the caller
// chose an unsupported model), and provider failures are never retried.
type ErrorType string

const (
	// ValidationError represents malformed JSON, missing or invalid request
	// fields, and unknown agent/model identifiers.
	ValidationError ErrorType = "validation_error"

	// ConfigError represents missing required environment or credential
	// configuration.
	ConfigError ErrorType = "config_error"

	// ProviderError represents upstream completion call failures.
	ProviderError ErrorType = "provider_error"

	// NotFoundError represents an unmatched route.
	NotFoundError ErrorType = "not_found"

	// InternalError represents unexpected internal server errors.
	InternalError ErrorType = "internal_error"
)

// GateError is the gateway's error type. It implements the error interface
// and carries the HTTP status code and request ID alongside the message. It is
// serialized to the uniform {"error": ...} envelope for API responses while
// keeping the underlying cause available for logging.
type GateError struct {
	// Type categorizes the error for logging and propagation decisions.
	Type ErrorType `json:"-"`

	// Message is the human-readable error description sent to clients.
	Message string `json:"error"`

	// Code is the HTTP status code (not exposed in JSON).
	Code int `json:"-"`

	// RequestID links the error to a specific request.
	RequestID string `json:"request_id,omitempty"`

	// err is the underlying error (not exposed in JSON).
	err error
}

// Error implements the error interface. It combines the error type,
// message, and underlying error (if any).
func (e *GateError) Error() string {
	if e.err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, e.Message, e.err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the underlying error, implementing the unwrap
// interface for error chains.
func (e *GateError) Unwrap() error {
	return e.err
}

// Is implements error matching for errors.Is, matching on Type while
// ignoring other fields.
func (e *GateError) Is(target error) bool {
	t, ok := target.(*GateError)
	if !ok {
		return false
	}
	return e.Type == t.Type
}

// WriteError formats and writes a GateError to an http.ResponseWriter.
// It sets the content type and status code, then writes the error envelope.
func WriteError(w http.ResponseWriter, err *GateError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(err.Code)
	if encErr := json.NewEncoder(w).Encode(err); encErr != nil {
		DefaultLogger.Error("failed to encode error response", zap.Error(encErr))
	}
}

// Error is a drop-in replacement for http.Error that creates and writes
// a GateError with the InternalError type. It automatically includes
// the request ID from the response headers if available.
func Error(w http.ResponseWriter, message string, code int) {
	requestID := w.Header().Get("X-Request-ID")
	WriteError(w, &GateError{
		Type:      InternalError,
		Message:   message,
		Code:      code,
		RequestID: requestID,
	})
}

// ErrorWithType is like Error but allows specifying the error type.
func ErrorWithType(w http.ResponseWriter, message string, errType ErrorType, code int) {
	requestID := w.Header().Get("X-Request-ID")
	WriteError(w, &GateError{
		Type:      errType,
		Message:   message,
		Code:      code,
		RequestID: requestID,
	})
}
