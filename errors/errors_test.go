package errors

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestWriteErrorEnvelope(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(rec, NewValidationError("req-1", "Invalid messages"))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	body := decodeEnvelope(t, rec)
	assert.Equal(t, "Invalid messages", body["error"])
	assert.Equal(t, "req-1", body["request_id"])
}

func TestEnvelopeOmitsEmptyRequestID(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(rec, NewValidationError("", "Invalid modelId"))

	body := decodeEnvelope(t, rec)
	assert.Equal(t, "Invalid modelId", body["error"])
	assert.NotContains(t, body, "request_id")
}

func TestEnvelopeNeverExposesInternals(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(rec, NewConfigError("req-2", "Missing environment variable: OPENAI_API_KEY", fmt.Errorf("cause")))

	body := decodeEnvelope(t, rec)
	assert.NotContains(t, body, "Type")
	assert.NotContains(t, body, "Code")
	assert.NotContains(t, body, "err")
}

func TestConstructorStatusCodes(t *testing.T) {
	tests := []struct {
		name string
		err  *GateError
		code int
		typ  ErrorType
	}{
		{"validation", NewValidationError("", "bad"), http.StatusBadRequest, ValidationError},
		{"config", NewConfigError("", "missing", nil), http.StatusInternalServerError, ConfigError},
		{"resolution config", NewResolutionConfigError("", "missing", nil), http.StatusBadRequest, ConfigError},
		{"provider", NewProviderError("", "upstream", nil), http.StatusInternalServerError, ProviderError},
		{"not found", NewNotFoundError(""), http.StatusNotFound, NotFoundError},
		{"internal", NewInternalError("", nil), http.StatusInternalServerError, InternalError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.code, tt.err.Code)
			assert.Equal(t, tt.typ, tt.err.Type)
		})
	}
}

func TestNotFoundMessage(t *testing.T) {
	assert.Equal(t, "Not Found", NewNotFoundError("").Message)
}

func TestErrorUnwrapAndIs(t *testing.T) {
	cause := fmt.Errorf("connection refused")
	err := NewProviderError("req", "upstream call failed", cause)

	assert.True(t, Is(err, cause))
	assert.Equal(t, cause, Unwrap(err))

	var gerr *GateError
	require.True(t, As(error(err), &gerr))
	assert.Equal(t, ProviderError, gerr.Type)

	// Is matches on type, ignoring message differences.
	assert.True(t, Is(err, &GateError{Type: ProviderError}))
	assert.False(t, Is(err, &GateError{Type: ValidationError}))
}

func TestErrorHandlerRecoversPanics(t *testing.T) {
	handler := ErrorHandler(zap.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	body := decodeEnvelope(t, rec)
	assert.NotEmpty(t, body["error"])
}
