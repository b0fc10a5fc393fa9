package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAllowOrigin(t *testing.T) {
	tests := []struct {
		name      string
		origin    string
		allowList []string
		expected  string
	}{
		{"empty list echoes origin", "http://example.com", nil, "http://example.com"},
		{"empty list no origin", "", nil, "*"},
		{"wildcard entry", "http://example.com", []string{"http://a.com", "*"}, "*"},
		{"listed origin echoed", "http://b.com", []string{"http://a.com", "http://b.com"}, "http://b.com"},
		{"unlisted origin falls back to first", "http://evil.com", []string{"http://a.com", "http://b.com"}, "http://a.com"},
		{"no origin falls back to first", "", []string{"http://a.com"}, "http://a.com"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, AllowOrigin(tt.origin, tt.allowList))
		})
	}
}

func TestCORSSetsHeaders(t *testing.T) {
	handler := CORS(StaticOrigins(nil))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest("GET", "/models", nil)
	req.Header.Set("Origin", "http://example.com")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "http://example.com", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "GET,POST,OPTIONS", rec.Header().Get("Access-Control-Allow-Methods"))
	assert.Equal(t, "Content-Type,Authorization", rec.Header().Get("Access-Control-Allow-Headers"))
}

func TestCORSPreflightShortCircuits(t *testing.T) {
	nextCalled := false
	handler := CORS(StaticOrigins([]string{"http://a.com"}))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		nextCalled = true
	}))

	// Preflight succeeds even on paths no route would match.
	req := httptest.NewRequest(http.MethodOptions, "/definitely/not/a/route", nil)
	req.Header.Set("Origin", "http://a.com")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, rec.Body.String())
	assert.False(t, nextCalled)
	assert.Equal(t, "http://a.com", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORSDynamicOrigins(t *testing.T) {
	allowed := []string{"http://old.com"}
	handler := CORS(func() []string { return allowed })(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Origin", "http://new.com")

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, "http://old.com", rec.Header().Get("Access-Control-Allow-Origin"))

	allowed = []string{"http://new.com"}
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, "http://new.com", rec.Header().Get("Access-Control-Allow-Origin"))
}
