package middleware

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/juntao/modelgate/errors"
)

// RequestTimer measures request processing time.
func RequestTimer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		duration := time.Since(start)
		w.Header().Set("X-Response-Time", duration.String())
	})
}

// PanicRecovery recovers from panics and returns a 500 error.
func PanicRecovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				errors.ErrorWithType(w, "Internal server error", errors.InternalError, http.StatusInternalServerError)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// StripAPIPrefix rewrites /api-prefixed paths to their bare form before
// routing, so every route is reachable both ways.
func StripAPIPrefix(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/api":
			r.URL.Path = "/"
		case len(r.URL.Path) > 4 && r.URL.Path[:5] == "/api/":
			r.URL.Path = r.URL.Path[4:]
		}
		next.ServeHTTP(w, r)
	})
}
