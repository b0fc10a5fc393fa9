package middleware

import (
	"net/http"
)

// AllowedOriginsFunc supplies the current CORS allow-list; routing it through
// a function lets the config watcher's latest allow-list take effect without
// a restart.
type AllowedOriginsFunc func() []string

// StaticOrigins adapts a fixed allow-list to AllowedOriginsFunc.
func StaticOrigins(origins []string) AllowedOriginsFunc {
	return func() []string { return origins }
}

// CORS computes the cross-origin headers once per request and answers
// preflight requests with 204 regardless of path validity. It runs before
// routing so every response, including errors and streams, carries the
// headers.
func CORS(origins AllowedOriginsFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", AllowOrigin(r.Header.Get("Origin"), origins()))
			w.Header().Set("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type,Authorization")

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// AllowOrigin picks the Access-Control-Allow-Origin value: with an empty
// allow-list the request's origin is echoed back (or "*" without one); a "*"
// entry allows anything; a listed origin is echoed; otherwise the first
// configured origin is the fallback.
func AllowOrigin(requestOrigin string, allowList []string) string {
	if len(allowList) == 0 {
		if requestOrigin != "" {
			return requestOrigin
		}
		return "*"
	}
	for _, o := range allowList {
		if o == "*" {
			return "*"
		}
	}
	if requestOrigin != "" {
		for _, o := range allowList {
			if o == requestOrigin {
				return requestOrigin
			}
		}
	}
	return allowList[0]
}
