package errors

import (
	"net/http"
	"runtime/debug"

	"go.uber.org/zap"
)

// ErrorHandler wraps an http.Handler and converts panics into 500 envelopes.
func ErrorHandler(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					stack := debug.Stack()
					logger.Error("panic recovered",
						zap.Any("error", err),
						zap.ByteString("stacktrace", stack),
						zap.String("request_id", r.Header.Get("X-Request-ID")),
					)

					WriteError(w, NewInternalError(r.Header.Get("X-Request-ID"), nil))
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}

// LogError logs an error with its context.
func LogError(logger *zap.Logger, err error, requestID string) {
	if gateErr, ok := err.(*GateError); ok {
		logger.Error("request error",
			zap.String("error_type", string(gateErr.Type)),
			zap.String("message", gateErr.Message),
			zap.Int("code", gateErr.Code),
			zap.String("request_id", requestID),
		)
	} else {
		logger.Error("unexpected error",
			zap.Error(err),
			zap.String("request_id", requestID),
		)
	}
}
