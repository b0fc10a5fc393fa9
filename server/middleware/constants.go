package middleware

type contextKey string

const (
	// RequestIDKey carries the request's correlation id through the context.
	RequestIDKey contextKey = "request_id"
)
