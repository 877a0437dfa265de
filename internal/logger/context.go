package logger

import "context"

// ctxKey keeps the request-id entry from colliding with other packages'
// context values.
type ctxKey struct{}

var requestIDKey = ctxKey{}

// WithRequestID stores a request id on the context for downstream log
// records and handlers.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestID returns the request id stored on the context, or "" when the
// request never passed through the request-id middleware.
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}
