package logging

import (
	"context"

	"github.com/google/uuid"
)

// requestIDField is both the log attribute and the context key name.
const requestIDField = "request_id"

type requestIDKey struct{}

// EnsureRequestID returns ctx unchanged when it already carries a request ID,
// otherwise a child context holding a fresh UUID.
func EnsureRequestID(ctx context.Context) (context.Context, string) {
	if ctx == nil {
		ctx = context.Background()
	}
	if id := RequestIDFromContext(ctx); id != "" {
		return ctx, id
	}
	id := uuid.NewString()
	return ContextWithRequestID(ctx, id), id
}

func ContextWithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestIDFromContext returns "" for a nil context or one without an ID.
func RequestIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}
