// Package requestid carries a per-request correlation ID through a
// context.Context so it can be attached to every log line a request
// touches, regardless of which goroutine emits it.
package requestid

import "context"

type contextKey string

const key contextKey = "request_id"

// WithRequestID returns a new context carrying id.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, key, id)
}

// FromContext returns the request ID stored in ctx, or "" if none is set.
func FromContext(ctx context.Context) string {
	id, _ := ctx.Value(key).(string)
	return id
}
