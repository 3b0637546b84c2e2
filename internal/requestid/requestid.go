// Package requestid propagates request IDs between the API middleware, handlers and logs.
package requestid

import (
	"context"
	"strings"

	"github.com/google/uuid"
)

// Header is the HTTP header carrying the request ID in both directions.
const Header = "X-Request-ID"

// maxLen bounds caller-supplied IDs so they cannot bloat log lines.
const maxLen = 128

type ctxKey struct{}

// WithRequestID returns a context with the given request ID.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// FromContext extracts the request ID from context, or generates a new one.
func FromContext(ctx context.Context) string {
	if id, ok := ctx.Value(ctxKey{}).(string); ok && id != "" {
		return id
	}
	return uuid.New().String()
}

// New generates a new request ID and returns the enriched context and ID.
func New(ctx context.Context) (context.Context, string) {
	id := uuid.New().String()
	return WithRequestID(ctx, id), id
}

// Accept reuses an inbound request ID when it is usable, otherwise it mints one.
func Accept(ctx context.Context, inbound string) (context.Context, string) {
	inbound = strings.TrimSpace(inbound)
	if inbound == "" || len(inbound) > maxLen || strings.ContainsAny(inbound, "\r\n") {
		return New(ctx)
	}
	return WithRequestID(ctx, inbound), inbound
}
