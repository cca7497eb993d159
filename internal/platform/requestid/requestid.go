// Package requestid carries a per-request identifier through context.Context.
package requestid

import (
	"context"

	"github.com/google/uuid"
)

// Header is the HTTP header used to propagate the request id.
const Header = "X-Request-ID"

type ctxKey struct{}

// New returns a fresh random request id.
func New() string {
	return uuid.NewString()
}

// WithID returns a copy of ctx carrying id.
func WithID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// FromContext returns the request id stored in ctx, or "" if none.
func FromContext(ctx context.Context) string {
	id, _ := ctx.Value(ctxKey{}).(string)
	return id
}
