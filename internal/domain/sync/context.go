package sync

import (
	"context"
)

type contextKey int

const applyScopeKey contextKey = 0

// WithApplyScope marks ctx as being inside an apply-from-remote
// operation. The dispatcher checks this to avoid re-broadcasting an
// incoming change as if it were a fresh local mutation. The mark is
// request-scoped, not process-wide, so concurrent receives on other
// requests are unaffected, and it vanishes with the context on every
// exit path including panics.
func WithApplyScope(ctx context.Context) context.Context {
	return context.WithValue(ctx, applyScopeKey, true)
}

// InApplyScope reports whether ctx is inside an apply-from-remote
// operation.
func InApplyScope(ctx context.Context) bool {
	v, _ := ctx.Value(applyScopeKey).(bool)
	return v
}
