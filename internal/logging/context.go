package logging

import (
	"context"
	"time"
)

// DetachContext creates a context that won't be cancelled when parent is,
// while preserving the parent's values.
//
// Persistence writes that record what already happened, like analytics
// events and chat transcripts, must complete even when the request context
// that triggered them has been cancelled.
func DetachContext(parent context.Context) context.Context {
	return context.WithoutCancel(parent)
}

// DetachContextWithTimeout creates a detached context with its own deadline,
// independent of the parent's cancellation status.
//
//	saveCtx, cancel := logging.DetachContextWithTimeout(ctx, 5*time.Second)
//	defer cancel()
//	err := store.RecordEvent(saveCtx, event)
func DetachContextWithTimeout(parent context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(parent), timeout)
}
