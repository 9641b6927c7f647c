package mongo

import (
	"context"
	"time"
)

// OpTimeout bounds a single repository or GridFS call.
const OpTimeout = 5 * time.Second

// withTimeout applies d to ctx unless ctx is already done or due to expire
// sooner. The returned cancel is always safe to defer.
func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if ctx.Err() != nil {
		return ctx, func() {}
	}
	if dl, ok := ctx.Deadline(); ok && time.Until(dl) <= d {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, d)
}

func repoCtx(parent context.Context) (context.Context, context.CancelFunc) {
	return withTimeout(parent, OpTimeout)
}
