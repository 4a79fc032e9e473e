package ethereum

import (
	"context"
	"time"

	"github.com/akegaviar/graph-node/pkg/common/logger"
)

// DefaultAttemptTimeout bounds one attempt of a forwarded operation.
const DefaultAttemptTimeout = 20 * time.Second

type attemptResult[T any] struct {
	value T
	err   error
}

// runWithFailover executes fn against the pool with bounded failover: the
// attempt budget equals the pool size and every attempt draws the next
// entry, so one unreachable endpoint cannot exhaust the budget. Each
// attempt races fn against the pool's per-attempt timeout; the first
// success wins. A late result from an abandoned attempt is discarded, not
// applied.
//
// When every attempt times out, the attempt-by-attempt noise collapses
// into one TimeoutError naming the operation. A non-timeout remote error
// is surfaced verbatim once attempts run out.
func runWithFailover[T any](
	ctx context.Context,
	label string,
	pool *NetworkAdapters,
	fn func(ctx context.Context, adapter Adapter) (T, error),
) (T, error) {
	var zero T

	attempts := pool.Len()
	if attempts == 0 {
		return zero, ErrNoEligibleEndpoint
	}

	timeout := pool.attemptTimeout
	if timeout <= 0 {
		timeout = DefaultAttemptTimeout
	}

	var lastRemoteErr error

	for attempt := 0; attempt < attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return zero, err
		}

		entry := pool.adapters[attempt]
		attemptCtx, cancel := context.WithTimeout(ctx, timeout)

		// Buffered so an abandoned attempt can complete and be discarded
		// without leaking its goroutine.
		ch := make(chan attemptResult[T], 1)
		go func(adapter Adapter) {
			value, err := fn(attemptCtx, adapter)
			ch <- attemptResult[T]{value: value, err: err}
		}(entry.Adapter)

		select {
		case res := <-ch:
			cancel()
			if res.err == nil {
				return res.value, nil
			}
			if !isTimeout(res.err) {
				lastRemoteErr = res.err
			}
			logger.Debug("endpoint attempt failed",
				"op", label,
				"endpoint", entry.Adapter.URLHostname(),
				"attempt", attempt+1,
				"of", attempts,
				"error", res.err)

		case <-attemptCtx.Done():
			cancel()
			if err := ctx.Err(); err != nil {
				return zero, err
			}
			logger.Warn("endpoint attempt timed out",
				"op", label,
				"endpoint", entry.Adapter.URLHostname(),
				"attempt", attempt+1,
				"of", attempts,
				"timeout", timeout)
		}
	}

	// A non-timeout remote rejection outranks the aggregate timeout
	// message; only an all-timeout exhaustion collapses into one error.
	if lastRemoteErr != nil {
		return zero, lastRemoteErr
	}
	return zero, &TimeoutError{Operation: label}
}
