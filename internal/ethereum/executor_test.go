package ethereum

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// hangingAdapter never answers; the executor has to time it out.
func hangingAdapter(host string) *stubAdapter {
	return &stubAdapter{
		host: host,
		identify: func(ctx context.Context) (NetworkIdentifier, error) {
			<-ctx.Done()
			return NetworkIdentifier{}, ctx.Err()
		},
	}
}

func answeringAdapter(host, netVersion string, calls *atomic.Int32) *stubAdapter {
	return &stubAdapter{
		host: host,
		identify: func(ctx context.Context) (NetworkIdentifier, error) {
			if calls != nil {
				calls.Add(1)
			}
			return NetworkIdentifier{NetVersion: netVersion}, nil
		},
	}
}

func execPool(timeout time.Duration, adapters ...Adapter) *NetworkAdapters {
	pool := &NetworkAdapters{attemptTimeout: timeout}
	for _, a := range adapters {
		pool.adapters = append(pool.adapters, NetworkAdapter{Adapter: a})
	}
	return pool
}

func TestExecutorFirstSuccessWins(t *testing.T) {
	var calls atomic.Int32
	pool := execPool(time.Second,
		answeringAdapter("a", "1", &calls),
		answeringAdapter("b", "1", &calls),
	)

	id, err := pool.NetIdentifiers(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "1", id.NetVersion)
	assert.Equal(t, int32(1), calls.Load(), "success must stop further attempts")
}

func TestExecutorRotatesPastDeadEndpoints(t *testing.T) {
	var calls atomic.Int32
	pool := execPool(20*time.Millisecond,
		hangingAdapter("dead1"),
		hangingAdapter("dead2"),
		answeringAdapter("alive", "1", &calls),
	)

	id, err := pool.NetIdentifiers(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "1", id.NetVersion)
	assert.Equal(t, int32(1), calls.Load())
}

func TestExecutorAggregateTimeout(t *testing.T) {
	pool := execPool(10*time.Millisecond,
		hangingAdapter("a"),
		hangingAdapter("b"),
		hangingAdapter("c"),
	)

	_, err := pool.NetIdentifiers(context.Background())
	require.Error(t, err)

	var timeoutErr *TimeoutError
	require.ErrorAs(t, err, &timeoutErr)
	assert.Equal(t, "net_version RPC call", timeoutErr.Operation)
	assert.Contains(t, err.Error(), "all eligible endpoints")
}

func TestExecutorRemoteErrorPassesThrough(t *testing.T) {
	remote := errors.New("execution reverted")
	pool := execPool(10*time.Millisecond,
		hangingAdapter("slow"),
		&stubAdapter{
			host: "rejecting",
			identify: func(ctx context.Context) (NetworkIdentifier, error) {
				return NetworkIdentifier{}, remote
			},
		},
	)

	_, err := pool.NetIdentifiers(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, remote)

	var timeoutErr *TimeoutError
	assert.False(t, errors.As(err, &timeoutErr))
}

func TestExecutorAttemptBudgetIsPoolSize(t *testing.T) {
	var calls atomic.Int32
	failing := &stubAdapter{
		host: "failing",
		identify: func(ctx context.Context) (NetworkIdentifier, error) {
			calls.Add(1)
			return NetworkIdentifier{}, errors.New("boom")
		},
	}
	pool := execPool(time.Second, failing, failing, failing)

	_, err := pool.NetIdentifiers(context.Background())
	require.Error(t, err)
	assert.Equal(t, int32(3), calls.Load())
}

func TestExecutorEmptyPool(t *testing.T) {
	pool := execPool(time.Second)
	_, err := pool.NetIdentifiers(context.Background())
	assert.ErrorIs(t, err, ErrNoEligibleEndpoint)
}

func TestExecutorParentCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	pool := execPool(time.Minute, hangingAdapter("a"))
	_, err := pool.NetIdentifiers(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestExecutorDiscardsStragglerResult(t *testing.T) {
	released := make(chan struct{})
	straggler := &stubAdapter{
		host: "straggler",
		identify: func(ctx context.Context) (NetworkIdentifier, error) {
			<-released
			return NetworkIdentifier{NetVersion: "wrong"}, nil
		},
	}
	var calls atomic.Int32
	pool := execPool(10*time.Millisecond,
		straggler,
		answeringAdapter("good", "right", &calls),
	)

	id, err := pool.NetIdentifiers(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "right", id.NetVersion)

	// Let the abandoned attempt finish; its result lands in a buffered
	// channel nobody reads and must not affect the outcome.
	close(released)
}
