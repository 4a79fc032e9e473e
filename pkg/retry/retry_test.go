package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConstantSucceedsAfterFailures(t *testing.T) {
	calls := 0
	err := Constant(context.Background(), func() error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	}, time.Millisecond, 5)

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestConstantExhaustsAttempts(t *testing.T) {
	sentinel := errors.New("down")
	calls := 0
	err := Constant(context.Background(), func() error {
		calls++
		return sentinel
	}, time.Millisecond, 3)

	require.Error(t, err)
	assert.ErrorIs(t, err, sentinel)
	assert.Equal(t, 3, calls)
}

func TestConstantHonorsContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := Constant(ctx, func() error {
		return errors.New("always")
	}, time.Minute, 3)

	assert.ErrorIs(t, err, context.Canceled)
}

func TestExponentialRequiresInterval(t *testing.T) {
	err := Exponential(func() error { return nil }, ExponentialConfig{})
	assert.Error(t, err)
}

func TestExponentialStopsOnSuccess(t *testing.T) {
	calls := 0
	err := Exponential(func() error {
		calls++
		if calls < 2 {
			return errors.New("transient")
		}
		return nil
	}, ExponentialConfig{InitialInterval: time.Millisecond})

	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}
