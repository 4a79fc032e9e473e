package ethereum

import (
	"context"
	"errors"
	"fmt"
	"net"
)

var (
	// ErrNetworkNotSupported is returned on lookups against a network name
	// that was never registered. Never retried.
	ErrNetworkNotSupported = errors.New("network not supported")

	// ErrNoEligibleEndpoint is returned when no pool entry dominates the
	// required capabilities. A configuration problem, never retried.
	ErrNoEligibleEndpoint = errors.New("no eligible endpoint")
)

// TimeoutError is the single aggregate error synthesized when every retry
// attempt for an operation timed out.
type TimeoutError struct {
	Operation string
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%s: all eligible endpoints took too long to respond", e.Operation)
}

func (e *TimeoutError) Timeout() bool { return true }

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
