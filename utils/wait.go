package utils

import (
	"context"
	"time"
)

// Condition reports whether the awaited state has been reached.
type Condition func(ctx context.Context) (bool, error)

// WaitUntil polls cond every interval until it returns true, the timeout
// elapses, or ctx is done. A timeout is reported as (false, nil); only a
// condition error or context cancellation is an error.
func WaitUntil(ctx context.Context, timeout, interval time.Duration, cond Condition) (bool, error) {
	if interval <= 0 {
		interval = 50 * time.Millisecond
	}
	deadline := time.Now().Add(timeout)

	for {
		ok, err := cond(ctx)
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}

		remaining := time.Until(deadline)
		if remaining <= 0 {
			return false, nil
		}
		if remaining < interval {
			interval = remaining
		}
		if err := Pause(ctx, interval); err != nil {
			return false, err
		}
	}
}

// Pause sleeps for d unless ctx is cancelled first.
func Pause(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
