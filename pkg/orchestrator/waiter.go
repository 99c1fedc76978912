package orchestrator

import (
	"context"
	"time"
)

// Waiter abstracts the blocking waits between poll attempts, before resource
// lookup, and between teardown retries. Orchestration logic never calls
// time.Sleep directly, so the wait strategy can be replaced without touching
// the loops that use it.
type Waiter interface {
	// Wait blocks for the given duration or until the context is done,
	// returning the context error in the latter case.
	Wait(ctx context.Context, d time.Duration) error
}

type sleepWaiter struct{}

// SleepWaiter returns the default timer-backed blocking waiter.
func SleepWaiter() Waiter {
	return sleepWaiter{}
}

func (sleepWaiter) Wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
