package orchestrator

import (
	"context"
	"errors"
	"testing"
	"time"
)

// TestPollerTerminalStatus tests that polling stops on the first terminal
// classification
func TestPollerTerminalStatus(t *testing.T) {
	source := &scriptedSource{script: []scriptStep{
		{res: PollResult{Class: StatusPending}},
		{res: PollResult{Class: StatusRunning, Progress: 40}},
		{res: PollResult{Class: StatusSucceeded, Progress: 100}},
	}}
	waiter := &fakeWaiter{}
	poller := NewPoller(source, 5*time.Second, 10, waiter, testLogger())

	res, err := poller.Poll(context.Background(), OperationHandle{ID: "op-1"})
	if err != nil {
		t.Fatalf("Poll returned error: %v", err)
	}
	if res.Class != StatusSucceeded {
		t.Errorf("class = %v, want %v", res.Class, StatusSucceeded)
	}
	if res.Attempts != 3 {
		t.Errorf("attempts = %d, want 3", res.Attempts)
	}
	if source.calls != 3 {
		t.Errorf("status calls = %d, want 3", source.calls)
	}
}

// TestPollerBudgetExhausted tests the synthetic TIMEOUT result and the
// total wait bound
func TestPollerBudgetExhausted(t *testing.T) {
	source := &scriptedSource{script: []scriptStep{
		{res: PollResult{Class: StatusRunning}},
	}}
	waiter := &fakeWaiter{}
	poller := NewPoller(source, 5*time.Second, 72, waiter, testLogger())

	res, err := poller.Poll(context.Background(), OperationHandle{ID: "op-1"})
	if err != nil {
		t.Fatalf("Poll returned error: %v", err)
	}
	if res.Class != StatusTimeout {
		t.Errorf("class = %v, want %v", res.Class, StatusTimeout)
	}
	if res.Attempts != 72 {
		t.Errorf("attempts = %d, want 72", res.Attempts)
	}
	// One fixed-interval wait per attempt bounds total wall-clock time.
	if waiter.count() != 72 {
		t.Errorf("waits = %d, want 72", waiter.count())
	}
	var total time.Duration
	for _, d := range waiter.waits {
		total += d
	}
	if total != 360*time.Second {
		t.Errorf("total wait = %v, want 360s", total)
	}
}

// TestPollerTransientErrors tests that mid-loop errors consume an attempt
// without aborting the loop
func TestPollerTransientErrors(t *testing.T) {
	source := &scriptedSource{script: []scriptStep{
		{err: errors.New("connection reset")},
		{err: errors.New("status 502")},
		{res: PollResult{Class: StatusSucceeded}},
	}}
	poller := NewPoller(source, time.Second, 5, &fakeWaiter{}, testLogger())

	res, err := poller.Poll(context.Background(), OperationHandle{ID: "op-1"})
	if err != nil {
		t.Fatalf("Poll returned error: %v", err)
	}
	if res.Class != StatusSucceeded {
		t.Errorf("class = %v, want %v", res.Class, StatusSucceeded)
	}
	if res.Attempts != 3 {
		t.Errorf("attempts = %d, want 3", res.Attempts)
	}
}

// TestPollerErrorsOnlyExhaustBudget tests that a persistently failing
// status source still terminates within the budget
func TestPollerErrorsOnlyExhaustBudget(t *testing.T) {
	source := &scriptedSource{script: []scriptStep{
		{err: errors.New("boom")},
	}}
	poller := NewPoller(source, time.Second, 4, &fakeWaiter{}, testLogger())

	res, err := poller.Poll(context.Background(), OperationHandle{ID: "op-1"})
	if err != nil {
		t.Fatalf("Poll returned error: %v", err)
	}
	if res.Class != StatusTimeout {
		t.Errorf("class = %v, want %v", res.Class, StatusTimeout)
	}
	if source.calls != 4 {
		t.Errorf("status calls = %d, want 4", source.calls)
	}
}

// TestPollerContextCancellation tests that cancellation aborts the loop
func TestPollerContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	source := &scriptedSource{script: []scriptStep{
		{res: PollResult{Class: StatusRunning}},
	}}
	waiter := &fakeWaiter{err: context.Canceled}
	poller := NewPoller(source, time.Second, 10, waiter, testLogger())

	cancel()
	_, err := poller.Poll(ctx, OperationHandle{ID: "op-1"})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}
