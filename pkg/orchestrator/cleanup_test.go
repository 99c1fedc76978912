package orchestrator

import (
	"context"
	"errors"
	"testing"
	"time"
)

// TestTeardownAcceptedFirstAttempt tests immediate acceptance
func TestTeardownAcceptedFirstAttempt(t *testing.T) {
	deleter := &scriptedDeleter{script: []deleteStep{
		{taskID: "task-1"},
	}}
	waiter := &fakeWaiter{}
	cleanup := NewCleanupManager(deleter, 3, 10*time.Second, waiter, testLogger())

	if !cleanup.Teardown(context.Background(), ResourceRef{ID: "m-1"}) {
		t.Fatal("Teardown = false, want true")
	}
	if deleter.calls != 1 {
		t.Errorf("delete calls = %d, want 1", deleter.calls)
	}
	if waiter.count() != 0 {
		t.Errorf("waits = %d, want 0", waiter.count())
	}
}

// TestTeardownRetriesThenAccepts tests that failures and empty task ids are
// retried with a delay in between
func TestTeardownRetriesThenAccepts(t *testing.T) {
	deleter := &scriptedDeleter{script: []deleteStep{
		{err: errors.New("status 500")},
		{taskID: ""},
		{taskID: "task-7"},
	}}
	waiter := &fakeWaiter{}
	cleanup := NewCleanupManager(deleter, 3, 10*time.Second, waiter, testLogger())

	if !cleanup.Teardown(context.Background(), ResourceRef{ID: "m-1"}) {
		t.Fatal("Teardown = false, want true")
	}
	if deleter.calls != 3 {
		t.Errorf("delete calls = %d, want 3", deleter.calls)
	}
	// Delays only between attempts, never after the last.
	if waiter.count() != 2 {
		t.Errorf("waits = %d, want 2", waiter.count())
	}
}

// TestTeardownExhausted tests that an unaccepted teardown reports false
// without an error
func TestTeardownExhausted(t *testing.T) {
	deleter := &scriptedDeleter{script: []deleteStep{
		{err: errors.New("mount is busy")},
	}}
	waiter := &fakeWaiter{}
	cleanup := NewCleanupManager(deleter, 3, 10*time.Second, waiter, testLogger())

	if cleanup.Teardown(context.Background(), ResourceRef{ID: "m-1"}) {
		t.Fatal("Teardown = true, want false")
	}
	if deleter.calls != 3 {
		t.Errorf("delete calls = %d, want 3", deleter.calls)
	}
	if waiter.count() != 2 {
		t.Errorf("waits = %d, want 2", waiter.count())
	}
}

// TestTeardownStopsOnCancel tests that cancellation ends the retry loop
func TestTeardownStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	deleter := &scriptedDeleter{script: []deleteStep{
		{err: errors.New("boom")},
	}}
	cleanup := NewCleanupManager(deleter, 3, 10*time.Second, &fakeWaiter{}, testLogger())

	if cleanup.Teardown(ctx, ResourceRef{ID: "m-1"}) {
		t.Fatal("Teardown = true, want false")
	}
	if deleter.calls != 1 {
		t.Errorf("delete calls = %d, want 1", deleter.calls)
	}
}
