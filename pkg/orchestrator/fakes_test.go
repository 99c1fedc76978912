package orchestrator

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// fakeWaiter records requested waits without sleeping.
type fakeWaiter struct {
	mu    sync.Mutex
	waits []time.Duration
	err   error
}

func (w *fakeWaiter) Wait(ctx context.Context, d time.Duration) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.err != nil {
		return w.err
	}
	w.waits = append(w.waits, d)
	return ctx.Err()
}

func (w *fakeWaiter) count() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.waits)
}

// scriptedSource replays a fixed sequence of poll results. The last entry
// repeats once the script runs out.
type scriptedSource struct {
	script []scriptStep
	calls  int
}

type scriptStep struct {
	res PollResult
	err error
}

func (s *scriptedSource) Status(_ context.Context, _ OperationHandle) (PollResult, error) {
	step := s.script[len(s.script)-1]
	if s.calls < len(s.script) {
		step = s.script[s.calls]
	}
	s.calls++
	return step.res, step.err
}

// countingSubmitter counts submissions.
type countingSubmitter struct {
	handle OperationHandle
	err    error
	calls  int
}

func (s *countingSubmitter) Submit(_ context.Context) (OperationHandle, error) {
	s.calls++
	return s.handle, s.err
}

// fakeFinder returns a fixed match set or error.
type fakeFinder struct {
	refs  []ResourceRef
	err   error
	calls int
}

func (f *fakeFinder) FindByName(_ context.Context, _ string) ([]ResourceRef, error) {
	f.calls++
	return f.refs, f.err
}

// scriptedDeleter replays task-id/error pairs across delete attempts.
type scriptedDeleter struct {
	script []deleteStep
	calls  int
}

type deleteStep struct {
	taskID string
	err    error
}

func (d *scriptedDeleter) Delete(_ context.Context, _ ResourceRef) (string, error) {
	step := d.script[len(d.script)-1]
	if d.calls < len(d.script) {
		step = d.script[d.calls]
	}
	d.calls++
	return step.taskID, step.err
}

func testLogger() zerolog.Logger {
	return zerolog.Nop()
}
