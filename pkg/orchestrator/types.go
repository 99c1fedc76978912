package orchestrator

import (
	"context"
	"strings"
)

// StatusClass is the normalized classification of a remote operation status.
type StatusClass string

const (
	// StatusPending indicates the operation is queued but not yet started.
	StatusPending StatusClass = "PENDING"

	// StatusRunning indicates the operation is in progress.
	StatusRunning StatusClass = "RUNNING"

	// StatusSucceeded indicates the operation completed successfully.
	StatusSucceeded StatusClass = "SUCCEEDED"

	// StatusFailed indicates the operation failed remotely.
	StatusFailed StatusClass = "FAILED"

	// StatusCanceled indicates the operation was canceled remotely.
	StatusCanceled StatusClass = "CANCELED"

	// StatusUnknown indicates a status value outside the configured
	// vocabulary. Unknown statuses are treated as non-terminal.
	StatusUnknown StatusClass = "UNKNOWN"

	// StatusTimeout is a synthetic class produced by the poller when its
	// attempt budget is exhausted without a terminal status. The remote
	// operation may still be running.
	StatusTimeout StatusClass = "TIMEOUT"
)

// IsTerminal returns true if the remote operation will not transition further.
func (s StatusClass) IsTerminal() bool {
	return s == StatusSucceeded || s == StatusFailed || s == StatusCanceled
}

// Succeeded returns true for the terminal success class.
func (s StatusClass) Succeeded() bool {
	return s == StatusSucceeded
}

// StatusVocabulary maps raw remote status strings onto status classes.
// Matching is case-insensitive. A workflow supplies the vocabulary its
// operation kind is known to emit; anything outside it classifies as UNKNOWN.
type StatusVocabulary struct {
	Succeeded []string
	Failed    []string
	Canceled  []string
	Running   []string
	Pending   []string
}

// DefaultVocabulary returns the status vocabulary shared by the platform's
// async request APIs.
func DefaultVocabulary() StatusVocabulary {
	return StatusVocabulary{
		Succeeded: []string{"SUCCEEDED", "SUCCESS", "SUCCESSWITHWARNINGS"},
		Failed:    []string{"FAILED", "FAILURE"},
		Canceled:  []string{"CANCELED", "CANCELLED"},
		Running:   []string{"RUNNING", "FINISHING", "TO_FINISH"},
		Pending:   []string{"QUEUED", "PENDING", "ACQUIRING"},
	}
}

// Classify normalizes a raw status string into a StatusClass.
func (v StatusVocabulary) Classify(raw string) StatusClass {
	s := strings.ToUpper(strings.TrimSpace(raw))
	switch {
	case contains(v.Succeeded, s):
		return StatusSucceeded
	case contains(v.Failed, s):
		return StatusFailed
	case contains(v.Canceled, s):
		return StatusCanceled
	case contains(v.Running, s):
		return StatusRunning
	case contains(v.Pending, s):
		return StatusPending
	default:
		return StatusUnknown
	}
}

func contains(vocab []string, s string) bool {
	for _, v := range vocab {
		if strings.EqualFold(v, s) {
			return true
		}
	}
	return false
}

// OperationHandle identifies a remote long-running operation. The ID is
// assigned at submission and never changes for the duration of a run.
type OperationHandle struct {
	ID            string `json:"id"`
	InitialStatus string `json:"initial_status,omitempty"`
}

// PollResult is one classified observation of a remote operation. Results
// are produced fresh on every poll attempt and never mutated.
type PollResult struct {
	// Class is the normalized status classification.
	Class StatusClass `json:"class"`

	// Progress is the reported completion percentage, 0-100.
	Progress float64 `json:"progress"`

	// Message carries the remote error text for failed operations.
	Message string `json:"message,omitempty"`

	// Attempts is the number of poll attempts consumed when this result
	// was produced.
	Attempts int `json:"attempts"`
}

// ResourceRef identifies a side-effect resource (a live mount) created by a
// successful operation. It exists only after the locator resolves it, and is
// created at most once per workflow run.
type ResourceRef struct {
	// ID is the remote identifier used for teardown.
	ID string `json:"id"`

	// DeclaredName is the name chosen before submission.
	DeclaredName string `json:"declared_name"`

	// DiscoveredName is the name the lookup actually returned.
	DiscoveredName string `json:"discovered_name"`
}

// Outcome is the reduction of a whole workflow run to its final result.
// It is computed exactly once, by the coordinator, at the end of the run.
type Outcome struct {
	// PrimarySucceeded is true if the submitted operation reached SUCCEEDED.
	PrimarySucceeded bool `json:"primary_succeeded"`

	// ResourceFound is true if the resource step located its resource.
	// Always false for workflows without a resource step.
	ResourceFound bool `json:"resource_found"`

	// CleanupSucceeded is nil when no cleanup applied to this run.
	CleanupSucceeded *bool `json:"cleanup_succeeded,omitempty"`

	// ExitCode is 0 only for a fully successful end-to-end run.
	ExitCode int `json:"exit_code"`

	// Failure describes why the run did not fully succeed, if it did not.
	Failure *WorkflowError `json:"failure,omitempty"`
}

// Submitter creates the remote operation. It must be invoked exactly once
// per workflow run: re-submission after a failure would duplicate remote
// side effects, so callers never retry it.
type Submitter interface {
	Submit(ctx context.Context) (OperationHandle, error)
}

// SubmitterFunc adapts a function to the Submitter interface.
type SubmitterFunc func(ctx context.Context) (OperationHandle, error)

// Submit implements Submitter.
func (f SubmitterFunc) Submit(ctx context.Context) (OperationHandle, error) {
	return f(ctx)
}

// StatusSource samples the current status of an operation. Implementations
// classify the raw remote status through their workflow's vocabulary.
// Sampling is idempotent and safe to repeat.
type StatusSource interface {
	Status(ctx context.Context, handle OperationHandle) (PollResult, error)
}

// StatusSourceFunc adapts a function to the StatusSource interface.
type StatusSourceFunc func(ctx context.Context, handle OperationHandle) (PollResult, error)

// Status implements StatusSource.
func (f StatusSourceFunc) Status(ctx context.Context, handle OperationHandle) (PollResult, error) {
	return f(ctx, handle)
}

// ResourceFinder looks up created resources by exact name.
type ResourceFinder interface {
	FindByName(ctx context.Context, name string) ([]ResourceRef, error)
}

// ResourceFinderFunc adapts a function to the ResourceFinder interface.
type ResourceFinderFunc func(ctx context.Context, name string) ([]ResourceRef, error)

// FindByName implements ResourceFinder.
func (f ResourceFinderFunc) FindByName(ctx context.Context, name string) ([]ResourceRef, error) {
	return f(ctx, name)
}

// ResourceDeleter initiates teardown of a created resource. A returned task
// ID is sufficient evidence that deletion was accepted; the deleter is not
// expected to wait for the deletion to complete.
type ResourceDeleter interface {
	Delete(ctx context.Context, ref ResourceRef) (taskID string, err error)
}

// ResourceDeleterFunc adapts a function to the ResourceDeleter interface.
type ResourceDeleterFunc func(ctx context.Context, ref ResourceRef) (string, error)

// Delete implements ResourceDeleter.
func (f ResourceDeleterFunc) Delete(ctx context.Context, ref ResourceRef) (string, error) {
	return f(ctx, ref)
}

// ResourceStep describes the optional resolve-and-teardown phase of a
// workflow that creates a remote resource as a side effect.
type ResourceStep struct {
	// Name is the resource name chosen before submission.
	Name string

	// Finder resolves the resource once it becomes visible.
	Finder ResourceFinder

	// Deleter tears the resource down.
	Deleter ResourceDeleter
}

// Workflow binds one operation kind to the orchestration pipeline: how to
// submit it, how to observe it, and whether a resource step follows success.
type Workflow struct {
	// Kind names the operation kind, e.g. "validate-backup" or "live-mount".
	Kind string

	// Target is the remote object the workflow operates on, for logs and
	// run records.
	Target string

	// Submitter creates the remote operation.
	Submitter Submitter

	// Status samples the operation's classified status.
	Status StatusSource

	// Resource is nil for workflows with no follow-up resource.
	Resource *ResourceStep
}

// Recorder receives workflow lifecycle events for persistence. The zero
// value of a run is recorded by the caller; the coordinator only appends
// step-level events.
type Recorder interface {
	Record(ctx context.Context, level, message string, details map[string]any)
}

// RecorderFunc adapts a function to the Recorder interface.
type RecorderFunc func(ctx context.Context, level, message string, details map[string]any)

// Record implements Recorder.
func (f RecorderFunc) Record(ctx context.Context, level, message string, details map[string]any) {
	f(ctx, level, message, details)
}
