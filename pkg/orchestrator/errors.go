package orchestrator

import (
	"errors"
	"fmt"
)

// FailureKind classifies workflow failures for exit-code and retry policy.
type FailureKind string

const (
	// FailureConfig indicates invalid or missing configuration, detected
	// before any authentication takes place. Fatal.
	FailureConfig FailureKind = "config"

	// FailureAuth indicates the credential exchange failed. Fatal; no
	// orchestration begins.
	FailureAuth FailureKind = "auth"

	// FailureSubmission indicates the operation request did not yield a
	// usable operation id. Fatal to the workflow attempt: there is no
	// handle to poll, and re-submission would duplicate remote state.
	FailureSubmission FailureKind = "submission"

	// FailureTransient indicates a transport or application error that is
	// retried inside the poller's or cleanup manager's bounded loop. It is
	// never surfaced directly.
	FailureTransient FailureKind = "transient"

	// FailureRemoteOperation indicates the operation reached a terminal
	// FAILED or CANCELED status. Never retried.
	FailureRemoteOperation FailureKind = "remote_operation"

	// FailureTimeout indicates the poll budget was exhausted without a
	// terminal status. Distinct from FAILED: remote state is unknown,
	// not negative.
	FailureTimeout FailureKind = "timeout"

	// FailureResourceNotFound indicates the operation succeeded but the
	// created resource could not be located. Critical: a live resource
	// may be orphaned and needs operator attention.
	FailureResourceNotFound FailureKind = "resource_not_found"

	// FailureCleanupExhausted indicates every teardown attempt failed.
	// Surfaced without crashing, but forces a failure exit code.
	FailureCleanupExhausted FailureKind = "cleanup_exhausted"
)

// WorkflowError is a classified workflow failure.
type WorkflowError struct {
	// Kind is the failure classification.
	Kind FailureKind `json:"kind"`

	// Message is the human-readable failure description.
	Message string `json:"message"`

	// Op is the workflow phase in which the failure occurred.
	Op string `json:"op,omitempty"`

	// Err is the underlying error, if any.
	Err error `json:"-"`
}

// Error implements the error interface.
func (e *WorkflowError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Kind, e.Message)
}

// Unwrap returns the underlying error for error chain inspection.
func (e *WorkflowError) Unwrap() error {
	return e.Err
}

// Is implements error equality checking for errors.Is.
func (e *WorkflowError) Is(target error) bool {
	t, ok := target.(*WorkflowError)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// WithOp attaches the workflow phase to the error.
func (e *WorkflowError) WithOp(op string) *WorkflowError {
	e.Op = op
	return e
}

// NewConfigError creates a fatal pre-auth configuration error.
func NewConfigError(message string, err error) *WorkflowError {
	return &WorkflowError{Kind: FailureConfig, Message: message, Err: err}
}

// NewAuthError creates a fatal authentication error.
func NewAuthError(message string, err error) *WorkflowError {
	return &WorkflowError{Kind: FailureAuth, Message: message, Err: err}
}

// NewSubmissionError creates a submission error.
func NewSubmissionError(message string, err error) *WorkflowError {
	return &WorkflowError{Kind: FailureSubmission, Message: message, Err: err}
}

// NewTransientError creates an error retried within a bounded loop.
func NewTransientError(message string, err error) *WorkflowError {
	return &WorkflowError{Kind: FailureTransient, Message: message, Err: err}
}

// NewRemoteOperationError creates an error for a terminal FAILED/CANCELED status.
func NewRemoteOperationError(message string) *WorkflowError {
	return &WorkflowError{Kind: FailureRemoteOperation, Message: message}
}

// NewTimeoutError creates an error for an exhausted poll budget.
func NewTimeoutError(message string) *WorkflowError {
	return &WorkflowError{Kind: FailureTimeout, Message: message}
}

// NewResourceNotFoundError creates the critical not-found-after-success error.
func NewResourceNotFoundError(name string) *WorkflowError {
	return &WorkflowError{
		Kind:    FailureResourceNotFound,
		Message: fmt.Sprintf("operation succeeded but resource %q was not found", name),
	}
}

// NewCleanupExhaustedError creates an error for exhausted teardown retries.
func NewCleanupExhaustedError(resourceID string, attempts int) *WorkflowError {
	return &WorkflowError{
		Kind:    FailureCleanupExhausted,
		Message: fmt.Sprintf("teardown of %s not accepted after %d attempts", resourceID, attempts),
	}
}

// KindOf returns the failure kind of err, or an empty kind for untyped errors.
func KindOf(err error) FailureKind {
	var e *WorkflowError
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// IsTransient returns true if the error may be retried within a bounded loop.
func IsTransient(err error) bool {
	return KindOf(err) == FailureTransient
}

// RequiresManualIntervention returns true for failures that leave remote
// state needing operator attention: an unlocatable resource after success,
// or a resource whose teardown was never accepted.
func RequiresManualIntervention(err error) bool {
	k := KindOf(err)
	return k == FailureResourceNotFound || k == FailureCleanupExhausted
}
