package orchestrator

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/snapdrill/snapdrill/pkg/telemetry"
)

// Tuning holds the timing knobs for one workflow run. The poll budget is
// attempt-count based, not an absolute deadline, so per-call latency
// inflates total duration.
type Tuning struct {
	// PollInterval is the fixed delay between status poll attempts.
	PollInterval time.Duration

	// PollMaxAttempts bounds the poll loop.
	PollMaxAttempts int

	// GracePeriod is the wait before the first (and only) resource lookup.
	GracePeriod time.Duration

	// CleanupRetries bounds the teardown loop.
	CleanupRetries int

	// CleanupRetryDelay is the fixed delay between teardown attempts.
	CleanupRetryDelay time.Duration
}

// DefaultTuning returns the stock timing configuration: a 360s poll budget
// in 5s steps, a 10s visibility grace period, and three teardown attempts
// 10s apart.
func DefaultTuning() Tuning {
	return Tuning{
		PollInterval:      5 * time.Second,
		PollMaxAttempts:   72,
		GracePeriod:       10 * time.Second,
		CleanupRetries:    3,
		CleanupRetryDelay: 10 * time.Second,
	}
}

// CoordinatorConfig assembles a coordinator's collaborators. Only Tuning is
// required; nil telemetry and recorder fields disable those concerns.
type CoordinatorConfig struct {
	Tuning   Tuning
	Waiter   Waiter
	Logger   zerolog.Logger
	Metrics  *telemetry.Metrics
	Tracer   *telemetry.Tracer
	Recorder Recorder
}

// Coordinator sequences submit, poll, locate, and cleanup for a workflow
// and reduces every outcome to a single exit status. One coordinator run
// manages exactly one operation handle and at most one created resource;
// execution is single-threaded and blocking throughout.
type Coordinator struct {
	tuning   Tuning
	waiter   Waiter
	log      zerolog.Logger
	metrics  *telemetry.Metrics
	tracer   *telemetry.Tracer
	recorder Recorder
}

// NewCoordinator creates a coordinator.
func NewCoordinator(cfg CoordinatorConfig) *Coordinator {
	waiter := cfg.Waiter
	if waiter == nil {
		waiter = SleepWaiter()
	}
	return &Coordinator{
		tuning:   cfg.Tuning,
		waiter:   waiter,
		log:      cfg.Logger,
		metrics:  cfg.Metrics,
		tracer:   cfg.Tracer,
		recorder: cfg.Recorder,
	}
}

// Run executes one end-to-end workflow: submit the operation, poll it to a
// terminal state, and, when the workflow declares a resource step, locate
// the created resource and tear it down. The exit code is 0 only if the
// primary operation succeeded and, whenever a cleanup step applied, that
// cleanup was accepted. A dangling mount is an operational risk equal to or
// greater than an unvalidated backup, so cleanup failures force exit 1 even
// after a successful primary operation.
func (c *Coordinator) Run(ctx context.Context, wf Workflow) Outcome {
	start := time.Now()
	log := c.log.With().
		Str("workflow", wf.Kind).
		Str("target", wf.Target).
		Logger()

	ctx, span := c.tracer.StartWorkflowSpan(ctx, wf.Kind, wf.Target)
	outcome := c.run(ctx, wf, log)

	if outcome.Failure != nil {
		telemetry.RecordError(span, outcome.Failure)
	} else {
		telemetry.RecordSuccess(span)
	}
	span.End()

	c.metrics.RecordWorkflowCompleted(wf.Kind, outcomeLabel(outcome), time.Since(start))
	return outcome
}

func (c *Coordinator) run(ctx context.Context, wf Workflow, log zerolog.Logger) Outcome {
	// Submit. Exactly once: re-submission on failure would create a
	// duplicate remote operation.
	c.record(ctx, "info", "submitting operation", map[string]any{"workflow": wf.Kind, "target": wf.Target})
	handle, err := wf.Submitter.Submit(ctx)
	if err != nil {
		subErr := NewSubmissionError("operation submission failed", err).WithOp("submit")
		log.Error().Err(err).Msg("submission failed, nothing to poll")
		c.record(ctx, "error", subErr.Message, map[string]any{"error": err.Error()})
		return c.fail(subErr, Outcome{})
	}
	if handle.ID == "" {
		subErr := NewSubmissionError("response lacked a usable operation id", nil).WithOp("submit")
		log.Error().Msg("submission returned no operation id")
		c.record(ctx, "error", subErr.Message, nil)
		return c.fail(subErr, Outcome{})
	}
	c.metrics.RecordSubmission(wf.Kind)
	log.Info().
		Str("operation_id", handle.ID).
		Str("initial_status", handle.InitialStatus).
		Msg("operation submitted")
	c.record(ctx, "info", "operation submitted", map[string]any{"operation_id": handle.ID})

	// Poll to a terminal state within the attempt budget.
	pollCtx, pollSpan := c.tracer.StartPhaseSpan(ctx, "poll", handle.ID)
	poller := NewPoller(wf.Status, c.tuning.PollInterval, c.tuning.PollMaxAttempts, c.waiter, log)
	res, err := poller.Poll(pollCtx, handle)
	pollSpan.End()
	if err != nil {
		intErr := NewTransientError("workflow interrupted", err).WithOp("poll")
		c.record(ctx, "error", "workflow interrupted during polling", nil)
		return c.fail(intErr, Outcome{})
	}
	c.metrics.RecordPollAttempts(wf.Kind, string(res.Class), res.Attempts)

	switch res.Class {
	case StatusSucceeded:
		// Fall through to the resource step, if any.
	case StatusFailed, StatusCanceled:
		remErr := NewRemoteOperationError(terminalMessage(res)).WithOp("poll")
		log.Error().
			Str("status", string(res.Class)).
			Str("message", res.Message).
			Msg("remote operation ended unsuccessfully")
		c.record(ctx, "error", remErr.Message, map[string]any{"status": string(res.Class)})
		return c.fail(remErr, Outcome{})
	default: // StatusTimeout
		toErr := NewTimeoutError("poll budget exhausted before a terminal status").WithOp("poll")
		c.record(ctx, "error", toErr.Message, map[string]any{"attempts": res.Attempts})
		return c.fail(toErr, Outcome{})
	}

	if wf.Resource == nil {
		log.Info().Msg("workflow completed")
		c.record(ctx, "info", "workflow completed", nil)
		return Outcome{PrimarySucceeded: true, ExitCode: 0}
	}

	// Locate the created resource after the visibility grace period.
	locCtx, locSpan := c.tracer.StartPhaseSpan(ctx, "locate", wf.Resource.Name)
	locator := NewLocator(wf.Resource.Finder, c.tuning.GracePeriod, c.waiter, log)
	ref, err := locator.Locate(locCtx, wf.Resource.Name)
	if err != nil {
		telemetry.RecordError(locSpan, err)
		locSpan.End()
		if ctx.Err() != nil {
			// Cancellation is an interruption, not a lost resource.
			intErr := NewTransientError("workflow interrupted", err).WithOp("locate")
			c.record(ctx, "error", "workflow interrupted during locate", nil)
			return c.fail(intErr, Outcome{PrimarySucceeded: true})
		}
		// The operation succeeded but its resource is unaccounted for.
		// Nothing to delete, so no cleanup; the operator must check the
		// remote system by hand.
		log.Error().Err(err).
			Str("name", wf.Resource.Name).
			Msg("resource not found after successful operation, manual intervention required")
		c.record(ctx, "error", "resource not found after success", map[string]any{"name": wf.Resource.Name})
		var nf *WorkflowError
		if !errors.As(err, &nf) {
			nf = NewResourceNotFoundError(wf.Resource.Name)
		}
		return c.fail(nf, Outcome{PrimarySucceeded: true})
	}
	locSpan.End()
	c.record(ctx, "info", "resource located", map[string]any{"resource_id": ref.ID})

	// Teardown. Unconditional once a ResourceRef exists, and attempted at
	// most once per ref per run.
	clCtx, clSpan := c.tracer.StartPhaseSpan(ctx, "cleanup", ref.ID)
	cleanup := NewCleanupManager(wf.Resource.Deleter, c.tuning.CleanupRetries, c.tuning.CleanupRetryDelay, c.waiter, log)
	accepted := cleanup.Teardown(clCtx, ref)
	clSpan.End()
	c.metrics.RecordCleanup(wf.Kind, accepted)

	if !accepted {
		clErr := NewCleanupExhaustedError(ref.ID, c.tuning.CleanupRetries).WithOp("cleanup")
		c.record(ctx, "error", clErr.Message, map[string]any{"resource_id": ref.ID})
		return c.fail(clErr, Outcome{PrimarySucceeded: true, ResourceFound: true, CleanupSucceeded: boolPtr(false)})
	}

	log.Info().Msg("workflow completed, resource cleaned up")
	c.record(ctx, "info", "workflow completed", map[string]any{"resource_id": ref.ID})
	return Outcome{
		PrimarySucceeded: true,
		ResourceFound:    true,
		CleanupSucceeded: boolPtr(true),
		ExitCode:         0,
	}
}

// fail stamps the failure and exit code onto a partially-built outcome.
func (c *Coordinator) fail(err *WorkflowError, partial Outcome) Outcome {
	partial.ExitCode = 1
	partial.Failure = err
	c.metrics.RecordFailure(string(err.Kind))
	return partial
}

func (c *Coordinator) record(ctx context.Context, level, message string, details map[string]any) {
	if c.recorder == nil {
		return
	}
	c.recorder.Record(ctx, level, message, details)
}

func terminalMessage(res PollResult) string {
	if res.Message != "" {
		return res.Message
	}
	return "remote operation reported " + string(res.Class)
}

func outcomeLabel(o Outcome) string {
	if o.ExitCode == 0 {
		return "succeeded"
	}
	if o.Failure != nil {
		return string(o.Failure.Kind)
	}
	return "failed"
}

func boolPtr(b bool) *bool { return &b }
