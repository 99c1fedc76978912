package orchestrator

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// CleanupManager tears down a created resource with bounded retries. It is
// invoked exactly once per ResourceRef obtained during a run, regardless of
// how the rest of the workflow fared: leaving the resource allocated is
// itself a fault.
type CleanupManager struct {
	deleter    ResourceDeleter
	maxRetries int
	retryDelay time.Duration
	waiter     Waiter
	log        zerolog.Logger
}

// NewCleanupManager creates a cleanup manager over the given deleter.
func NewCleanupManager(deleter ResourceDeleter, maxRetries int, retryDelay time.Duration, waiter Waiter, log zerolog.Logger) *CleanupManager {
	if waiter == nil {
		waiter = SleepWaiter()
	}
	if maxRetries <= 0 {
		maxRetries = 1
	}
	return &CleanupManager{
		deleter:    deleter,
		maxRetries: maxRetries,
		retryDelay: retryDelay,
		waiter:     waiter,
		log:        log,
	}
}

// Teardown attempts the delete call up to maxRetries times with a fixed
// delay between attempts. Transport errors, empty responses, and explicit
// application-level errors are all retriable. A response carrying a task id
// is sufficient evidence that deletion was initiated; the manager does not
// wait for the deletion itself to complete. Teardown never fails with an
// error: it reports true on the first accepted attempt and false only after
// every attempt is exhausted.
func (m *CleanupManager) Teardown(ctx context.Context, ref ResourceRef) bool {
	log := m.log.With().Str("resource_id", ref.ID).Logger()

	for attempt := 1; attempt <= m.maxRetries; attempt++ {
		taskID, err := m.deleter.Delete(ctx, ref)
		switch {
		case err != nil:
			log.Warn().Err(err).
				Int("attempt", attempt).
				Int("max_retries", m.maxRetries).
				Msg("teardown attempt failed")
		case taskID == "":
			log.Warn().
				Int("attempt", attempt).
				Int("max_retries", m.maxRetries).
				Msg("teardown response carried no task id")
		default:
			log.Info().
				Str("task_id", taskID).
				Int("attempt", attempt).
				Msg("teardown accepted")
			return true
		}

		if ctx.Err() != nil {
			return false
		}
		if attempt < m.maxRetries {
			if err := m.waiter.Wait(ctx, m.retryDelay); err != nil {
				return false
			}
		}
	}

	log.Error().
		Int("max_retries", m.maxRetries).
		Msg("teardown retries exhausted, resource needs manual removal")
	return false
}
