package orchestrator

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// Poller drives a remote operation to a terminal status under a bounded
// attempt budget. The loop is single-threaded and blocking: total wall-clock
// wait is bounded by interval*maxAttempts plus per-call latency.
type Poller struct {
	source      StatusSource
	interval    time.Duration
	maxAttempts int
	waiter      Waiter
	log         zerolog.Logger
}

// NewPoller creates a poller over the given status source.
func NewPoller(source StatusSource, interval time.Duration, maxAttempts int, waiter Waiter, log zerolog.Logger) *Poller {
	if waiter == nil {
		waiter = SleepWaiter()
	}
	if maxAttempts <= 0 {
		maxAttempts = 1
	}
	return &Poller{
		source:      source,
		interval:    interval,
		maxAttempts: maxAttempts,
		waiter:      waiter,
		log:         log,
	}
}

// Poll samples the operation until a terminal classification or until the
// attempt budget runs out, in which case it returns a synthetic TIMEOUT
// result. A transport or application error mid-loop is treated as a
// transient non-terminal event and consumes one attempt: the remote
// operation may still be proceeding, so the loop logs and continues rather
// than aborting. The only returned error is context cancellation.
func (p *Poller) Poll(ctx context.Context, handle OperationHandle) (PollResult, error) {
	log := p.log.With().Str("operation_id", handle.ID).Logger()

	for attempt := 1; attempt <= p.maxAttempts; attempt++ {
		res, err := p.source.Status(ctx, handle)
		if err != nil {
			if ctx.Err() != nil {
				return PollResult{}, ctx.Err()
			}
			log.Warn().Err(err).
				Int("attempt", attempt).
				Int("max_attempts", p.maxAttempts).
				Msg("status query failed, treating as transient")
		} else {
			if res.Class.IsTerminal() {
				res.Attempts = attempt
				log.Info().
					Str("status", string(res.Class)).
					Int("attempt", attempt).
					Msg("operation reached terminal status")
				return res, nil
			}
			log.Debug().
				Str("status", string(res.Class)).
				Float64("progress", res.Progress).
				Int("attempt", attempt).
				Msg("operation still in progress")
		}

		if err := p.waiter.Wait(ctx, p.interval); err != nil {
			return PollResult{}, err
		}
	}

	log.Warn().
		Int("max_attempts", p.maxAttempts).
		Dur("interval", p.interval).
		Msg("poll budget exhausted, remote state unknown")
	return PollResult{Class: StatusTimeout, Attempts: p.maxAttempts}, nil
}
