package orchestrator

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// Locator resolves a just-created resource by the name chosen before
// submission. The remote system makes new resources discoverable only after
// a short eventual-consistency delay, so the locator waits a grace period
// before issuing a single name-based lookup. There is no internal retry
// loop: a miss signals a resource that may exist unseen and needs operator
// attention, so it is reported, not silently retried.
type Locator struct {
	finder ResourceFinder
	grace  time.Duration
	waiter Waiter
	log    zerolog.Logger
}

// NewLocator creates a locator over the given finder.
func NewLocator(finder ResourceFinder, grace time.Duration, waiter Waiter, log zerolog.Logger) *Locator {
	if waiter == nil {
		waiter = SleepWaiter()
	}
	return &Locator{finder: finder, grace: grace, waiter: waiter, log: log}
}

// Locate waits the grace period, then looks the resource up by exact name.
// If several entries match the name exactly, the first in returned order is
// selected and a warning logged. An inexact match is never accepted. A miss
// returns a FailureResourceNotFound error.
func (l *Locator) Locate(ctx context.Context, name string) (ResourceRef, error) {
	if l.grace > 0 {
		l.log.Debug().
			Str("name", name).
			Dur("grace_period", l.grace).
			Msg("waiting for resource to become visible")
		if err := l.waiter.Wait(ctx, l.grace); err != nil {
			return ResourceRef{}, err
		}
	}

	matches, err := l.finder.FindByName(ctx, name)
	if err != nil {
		if ctx.Err() != nil {
			return ResourceRef{}, ctx.Err()
		}
		// A failed lookup is indistinguishable from a miss for the
		// caller: either way the resource may exist unseen.
		nf := NewResourceNotFoundError(name).WithOp("locate")
		nf.Err = err
		return ResourceRef{}, nf
	}

	exact := matches[:0:0]
	for _, m := range matches {
		if m.DiscoveredName == name {
			exact = append(exact, m)
		}
	}

	if len(exact) == 0 {
		return ResourceRef{}, NewResourceNotFoundError(name).WithOp("locate")
	}
	if len(exact) > 1 {
		l.log.Warn().
			Str("name", name).
			Int("matches", len(exact)).
			Msg("multiple resources match name exactly, selecting first")
	}

	ref := exact[0]
	ref.DeclaredName = name
	l.log.Info().
		Str("name", name).
		Str("resource_id", ref.ID).
		Msg("resource located")
	return ref, nil
}
