// Package executor commits authorized transition decisions. It owns the
// ordering guarantee of the routing core: validate, commit durably, and only
// then publish and hand commands to the dispatcher.
package executor

import (
	"context"

	"leadrouter_backend/internal/engagement/decision"
	"leadrouter_backend/internal/engagement/domain"
	"leadrouter_backend/internal/engagement/repository"
	appevents "leadrouter_backend/internal/events"
	"leadrouter_backend/platform/events"
	"leadrouter_backend/platform/logger"
)

type Executor struct {
	store repository.TransitionCommitter
	bus   events.Bus
	log   *logger.Logger
}

func New(store repository.TransitionCommitter, bus events.Bus, log *logger.Logger) *Executor {
	return &Executor{store: store, bus: bus, log: log}
}

// Execute validates and commits one decision.
//
// An illegal decision is a data-integrity alarm: it is logged, announced on
// the bus, and dropped without error so the triggering ingest still succeeds.
// Side effects (bus events, outbox commands) happen strictly after the
// commit; a duplicate or stale decision commits nothing and emits nothing.
func (e *Executor) Execute(ctx context.Context, d domain.TransitionDecision) (repository.Transition, bool, error) {
	if err := decision.ValidateTransition(d); err != nil {
		e.log.IllegalTransition(d.LeadID.String(), string(d.From), string(d.Target), err.Error())
		e.bus.Publish(ctx, appevents.NewIllegalTransitionDetected(d.LeadID, d.From, d.Target, err.Error()))
		return repository.Transition{}, false, nil
	}

	cmds := domain.CommandsFor(d)

	transition, committed, err := e.store.CommitTransition(ctx, d, cmds)
	if err != nil {
		return repository.Transition{}, false, err
	}
	if !committed {
		return repository.Transition{}, false, nil
	}

	e.log.WithContext(ctx).Info("transition committed",
		"lead_id", d.LeadID,
		"from", transition.FromPlatform,
		"to", transition.ToPlatform,
		"reason", d.Reason,
		"score", d.Score,
	)

	e.bus.Publish(ctx, appevents.NewTransitionCommitted(
		d.LeadID, transition.FromPlatform, transition.ToPlatform, d.Reason, d.Key(), d.Score,
	))
	for _, cmd := range cmds {
		e.bus.Publish(ctx, appevents.NewTransitionCommandIssued(cmd.LeadID, cmd.Type, d.Key()))
	}

	return transition, true, nil
}
