package executor

import (
	"context"
	"errors"
	"sync"
	"testing"

	"leadrouter_backend/internal/engagement/domain"
	"leadrouter_backend/internal/engagement/repository"
	appevents "leadrouter_backend/internal/events"
	"leadrouter_backend/platform/events"
	"leadrouter_backend/platform/logger"

	"github.com/google/uuid"
)

// recordingBus captures published events synchronously for assertions.
type recordingBus struct {
	mu        sync.Mutex
	published []events.Event
}

func (b *recordingBus) Publish(_ context.Context, event events.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.published = append(b.published, event)
}

func (b *recordingBus) PublishSync(ctx context.Context, event events.Event) error {
	b.Publish(ctx, event)
	return nil
}

func (b *recordingBus) Subscribe(string, events.Handler) {}

func (b *recordingBus) names() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	names := make([]string, 0, len(b.published))
	for _, e := range b.published {
		names = append(names, e.EventName())
	}
	return names
}

// fakeCommitter scripts the commit outcome and records what it was asked.
type fakeCommitter struct {
	committed bool
	err       error

	gotDecision *domain.TransitionDecision
	gotCommands []domain.Command
}

func (f *fakeCommitter) CommitTransition(_ context.Context, d domain.TransitionDecision, cmds []domain.Command) (repository.Transition, bool, error) {
	f.gotDecision = &d
	f.gotCommands = cmds
	if f.err != nil {
		return repository.Transition{}, false, f.err
	}
	if !f.committed {
		return repository.Transition{}, false, nil
	}
	return repository.Transition{
		ID:           uuid.New(),
		LeadID:       d.LeadID,
		FromPlatform: d.From,
		ToPlatform:   d.Target,
		Reason:       d.Reason,
	}, true, nil
}

func makeDecision(from, to domain.Platform) domain.TransitionDecision {
	return domain.TransitionDecision{
		LeadID:             uuid.New(),
		From:               from,
		Target:             to,
		Reason:             domain.ReasonPositiveIntent,
		AuthorizingVersion: 4,
	}
}

func TestExecute_CommitThenNotify(t *testing.T) {
	store := &fakeCommitter{committed: true}
	bus := &recordingBus{}
	exec := New(store, bus, logger.New("test"))

	transition, committed, err := exec.Execute(context.Background(), makeDecision(domain.PlatformOutreach, domain.PlatformCRM))
	if err != nil {
		t.Fatalf("execute failed: %v", err)
	}
	if !committed {
		t.Fatal("expected commit")
	}
	if transition.ToPlatform != domain.PlatformCRM {
		t.Fatalf("unexpected transition %+v", transition)
	}

	if len(store.gotCommands) != 2 {
		t.Fatalf("expected EnrollInCRM + RemoveFromOutreach, got %+v", store.gotCommands)
	}

	names := bus.names()
	if len(names) != 3 {
		t.Fatalf("expected transition event + 2 command events, got %v", names)
	}
	if names[0] != appevents.TransitionCommitted {
		t.Fatalf("transition event must come first, got %v", names)
	}
}

func TestExecute_IllegalDecisionDroppedWithAlarm(t *testing.T) {
	store := &fakeCommitter{committed: true}
	bus := &recordingBus{}
	exec := New(store, bus, logger.New("test"))

	_, committed, err := exec.Execute(context.Background(), makeDecision(domain.PlatformCRM, domain.PlatformOutreach))
	if err != nil {
		t.Fatalf("illegal decision must be dropped, not errored: %v", err)
	}
	if committed {
		t.Fatal("illegal decision must never commit")
	}
	if store.gotDecision != nil {
		t.Fatal("store must not see an illegal decision")
	}

	names := bus.names()
	if len(names) != 1 || names[0] != appevents.IllegalTransitionDetected {
		t.Fatalf("expected only the integrity alarm, got %v", names)
	}
}

func TestExecute_NoCommitNoEvents(t *testing.T) {
	store := &fakeCommitter{committed: false}
	bus := &recordingBus{}
	exec := New(store, bus, logger.New("test"))

	_, committed, err := exec.Execute(context.Background(), makeDecision(domain.PlatformOutreach, domain.PlatformCRM))
	if err != nil {
		t.Fatalf("execute failed: %v", err)
	}
	if committed {
		t.Fatal("expected idempotent no-op")
	}
	if len(bus.names()) != 0 {
		t.Fatalf("no-op commit must emit nothing, got %v", bus.names())
	}
}

func TestExecute_StoreErrorPropagatesWithoutEvents(t *testing.T) {
	store := &fakeCommitter{err: errors.New("connection reset")}
	bus := &recordingBus{}
	exec := New(store, bus, logger.New("test"))

	_, _, err := exec.Execute(context.Background(), makeDecision(domain.PlatformOutreach, domain.PlatformCRM))
	if err == nil {
		t.Fatal("expected store error")
	}
	if len(bus.names()) != 0 {
		t.Fatalf("failed commit must emit nothing, got %v", bus.names())
	}
}
