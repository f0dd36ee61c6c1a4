package repository

import (
	"context"
	"time"

	"leadrouter_backend/internal/engagement/domain"

	"github.com/google/uuid"
)

// =====================================
// Segregated Interfaces (Interface Segregation Principle)
// =====================================

// SignalReader provides read-only access to signal aggregates.
type SignalReader interface {
	GetSignal(ctx context.Context, leadID uuid.UUID) (domain.Signal, error)
	GetSignalByEmail(ctx context.Context, email string) (domain.Signal, error)
}

// SignalApplier runs the atomic event-apply write path.
type SignalApplier interface {
	ApplyEvent(ctx context.Context, ev domain.Event, params ApplyParams) (domain.Signal, bool, error)
}

// TransitionCommitter durably records an authorized transition.
type TransitionCommitter interface {
	CommitTransition(ctx context.Context, d domain.TransitionDecision, cmds []domain.Command) (Transition, bool, error)
}

// TransitionReader reads the transition log.
type TransitionReader interface {
	ListTransitions(ctx context.Context, leadID uuid.UUID) ([]Transition, error)
}

// EventLogReader reads the append-only event log.
type EventLogReader interface {
	ListEvents(ctx context.Context, leadID uuid.UUID, limit, offset int) ([]EventRecord, error)
}

// ReportingReader provides the read-side aggregations.
type ReportingReader interface {
	SummaryByPlatformLevel(ctx context.Context) ([]SummaryRow, error)
	ListSignalsBatch(ctx context.Context, afterLead uuid.UUID, limit int) ([]domain.Signal, error)
}

// DerivedRefresher recomputes the time-derived aggregate fields outside the
// apply path, so the sweep never decides on a decayed cached score.
type DerivedRefresher interface {
	RefreshDerived(ctx context.Context, leadID uuid.UUID, params ApplyParams) (domain.Signal, error)
}

// ApplyParams carries the scoring hook and window settings into the apply
// transaction. Rescore runs inside the transaction against the post-apply
// snapshot so the stored score/level always matches the stored counters.
type ApplyParams struct {
	BurstWindow time.Duration
	Rescore     func(domain.Signal) (float64, domain.Level)
}

// EventRecord is one row of the append-only event log.
type EventRecord struct {
	ID         uuid.UUID
	LeadID     uuid.UUID
	EventType  domain.EventType
	Source     domain.Source
	Verified   bool
	DedupKey   string
	Payload    map[string]any
	OccurredAt time.Time
	CreatedAt  time.Time
}

// Transition is one row of the append-only transition log.
type Transition struct {
	ID               uuid.UUID
	LeadID           uuid.UUID
	FromPlatform     domain.Platform
	ToPlatform       domain.Platform
	Reason           domain.TransitionReason
	TriggerEventType domain.EventType
	Score            float64
	Level            domain.Level
	DecisionKey      string
	Decision         map[string]any
	ManualOverride   bool
	CreatedAt        time.Time
}

// SummaryRow is one cell of the platform x level operator matrix.
type SummaryRow struct {
	Platform domain.Platform
	Level    domain.Level
	Count    int
}
