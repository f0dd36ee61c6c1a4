// Package service orchestrates the routing core: normalize, apply, rescore,
// decide, execute. Handlers call in here; everything below it is pure or
// persistence.
package service

import (
	"context"
	"errors"
	"time"

	"leadrouter_backend/internal/engagement/decision"
	"leadrouter_backend/internal/engagement/domain"
	"leadrouter_backend/internal/engagement/executor"
	"leadrouter_backend/internal/engagement/repository"
	"leadrouter_backend/internal/engagement/scoring"
	appevents "leadrouter_backend/internal/events"
	"leadrouter_backend/platform/apperr"
	"leadrouter_backend/platform/config"
	"leadrouter_backend/platform/events"
	"leadrouter_backend/platform/logger"

	"github.com/google/uuid"
)

// Store is the persistence surface the service needs.
type Store interface {
	repository.SignalReader
	repository.SignalApplier
	repository.TransitionReader
	repository.EventLogReader
	repository.ReportingReader
	repository.DerivedRefresher
}

type Service struct {
	store    Store
	executor *executor.Executor
	engine   *decision.Engine
	scorer   *Scorer
	bus      events.Bus
	log      *logger.Logger

	clockSkew   time.Duration
	retryBudget int

	// admission bounds in-flight synchronous applies. Acquisition waits up
	// to admitWait before the request is rejected with 429; an accepted
	// event is always durable by the time the handler acks it.
	admission chan struct{}
	admitWait time.Duration
}

func New(store Store, exec *executor.Executor, engine *decision.Engine, scorer *Scorer, bus events.Bus, log *logger.Logger, cfg config.RoutingConfig) *Service {
	maxInFlight := cfg.GetIngestMaxInFlight()
	if maxInFlight <= 0 {
		maxInFlight = 256
	}
	return &Service{
		store:       store,
		executor:    exec,
		engine:      engine,
		scorer:      scorer,
		bus:         bus,
		log:         log,
		clockSkew:   cfg.GetClockSkewTolerance(),
		retryBudget: cfg.GetApplyRetryBudget(),
		admission:   make(chan struct{}, maxInFlight),
		admitWait:   cfg.GetIngestAdmissionWait(),
	}
}

// IngestResult reports what one accepted event did.
type IngestResult struct {
	LeadID     uuid.UUID          `json:"leadId"`
	Applied    bool               `json:"applied"`
	Duplicate  bool               `json:"duplicate"`
	Score      float64            `json:"score"`
	Level      domain.Level       `json:"level"`
	Platform   domain.Platform    `json:"platform"`
	Transition *TransitionSummary `json:"transition,omitempty"`
}

// TransitionSummary is the routing outcome attached to an ingest response
// when the event pushed the lead across a boundary.
type TransitionSummary struct {
	From   domain.Platform         `json:"from"`
	To     domain.Platform         `json:"to"`
	Reason domain.TransitionReason `json:"reason"`
}

// Ingest runs the full pipeline for one raw adapter event. The write is
// synchronous: a 2xx to the adapter means the event is committed. Version
// conflicts are retried within the budget; a full pipeline under sustained
// conflict surfaces as Conflict so the adapter redelivers later.
func (s *Service) Ingest(ctx context.Context, raw domain.RawEvent) (IngestResult, error) {
	release, err := s.admit(ctx)
	if err != nil {
		return IngestResult{}, err
	}
	defer release()

	ev, err := domain.NormalizeEvent(raw, time.Now().UTC(), s.clockSkew)
	if err != nil {
		return IngestResult{}, err
	}

	snapshot, applied, err := s.applyWithRetry(ctx, ev)
	if err != nil {
		return IngestResult{}, err
	}

	result := IngestResult{
		LeadID:    snapshot.LeadID,
		Applied:   applied,
		Duplicate: !applied,
		Score:     snapshot.EngagementScore,
		Level:     snapshot.EngagementLevel,
		Platform:  snapshot.CurrentPlatform,
	}
	if !applied {
		return result, nil
	}

	s.bus.Publish(ctx, appevents.NewEventApplied(
		snapshot.LeadID, ev.EventType, ev.Source, snapshot.EngagementScore, snapshot.EngagementLevel, snapshot.Version,
	))

	if d := s.engine.Decide(snapshot, ev.EventType); d != nil {
		transition, committed, err := s.executor.Execute(ctx, *d)
		if err != nil {
			// The event itself is committed; routing is repaired by the
			// reconciliation sweep. Never fail the ingest for this.
			s.log.WithContext(ctx).Error("transition execution failed",
				"lead_id", snapshot.LeadID, "target", d.Target, "error", err)
			return result, nil
		}
		if committed {
			result.Platform = transition.ToPlatform
			result.Transition = &TransitionSummary{
				From:   transition.FromPlatform,
				To:     transition.ToPlatform,
				Reason: transition.Reason,
			}
		}
	}

	return result, nil
}

func (s *Service) admit(ctx context.Context) (func(), error) {
	timer := time.NewTimer(s.admitWait)
	defer timer.Stop()

	select {
	case s.admission <- struct{}{}:
		return func() { <-s.admission }, nil
	case <-ctx.Done():
		return nil, apperr.Wrap(apperr.KindUnavailable, "request cancelled", ctx.Err())
	case <-timer.C:
		return nil, apperr.TooManyRequests("ingest capacity exhausted, retry with backoff")
	}
}

func (s *Service) applyWithRetry(ctx context.Context, ev domain.Event) (domain.Signal, bool, error) {
	budget := s.retryBudget
	if budget <= 0 {
		budget = 5
	}

	params := repository.ApplyParams{
		BurstWindow: s.scorer.BurstWindow(),
		Rescore:     s.scorer.Rescore,
	}

	var lastErr error
	for attempt := 0; attempt < budget; attempt++ {
		before := domain.LevelCold
		if existing, err := s.lookupPrior(ctx, ev); err == nil {
			before = existing.EngagementLevel
		}

		snapshot, applied, err := s.store.ApplyEvent(ctx, ev, params)
		if err == nil {
			if applied && snapshot.EngagementLevel != before {
				s.bus.Publish(ctx, appevents.NewLevelChanged(snapshot.LeadID, before, snapshot.EngagementLevel, snapshot.EngagementScore))
			}
			return snapshot, applied, nil
		}
		if !errors.Is(err, repository.ErrVersionConflict) {
			return domain.Signal{}, false, apperr.Wrap(apperr.KindUnavailable, "signal store unavailable", err)
		}
		lastErr = err
	}

	return domain.Signal{}, false, apperr.Wrap(apperr.KindConflict, "apply retry budget exhausted", lastErr)
}

func (s *Service) lookupPrior(ctx context.Context, ev domain.Event) (domain.Signal, error) {
	if ev.LeadID != nil {
		return s.store.GetSignal(ctx, *ev.LeadID)
	}
	return s.store.GetSignalByEmail(ctx, ev.Email)
}

// GetSignal returns the current aggregate for a lead.
func (s *Service) GetSignal(ctx context.Context, leadID uuid.UUID) (domain.Signal, error) {
	signal, err := s.store.GetSignal(ctx, leadID)
	if errors.Is(err, repository.ErrNotFound) {
		return domain.Signal{}, apperr.NotFound("lead has no engagement history")
	}
	if err != nil {
		return domain.Signal{}, apperr.Wrap(apperr.KindUnavailable, "signal store unavailable", err)
	}
	return signal, nil
}

// ListEvents returns a page of the event log for a lead.
func (s *Service) ListEvents(ctx context.Context, leadID uuid.UUID, limit, offset int) ([]repository.EventRecord, error) {
	records, err := s.store.ListEvents(ctx, leadID, limit, offset)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindUnavailable, "event log unavailable", err)
	}
	return records, nil
}

// ListTransitions returns the transition history for a lead.
func (s *Service) ListTransitions(ctx context.Context, leadID uuid.UUID) ([]repository.Transition, error) {
	transitions, err := s.store.ListTransitions(ctx, leadID)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindUnavailable, "transition log unavailable", err)
	}
	return transitions, nil
}

// Summary returns the platform x level lead-count matrix.
func (s *Service) Summary(ctx context.Context) ([]repository.SummaryRow, error) {
	rows, err := s.store.SummaryByPlatformLevel(ctx)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindUnavailable, "reporting unavailable", err)
	}
	return rows, nil
}

// Override commits an operator-requested transition, bypassing the decision
// table but not the legal-transition graph.
func (s *Service) Override(ctx context.Context, leadID uuid.UUID, target domain.Platform, requestedBy uuid.UUID) (repository.Transition, error) {
	snapshot, err := s.GetSignal(ctx, leadID)
	if err != nil {
		return repository.Transition{}, err
	}
	if snapshot.CurrentPlatform == target {
		return repository.Transition{}, apperr.Conflict("lead is already on the requested platform")
	}

	d := domain.TransitionDecision{
		LeadID:             leadID,
		From:               snapshot.CurrentPlatform,
		Target:             target,
		Reason:             domain.ReasonManualOverride,
		Score:              snapshot.EngagementScore,
		ScoreVersion:       scoring.Version(),
		Level:              snapshot.EngagementLevel,
		AuthorizingVersion: snapshot.Version,
		ManualOverride:     true,
		RequestedBy:        &requestedBy,
	}
	if err := decision.ValidateTransition(d); err != nil {
		return repository.Transition{}, apperr.Wrap(apperr.KindValidation, "illegal transition", err)
	}

	transition, committed, err := s.executor.Execute(ctx, d)
	if err != nil {
		return repository.Transition{}, apperr.Wrap(apperr.KindUnavailable, "transition commit failed", err)
	}
	if !committed {
		return repository.Transition{}, apperr.Conflict("lead state changed, re-read and retry")
	}
	return transition, nil
}
