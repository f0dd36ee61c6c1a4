package service

import (
	"context"
	"errors"
	"time"

	"leadrouter_backend/internal/engagement/domain"
	"leadrouter_backend/internal/engagement/repository"
	appevents "leadrouter_backend/internal/events"
	"leadrouter_backend/platform/config"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// SweepReport summarizes one reconciliation pass.
type SweepReport struct {
	Scanned     int `json:"scanned"`
	Eligible    int `json:"eligible"`
	Transitions int `json:"transitions"`
	Errors      int `json:"errors"`
}

// Reconcile sweeps every aggregate and re-evaluates the decision table
// against current state. It repairs leads whose routing was missed (executor
// outage, crashed process after commit) without depending on new events.
// Apply-path idempotency makes the sweep safe to run concurrently with live
// ingestion.
func (s *Service) Reconcile(ctx context.Context, cfg config.ReconcileConfig) (SweepReport, error) {
	batchSize := cfg.GetReconcileBatchSize()
	if batchSize <= 0 {
		batchSize = 200
	}
	parallelism := cfg.GetReconcileParallelism()
	if parallelism <= 0 {
		parallelism = 4
	}

	s.bus.Publish(ctx, appevents.NewReconciliationSweepStarted())

	var report SweepReport
	cursor := uuid.Nil

	for {
		batch, err := s.store.ListSignalsBatch(ctx, cursor, batchSize)
		if err != nil {
			return report, err
		}
		if len(batch) == 0 {
			break
		}
		cursor = batch[len(batch)-1].LeadID
		report.Scanned += len(batch)

		results := make([]sweepOutcome, len(batch))
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(parallelism)
		for i, snapshot := range batch {
			g.Go(func() error {
				results[i] = s.reconcileOne(gctx, snapshot)
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return report, err
		}

		for _, outcome := range results {
			if outcome.eligible {
				report.Eligible++
			}
			if outcome.committed {
				report.Transitions++
			}
			if outcome.failed {
				report.Errors++
			}
		}
	}

	s.log.Info("reconciliation sweep finished",
		"scanned", report.Scanned,
		"eligible", report.Eligible,
		"transitions", report.Transitions,
		"errors", report.Errors,
	)
	return report, nil
}

type sweepOutcome struct {
	eligible  bool
	committed bool
	failed    bool
}

func (s *Service) reconcileOne(ctx context.Context, snapshot domain.Signal) sweepOutcome {
	// The stored score and window counts are caches of the last apply; decay
	// them against the current clock before deciding, or the sweep promotes
	// leads whose engagement went cold months ago.
	refreshed, err := s.store.RefreshDerived(ctx, snapshot.LeadID, repository.ApplyParams{
		BurstWindow: s.scorer.BurstWindow(),
		Rescore:     s.scorer.Rescore,
	})
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) || errors.Is(err, repository.ErrVersionConflict) {
			// A live apply owns the row right now; the next sweep catches it.
			return sweepOutcome{}
		}
		s.log.WithContext(ctx).Error("derived refresh failed",
			"lead_id", snapshot.LeadID, "error", err)
		return sweepOutcome{failed: true}
	}

	// No trigger event here; only state-based rules can fire.
	d := s.engine.Decide(refreshed, "")
	if d == nil {
		return sweepOutcome{}
	}
	d.Reason = domain.ReasonReconciliation

	_, committed, err := s.executor.Execute(ctx, *d)
	if err != nil {
		s.log.WithContext(ctx).Error("reconcile transition failed",
			"lead_id", snapshot.LeadID, "target", d.Target, "error", err)
		return sweepOutcome{eligible: true, failed: true}
	}
	return sweepOutcome{eligible: true, committed: committed}
}

// EligibleLeads returns leads whose current state already satisfies a
// routing rule, without committing anything. Backs the operator report.
func (s *Service) EligibleLeads(ctx context.Context, limit int) ([]EligibleLead, error) {
	if limit <= 0 || limit > 1000 {
		limit = 200
	}

	eligible := make([]EligibleLead, 0)
	cursor := uuid.Nil
	for len(eligible) < limit {
		batch, err := s.store.ListSignalsBatch(ctx, cursor, 500)
		if err != nil {
			return nil, err
		}
		if len(batch) == 0 {
			break
		}
		cursor = batch[len(batch)-1].LeadID

		for _, snapshot := range batch {
			current := s.rescoreInMemory(snapshot)
			if d := s.engine.Decide(current, ""); d != nil {
				eligible = append(eligible, EligibleLead{
					LeadID:   current.LeadID,
					Platform: current.CurrentPlatform,
					Target:   d.Target,
					Reason:   d.Reason,
					Score:    current.EngagementScore,
					Level:    current.EngagementLevel,
				})
				if len(eligible) == limit {
					break
				}
			}
		}
	}

	return eligible, nil
}

// rescoreInMemory decays the cached derived fields for read paths that must
// not write. The window counts are zeroed when their last occurrence aged out
// entirely; partial aging is only corrected by the durable refresh.
func (s *Service) rescoreInMemory(snapshot domain.Signal) domain.Signal {
	now := time.Now().UTC()
	window := s.scorer.BurstWindow()
	if snapshot.LastOpenAt == nil || now.Sub(*snapshot.LastOpenAt) > window {
		snapshot.RecentOpens = 0
	}
	if snapshot.LastVisitAt == nil || now.Sub(*snapshot.LastVisitAt) > window {
		snapshot.RecentVisits = 0
	}
	snapshot.EngagementScore, snapshot.EngagementLevel = s.scorer.Rescore(snapshot)
	return snapshot
}

// EligibleLead is one row of the pending-routing report.
type EligibleLead struct {
	LeadID   uuid.UUID               `json:"leadId"`
	Platform domain.Platform         `json:"platform"`
	Target   domain.Platform         `json:"target"`
	Reason   domain.TransitionReason `json:"reason"`
	Score    float64                 `json:"score"`
	Level    domain.Level            `json:"level"`
}
