package repository

import (
	"context"
	"errors"
	"time"

	"leadrouter_backend/internal/engagement/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// SummaryByPlatformLevel returns lead counts per (platform, level) cell for
// the operator dashboard.
func (r *Repository) SummaryByPlatformLevel(ctx context.Context) ([]SummaryRow, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT current_platform, engagement_level, COUNT(*)
		FROM engagement_signals
		GROUP BY current_platform, engagement_level
		ORDER BY current_platform, engagement_level
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	summary := make([]SummaryRow, 0)
	for rows.Next() {
		var row SummaryRow
		var platform, level string
		if err := rows.Scan(&platform, &level, &row.Count); err != nil {
			return nil, err
		}
		row.Platform = domain.Platform(platform)
		row.Level = domain.Level(level)
		summary = append(summary, row)
	}

	return summary, rows.Err()
}

// ListSignalsBatch pages through all aggregates by lead id for the
// reconciliation sweep. Keyset pagination keeps the sweep stable while
// writes continue underneath it.
func (r *Repository) ListSignalsBatch(ctx context.Context, afterLead uuid.UUID, limit int) ([]domain.Signal, error) {
	if limit <= 0 || limit > 1000 {
		limit = 200
	}

	rows, err := r.pool.Query(ctx, `
		SELECT `+signalColumns+`
		FROM engagement_signals
		WHERE lead_id > $1
		ORDER BY lead_id ASC
		LIMIT $2
	`, afterLead, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	signals := make([]domain.Signal, 0, limit)
	for rows.Next() {
		s, err := scanSignal(rows)
		if err != nil {
			return nil, err
		}
		signals = append(signals, s)
	}

	return signals, rows.Err()
}

// RefreshDerived recomputes the trailing-window counts, score, and level for
// one lead against the current clock, persisting them when they drifted from
// the stored values. The sweep calls this so decay shows up without a fresh
// event; the stored score is a cache of the last apply, not a live value.
func (r *Repository) RefreshDerived(ctx context.Context, leadID uuid.UUID, params ApplyParams) (domain.Signal, error) {
	now := time.Now().UTC()

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return domain.Signal{}, err
	}
	defer tx.Rollback(ctx)

	row := tx.QueryRow(ctx, `SELECT `+signalColumns+` FROM engagement_signals WHERE lead_id = $1 FOR UPDATE`, leadID)
	s, err := scanSignal(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Signal{}, ErrNotFound
	}
	if err != nil {
		return domain.Signal{}, err
	}

	prevOpens, prevVisits := s.RecentOpens, s.RecentVisits
	prevScore, prevLevel := s.EngagementScore, s.EngagementLevel

	if err := r.refreshRecentCounts(ctx, tx, &s, now, params.BurstWindow); err != nil {
		return domain.Signal{}, err
	}
	if params.Rescore != nil {
		s.EngagementScore, s.EngagementLevel = params.Rescore(s)
	}

	if s.RecentOpens == prevOpens && s.RecentVisits == prevVisits &&
		s.EngagementScore == prevScore && s.EngagementLevel == prevLevel {
		return s, nil
	}

	tag, err := tx.Exec(ctx, `
		UPDATE engagement_signals SET
			recent_opens = $2, recent_visits = $3,
			engagement_score = $4, engagement_level = $5,
			version = version + 1, updated_at = $6
		WHERE lead_id = $1 AND version = $7
	`, s.LeadID, s.RecentOpens, s.RecentVisits, s.EngagementScore, string(s.EngagementLevel), now, s.Version)
	if err != nil {
		return domain.Signal{}, err
	}
	if tag.RowsAffected() == 0 {
		return domain.Signal{}, ErrVersionConflict
	}
	if err := tx.Commit(ctx); err != nil {
		return domain.Signal{}, err
	}

	s.Version++
	s.UpdatedAt = now
	return s, nil
}
