package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"leadrouter_backend/internal/engagement/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// ApplyEvent runs the write path for one normalized event: the event-log
// insert and the aggregate update happen in a single transaction, so a crash
// between the two is never observable.
//
// Returns (snapshot, applied). A dedup-key hit is not an error: the insert
// is skipped and the unchanged snapshot comes back with applied=false, which
// is what makes at-least-once delivery from adapters safe.
//
// ErrVersionConflict is returned when a concurrent writer bumped the
// aggregate version first; the whole transaction rolled back (including the
// event insert) and the caller retries.
func (r *Repository) ApplyEvent(ctx context.Context, ev domain.Event, params ApplyParams) (domain.Signal, bool, error) {
	now := time.Now().UTC()

	leadID, err := r.resolveLeadID(ctx, ev)
	if err != nil {
		return domain.Signal{}, false, err
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return domain.Signal{}, false, err
	}
	defer tx.Rollback(ctx)

	payloadJSON, err := json.Marshal(ev.Payload)
	if err != nil {
		return domain.Signal{}, false, err
	}

	var eventID uuid.UUID
	err = tx.QueryRow(ctx, `
		INSERT INTO engagement_events (lead_id, event_type, source, verified, dedup_key, payload, occurred_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (dedup_key) DO NOTHING
		RETURNING id
	`, leadID, string(ev.EventType), string(ev.Source), ev.Verified, ev.DedupKey, payloadJSON, ev.OccurredAt).Scan(&eventID)
	if errors.Is(err, pgx.ErrNoRows) {
		// Duplicate delivery: no state change, return the current snapshot.
		snapshot, err := r.GetSignal(ctx, leadID)
		if err != nil {
			return domain.Signal{}, false, err
		}
		return snapshot, false, nil
	}
	if err != nil {
		return domain.Signal{}, false, err
	}

	var email *string
	if ev.Email != "" {
		email = &ev.Email
	}

	snapshot, err := r.getSignalTx(ctx, tx, leadID, email, now)
	if err != nil {
		return domain.Signal{}, false, err
	}
	expectedVersion := snapshot.Version

	snapshot.ApplyEvent(ev)
	if snapshot.Email == nil && email != nil {
		snapshot.Email = email
	}

	if err := r.refreshRecentCounts(ctx, tx, &snapshot, now, params.BurstWindow); err != nil {
		return domain.Signal{}, false, err
	}

	if params.Rescore != nil {
		snapshot.EngagementScore, snapshot.EngagementLevel = params.Rescore(snapshot)
	}

	if err := r.updateSignalTx(ctx, tx, snapshot, expectedVersion, now); err != nil {
		return domain.Signal{}, false, err
	}

	if err := tx.Commit(ctx); err != nil {
		return domain.Signal{}, false, err
	}

	snapshot.Version = expectedVersion + 1
	snapshot.UpdatedAt = now
	return snapshot, true, nil
}

// resolveLeadID maps an event without a lead id onto the aggregate keyed by
// email, minting a new lead id when neither exists yet.
func (r *Repository) resolveLeadID(ctx context.Context, ev domain.Event) (uuid.UUID, error) {
	if ev.LeadID != nil {
		return *ev.LeadID, nil
	}

	existing, err := r.GetSignalByEmail(ctx, ev.Email)
	if err == nil {
		return existing.LeadID, nil
	}
	if errors.Is(err, ErrNotFound) {
		return uuid.New(), nil
	}
	return uuid.Nil, err
}

// refreshRecentCounts recomputes the trailing-window derived counts from the
// event log. Runs inside the apply transaction so the just-inserted event is
// visible.
func (r *Repository) refreshRecentCounts(ctx context.Context, tx pgx.Tx, s *domain.Signal, now time.Time, window time.Duration) error {
	if window <= 0 {
		window = 7 * 24 * time.Hour
	}
	since := now.Add(-window)

	err := tx.QueryRow(ctx, `
		SELECT
			COUNT(*) FILTER (WHERE event_type = $3),
			COUNT(*) FILTER (WHERE event_type = $4)
		FROM engagement_events
		WHERE lead_id = $1 AND occurred_at >= $2
	`, s.LeadID, since, string(domain.EventEmailOpened), string(domain.EventWebsiteVisit)).
		Scan(&s.RecentOpens, &s.RecentVisits)
	return err
}

// ListEvents returns a page of the append-only event log for a lead,
// ordered by creation time for replay.
func (r *Repository) ListEvents(ctx context.Context, leadID uuid.UUID, limit, offset int) ([]EventRecord, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}

	rows, err := r.pool.Query(ctx, `
		SELECT id, lead_id, event_type, source, verified, dedup_key, payload, occurred_at, created_at
		FROM engagement_events
		WHERE lead_id = $1
		ORDER BY created_at ASC, id ASC
		LIMIT $2 OFFSET $3
	`, leadID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := make([]EventRecord, 0)
	for rows.Next() {
		var rec EventRecord
		var eventType, source string
		var payloadJSON []byte
		if err := rows.Scan(&rec.ID, &rec.LeadID, &eventType, &source, &rec.Verified, &rec.DedupKey, &payloadJSON, &rec.OccurredAt, &rec.CreatedAt); err != nil {
			return nil, err
		}
		rec.EventType = domain.EventType(eventType)
		rec.Source = domain.Source(source)
		if len(payloadJSON) > 0 {
			if err := json.Unmarshal(payloadJSON, &rec.Payload); err != nil {
				return nil, err
			}
		}
		records = append(records, rec)
	}

	return records, rows.Err()
}
