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

// CommitTransition durably records an authorized transition: one transition
// row, the aggregate routing-field update, a platform_transition event, and
// the outbound command outbox rows, all in a single transaction. Commands
// are dispatched only after this commit ("commit then notify").
//
// Returns (transition, committed). committed=false means the commit was an
// idempotent no-op: the lead is already at the target platform, the same
// decision key was committed before, or the aggregate moved on since the
// decision was authorized.
func (r *Repository) CommitTransition(ctx context.Context, d domain.TransitionDecision, cmds []domain.Command) (Transition, bool, error) {
	now := time.Now().UTC()

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return Transition{}, false, err
	}
	defer tx.Rollback(ctx)

	// Serialize against concurrent transitions for the same lead.
	var current string
	var version int64
	err = tx.QueryRow(ctx, `
		SELECT current_platform, version FROM engagement_signals WHERE lead_id = $1 FOR UPDATE
	`, d.LeadID).Scan(&current, &version)
	if errors.Is(err, pgx.ErrNoRows) {
		return Transition{}, false, ErrNotFound
	}
	if err != nil {
		return Transition{}, false, err
	}

	currentPlatform := domain.Platform(current)
	if currentPlatform == d.Target {
		return Transition{}, false, nil
	}
	if !d.ManualOverride && currentPlatform != d.From {
		// The aggregate moved since this decision was authorized. Stale
		// decisions are dropped, never force-applied.
		return Transition{}, false, nil
	}

	decisionJSON, err := json.Marshal(d)
	if err != nil {
		return Transition{}, false, err
	}

	var transition Transition
	err = tx.QueryRow(ctx, `
		INSERT INTO platform_transitions (
			lead_id, from_platform, to_platform, reason, trigger_event_type,
			score, level, decision_key, decision, manual_override, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (decision_key) DO NOTHING
		RETURNING id, created_at
	`,
		d.LeadID, string(currentPlatform), string(d.Target), string(d.Reason), string(d.TriggerEventType),
		d.Score, string(d.Level), d.Key(), decisionJSON, d.ManualOverride, now,
	).Scan(&transition.ID, &transition.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		// Same decision already committed by a concurrent executor.
		return Transition{}, false, nil
	}
	if err != nil {
		return Transition{}, false, err
	}

	transition.LeadID = d.LeadID
	transition.FromPlatform = currentPlatform
	transition.ToPlatform = d.Target
	transition.Reason = d.Reason
	transition.TriggerEventType = d.TriggerEventType
	transition.Score = d.Score
	transition.Level = d.Level
	transition.DecisionKey = d.Key()
	transition.ManualOverride = d.ManualOverride

	// Every aggregate mutation stays traceable to an event-log row.
	transitionPayload, err := json.Marshal(map[string]any{
		"from":   string(currentPlatform),
		"to":     string(d.Target),
		"reason": string(d.Reason),
	})
	if err != nil {
		return Transition{}, false, err
	}
	source := domain.SourceOutreachPlatform
	if d.ManualOverride {
		source = domain.SourceManual
	}
	if _, err := tx.Exec(ctx, `
		INSERT INTO engagement_events (lead_id, event_type, source, verified, dedup_key, payload, occurred_at)
		VALUES ($1, $2, $3, true, $4, $5, $6)
		ON CONFLICT (dedup_key) DO NOTHING
	`, d.LeadID, string(domain.EventPlatformTransition), string(source), "transition:"+d.Key(), transitionPayload, now); err != nil {
		return Transition{}, false, err
	}

	tag, err := tx.Exec(ctx, `
		UPDATE engagement_signals SET
			current_platform = $2,
			last_routing_decision = $3,
			last_routed_at = $4,
			transition_count = transition_count + 1,
			version = version + 1,
			updated_at = $4
		WHERE lead_id = $1 AND version = $5
	`, d.LeadID, string(d.Target), decisionJSON, now, version)
	if err != nil {
		return Transition{}, false, err
	}
	if tag.RowsAffected() == 0 {
		return Transition{}, false, ErrVersionConflict
	}

	for _, cmd := range cmds {
		if _, err := tx.Exec(ctx, `
			INSERT INTO transition_commands (decision_key, command_type, lead_id, status, run_at, created_at, updated_at)
			VALUES ($1, $2, $3, 'pending', $4, $4, $4)
			ON CONFLICT (decision_key, command_type) DO NOTHING
		`, d.Key(), string(cmd.Type), cmd.LeadID, now); err != nil {
			return Transition{}, false, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return Transition{}, false, err
	}

	return transition, true, nil
}

// ListTransitions returns the full transition log for a lead in commit order.
func (r *Repository) ListTransitions(ctx context.Context, leadID uuid.UUID) ([]Transition, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, lead_id, from_platform, to_platform, reason, trigger_event_type,
			score, level, decision_key, decision, manual_override, created_at
		FROM platform_transitions
		WHERE lead_id = $1
		ORDER BY created_at ASC, id ASC
	`, leadID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	transitions := make([]Transition, 0)
	for rows.Next() {
		var t Transition
		var from, to, reason, trigger, level string
		var decisionJSON []byte
		if err := rows.Scan(&t.ID, &t.LeadID, &from, &to, &reason, &trigger, &t.Score, &level, &t.DecisionKey, &decisionJSON, &t.ManualOverride, &t.CreatedAt); err != nil {
			return nil, err
		}
		t.FromPlatform = domain.Platform(from)
		t.ToPlatform = domain.Platform(to)
		t.Reason = domain.TransitionReason(reason)
		t.TriggerEventType = domain.EventType(trigger)
		t.Level = domain.Level(level)
		if len(decisionJSON) > 0 {
			if err := json.Unmarshal(decisionJSON, &t.Decision); err != nil {
				return nil, err
			}
		}
		transitions = append(transitions, t)
	}

	return transitions, rows.Err()
}
