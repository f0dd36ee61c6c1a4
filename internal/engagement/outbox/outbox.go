// Package outbox persists transition commands between commit and dispatch.
// Rows are written in the same transaction as the transition they belong to;
// the scheduler's poller claims pending rows and hands them to asynq.
package outbox

import (
	"context"
	"time"

	"leadrouter_backend/internal/engagement/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Command statuses. A row moves pending -> enqueued -> succeeded, or back to
// pending on enqueue failure so the next poll retries it.
const (
	StatusPending   = "pending"
	StatusEnqueued  = "enqueued"
	StatusSucceeded = "succeeded"
	StatusFailed    = "failed"
)

// Row is one persisted transition command.
type Row struct {
	ID          uuid.UUID
	DecisionKey string
	CommandType domain.CommandType
	LeadID      uuid.UUID
	Status      string
	Attempts    int
	LastError   *string
	RunAt       time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// ClaimPending atomically flips up to limit due pending rows to enqueued and
// returns them. FOR UPDATE SKIP LOCKED keeps concurrent pollers from claiming
// the same row.
func (r *Repository) ClaimPending(ctx context.Context, limit int) ([]Row, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	now := time.Now().UTC()

	rows, err := r.pool.Query(ctx, `
		UPDATE transition_commands SET
			status = $1, attempts = attempts + 1, updated_at = $2
		WHERE id IN (
			SELECT id FROM transition_commands
			WHERE status = $3 AND run_at <= $2
			ORDER BY run_at ASC
			LIMIT $4
			FOR UPDATE SKIP LOCKED
		)
		RETURNING id, decision_key, command_type, lead_id, status, attempts, last_error, run_at, created_at, updated_at
	`, StatusEnqueued, now, StatusPending, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	claimed := make([]Row, 0, limit)
	for rows.Next() {
		var row Row
		var commandType string
		if err := rows.Scan(&row.ID, &row.DecisionKey, &commandType, &row.LeadID, &row.Status, &row.Attempts, &row.LastError, &row.RunAt, &row.CreatedAt, &row.UpdatedAt); err != nil {
			return nil, err
		}
		row.CommandType = domain.CommandType(commandType)
		claimed = append(claimed, row)
	}

	return claimed, rows.Err()
}

// MarkSucceeded records that the adapter worker completed the command.
func (r *Repository) MarkSucceeded(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE transition_commands SET status = $1, last_error = NULL, updated_at = $2 WHERE id = $3
	`, StatusSucceeded, time.Now().UTC(), id)
	return err
}

// MarkPending returns a claimed row to the pending pool after an enqueue or
// execution failure, with a backoff before the next attempt.
func (r *Repository) MarkPending(ctx context.Context, id uuid.UUID, cause string, backoff time.Duration) error {
	now := time.Now().UTC()
	_, err := r.pool.Exec(ctx, `
		UPDATE transition_commands SET status = $1, last_error = $2, run_at = $3, updated_at = $4 WHERE id = $5
	`, StatusPending, cause, now.Add(backoff), now, id)
	return err
}

// ReleaseStale returns abandoned enqueued rows to the pending pool. A row is
// abandoned when a dispatcher claimed it but died before the queue handoff
// and before any worker could resolve it.
func (r *Repository) ReleaseStale(ctx context.Context, olderThan time.Duration) (int64, error) {
	now := time.Now().UTC()
	tag, err := r.pool.Exec(ctx, `
		UPDATE transition_commands SET status = $1, run_at = $2, updated_at = $2
		WHERE status = $3 AND updated_at < $4
	`, StatusPending, now, StatusEnqueued, now.Add(-olderThan))
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// MarkFailed parks a command that exhausted its attempts for operator review.
func (r *Repository) MarkFailed(ctx context.Context, id uuid.UUID, cause string) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE transition_commands SET status = $1, last_error = $2, updated_at = $3 WHERE id = $4
	`, StatusFailed, cause, time.Now().UTC(), id)
	return err
}

// ListByDecision returns the commands recorded for one decision, newest last.
func (r *Repository) ListByDecision(ctx context.Context, decisionKey string) ([]Row, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, decision_key, command_type, lead_id, status, attempts, last_error, run_at, created_at, updated_at
		FROM transition_commands
		WHERE decision_key = $1
		ORDER BY created_at ASC
	`, decisionKey)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Row, 0)
	for rows.Next() {
		var row Row
		var commandType string
		if err := rows.Scan(&row.ID, &row.DecisionKey, &commandType, &row.LeadID, &row.Status, &row.Attempts, &row.LastError, &row.RunAt, &row.CreatedAt, &row.UpdatedAt); err != nil {
			return nil, err
		}
		row.CommandType = domain.CommandType(commandType)
		out = append(out, row)
	}

	return out, rows.Err()
}
