package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"leadrouter_backend/internal/engagement/outbox"
	"leadrouter_backend/platform/config"
	"leadrouter_backend/platform/logger"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
)

// staleEnqueuedAfter is how long a claimed row may sit in enqueued before the
// dispatcher assumes the claiming process died mid-handoff and reclaims it.
const staleEnqueuedAfter = 5 * time.Minute

// commandStore is the slice of the outbox repository the dispatcher drives.
type commandStore interface {
	ClaimPending(ctx context.Context, limit int) ([]outbox.Row, error)
	MarkPending(ctx context.Context, id uuid.UUID, cause string, backoff time.Duration) error
	ReleaseStale(ctx context.Context, olderThan time.Duration) (int64, error)
}

// CommandOutboxDispatcher polls the transition command outbox and hands due
// commands to asynq. A failed enqueue returns the row to pending with a
// backoff, so commands survive Redis outages.
type CommandOutboxDispatcher struct {
	client       *asynq.Client
	queue        string
	repo         commandStore
	pollInterval time.Duration
	batchSize    int
	staleAfter   time.Duration
	log          *logger.Logger
}

type dispatcherConfig interface {
	config.SchedulerConfig
	config.OutboxConfig
}

func NewCommandOutboxDispatcher(cfg dispatcherConfig, pool *pgxpool.Pool, log *logger.Logger) (*CommandOutboxDispatcher, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL, cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}

	queue := cfg.GetAsynqQueueName()
	if queue == "" {
		queue = "default"
	}

	pollInterval := cfg.GetOutboxPollInterval()
	if pollInterval <= 0 {
		pollInterval = 2 * time.Second
	}
	batchSize := cfg.GetOutboxBatchSize()
	if batchSize <= 0 {
		batchSize = 50
	}

	return &CommandOutboxDispatcher{
		client:       asynq.NewClient(opt),
		queue:        queue,
		repo:         outbox.New(pool),
		pollInterval: pollInterval,
		batchSize:    batchSize,
		staleAfter:   staleEnqueuedAfter,
		log:          log,
	}, nil
}

func (d *CommandOutboxDispatcher) Close() error {
	if d == nil || d.client == nil {
		return nil
	}
	return d.client.Close()
}

func (d *CommandOutboxDispatcher) Run(ctx context.Context) {
	if d == nil || d.client == nil || d.repo == nil {
		return
	}

	ticker := time.NewTicker(d.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		// A crash between claim and enqueue leaves rows parked in enqueued
		// with no queue entry; reclaim them once they are clearly abandoned.
		if released, err := d.repo.ReleaseStale(ctx, d.staleAfter); err != nil {
			d.log.Warn("stale command release failed", "error", err)
		} else if released > 0 {
			d.log.Info("stale enqueued commands released", "count", released)
		}

		rows, err := d.repo.ClaimPending(ctx, d.batchSize)
		if err != nil {
			d.log.Warn("command outbox claim failed", "error", err)
			continue
		}

		for _, row := range rows {
			task, err := NewTransitionCommandDueTask(TransitionCommandDuePayload{
				CommandID:   row.ID.String(),
				DecisionKey: row.DecisionKey,
				CommandType: string(row.CommandType),
				LeadID:      row.LeadID.String(),
			})
			if err != nil {
				_ = d.repo.MarkPending(ctx, row.ID, err.Error(), d.pollInterval)
				continue
			}

			// TaskID keeps redelivered outbox rows from producing duplicate
			// queue entries while one is still in flight.
			_, err = d.client.EnqueueContext(ctx, task,
				asynq.Queue(d.queue),
				asynq.TaskID("transition-command-"+row.ID.String()),
			)
			if err != nil && !errors.Is(err, asynq.ErrTaskIDConflict) {
				_ = d.repo.MarkPending(ctx, row.ID, err.Error(), d.pollInterval)
				continue
			}
		}
	}
}
