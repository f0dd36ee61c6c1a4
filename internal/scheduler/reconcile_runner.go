package scheduler

import (
	"context"
	"time"

	"leadrouter_backend/platform/config"
	"leadrouter_backend/platform/logger"
)

// ReconcileRunner enqueues a sweep task on every interval boundary. The
// truncated-tick task id collapses enqueues from multiple scheduler replicas
// into one sweep per interval.
type ReconcileRunner struct {
	client   *Client
	interval time.Duration
	log      *logger.Logger
}

func NewReconcileRunner(client *Client, cfg config.ReconcileConfig, log *logger.Logger) *ReconcileRunner {
	interval := cfg.GetReconcileInterval()
	if interval <= 0 {
		interval = 15 * time.Minute
	}
	return &ReconcileRunner{client: client, interval: interval, log: log}
}

func (r *ReconcileRunner) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		tick := time.Now().UTC().Truncate(r.interval).Format(time.RFC3339)
		if err := r.client.EnqueueReconcileSweep(ctx, ReconcileSweepPayload{Tick: tick}); err != nil {
			r.log.Warn("reconcile sweep enqueue failed", "error", err)
		}
	}
}
