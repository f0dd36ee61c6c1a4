package scheduler

import (
	"context"
	"fmt"
	"time"

	"leadrouter_backend/internal/engagement/domain"
	"leadrouter_backend/internal/engagement/outbox"
	"leadrouter_backend/internal/engagement/service"
	"leadrouter_backend/platform/config"
	"leadrouter_backend/platform/logger"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
)

// commandMaxAttempts is how many delivery attempts a transition command gets
// before it is parked for operator review.
const commandMaxAttempts = 10

// AdapterGateway delivers one transition command to the platform adapter
// responsible for it. Implementations wrap vendor APIs; the engine itself
// never calls a vendor directly.
type AdapterGateway interface {
	Deliver(ctx context.Context, commandType domain.CommandType, leadID uuid.UUID) error
}

// LogGateway is the default gateway used until a vendor adapter is wired in.
// It records the delivery and succeeds, keeping the outbox flow observable
// end to end in environments without vendor credentials.
type LogGateway struct {
	Log *logger.Logger
}

func (g LogGateway) Deliver(_ context.Context, commandType domain.CommandType, leadID uuid.UUID) error {
	g.Log.Info("transition command delivered", "command", commandType, "lead_id", leadID)
	return nil
}

type workerConfig interface {
	config.SchedulerConfig
	config.ReconcileConfig
}

type Worker struct {
	server  *asynq.Server
	mux     *asynq.ServeMux
	outbox  *outbox.Repository
	routing *service.Service
	gateway AdapterGateway
	cfg     workerConfig
	log     *logger.Logger
}

func NewWorker(cfg workerConfig, pool *pgxpool.Pool, routing *service.Service, gateway AdapterGateway, log *logger.Logger) (*Worker, error) {
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

	concurrency := cfg.GetAsynqConcurrency()
	if concurrency < 1 {
		concurrency = 10
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			queue: 1,
		},
	})

	mux := asynq.NewServeMux()
	w := &Worker{
		server:  server,
		mux:     mux,
		outbox:  outbox.New(pool),
		routing: routing,
		gateway: gateway,
		cfg:     cfg,
		log:     log,
	}

	mux.HandleFunc(TaskTransitionCommandDue, w.handleTransitionCommandDue)
	mux.HandleFunc(TaskReconcileSweep, w.handleReconcileSweep)

	return w, nil
}

// handleTransitionCommandDue delivers one claimed outbox command through the
// adapter gateway. Delivery failure returns the row to pending with backoff
// until the attempt budget runs out.
func (w *Worker) handleTransitionCommandDue(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseTransitionCommandDuePayload(task)
	if err != nil {
		return err
	}

	commandID, err := uuid.Parse(payload.CommandID)
	if err != nil {
		return err
	}
	leadID, err := uuid.Parse(payload.LeadID)
	if err != nil {
		return err
	}

	if err := w.gateway.Deliver(ctx, domain.CommandType(payload.CommandType), leadID); err != nil {
		w.log.Warn("transition command delivery failed",
			"command_id", commandID,
			"command", payload.CommandType,
			"lead_id", leadID,
			"error", err,
		)
		rows, listErr := w.outbox.ListByDecision(ctx, payload.DecisionKey)
		if listErr == nil {
			for _, row := range rows {
				if row.ID == commandID && row.Attempts >= commandMaxAttempts {
					return w.outbox.MarkFailed(ctx, commandID, err.Error())
				}
			}
		}
		return w.outbox.MarkPending(ctx, commandID, err.Error(), 30*time.Second)
	}

	return w.outbox.MarkSucceeded(ctx, commandID)
}

// handleReconcileSweep runs one full reconciliation pass over the aggregate
// store.
func (w *Worker) handleReconcileSweep(ctx context.Context, task *asynq.Task) error {
	if _, err := ParseReconcileSweepPayload(task); err != nil {
		return err
	}

	report, err := w.routing.Reconcile(ctx, w.cfg)
	if err != nil {
		return err
	}

	w.log.Info("reconcile sweep task done",
		"scanned", report.Scanned,
		"transitions", report.Transitions,
		"errors", report.Errors,
	)
	return nil
}

// Start runs the asynq server until Shutdown.
func (w *Worker) Start() error {
	return w.server.Start(w.mux)
}

// Shutdown stops the asynq server and waits for in-flight tasks.
func (w *Worker) Shutdown() {
	w.server.Shutdown()
}
