package scheduler

import (
	"context"
	"sync"
	"testing"
	"time"

	"leadrouter_backend/internal/engagement/domain"
	"leadrouter_backend/internal/engagement/outbox"
	"leadrouter_backend/platform/logger"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

// fakeCommandStore scripts successive claim batches in memory.
type fakeCommandStore struct {
	mu       sync.Mutex
	batches  [][]outbox.Row
	claims   int
	released int
	repended []uuid.UUID
}

func (f *fakeCommandStore) ClaimPending(_ context.Context, _ int) ([]outbox.Row, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.claims++
	if len(f.batches) == 0 {
		return nil, nil
	}
	batch := f.batches[0]
	f.batches = f.batches[1:]
	return batch, nil
}

func (f *fakeCommandStore) MarkPending(_ context.Context, id uuid.UUID, _ string, _ time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.repended = append(f.repended, id)
	return nil
}

func (f *fakeCommandStore) ReleaseStale(_ context.Context, _ time.Duration) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.released++
	return 0, nil
}

func (f *fakeCommandStore) snapshot() (claims, released, repended int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.claims, f.released, len(f.repended)
}

func TestDispatcher_EnqueuesClaimedCommandsOnce(t *testing.T) {
	srv, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	defer srv.Close()

	row := outbox.Row{
		ID:          uuid.New(),
		DecisionKey: "lead:crm:4",
		CommandType: domain.CommandEnrollInCRM,
		LeadID:      uuid.New(),
	}
	// The same row comes back on a later poll, as after a worker returned it
	// to pending while the first queue entry is still in flight.
	store := &fakeCommandStore{batches: [][]outbox.Row{{row}, {row}}}

	d := &CommandOutboxDispatcher{
		client:       asynq.NewClient(asynq.RedisClientOpt{Addr: srv.Addr()}),
		queue:        "routing",
		repo:         store,
		pollInterval: 5 * time.Millisecond,
		batchSize:    10,
		staleAfter:   time.Minute,
		log:          logger.New("test"),
	}
	defer d.Close()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		d.Run(ctx)
	}()

	deadline := time.Now().Add(2 * time.Second)
	for {
		claims, _, _ := store.snapshot()
		if claims >= 3 {
			break
		}
		if time.Now().After(deadline) {
			cancel()
			<-done
			t.Fatal("dispatcher never drained the scripted batches")
		}
		time.Sleep(5 * time.Millisecond)
	}
	cancel()
	<-done

	if !srv.Exists("asynq:{routing}:t:transition-command-" + row.ID.String()) {
		t.Fatal("claimed command not enqueued under its row id")
	}
	_, released, repended := store.snapshot()
	if released == 0 {
		t.Fatal("stale enqueued rows never released")
	}
	if repended != 0 {
		t.Fatalf("in-flight duplicate treated as enqueue failure, %d rows re-pended", repended)
	}
}
