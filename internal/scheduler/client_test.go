package scheduler

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
)

// stubSchedulerConfig satisfies config.SchedulerConfig for client tests.
type stubSchedulerConfig struct {
	redisURL string
	queue    string
}

func (c stubSchedulerConfig) GetRedisURL() string       { return c.redisURL }
func (c stubSchedulerConfig) GetRedisTLSInsecure() bool { return false }
func (c stubSchedulerConfig) GetAsynqQueueName() string { return c.queue }
func (c stubSchedulerConfig) GetAsynqConcurrency() int  { return 1 }

func TestNewClient_RequiresRedisURL(t *testing.T) {
	if _, err := NewClient(stubSchedulerConfig{}); err == nil {
		t.Fatal("expected error for missing redis url")
	}
}

func TestEnqueueReconcileSweep_DedupsByTick(t *testing.T) {
	srv, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	defer srv.Close()

	client, err := NewClient(stubSchedulerConfig{
		redisURL: "redis://" + srv.Addr(),
		queue:    "routing",
	})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	defer client.Close()

	payload := ReconcileSweepPayload{Tick: "2026-08-27T10:00:00Z"}
	if err := client.EnqueueReconcileSweep(context.Background(), payload); err != nil {
		t.Fatalf("first enqueue failed: %v", err)
	}
	if !srv.Exists("asynq:{routing}:t:reconcile-sweep-" + payload.Tick) {
		t.Fatal("task not stored under its tick id")
	}

	// A second replica enqueueing the same tick must collapse silently.
	if err := client.EnqueueReconcileSweep(context.Background(), payload); err != nil {
		t.Fatalf("duplicate tick must be swallowed: %v", err)
	}
}
