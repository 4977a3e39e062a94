package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/folio/internal/models"
	"github.com/ternarybob/folio/internal/services/cache"
)

// countingBuilder counts enrichment runs.
type countingBuilder struct {
	builds int32
}

func (c *countingBuilder) BuildSnapshot(ctx context.Context) (*models.Snapshot, error) {
	atomic.AddInt32(&c.builds, 1)
	return &models.Snapshot{RunID: "scheduled", BuiltAt: time.Now()}, nil
}

func TestScheduler_StartStop(t *testing.T) {
	cacheService := cache.NewService(&countingBuilder{}, nil, time.Minute, arbor.NewLogger())
	svc := NewService(cacheService, "@every 1h", arbor.NewLogger())

	if svc.IsRunning() {
		t.Error("Expected scheduler to be stopped initially")
	}

	if err := svc.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if !svc.IsRunning() {
		t.Error("Expected scheduler to be running")
	}

	if err := svc.Start(); err == nil {
		t.Error("Expected error starting a running scheduler")
	}

	if err := svc.Stop(); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}
	if svc.IsRunning() {
		t.Error("Expected scheduler to be stopped")
	}

	// Stopping twice is a no-op
	if err := svc.Stop(); err != nil {
		t.Errorf("Expected second Stop to be a no-op, got %v", err)
	}
}

func TestScheduler_InvalidSchedule(t *testing.T) {
	cacheService := cache.NewService(&countingBuilder{}, nil, time.Minute, arbor.NewLogger())
	svc := NewService(cacheService, "not a schedule", arbor.NewLogger())

	if err := svc.Start(); err == nil {
		t.Fatal("Expected error for invalid cron schedule, got nil")
	}
	if svc.IsRunning() {
		t.Error("Expected scheduler to stay stopped after failed start")
	}
}

func TestScheduler_TriggersRefresh(t *testing.T) {
	builder := &countingBuilder{}
	cacheService := cache.NewService(builder, nil, time.Minute, arbor.NewLogger())
	svc := NewService(cacheService, "@every 50ms", arbor.NewLogger())

	if err := svc.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer svc.Stop()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if atomic.LoadInt32(&builder.builds) > 0 {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("Expected at least one scheduled refresh")
}
