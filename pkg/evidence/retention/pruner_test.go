package retention

import (
	"context"
	"fmt"
	"testing"
	"time"

	"mercator-hq/stormwatch/pkg/config"
	"mercator-hq/stormwatch/pkg/evidence"
	"mercator-hq/stormwatch/pkg/evidence/storage"
)

var now = time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)

// seedDaily stores one record per day, the newest evaluated yesterday.
func seedDaily(t *testing.T, s evidence.Storage, days int) {
	t.Helper()
	for i := 1; i <= days; i++ {
		err := s.Store(context.Background(), &evidence.EvidenceRecord{
			ID:          fmt.Sprintf("rec-%03d", i),
			ScenarioID:  "storm",
			EvaluatedAt: now.AddDate(0, 0, -i),
		})
		if err != nil {
			t.Fatal(err)
		}
	}
}

func newPruner(s evidence.Storage, cfg config.RetentionConfig) *Pruner {
	p := NewPruner(s, &cfg, nil, nil)
	p.now = func() time.Time { return now }
	return p
}

func TestPruner_Prune(t *testing.T) {
	tests := []struct {
		name        string
		cfg         config.RetentionConfig
		wantDeleted int64
		wantOldest  string
	}{
		{"keep forever", config.RetentionConfig{}, 0, "rec-020"},
		{"by age", config.RetentionConfig{Days: 10}, 11, "rec-009"},
		{"by count", config.RetentionConfig{MaxRecords: 5}, 15, "rec-005"},
		{"age then count", config.RetentionConfig{Days: 10, MaxRecords: 3}, 17, "rec-003"},
		{"count within limit", config.RetentionConfig{MaxRecords: 50}, 0, "rec-020"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := storage.NewMemoryStorage()
			seedDaily(t, s, 20)

			deleted, err := newPruner(s, tt.cfg).Prune(context.Background())
			if err != nil {
				t.Fatalf("Prune() error = %v", err)
			}
			if deleted != tt.wantDeleted {
				t.Errorf("deleted = %d, want %d", deleted, tt.wantDeleted)
			}

			oldest, _ := s.Query(context.Background(), &evidence.Query{Limit: 1, SortOrder: "asc"})
			if len(oldest) != 1 || oldest[0].ID != tt.wantOldest {
				t.Errorf("oldest remaining = %v, want %s", oldest, tt.wantOldest)
			}
		})
	}
}

func TestPruner_CountPrunesInBatches(t *testing.T) {
	s := storage.NewMemoryStorage()
	for i := 0; i < pruneBatch+20; i++ {
		_ = s.Store(context.Background(), &evidence.EvidenceRecord{
			ID:          fmt.Sprintf("rec-%04d", i),
			EvaluatedAt: now.Add(-time.Duration(i) * time.Minute),
		})
	}

	deleted, err := newPruner(s, config.RetentionConfig{MaxRecords: 10}).Prune(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if deleted != int64(pruneBatch+10) {
		t.Errorf("deleted = %d", deleted)
	}
	if s.Size() != 10 {
		t.Errorf("remaining = %d, want 10", s.Size())
	}
}

func TestScheduler_StartStop(t *testing.T) {
	p := newPruner(storage.NewMemoryStorage(), config.RetentionConfig{Days: 1, PruneSchedule: "0 3 * * *"})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := p.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if !p.scheduler.IsRunning() {
		t.Error("scheduler should be running")
	}
	if next := p.NextPruning(); next == nil || next.Hour() != 3 {
		t.Errorf("NextPruning() = %v", next)
	}

	p.Stop()
	if p.scheduler.IsRunning() {
		t.Error("scheduler should be stopped")
	}
}

func TestScheduler_EmptyScheduleIdle(t *testing.T) {
	p := newPruner(storage.NewMemoryStorage(), config.RetentionConfig{Days: 1})
	if err := p.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	if p.scheduler.IsRunning() || p.NextPruning() != nil {
		t.Error("empty schedule should leave the scheduler idle")
	}
}

func TestScheduler_InvalidSchedule(t *testing.T) {
	p := newPruner(storage.NewMemoryStorage(), config.RetentionConfig{PruneSchedule: "daily"})
	if err := p.Start(context.Background()); err == nil {
		t.Error("expected error for invalid schedule")
	}
}
