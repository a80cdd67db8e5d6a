package retention

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"mercator-hq/stormwatch/pkg/config"
	"mercator-hq/stormwatch/pkg/evidence"
	"mercator-hq/stormwatch/pkg/telemetry/metrics"
)

// pruneBatch bounds how many ids a single count-based delete names.
const pruneBatch = 500

// Pruner enforces retention on evidence records.
type Pruner struct {
	storage   evidence.Storage
	config    *config.RetentionConfig
	metrics   *metrics.Collector
	logger    *slog.Logger
	scheduler *Scheduler
	now       func() time.Time
}

// NewPruner creates a pruner for storage. collector may be nil.
func NewPruner(storage evidence.Storage, cfg *config.RetentionConfig, collector *metrics.Collector, logger *slog.Logger) *Pruner {
	if logger == nil {
		logger = slog.Default()
	}

	p := &Pruner{
		storage: storage,
		config:  cfg,
		metrics: collector,
		logger:  logger.With("component", "evidence.retention"),
		now:     time.Now,
	}
	p.scheduler = NewScheduler(p)
	return p
}

// Prune deletes records older than the retention period, then the oldest
// records beyond MaxRecords. It returns the total deleted.
func (p *Pruner) Prune(ctx context.Context) (int64, error) {
	var total int64

	if p.config.Days > 0 {
		deleted, err := p.pruneByAge(ctx)
		if err != nil {
			return total, fmt.Errorf("prune by age failed: %w", err)
		}
		total += deleted
	}

	if p.config.MaxRecords > 0 {
		deleted, err := p.pruneByCount(ctx)
		if err != nil {
			return total, fmt.Errorf("prune by count failed: %w", err)
		}
		total += deleted
	}

	p.metrics.RecordEvidencePruned(total)

	if total > 0 {
		p.logger.Info("evidence pruning completed",
			"total_deleted", total,
			"retention_days", p.config.Days,
			"max_records", p.config.MaxRecords,
		)
	} else {
		p.logger.Debug("no evidence records pruned")
	}

	return total, nil
}

func (p *Pruner) pruneByAge(ctx context.Context) (int64, error) {
	cutoff := p.now().AddDate(0, 0, -p.config.Days)

	deleted, err := p.storage.Delete(ctx, &evidence.Query{EndTime: &cutoff})
	if err != nil {
		return 0, evidence.NewRetentionError(p.config.Days, err)
	}

	p.logger.Debug("pruned records by age",
		"deleted_count", deleted,
		"cutoff", cutoff,
	)
	return deleted, nil
}

// pruneByCount deletes exactly the oldest excess records, by id.
func (p *Pruner) pruneByCount(ctx context.Context) (int64, error) {
	count, err := p.storage.Count(ctx, &evidence.Query{})
	if err != nil {
		return 0, fmt.Errorf("failed to count records: %w", err)
	}

	excess := count - p.config.MaxRecords
	if excess <= 0 {
		return 0, nil
	}

	p.logger.Info("record count exceeds limit, pruning oldest",
		"current_count", count,
		"max_records", p.config.MaxRecords,
		"to_delete", excess,
	)

	var deleted int64
	for excess > 0 {
		batch := min(excess, pruneBatch)

		oldest, err := p.storage.Query(ctx, &evidence.Query{
			Limit:     int(batch),
			SortBy:    "evaluated_at",
			SortOrder: "asc",
		})
		if err != nil {
			return deleted, fmt.Errorf("failed to query oldest records: %w", err)
		}
		if len(oldest) == 0 {
			break
		}

		ids := make([]string, len(oldest))
		for i, r := range oldest {
			ids[i] = r.ID
		}

		n, err := p.storage.Delete(ctx, &evidence.Query{IDs: ids})
		if err != nil {
			return deleted, fmt.Errorf("delete failed: %w", err)
		}
		deleted += n
		excess -= int64(len(oldest))
	}

	return deleted, nil
}

// Start runs Prune on the configured schedule until ctx is cancelled.
func (p *Pruner) Start(ctx context.Context) error {
	return p.scheduler.Start(ctx)
}

// Stop stops the schedule and waits for a running prune.
func (p *Pruner) Stop() {
	p.scheduler.Stop()
}

// NextPruning returns the time of the next scheduled prune, or nil.
func (p *Pruner) NextPruning() *time.Time {
	return p.scheduler.NextRun()
}
