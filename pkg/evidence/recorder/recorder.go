package recorder

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"mercator-hq/stormwatch/pkg/config"
	"mercator-hq/stormwatch/pkg/evidence"
	"mercator-hq/stormwatch/pkg/telemetry/metrics"
)

// ErrBufferFull is returned when the async buffer has no room for a record.
var ErrBufferFull = errors.New("evidence buffer full")

// ErrClosed is returned for records submitted after Close.
var ErrClosed = errors.New("recorder closed")

// Recorder writes evidence records to storage from a background worker so
// callers never wait on the database.
type Recorder struct {
	storage    evidence.Storage
	config     *config.RecorderConfig
	metrics    *metrics.Collector
	recordChan chan *evidence.EvidenceRecord
	wg         sync.WaitGroup
	done       chan struct{}
	closeOnce  sync.Once
	mu         sync.RWMutex
	closed     bool
	logger     *slog.Logger
}

// New starts a recorder writing to storage. collector may be nil.
func New(storage evidence.Storage, cfg *config.RecorderConfig, collector *metrics.Collector, logger *slog.Logger) *Recorder {
	if logger == nil {
		logger = slog.Default()
	}
	buffer := cfg.AsyncBuffer
	if buffer <= 0 {
		buffer = config.DefaultEvidenceRecorderAsyncBuffer
	}

	r := &Recorder{
		storage:    storage,
		config:     cfg,
		metrics:    collector,
		recordChan: make(chan *evidence.EvidenceRecord, buffer),
		done:       make(chan struct{}),
		logger:     logger.With("component", "evidence.recorder"),
	}

	r.wg.Add(1)
	go r.worker()

	r.logger.Info("evidence recorder initialized",
		"async_buffer", buffer,
		"write_timeout", cfg.WriteTimeout,
	)

	return r
}

// Record enqueues record for writing and returns immediately. A full
// buffer drops the record and returns ErrBufferFull.
func (r *Recorder) Record(ctx context.Context, record *evidence.EvidenceRecord) error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		r.metrics.RecordEvidence(metrics.EvidenceDropped)
		return evidence.NewRecorderError(record.ID, ErrClosed)
	}

	select {
	case r.recordChan <- record:
		r.metrics.UpdateEvidenceQueueDepth(len(r.recordChan))
		return nil
	default:
		r.metrics.RecordEvidence(metrics.EvidenceDropped)
		r.logger.WarnContext(ctx, "evidence buffer full, dropping record",
			"record_id", record.ID,
			"scenario_id", record.ScenarioID,
			"capacity", cap(r.recordChan),
		)
		return evidence.NewRecorderError(record.ID, ErrBufferFull)
	}
}

// Pending returns the number of queued records.
func (r *Recorder) Pending() int {
	return len(r.recordChan)
}

// Close stops accepting records, drains the buffer and waits for the
// worker to finish.
func (r *Recorder) Close() error {
	r.closeOnce.Do(func() {
		r.mu.Lock()
		r.closed = true
		r.mu.Unlock()

		close(r.done)
		r.wg.Wait()
		r.logger.Info("evidence recorder shut down")
	})
	return nil
}

func (r *Recorder) worker() {
	defer r.wg.Done()

	for {
		select {
		case record := <-r.recordChan:
			r.writeRecord(record)

		case <-r.done:
			r.logger.Info("draining evidence buffer", "pending_count", len(r.recordChan))
			for {
				select {
				case record := <-r.recordChan:
					r.writeRecord(record)
				default:
					return
				}
			}
		}
	}
}

func (r *Recorder) writeRecord(record *evidence.EvidenceRecord) {
	timeout := r.config.WriteTimeout
	if timeout <= 0 {
		timeout = config.DefaultEvidenceRecorderWriteTimeout
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	start := time.Now()
	record.RecordedAt = start.UTC()

	err := r.storage.Store(ctx, record)
	r.metrics.UpdateEvidenceQueueDepth(len(r.recordChan))
	if err != nil {
		r.metrics.RecordEvidence(metrics.EvidenceFailed)
		r.logger.Error("failed to store evidence record",
			"record_id", record.ID,
			"scenario_id", record.ScenarioID,
			"error", err,
		)
		return
	}
	r.metrics.RecordEvidence(metrics.EvidenceRecorded)

	duration := time.Since(start)
	r.logger.Debug("evidence recorded",
		"record_id", record.ID,
		"scenario_id", record.ScenarioID,
		"hash", record.Hash,
		"duration_ms", duration.Milliseconds(),
	)

	if duration > timeout/2 {
		r.logger.Warn("slow evidence write",
			"record_id", record.ID,
			"duration_ms", duration.Milliseconds(),
			"threshold_ms", (timeout / 2).Milliseconds(),
		)
	}
}
