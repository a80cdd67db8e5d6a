package metrics

import (
	"mercator-hq/stormwatch/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// Evidence delivery statuses.
const (
	EvidenceRecorded = "recorded"
	EvidenceDropped  = "dropped"
	EvidenceFailed   = "failed"
)

// DeliveryMetrics tracks side effects of evaluations: evidence records and
// published events.
//
// Metrics:
//   - stormwatch_evidence_records_total: records by status (recorded, dropped, failed)
//   - stormwatch_evidence_queue_depth: records waiting in the recorder buffer
//   - stormwatch_evidence_pruned_total: records removed by retention
//   - stormwatch_events_published_total: events by backend and status
type DeliveryMetrics struct {
	evidenceTotal *prometheus.CounterVec
	queueDepth    prometheus.Gauge
	prunedTotal   prometheus.Counter
	eventsTotal   *prometheus.CounterVec
}

// NewDeliveryMetrics creates and registers delivery metrics.
func NewDeliveryMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *DeliveryMetrics {
	dm := &DeliveryMetrics{
		evidenceTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "evidence_records_total",
				Help:      "Total number of evidence records by delivery status",
			},
			[]string{"status"},
		),

		queueDepth: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "evidence_queue_depth",
				Help:      "Number of evidence records waiting to be stored",
			},
		),

		prunedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "evidence_pruned_total",
				Help:      "Total number of evidence records removed by retention",
			},
		),

		eventsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "events_published_total",
				Help:      "Total number of evaluation events published",
			},
			[]string{"backend", "status"},
		),
	}

	registry.MustRegister(dm.evidenceTotal, dm.queueDepth, dm.prunedTotal, dm.eventsTotal)

	return dm
}

// RecordEvidence records an evidence delivery status.
func (dm *DeliveryMetrics) RecordEvidence(status string) {
	dm.evidenceTotal.WithLabelValues(status).Inc()
}

// UpdateQueueDepth sets the recorder buffer depth.
func (dm *DeliveryMetrics) UpdateQueueDepth(depth int) {
	dm.queueDepth.Set(float64(depth))
}

// RecordPruned adds n pruned records.
func (dm *DeliveryMetrics) RecordPruned(n int64) {
	if n > 0 {
		dm.prunedTotal.Add(float64(n))
	}
}

// RecordEvent records a publish attempt.
func (dm *DeliveryMetrics) RecordEvent(backend string, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	dm.eventsTotal.WithLabelValues(backend, status).Inc()
}
