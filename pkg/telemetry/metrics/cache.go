package metrics

import (
	"mercator-hq/stormwatch/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// CacheMetrics tracks decision cache performance.
//
// Metrics:
//   - stormwatch_cache_lookups_total: lookups by backend and outcome
//   - stormwatch_cache_errors_total: failed reads and writes by backend
//
// Hit rate over five minutes:
//
//	sum(rate(stormwatch_cache_lookups_total{outcome="hit"}[5m])) /
//	sum(rate(stormwatch_cache_lookups_total[5m]))
type CacheMetrics struct {
	lookupsTotal *prometheus.CounterVec
	errorsTotal  *prometheus.CounterVec
}

// NewCacheMetrics creates and registers cache metrics.
func NewCacheMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *CacheMetrics {
	cm := &CacheMetrics{
		lookupsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "cache_lookups_total",
				Help:      "Total number of decision cache lookups",
			},
			[]string{"backend", "outcome"},
		),

		errorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "cache_errors_total",
				Help:      "Total number of decision cache errors",
			},
			[]string{"backend", "op"},
		),
	}

	registry.MustRegister(cm.lookupsTotal, cm.errorsTotal)

	return cm
}

// RecordLookup records a lookup outcome.
func (cm *CacheMetrics) RecordLookup(backend string, outcome CacheOutcome) {
	cm.lookupsTotal.WithLabelValues(backend, string(outcome)).Inc()
}

// RecordError records a failed "get" or "set".
func (cm *CacheMetrics) RecordError(backend, op string) {
	cm.errorsTotal.WithLabelValues(backend, op).Inc()
}
