package metrics

import (
	"time"

	"mercator-hq/stormwatch/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// CacheOutcome labels how an evaluation used the decision cache.
type CacheOutcome string

const (
	CacheHit      CacheOutcome = "hit"
	CacheMiss     CacheOutcome = "miss"
	CacheDisabled CacheOutcome = "disabled"
	CacheError    CacheOutcome = "error"
)

// Evaluation describes one completed evaluation.
type Evaluation struct {
	ETRBand  string
	Cache    CacheOutcome
	Source   string
	Duration time.Duration
	Blocked  []string
	Flags    []string
	Warnings int
}

// EvaluationMetrics tracks evaluation outcomes.
//
// Metrics:
//   - stormwatch_evaluations_total: evaluations by ETR band, cache outcome and source
//   - stormwatch_evaluation_duration_seconds: end-to-end evaluation duration
//   - stormwatch_blocked_actions_total: blocked actions by action type
//   - stormwatch_escalation_flags_total: raised escalation flags by flag
//   - stormwatch_data_quality_warnings_total: normalization warnings
type EvaluationMetrics struct {
	evaluationsTotal   *prometheus.CounterVec
	evaluationDuration *prometheus.HistogramVec
	blockedTotal       *prometheus.CounterVec
	flagsTotal         *prometheus.CounterVec
	warningsTotal      prometheus.Counter
}

// NewEvaluationMetrics creates and registers evaluation metrics.
func NewEvaluationMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *EvaluationMetrics {
	em := &EvaluationMetrics{
		evaluationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "evaluations_total",
				Help:      "Total number of scenario evaluations",
			},
			[]string{"etr_band", "cache", "source"},
		),

		evaluationDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "evaluation_duration_seconds",
				Help:      "Duration of scenario evaluation in seconds",
				Buckets:   cfg.DurationBuckets,
			},
			[]string{"cache"},
		),

		blockedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "blocked_actions_total",
				Help:      "Total number of blocked actions by action type",
			},
			[]string{"action_type"},
		),

		flagsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "escalation_flags_total",
				Help:      "Total number of raised escalation flags",
			},
			[]string{"flag"},
		),

		warningsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "data_quality_warnings_total",
				Help:      "Total number of input normalization warnings",
			},
		),
	}

	registry.MustRegister(
		em.evaluationsTotal,
		em.evaluationDuration,
		em.blockedTotal,
		em.flagsTotal,
		em.warningsTotal,
	)

	return em
}

// Record records e. Action types and flags come from closed sets, so they
// are used as labels directly.
func (em *EvaluationMetrics) Record(e Evaluation) {
	em.evaluationsTotal.WithLabelValues(e.ETRBand, string(e.Cache), e.Source).Inc()
	em.evaluationDuration.WithLabelValues(string(e.Cache)).Observe(e.Duration.Seconds())

	for _, action := range e.Blocked {
		em.blockedTotal.WithLabelValues(action).Inc()
	}
	for _, flag := range e.Flags {
		em.flagsTotal.WithLabelValues(flag).Inc()
	}
	if e.Warnings > 0 {
		em.warningsTotal.Add(float64(e.Warnings))
	}
}
