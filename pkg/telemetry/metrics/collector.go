package metrics

import (
	"fmt"
	"sync"
	"time"

	"mercator-hq/stormwatch/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Collector owns the Prometheus registry and every stormwatch metric.
// A Collector built from a disabled config accepts every call and records
// nothing.
type Collector struct {
	config   *config.MetricsConfig
	registry *prometheus.Registry

	evaluationMetrics *EvaluationMetrics
	httpMetrics       *HTTPMetrics
	cacheMetrics      *CacheMetrics
	deliveryMetrics   *DeliveryMetrics

	cardinalityLimiter *CardinalityLimiter
}

// maxHTTPRouteLabels caps distinct route/method/status label sets.
const maxHTTPRouteLabels = 1000

// NewCollector creates a collector registering into registry, or into a
// fresh registry (with Go and process collectors) when registry is nil.
func NewCollector(cfg *config.MetricsConfig, registry *prometheus.Registry) *Collector {
	if cfg == nil {
		cfg = &config.MetricsConfig{}
	}
	if registry == nil {
		registry = prometheus.NewRegistry()
		registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}

	if cfg.Namespace == "" {
		cfg.Namespace = config.DefaultMetricsNamespace
	}
	if len(cfg.DurationBuckets) == 0 {
		cfg.DurationBuckets = config.DefaultDurationBuckets
	}
	if len(cfg.HTTPDurationBuckets) == 0 {
		cfg.HTTPDurationBuckets = config.DefaultHTTPDurationBuckets
	}

	return &Collector{
		config:             cfg,
		registry:           registry,
		evaluationMetrics:  NewEvaluationMetrics(cfg, registry),
		httpMetrics:        NewHTTPMetrics(cfg, registry),
		cacheMetrics:       NewCacheMetrics(cfg, registry),
		deliveryMetrics:    NewDeliveryMetrics(cfg, registry),
		cardinalityLimiter: NewCardinalityLimiter(maxHTTPRouteLabels),
	}
}

// Enabled reports whether metrics are recorded.
func (c *Collector) Enabled() bool {
	return c != nil && c.config.Enabled
}

// RecordEvaluation records one completed evaluation.
//
//	collector.RecordEvaluation(metrics.Evaluation{
//		ETRBand:  "LOW",
//		Cache:    metrics.CacheMiss,
//		Source:   "http",
//		Duration: 180 * time.Microsecond,
//		Blocked:  []string{"reroute_load"},
//		Flags:    []string{"insufficient_crews"},
//	})
func (c *Collector) RecordEvaluation(e Evaluation) {
	if !c.Enabled() {
		return
	}
	c.evaluationMetrics.Record(e)
}

// RecordHTTPRequest records a served HTTP request. route is the matched
// mux pattern; unmatched requests should pass "unmatched".
func (c *Collector) RecordHTTPRequest(route, method string, status int, duration time.Duration) {
	if !c.Enabled() {
		return
	}

	if !c.cardinalityLimiter.Allow(fmt.Sprintf("%s:%s:%d", route, method, status)) {
		route = "other"
	}
	c.httpMetrics.Record(route, method, status, duration)
}

// RecordCacheResult records a decision cache lookup on backend.
func (c *Collector) RecordCacheResult(backend string, outcome CacheOutcome) {
	if !c.Enabled() {
		return
	}
	c.cacheMetrics.RecordLookup(backend, outcome)
}

// RecordCacheError records a failed cache read or write on backend.
func (c *Collector) RecordCacheError(backend, op string) {
	if !c.Enabled() {
		return
	}
	c.cacheMetrics.RecordError(backend, op)
}

// RecordEvidence records the outcome of handing a record to the evidence
// recorder: "recorded", "dropped" or "failed".
func (c *Collector) RecordEvidence(status string) {
	if !c.Enabled() {
		return
	}
	c.deliveryMetrics.RecordEvidence(status)
}

// UpdateEvidenceQueueDepth sets the number of records awaiting storage.
func (c *Collector) UpdateEvidenceQueueDepth(depth int) {
	if !c.Enabled() {
		return
	}
	c.deliveryMetrics.UpdateQueueDepth(depth)
}

// RecordEvidencePruned records records removed by retention.
func (c *Collector) RecordEvidencePruned(n int64) {
	if !c.Enabled() {
		return
	}
	c.deliveryMetrics.RecordPruned(n)
}

// RecordEventPublished records an event publish attempt on backend.
func (c *Collector) RecordEventPublished(backend string, err error) {
	if !c.Enabled() {
		return
	}
	c.deliveryMetrics.RecordEvent(backend, err)
}

// Registry returns the Prometheus registry used by this collector.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// CardinalityLimiter bounds the number of distinct label sets.
type CardinalityLimiter struct {
	maxCardinality int
	current        map[string]struct{}
	mu             sync.RWMutex
}

// NewCardinalityLimiter creates a limiter admitting maxCardinality label sets.
func NewCardinalityLimiter(maxCardinality int) *CardinalityLimiter {
	return &CardinalityLimiter{
		maxCardinality: maxCardinality,
		current:        make(map[string]struct{}),
	}
}

// Allow reports whether labelSet is already known or still fits under the
// limit.
func (cl *CardinalityLimiter) Allow(labelSet string) bool {
	cl.mu.RLock()
	if _, exists := cl.current[labelSet]; exists {
		cl.mu.RUnlock()
		return true
	}
	cl.mu.RUnlock()

	cl.mu.Lock()
	defer cl.mu.Unlock()

	if _, exists := cl.current[labelSet]; exists {
		return true
	}
	if len(cl.current) >= cl.maxCardinality {
		return false
	}
	cl.current[labelSet] = struct{}{}
	return true
}

// Count returns the number of admitted label sets.
func (cl *CardinalityLimiter) Count() int {
	cl.mu.RLock()
	defer cl.mu.RUnlock()
	return len(cl.current)
}
