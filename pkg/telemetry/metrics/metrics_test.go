package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"mercator-hq/stormwatch/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func testConfig() *config.MetricsConfig {
	return &config.MetricsConfig{
		Enabled:             true,
		Namespace:           "test",
		DurationBuckets:     []float64{0.001, 0.01, 0.1},
		HTTPDurationBuckets: []float64{0.01, 0.1, 1},
	}
}

func newTestCollector(t *testing.T) *Collector {
	t.Helper()
	return NewCollector(testConfig(), prometheus.NewRegistry())
}

func TestCollector_RecordEvaluation(t *testing.T) {
	c := newTestCollector(t)

	c.RecordEvaluation(Evaluation{
		ETRBand:  "LOW",
		Cache:    CacheMiss,
		Source:   "http",
		Duration: 200 * time.Microsecond,
		Blocked:  []string{"reroute_load", "deenergize_section"},
		Flags:    []string{"insufficient_crews"},
		Warnings: 2,
	})
	c.RecordEvaluation(Evaluation{
		ETRBand:  "LOW",
		Cache:    CacheHit,
		Source:   "http",
		Duration: 20 * time.Microsecond,
		Blocked:  []string{"reroute_load"},
	})

	em := c.evaluationMetrics
	tests := []struct {
		name string
		got  float64
		want float64
	}{
		{"miss evaluations", testutil.ToFloat64(em.evaluationsTotal.WithLabelValues("LOW", "miss", "http")), 1},
		{"hit evaluations", testutil.ToFloat64(em.evaluationsTotal.WithLabelValues("LOW", "hit", "http")), 1},
		{"reroute blocked", testutil.ToFloat64(em.blockedTotal.WithLabelValues("reroute_load")), 2},
		{"deenergize blocked", testutil.ToFloat64(em.blockedTotal.WithLabelValues("deenergize_section")), 1},
		{"flags", testutil.ToFloat64(em.flagsTotal.WithLabelValues("insufficient_crews")), 1},
		{"warnings", testutil.ToFloat64(em.warningsTotal), 2},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("%s = %v, want %v", tt.name, tt.got, tt.want)
		}
	}

	if n := testutil.CollectAndCount(em.evaluationDuration); n != 2 {
		t.Errorf("duration series = %d, want 2", n)
	}
}

func TestCollector_RecordHTTPRequest(t *testing.T) {
	c := newTestCollector(t)
	c.RecordHTTPRequest("POST /v1/evaluate", "POST", 200, 3*time.Millisecond)
	c.RecordHTTPRequest("POST /v1/evaluate", "POST", 400, time.Millisecond)
	c.RecordHTTPRequest("POST /v1/evaluate", "POST", 200, time.Millisecond)

	if got := testutil.ToFloat64(c.httpMetrics.requestsTotal.WithLabelValues("POST /v1/evaluate", "POST", "200")); got != 2 {
		t.Errorf("200 requests = %v, want 2", got)
	}
	if got := testutil.ToFloat64(c.httpMetrics.requestsTotal.WithLabelValues("POST /v1/evaluate", "POST", "400")); got != 1 {
		t.Errorf("400 requests = %v, want 1", got)
	}
}

func TestCollector_HTTPCardinalityLimit(t *testing.T) {
	c := newTestCollector(t)
	c.cardinalityLimiter = NewCardinalityLimiter(1)

	c.RecordHTTPRequest("GET /v1/evidence", "GET", 200, time.Millisecond)
	c.RecordHTTPRequest("GET /v1/scenarios", "GET", 200, time.Millisecond)

	if got := testutil.ToFloat64(c.httpMetrics.requestsTotal.WithLabelValues("other", "GET", "200")); got != 1 {
		t.Errorf("overflow requests = %v, want 1", got)
	}
}

func TestCollector_CacheAndDelivery(t *testing.T) {
	c := newTestCollector(t)

	c.RecordCacheResult("memory", CacheHit)
	c.RecordCacheResult("memory", CacheMiss)
	c.RecordCacheError("redis", "get")
	c.RecordEvidence(EvidenceRecorded)
	c.RecordEvidence(EvidenceDropped)
	c.RecordEvidence(EvidenceDropped)
	c.UpdateEvidenceQueueDepth(7)
	c.RecordEvidencePruned(12)
	c.RecordEventPublished("kafka", nil)
	c.RecordEventPublished("kafka", errors.New("broker down"))

	checks := []struct {
		name string
		got  float64
		want float64
	}{
		{"cache hit", testutil.ToFloat64(c.cacheMetrics.lookupsTotal.WithLabelValues("memory", "hit")), 1},
		{"cache error", testutil.ToFloat64(c.cacheMetrics.errorsTotal.WithLabelValues("redis", "get")), 1},
		{"dropped", testutil.ToFloat64(c.deliveryMetrics.evidenceTotal.WithLabelValues(EvidenceDropped)), 2},
		{"queue depth", testutil.ToFloat64(c.deliveryMetrics.queueDepth), 7},
		{"pruned", testutil.ToFloat64(c.deliveryMetrics.prunedTotal), 12},
		{"event ok", testutil.ToFloat64(c.deliveryMetrics.eventsTotal.WithLabelValues("kafka", "ok")), 1},
		{"event error", testutil.ToFloat64(c.deliveryMetrics.eventsTotal.WithLabelValues("kafka", "error")), 1},
	}
	for _, tt := range checks {
		if tt.got != tt.want {
			t.Errorf("%s = %v, want %v", tt.name, tt.got, tt.want)
		}
	}
}

func TestCollector_Disabled(t *testing.T) {
	cfg := testConfig()
	cfg.Enabled = false
	c := NewCollector(cfg, prometheus.NewRegistry())

	c.RecordEvaluation(Evaluation{ETRBand: "LOW", Cache: CacheMiss, Source: "cli"})
	c.RecordEvidence(EvidenceDropped)

	if n := testutil.CollectAndCount(c.evaluationMetrics.evaluationsTotal); n != 0 {
		t.Errorf("disabled collector recorded %d series", n)
	}

	var nilCollector *Collector
	nilCollector.RecordEvaluation(Evaluation{})
	nilCollector.RecordHTTPRequest("x", "GET", 200, 0)
	if nilCollector.Enabled() {
		t.Error("nil collector should report disabled")
	}
}

func TestCollector_Handler(t *testing.T) {
	c := newTestCollector(t)
	c.RecordEvaluation(Evaluation{ETRBand: "MEDIUM", Cache: CacheDisabled, Source: "cli"})

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	body := rec.Body.String()
	for _, want := range []string{
		`test_evaluations_total{cache="disabled",etr_band="MEDIUM",source="cli"} 1`,
		"test_evaluation_duration_seconds_bucket",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("metrics output missing %q", want)
		}
	}
}

func TestNewCollector_DefaultRegistry(t *testing.T) {
	c := NewCollector(&config.MetricsConfig{Enabled: true}, nil)
	if c.Registry() == nil {
		t.Fatal("expected registry")
	}
	if c.config.Namespace != config.DefaultMetricsNamespace {
		t.Errorf("namespace = %q", c.config.Namespace)
	}
	families, err := c.Registry().Gather()
	if err != nil {
		t.Fatal(err)
	}
	found := false
	for _, f := range families {
		if strings.HasPrefix(f.GetName(), "go_") {
			found = true
			break
		}
	}
	if !found {
		t.Error("default registry should include Go runtime metrics")
	}
}

func TestCardinalityLimiter(t *testing.T) {
	cl := NewCardinalityLimiter(2)
	if !cl.Allow("a") || !cl.Allow("b") || !cl.Allow("a") {
		t.Fatal("known and in-limit label sets should be allowed")
	}
	if cl.Allow("c") {
		t.Error("label set over the limit should be rejected")
	}
	if cl.Count() != 2 {
		t.Errorf("Count() = %d, want 2", cl.Count())
	}
}

func BenchmarkCollector_RecordEvaluation(b *testing.B) {
	c := NewCollector(testConfig(), prometheus.NewRegistry())
	e := Evaluation{
		ETRBand:  "LOW",
		Cache:    CacheMiss,
		Source:   "http",
		Duration: 150 * time.Microsecond,
		Blocked:  []string{"reroute_load"},
		Flags:    []string{"insufficient_crews", "storm_active"},
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		c.RecordEvaluation(e)
	}
}
