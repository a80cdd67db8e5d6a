package telemetry

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"mercator-hq/stormwatch/pkg/config"
	"mercator-hq/stormwatch/pkg/telemetry/health"
	"mercator-hq/stormwatch/pkg/telemetry/metrics"
)

func TestNew_MountsEndpoints(t *testing.T) {
	cfg := config.NewDefaultConfig().Telemetry
	var logs bytes.Buffer

	tel, err := New(&cfg, health.BuildInfo{Version: "test", EngineVersion: "1.0.0"}, WithLogWriter(&logs))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer func() { _ = tel.Shutdown(context.Background()) }()

	tel.Logger().Info("telemetry ready")
	if !strings.Contains(logs.String(), "telemetry ready") {
		t.Errorf("log output = %q", logs.String())
	}
	tel.Metrics().RecordEvaluation(metrics.Evaluation{ETRBand: "LOW", Cache: metrics.CacheMiss, Source: "cli"})

	mux := http.NewServeMux()
	tel.Mount(mux)

	for _, path := range []string{"/metrics", "/health", "/ready", "/version"} {
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		if rec.Code != http.StatusOK {
			t.Errorf("GET %s = %d", path, rec.Code)
		}
	}
	if tel.Tracer().Enabled() {
		t.Error("tracing should be disabled by default")
	}
}

func TestNew_InvalidLogging(t *testing.T) {
	cfg := config.NewDefaultConfig().Telemetry
	cfg.Logging.Level = "chatty"
	if _, err := New(&cfg, health.BuildInfo{}); err == nil {
		t.Error("expected error for invalid log level")
	}
}

func TestMount_Disabled(t *testing.T) {
	cfg := config.NewDefaultConfig().Telemetry
	cfg.Metrics.Enabled = false
	cfg.Health.Enabled = false

	tel, err := New(&cfg, health.BuildInfo{}, WithLogWriter(&bytes.Buffer{}))
	if err != nil {
		t.Fatal(err)
	}
	mux := http.NewServeMux()
	tel.Mount(mux)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("GET /metrics = %d, want 404", rec.Code)
	}
}
