package config

import (
	"errors"
	"strings"
	"testing"

	"mercator-hq/stormwatch/pkg/telemetry/logging"
)

func TestValidate_ValidConfig(t *testing.T) {
	if err := Validate(NewDefaultConfig()); err != nil {
		t.Errorf("default config should be valid: %v", err)
	}
}

func TestValidate_Fields(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*Config)
		wantField string
	}{
		{
			name:      "empty listen address",
			mutate:    func(c *Config) { c.Server.ListenAddress = "" },
			wantField: "server.listen_address",
		},
		{
			name:      "listen address without port",
			mutate:    func(c *Config) { c.Server.ListenAddress = "localhost" },
			wantField: "server.listen_address",
		},
		{
			name:      "negative read timeout",
			mutate:    func(c *Config) { c.Server.ReadTimeout = -1 },
			wantField: "server.read_timeout",
		},
		{
			name:      "oversized body limit",
			mutate:    func(c *Config) { c.Server.MaxBodyBytes = 1 << 30 },
			wantField: "server.max_body_bytes",
		},
		{
			name: "tls without cert",
			mutate: func(c *Config) {
				c.Server.TLS.Enabled = true
				c.Server.TLS.KeyFile = "server.key"
			},
			wantField: "server.tls.cert_file",
		},
		{
			name: "tls 1.1",
			mutate: func(c *Config) {
				c.Server.TLS = TLSConfig{Enabled: true, CertFile: "a", KeyFile: "b", MinVersion: "1.1"}
			},
			wantField: "server.tls.min_version",
		},
		{
			name: "unknown client auth",
			mutate: func(c *Config) {
				c.Server.TLS = TLSConfig{Enabled: true, CertFile: "a", KeyFile: "b", MinVersion: "1.3", ClientCAFile: "ca.pem", ClientAuth: "maybe"}
			},
			wantField: "server.tls.client_auth",
		},
		{
			name: "rate limit zero burst",
			mutate: func(c *Config) {
				c.Server.RateLimit.Enabled = true
				c.Server.RateLimit.Burst = -1
			},
			wantField: "server.rate_limit.burst",
		},
		{
			name:      "unknown cache backend",
			mutate:    func(c *Config) { c.Engine.Cache.Backend = "memcached" },
			wantField: "engine.cache.backend",
		},
		{
			name:      "memory cache without size",
			mutate:    func(c *Config) { c.Engine.Cache.Size = 0 },
			wantField: "engine.cache.size",
		},
		{
			name: "redis without address",
			mutate: func(c *Config) {
				c.Engine.Cache.Backend = "redis"
				c.Engine.Cache.Redis.Address = ""
			},
			wantField: "engine.cache.redis.address",
		},
		{
			name:      "unknown records backend",
			mutate:    func(c *Config) { c.Records.Backend = "postgres" },
			wantField: "records.backend",
		},
		{
			name: "records sqlite without path",
			mutate: func(c *Config) {
				c.Records.Backend = "sqlite"
				c.Records.SQLite.Path = ""
			},
			wantField: "records.sqlite.path",
		},
		{
			name:      "unknown evidence backend",
			mutate:    func(c *Config) { c.Evidence.Backend = "s3" },
			wantField: "evidence.backend",
		},
		{
			name:      "invalid prune schedule",
			mutate:    func(c *Config) { c.Evidence.Retention.PruneSchedule = "every day" },
			wantField: "evidence.retention.prune_schedule",
		},
		{
			name:      "default limit above max",
			mutate:    func(c *Config) { c.Evidence.Query.DefaultLimit = 5000 },
			wantField: "evidence.query.default_limit",
		},
		{
			name:      "kafka without brokers",
			mutate:    func(c *Config) { c.Events.Backend = "kafka" },
			wantField: "events.kafka.brokers",
		},
		{
			name:      "unknown events backend",
			mutate:    func(c *Config) { c.Events.Backend = "sns" },
			wantField: "events.backend",
		},
		{
			name:      "unknown log format",
			mutate:    func(c *Config) { c.Telemetry.Logging.Format = "xml" },
			wantField: "telemetry.logging.format",
		},
		{
			name: "redact pattern without regex",
			mutate: func(c *Config) {
				c.Telemetry.Logging.RedactPatterns = []logging.RedactPattern{{Name: "feeder"}}
			},
			wantField: "telemetry.logging.redact_patterns[0]",
		},
		{
			name:      "metrics path without slash",
			mutate:    func(c *Config) { c.Telemetry.Metrics.Path = "metrics" },
			wantField: "telemetry.metrics.path",
		},
		{
			name:      "tracing without endpoint",
			mutate:    func(c *Config) { c.Telemetry.Tracing.Enabled = true },
			wantField: "telemetry.tracing.endpoint",
		},
		{
			name:      "sample ratio above one",
			mutate:    func(c *Config) { c.Telemetry.Tracing.SampleRatio = 1.5 },
			wantField: "telemetry.tracing.sample_ratio",
		},
		{
			name:      "health path without slash",
			mutate:    func(c *Config) { c.Telemetry.Health.ReadinessPath = "ready" },
			wantField: "telemetry.health.readiness_path",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewDefaultConfig()
			tt.mutate(cfg)

			var verr ValidationError
			if err := Validate(cfg); !errors.As(err, &verr) {
				t.Fatalf("Validate() error = %v, want ValidationError", err)
			}
			found := false
			for _, fe := range verr.Errors {
				if fe.Field == tt.wantField {
					found = true
				}
			}
			if !found {
				t.Errorf("missing field error %q in %v", tt.wantField, verr.Errors)
			}
		})
	}
}

func TestValidate_DisabledEvidenceSkipsChecks(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Evidence.Enabled = false
	cfg.Evidence.Backend = "s3"
	if err := Validate(cfg); err != nil {
		t.Errorf("disabled evidence should not be validated: %v", err)
	}
}

func TestValidate_MultipleErrors(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Server.ListenAddress = ""
	cfg.Telemetry.Logging.Level = "trace"
	cfg.Events.Backend = "sns"

	err := Validate(cfg)
	var verr ValidationError
	if !errors.As(err, &verr) || len(verr.Errors) != 3 {
		t.Fatalf("Validate() error = %v, want 3 field errors", err)
	}
	if !strings.Contains(err.Error(), "with 3 errors") {
		t.Errorf("Error() = %q", err.Error())
	}
}

func TestValidationError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  ValidationError
		want string
	}{
		{"empty", ValidationError{}, "configuration validation failed"},
		{
			"single",
			ValidationError{Errors: []FieldError{{Field: "server.listen_address", Message: "listen address is required"}}},
			"configuration validation failed: server.listen_address: listen address is required",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}
