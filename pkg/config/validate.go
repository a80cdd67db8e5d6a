package config

import (
	"fmt"
	"net"
	"strings"

	"github.com/robfig/cron/v3"
)

// FieldError represents a validation error for a specific configuration field.
type FieldError struct {
	// Field is the dotted path to the configuration field (e.g., "server.listen_address").
	Field string

	// Message is a human-readable error message.
	Message string
}

// Error returns the error message for this field error.
func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationError represents one or more validation errors in a configuration.
type ValidationError struct {
	// Errors contains all validation errors found in the configuration.
	Errors []FieldError
}

// Error returns a formatted string containing all validation errors.
func (e ValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "configuration validation failed"
	}
	if len(e.Errors) == 1 {
		return fmt.Sprintf("configuration validation failed: %s", e.Errors[0].Error())
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("configuration validation failed with %d errors:\n", len(e.Errors)))
	for _, err := range e.Errors {
		sb.WriteString(fmt.Sprintf("  - %s\n", err.Error()))
	}
	return sb.String()
}

// Validate validates the entire configuration and returns a ValidationError
// carrying every failing field, or nil.
func Validate(cfg *Config) error {
	var errs []FieldError

	errs = append(errs, validateServer(&cfg.Server)...)
	errs = append(errs, validateEngine(&cfg.Engine)...)
	errs = append(errs, validateRecords(&cfg.Records)...)
	errs = append(errs, validateEvidence(&cfg.Evidence)...)
	errs = append(errs, validateEvents(&cfg.Events)...)
	errs = append(errs, validateTelemetry(&cfg.Telemetry)...)

	if len(errs) > 0 {
		return ValidationError{Errors: errs}
	}

	return nil
}

func validateServer(cfg *ServerConfig) []FieldError {
	var errs []FieldError

	if cfg.ListenAddress == "" {
		errs = append(errs, FieldError{
			Field:   "server.listen_address",
			Message: "listen address is required",
		})
	} else if _, _, err := net.SplitHostPort(cfg.ListenAddress); err != nil {
		errs = append(errs, FieldError{
			Field:   "server.listen_address",
			Message: fmt.Sprintf("invalid listen address %q: must be host:port", cfg.ListenAddress),
		})
	}

	timeouts := []struct {
		field string
		value int64
	}{
		{"server.read_timeout", int64(cfg.ReadTimeout)},
		{"server.write_timeout", int64(cfg.WriteTimeout)},
		{"server.idle_timeout", int64(cfg.IdleTimeout)},
		{"server.shutdown_timeout", int64(cfg.ShutdownTimeout)},
		{"server.request_timeout", int64(cfg.RequestTimeout)},
	}
	for _, t := range timeouts {
		if t.value < 0 {
			errs = append(errs, FieldError{Field: t.field, Message: "timeout must not be negative"})
		}
	}

	if cfg.MaxHeaderBytes < 0 || cfg.MaxHeaderBytes > 10<<20 {
		errs = append(errs, FieldError{
			Field:   "server.max_header_bytes",
			Message: "max header bytes must be between 0 and 10MB",
		})
	}
	if cfg.MaxBodyBytes < 0 || cfg.MaxBodyBytes > 64<<20 {
		errs = append(errs, FieldError{
			Field:   "server.max_body_bytes",
			Message: "max body bytes must be between 0 and 64MB",
		})
	}

	if cfg.CORS.Enabled && len(cfg.CORS.AllowedOrigins) == 0 {
		errs = append(errs, FieldError{
			Field:   "server.cors.allowed_origins",
			Message: "at least one origin is required when CORS is enabled",
		})
	}
	if cfg.CORS.MaxAge < 0 {
		errs = append(errs, FieldError{
			Field:   "server.cors.max_age",
			Message: "max age must not be negative",
		})
	}

	errs = append(errs, validateTLS(&cfg.TLS)...)

	if cfg.RateLimit.Enabled {
		if cfg.RateLimit.RequestsPerSecond <= 0 {
			errs = append(errs, FieldError{
				Field:   "server.rate_limit.requests_per_second",
				Message: "requests per second must be positive",
			})
		}
		if cfg.RateLimit.Burst < 1 {
			errs = append(errs, FieldError{
				Field:   "server.rate_limit.burst",
				Message: "burst must be at least 1",
			})
		}
		if cfg.RateLimit.MaxClients < 1 {
			errs = append(errs, FieldError{
				Field:   "server.rate_limit.max_clients",
				Message: "max clients must be at least 1",
			})
		}
	}

	return errs
}

func validateTLS(cfg *TLSConfig) []FieldError {
	if !cfg.Enabled {
		return nil
	}
	var errs []FieldError

	if cfg.CertFile == "" {
		errs = append(errs, FieldError{Field: "server.tls.cert_file", Message: "cert file is required when TLS is enabled"})
	}
	if cfg.KeyFile == "" {
		errs = append(errs, FieldError{Field: "server.tls.key_file", Message: "key file is required when TLS is enabled"})
	}
	if cfg.MinVersion != "1.2" && cfg.MinVersion != "1.3" {
		errs = append(errs, FieldError{
			Field:   "server.tls.min_version",
			Message: fmt.Sprintf("unsupported TLS version %q: must be 1.2 or 1.3", cfg.MinVersion),
		})
	}
	if cfg.ClientCAFile != "" {
		switch cfg.ClientAuth {
		case "require", "request", "verify_if_given":
		default:
			errs = append(errs, FieldError{
				Field:   "server.tls.client_auth",
				Message: fmt.Sprintf("invalid client auth %q: must be require, request or verify_if_given", cfg.ClientAuth),
			})
		}
	}

	return errs
}

func validateEngine(cfg *EngineConfig) []FieldError {
	var errs []FieldError

	if cfg.SlowEvaluationThreshold < 0 {
		errs = append(errs, FieldError{
			Field:   "engine.slow_evaluation_threshold",
			Message: "threshold must not be negative",
		})
	}

	switch cfg.Cache.Backend {
	case "memory":
		if cfg.Cache.Size <= 0 {
			errs = append(errs, FieldError{
				Field:   "engine.cache.size",
				Message: "cache size must be positive for the memory backend",
			})
		}
	case "redis":
		if cfg.Cache.Redis.Address == "" {
			errs = append(errs, FieldError{
				Field:   "engine.cache.redis.address",
				Message: "redis address is required when backend is 'redis'",
			})
		}
		if cfg.Cache.Redis.DB < 0 {
			errs = append(errs, FieldError{
				Field:   "engine.cache.redis.db",
				Message: "redis db must not be negative",
			})
		}
	case "none":
	default:
		errs = append(errs, FieldError{
			Field:   "engine.cache.backend",
			Message: fmt.Sprintf("invalid backend %q: must be 'memory', 'redis', or 'none'", cfg.Cache.Backend),
		})
	}

	if cfg.Cache.TTL < 0 {
		errs = append(errs, FieldError{
			Field:   "engine.cache.ttl",
			Message: "ttl must not be negative",
		})
	}

	return errs
}

func validateRecords(cfg *RecordsConfig) []FieldError {
	var errs []FieldError

	switch cfg.Backend {
	case "memory":
	case "sqlite":
		errs = append(errs, validateSQLite("records.sqlite", &cfg.SQLite)...)
	default:
		errs = append(errs, FieldError{
			Field:   "records.backend",
			Message: fmt.Sprintf("invalid backend %q: must be 'memory' or 'sqlite'", cfg.Backend),
		})
	}

	return errs
}

func validateEvidence(cfg *EvidenceConfig) []FieldError {
	var errs []FieldError

	if !cfg.Enabled {
		return errs
	}

	switch cfg.Backend {
	case "memory":
	case "sqlite":
		errs = append(errs, validateSQLite("evidence.sqlite", &cfg.SQLite)...)
	default:
		errs = append(errs, FieldError{
			Field:   "evidence.backend",
			Message: fmt.Sprintf("invalid backend %q: must be 'memory' or 'sqlite'", cfg.Backend),
		})
	}

	if cfg.Recorder.AsyncBuffer <= 0 {
		errs = append(errs, FieldError{
			Field:   "evidence.recorder.async_buffer",
			Message: "async buffer must be positive",
		})
	}
	if cfg.Recorder.WriteTimeout <= 0 {
		errs = append(errs, FieldError{
			Field:   "evidence.recorder.write_timeout",
			Message: "write timeout must be positive",
		})
	}

	if cfg.Retention.Days < 0 {
		errs = append(errs, FieldError{
			Field:   "evidence.retention.days",
			Message: "retention days must not be negative",
		})
	}
	if cfg.Retention.MaxRecords < 0 {
		errs = append(errs, FieldError{
			Field:   "evidence.retention.max_records",
			Message: "max records must not be negative",
		})
	}
	if cfg.Retention.PruneSchedule != "" {
		if _, err := cron.ParseStandard(cfg.Retention.PruneSchedule); err != nil {
			errs = append(errs, FieldError{
				Field:   "evidence.retention.prune_schedule",
				Message: fmt.Sprintf("invalid cron expression %q: %v", cfg.Retention.PruneSchedule, err),
			})
		}
	}

	if cfg.Query.DefaultLimit <= 0 || cfg.Query.MaxLimit <= 0 {
		errs = append(errs, FieldError{
			Field:   "evidence.query",
			Message: "query limits must be positive",
		})
	} else if cfg.Query.DefaultLimit > cfg.Query.MaxLimit {
		errs = append(errs, FieldError{
			Field:   "evidence.query.default_limit",
			Message: "default limit must not exceed max limit",
		})
	}

	return errs
}

func validateSQLite(prefix string, cfg *SQLiteConfig) []FieldError {
	var errs []FieldError

	if cfg.Path == "" {
		errs = append(errs, FieldError{
			Field:   prefix + ".path",
			Message: "SQLite path is required when backend is 'sqlite'",
		})
	}
	if cfg.MaxOpenConns < 0 || cfg.MaxIdleConns < 0 {
		errs = append(errs, FieldError{
			Field:   prefix,
			Message: "connection limits must not be negative",
		})
	}
	if cfg.BusyTimeout < 0 {
		errs = append(errs, FieldError{
			Field:   prefix + ".busy_timeout",
			Message: "busy timeout must not be negative",
		})
	}

	return errs
}

func validateEvents(cfg *EventsConfig) []FieldError {
	var errs []FieldError

	switch cfg.Backend {
	case "log", "none":
	case "kafka":
		if len(cfg.Kafka.Brokers) == 0 {
			errs = append(errs, FieldError{
				Field:   "events.kafka.brokers",
				Message: "at least one broker is required when backend is 'kafka'",
			})
		}
		if cfg.Kafka.Topic == "" {
			errs = append(errs, FieldError{
				Field:   "events.kafka.topic",
				Message: "topic is required when backend is 'kafka'",
			})
		}
	default:
		errs = append(errs, FieldError{
			Field:   "events.backend",
			Message: fmt.Sprintf("invalid backend %q: must be 'log', 'kafka', or 'none'", cfg.Backend),
		})
	}

	return errs
}

func validateTelemetry(cfg *TelemetryConfig) []FieldError {
	var errs []FieldError

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[cfg.Logging.Level] {
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.level",
			Message: fmt.Sprintf("invalid logging level %q: must be 'debug', 'info', 'warn', or 'error'", cfg.Logging.Level),
		})
	}

	validFormats := map[string]bool{"json": true, "text": true, "console": true}
	if !validFormats[cfg.Logging.Format] {
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.format",
			Message: fmt.Sprintf("invalid logging format %q: must be 'json', 'text', or 'console'", cfg.Logging.Format),
		})
	}

	for i, p := range cfg.Logging.RedactPatterns {
		if p.Name == "" || p.Pattern == "" {
			errs = append(errs, FieldError{
				Field:   fmt.Sprintf("telemetry.logging.redact_patterns[%d]", i),
				Message: "name and pattern are required",
			})
		}
	}

	if cfg.Metrics.Enabled && !strings.HasPrefix(cfg.Metrics.Path, "/") {
		errs = append(errs, FieldError{
			Field:   "telemetry.metrics.path",
			Message: "metrics path must start with '/' when metrics are enabled",
		})
	}

	if cfg.Tracing.Enabled && cfg.Tracing.Endpoint == "" {
		errs = append(errs, FieldError{
			Field:   "telemetry.tracing.endpoint",
			Message: "tracing endpoint is required when tracing is enabled",
		})
	}
	if cfg.Tracing.SampleRatio < 0 || cfg.Tracing.SampleRatio > 1.0 {
		errs = append(errs, FieldError{
			Field:   "telemetry.tracing.sample_ratio",
			Message: "sample ratio must be between 0.0 and 1.0",
		})
	}

	if cfg.Health.Enabled {
		paths := map[string]string{
			"telemetry.health.liveness_path":  cfg.Health.LivenessPath,
			"telemetry.health.readiness_path": cfg.Health.ReadinessPath,
			"telemetry.health.version_path":   cfg.Health.VersionPath,
		}
		for _, field := range []string{"telemetry.health.liveness_path", "telemetry.health.readiness_path", "telemetry.health.version_path"} {
			if !strings.HasPrefix(paths[field], "/") {
				errs = append(errs, FieldError{Field: field, Message: "path must start with '/'"})
			}
		}
	}

	return errs
}
