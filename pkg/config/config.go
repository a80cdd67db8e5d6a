package config

import (
	"time"

	"mercator-hq/stormwatch/pkg/telemetry/logging"
)

// Config is the root configuration structure for stormwatch.
type Config struct {
	// Server contains HTTP server configuration including listen address,
	// timeouts, body limits and CORS.
	Server ServerConfig `yaml:"server" envPrefix:"SERVER_"`

	// Engine contains evaluation engine configuration including the
	// decision cache.
	Engine EngineConfig `yaml:"engine" envPrefix:"ENGINE_"`

	// Records contains configuration for the scenario and asset record store.
	Records RecordsConfig `yaml:"records" envPrefix:"RECORDS_"`

	// Evidence contains configuration for the evaluation audit trail
	// including backend selection, the async recorder and retention.
	Evidence EvidenceConfig `yaml:"evidence" envPrefix:"EVIDENCE_"`

	// Events contains configuration for evaluation event publishing.
	Events EventsConfig `yaml:"events" envPrefix:"EVENTS_"`

	// Telemetry contains configuration for logging, metrics, tracing and
	// health endpoints.
	Telemetry TelemetryConfig `yaml:"telemetry" envPrefix:"TELEMETRY_"`
}

// ServerConfig contains configuration for the HTTP server.
type ServerConfig struct {
	// ListenAddress is the address and port to listen on.
	// Default: "127.0.0.1:8080"
	ListenAddress string `yaml:"listen_address" env:"LISTEN_ADDRESS"`

	// ReadTimeout is the maximum duration for reading the entire request.
	// Default: 15s
	ReadTimeout time.Duration `yaml:"read_timeout" env:"READ_TIMEOUT"`

	// WriteTimeout is the maximum duration before timing out writes of the
	// response.
	// Default: 15s
	WriteTimeout time.Duration `yaml:"write_timeout" env:"WRITE_TIMEOUT"`

	// IdleTimeout is the maximum time to wait for the next request when
	// keep-alives are enabled.
	// Default: 60s
	IdleTimeout time.Duration `yaml:"idle_timeout" env:"IDLE_TIMEOUT"`

	// ShutdownTimeout bounds graceful shutdown.
	// Default: 15s
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SHUTDOWN_TIMEOUT"`

	// RequestTimeout bounds the handling of a single request.
	// Default: 10s
	RequestTimeout time.Duration `yaml:"request_timeout" env:"REQUEST_TIMEOUT"`

	// MaxHeaderBytes limits request header size.
	// Default: 1048576 (1MB)
	MaxHeaderBytes int `yaml:"max_header_bytes" env:"MAX_HEADER_BYTES"`

	// MaxBodyBytes limits request body size. Larger bodies are rejected
	// with 413.
	// Default: 1048576 (1MB)
	MaxBodyBytes int64 `yaml:"max_body_bytes" env:"MAX_BODY_BYTES"`

	// CORS contains Cross-Origin Resource Sharing configuration.
	CORS CORSConfig `yaml:"cors" envPrefix:"CORS_"`

	// TLS serves the API over HTTPS when enabled.
	TLS TLSConfig `yaml:"tls" envPrefix:"TLS_"`

	// RateLimit bounds the request rate of each client address.
	RateLimit RateLimitConfig `yaml:"rate_limit" envPrefix:"RATE_LIMIT_"`
}

// TLSConfig contains TLS listener configuration. Certificate and key files
// are reloaded when they change on disk.
type TLSConfig struct {
	// Enabled turns on HTTPS.
	// Default: false
	Enabled bool `yaml:"enabled" env:"ENABLED"`

	// CertFile is the PEM-encoded server certificate.
	CertFile string `yaml:"cert_file" env:"CERT_FILE"`

	// KeyFile is the PEM-encoded private key.
	KeyFile string `yaml:"key_file" env:"KEY_FILE"`

	// MinVersion is the minimum accepted protocol version, "1.2" or "1.3".
	// Default: "1.3"
	MinVersion string `yaml:"min_version" env:"MIN_VERSION"`

	// ClientCAFile enables client certificate verification against this
	// PEM-encoded CA bundle.
	ClientCAFile string `yaml:"client_ca_file" env:"CLIENT_CA_FILE"`

	// ClientAuth is "require", "request" or "verify_if_given".
	// Default: "require" when ClientCAFile is set
	ClientAuth string `yaml:"client_auth" env:"CLIENT_AUTH"`
}

// RateLimitConfig contains per-client token bucket configuration.
type RateLimitConfig struct {
	// Enabled turns on rate limiting.
	// Default: false
	Enabled bool `yaml:"enabled" env:"ENABLED"`

	// RequestsPerSecond is the sustained rate allowed per client.
	// Default: 50
	RequestsPerSecond float64 `yaml:"requests_per_second" env:"REQUESTS_PER_SECOND"`

	// Burst is the bucket capacity.
	// Default: 100
	Burst int `yaml:"burst" env:"BURST"`

	// MaxClients bounds the number of tracked client buckets. The least
	// recently seen client is evicted first.
	// Default: 10000
	MaxClients int `yaml:"max_clients" env:"MAX_CLIENTS"`
}

// CORSConfig contains CORS configuration.
type CORSConfig struct {
	// Enabled controls whether CORS headers are written.
	// Default: true
	Enabled bool `yaml:"enabled" env:"ENABLED"`

	// AllowedOrigins is the list of allowed origins. ["*"] allows all.
	// Default: ["*"]
	AllowedOrigins []string `yaml:"allowed_origins" env:"ALLOWED_ORIGINS"`

	// AllowedMethods is the list of allowed HTTP methods.
	// Default: ["GET", "POST", "PUT", "DELETE", "OPTIONS"]
	AllowedMethods []string `yaml:"allowed_methods" env:"ALLOWED_METHODS"`

	// AllowedHeaders is the list of allowed request headers.
	// Default: ["Content-Type", "X-Request-ID"]
	AllowedHeaders []string `yaml:"allowed_headers" env:"ALLOWED_HEADERS"`

	// ExposedHeaders is the list of headers exposed to the client.
	// Default: ["X-Request-ID", "X-Deterministic-Hash"]
	ExposedHeaders []string `yaml:"exposed_headers" env:"EXPOSED_HEADERS"`

	// MaxAge is the preflight cache lifetime in seconds.
	// Default: 3600
	MaxAge int `yaml:"max_age" env:"MAX_AGE"`
}

// EngineConfig contains configuration for the evaluation engine.
type EngineConfig struct {
	// EnableTrace records a per-evaluator trace on every response.
	// Default: false
	EnableTrace bool `yaml:"enable_trace" env:"ENABLE_TRACE"`

	// SlowEvaluationThreshold is the duration above which an evaluation is
	// logged as slow.
	// Default: 50ms
	SlowEvaluationThreshold time.Duration `yaml:"slow_evaluation_threshold" env:"SLOW_EVALUATION_THRESHOLD"`

	// Cache contains decision cache configuration.
	Cache CacheConfig `yaml:"cache" envPrefix:"CACHE_"`
}

// CacheConfig contains configuration for the decision cache.
type CacheConfig struct {
	// Backend selects the cache implementation.
	// Options: "memory", "redis", "none"
	// Default: "memory"
	Backend string `yaml:"backend" env:"BACKEND"`

	// Size is the maximum number of entries held by the memory backend.
	// Default: 1024
	Size int `yaml:"size" env:"SIZE"`

	// TTL is the lifetime of a cached decision. Zero keeps entries until
	// evicted.
	// Default: 10m
	TTL time.Duration `yaml:"ttl" env:"TTL"`

	// Redis contains Redis backend configuration.
	Redis RedisConfig `yaml:"redis" envPrefix:"REDIS_"`
}

// RedisConfig contains configuration for the Redis cache backend.
type RedisConfig struct {
	// Address is the Redis server address.
	// Default: "localhost:6379"
	Address string `yaml:"address" env:"ADDRESS"`

	// Password is the optional Redis password.
	Password string `yaml:"password" env:"PASSWORD"`

	// DB is the Redis database number.
	// Default: 0
	DB int `yaml:"db" env:"DB"`

	// KeyPrefix is prepended to every cache key.
	// Default: "stormwatch:decision:"
	KeyPrefix string `yaml:"key_prefix" env:"KEY_PREFIX"`

	// DialTimeout bounds connection setup.
	// Default: 5s
	DialTimeout time.Duration `yaml:"dial_timeout" env:"DIAL_TIMEOUT"`
}

// RecordsConfig contains configuration for the scenario record store.
type RecordsConfig struct {
	// Backend selects the storage backend.
	// Options: "memory", "sqlite"
	// Default: "memory"
	Backend string `yaml:"backend" env:"BACKEND"`

	// SQLite contains SQLite backend configuration.
	SQLite SQLiteConfig `yaml:"sqlite" envPrefix:"SQLITE_"`
}

// EvidenceConfig contains configuration for the evaluation audit trail.
type EvidenceConfig struct {
	// Enabled controls whether evaluations are recorded.
	// Default: true
	Enabled bool `yaml:"enabled" env:"ENABLED"`

	// Backend selects the storage backend.
	// Options: "memory", "sqlite"
	// Default: "sqlite"
	Backend string `yaml:"backend" env:"BACKEND"`

	// SQLite contains SQLite backend configuration.
	SQLite SQLiteConfig `yaml:"sqlite" envPrefix:"SQLITE_"`

	// Recorder contains async recorder configuration.
	Recorder RecorderConfig `yaml:"recorder" envPrefix:"RECORDER_"`

	// Retention contains retention policy configuration.
	Retention RetentionConfig `yaml:"retention" envPrefix:"RETENTION_"`

	// Query contains query limits.
	Query QueryConfig `yaml:"query" envPrefix:"QUERY_"`
}

// SQLiteConfig contains configuration for a SQLite database.
type SQLiteConfig struct {
	// Path is the database file path.
	Path string `yaml:"path" env:"PATH"`

	// MaxOpenConns is the maximum number of open connections.
	// Default: 10
	MaxOpenConns int `yaml:"max_open_conns" env:"MAX_OPEN_CONNS"`

	// MaxIdleConns is the maximum number of idle connections.
	// Default: 5
	MaxIdleConns int `yaml:"max_idle_conns" env:"MAX_IDLE_CONNS"`

	// WALMode enables write-ahead logging.
	// Default: true
	WALMode bool `yaml:"wal_mode" env:"WAL_MODE"`

	// BusyTimeout is how long to wait on a locked database.
	// Default: 5s
	BusyTimeout time.Duration `yaml:"busy_timeout" env:"BUSY_TIMEOUT"`
}

// RecorderConfig contains configuration for the async evidence recorder.
type RecorderConfig struct {
	// AsyncBuffer is the size of the write channel buffer. Records are
	// dropped when it is full.
	// Default: 1000
	AsyncBuffer int `yaml:"async_buffer" env:"ASYNC_BUFFER"`

	// WriteTimeout bounds a single storage write.
	// Default: 5s
	WriteTimeout time.Duration `yaml:"write_timeout" env:"WRITE_TIMEOUT"`
}

// RetentionConfig contains evidence retention configuration.
type RetentionConfig struct {
	// Days is the number of days to retain records. 0 keeps records forever.
	// Default: 90
	Days int `yaml:"days" env:"DAYS"`

	// MaxRecords is the maximum number of records kept. 0 means unlimited.
	// Default: 0
	MaxRecords int64 `yaml:"max_records" env:"MAX_RECORDS"`

	// PruneSchedule is a cron expression for scheduled pruning.
	// Default: "0 3 * * *"
	PruneSchedule string `yaml:"prune_schedule" env:"PRUNE_SCHEDULE"`
}

// QueryConfig contains evidence query limits.
type QueryConfig struct {
	// DefaultLimit applies when a query does not set one.
	// Default: 100
	DefaultLimit int `yaml:"default_limit" env:"DEFAULT_LIMIT"`

	// MaxLimit caps any requested limit.
	// Default: 1000
	MaxLimit int `yaml:"max_limit" env:"MAX_LIMIT"`
}

// EventsConfig contains configuration for evaluation event publishing.
type EventsConfig struct {
	// Backend selects the publisher.
	// Options: "log", "kafka", "none"
	// Default: "log"
	Backend string `yaml:"backend" env:"BACKEND"`

	// Kafka contains Kafka publisher configuration.
	Kafka KafkaConfig `yaml:"kafka" envPrefix:"KAFKA_"`
}

// KafkaConfig contains configuration for the Kafka publisher.
type KafkaConfig struct {
	// Brokers is the list of bootstrap brokers.
	Brokers []string `yaml:"brokers" env:"BROKERS"`

	// Topic receives evaluation events.
	// Default: "stormwatch.evaluations"
	Topic string `yaml:"topic" env:"TOPIC"`

	// WriteTimeout bounds a single publish.
	// Default: 10s
	WriteTimeout time.Duration `yaml:"write_timeout" env:"WRITE_TIMEOUT"`

	// BatchTimeout is how long the writer waits to fill a batch.
	// Default: 100ms
	BatchTimeout time.Duration `yaml:"batch_timeout" env:"BATCH_TIMEOUT"`
}

// TelemetryConfig contains observability configuration.
type TelemetryConfig struct {
	Logging LoggingConfig `yaml:"logging" envPrefix:"LOGGING_"`
	Metrics MetricsConfig `yaml:"metrics" envPrefix:"METRICS_"`
	Tracing TracingConfig `yaml:"tracing" envPrefix:"TRACING_"`
	Health  HealthConfig  `yaml:"health" envPrefix:"HEALTH_"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	// Level is the minimum log level.
	// Options: "debug", "info", "warn", "error"
	// Default: "info"
	Level string `yaml:"level" env:"LEVEL"`

	// Format controls the output format.
	// Options: "json", "text", "console"
	// Default: "json"
	Format string `yaml:"format" env:"FORMAT"`

	// AddSource includes file and line in log entries.
	// Default: false
	AddSource bool `yaml:"add_source" env:"ADD_SOURCE"`

	// RedactPII redacts contact details and credentials in log fields.
	// Default: true
	RedactPII bool `yaml:"redact_pii" env:"REDACT_PII"`

	// RedactPatterns contains custom redaction patterns.
	RedactPatterns []logging.RedactPattern `yaml:"redact_patterns"`
}

// MetricsConfig contains Prometheus metrics configuration.
type MetricsConfig struct {
	// Enabled controls whether metrics are collected and served.
	// Default: true
	Enabled bool `yaml:"enabled" env:"ENABLED"`

	// Path is the HTTP path of the metrics endpoint.
	// Default: "/metrics"
	Path string `yaml:"path" env:"PATH"`

	// Namespace is the metric name prefix.
	// Default: "stormwatch"
	Namespace string `yaml:"namespace" env:"NAMESPACE"`

	// Subsystem is the optional metric subsystem.
	Subsystem string `yaml:"subsystem" env:"SUBSYSTEM"`

	// DurationBuckets are histogram buckets for evaluation duration in
	// seconds.
	// Default: [0.0001, 0.00025, 0.0005, 0.001, 0.0025, 0.005, 0.01, 0.05]
	DurationBuckets []float64 `yaml:"duration_buckets" env:"DURATION_BUCKETS"`

	// HTTPDurationBuckets are histogram buckets for HTTP request duration
	// in seconds.
	// Default: [0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5]
	HTTPDurationBuckets []float64 `yaml:"http_duration_buckets" env:"HTTP_DURATION_BUCKETS"`
}

// TracingConfig contains OpenTelemetry tracing configuration.
type TracingConfig struct {
	// Enabled controls whether spans are exported.
	// Default: false
	Enabled bool `yaml:"enabled" env:"ENABLED"`

	// Endpoint is the OTLP gRPC collector endpoint.
	// Example: "localhost:4317"
	Endpoint string `yaml:"endpoint" env:"ENDPOINT"`

	// ServiceName is the service name attached to spans.
	// Default: "stormwatch"
	ServiceName string `yaml:"service_name" env:"SERVICE_NAME"`

	// SampleRatio is the fraction of traces sampled (0.0 to 1.0).
	// Default: 1.0
	SampleRatio float64 `yaml:"sample_ratio" env:"SAMPLE_RATIO"`

	// Insecure disables TLS on the exporter connection.
	// Default: false
	Insecure bool `yaml:"insecure" env:"INSECURE"`

	// Timeout bounds a single export.
	// Default: 10s
	Timeout time.Duration `yaml:"timeout" env:"TIMEOUT"`
}

// HealthConfig contains health endpoint configuration.
type HealthConfig struct {
	// Enabled controls whether health endpoints are served.
	// Default: true
	Enabled bool `yaml:"enabled" env:"ENABLED"`

	// LivenessPath is the liveness probe path.
	// Default: "/health"
	LivenessPath string `yaml:"liveness_path" env:"LIVENESS_PATH"`

	// ReadinessPath is the readiness probe path.
	// Default: "/ready"
	ReadinessPath string `yaml:"readiness_path" env:"READINESS_PATH"`

	// VersionPath is the version endpoint path.
	// Default: "/version"
	VersionPath string `yaml:"version_path" env:"VERSION_PATH"`

	// CheckTimeout bounds each readiness check.
	// Default: 5s
	CheckTimeout time.Duration `yaml:"check_timeout" env:"CHECK_TIMEOUT"`
}
