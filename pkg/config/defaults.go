package config

import "time"

// Default values for configuration fields.
const (
	// Server defaults
	DefaultListenAddress   = "127.0.0.1:8080"
	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = 15 * time.Second
	DefaultIdleTimeout     = 60 * time.Second
	DefaultShutdownTimeout = 15 * time.Second
	DefaultRequestTimeout  = 10 * time.Second
	DefaultMaxHeaderBytes  = 1 << 20
	DefaultMaxBodyBytes    = int64(1 << 20)

	// CORS defaults
	DefaultCORSEnabled = true
	DefaultCORSMaxAge  = 3600

	// TLS defaults
	DefaultTLSMinVersion = "1.3"
	DefaultTLSClientAuth = "require"

	// Rate limit defaults
	DefaultRateLimitRequestsPerSecond = 50.0
	DefaultRateLimitBurst             = 100
	DefaultRateLimitMaxClients        = 10000

	// Engine defaults
	DefaultSlowEvaluationThreshold = 50 * time.Millisecond
	DefaultCacheBackend            = "memory"
	DefaultCacheSize               = 1024
	DefaultCacheTTL                = 10 * time.Minute
	DefaultRedisAddress            = "localhost:6379"
	DefaultRedisKeyPrefix          = "stormwatch:decision:"
	DefaultRedisDialTimeout        = 5 * time.Second

	// Records defaults
	DefaultRecordsBackend    = "memory"
	DefaultRecordsSQLitePath = "data/records.db"

	// Evidence defaults
	DefaultEvidenceEnabled              = true
	DefaultEvidenceBackend              = "sqlite"
	DefaultEvidenceSQLitePath           = "data/evidence.db"
	DefaultSQLiteMaxOpenConns           = 10
	DefaultSQLiteMaxIdleConns           = 5
	DefaultSQLiteWALMode                = true
	DefaultSQLiteBusyTimeout            = 5 * time.Second
	DefaultEvidenceRecorderAsyncBuffer  = 1000
	DefaultEvidenceRecorderWriteTimeout = 5 * time.Second
	DefaultEvidenceRetentionDays        = 90
	DefaultEvidenceRetentionSchedule    = "0 3 * * *"
	DefaultEvidenceQueryDefaultLimit    = 100
	DefaultEvidenceQueryMaxLimit        = 1000

	// Events defaults
	DefaultEventsBackend     = "log"
	DefaultKafkaTopic        = "stormwatch.evaluations"
	DefaultKafkaWriteTimeout = 10 * time.Second
	DefaultKafkaBatchTimeout = 100 * time.Millisecond

	// Telemetry defaults
	DefaultLoggingLevel       = "info"
	DefaultLoggingFormat      = "json"
	DefaultLoggingRedactPII   = true
	DefaultMetricsEnabled     = true
	DefaultMetricsPath        = "/metrics"
	DefaultMetricsNamespace   = "stormwatch"
	DefaultTracingServiceName = "stormwatch"
	DefaultTracingSampleRatio = 1.0
	DefaultTracingTimeout     = 10 * time.Second
	DefaultHealthEnabled      = true
	DefaultLivenessPath       = "/health"
	DefaultReadinessPath      = "/ready"
	DefaultVersionPath        = "/version"
	DefaultHealthCheckTimeout = 5 * time.Second
)

var (
	// DefaultCORSAllowedOrigins allows every origin.
	DefaultCORSAllowedOrigins = []string{"*"}
	DefaultCORSAllowedMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	DefaultCORSAllowedHeaders = []string{"Content-Type", "X-Request-ID"}
	DefaultCORSExposedHeaders = []string{"X-Request-ID", "X-Deterministic-Hash"}

	// DefaultDurationBuckets cover sub-millisecond evaluations up to 50ms.
	DefaultDurationBuckets     = []float64{0.0001, 0.00025, 0.0005, 0.001, 0.0025, 0.005, 0.01, 0.05}
	DefaultHTTPDurationBuckets = []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5}
)

// NewDefaultConfig returns a Config with every field set to its default.
// Settings whose zero value is meaningful (booleans defaulting to true,
// retention days, sample ratio) are only set here, so the YAML document must
// be decoded on top of this value.
func NewDefaultConfig() *Config {
	cfg := &Config{}
	cfg.Server.CORS.Enabled = DefaultCORSEnabled
	cfg.Evidence.Enabled = DefaultEvidenceEnabled
	cfg.Evidence.SQLite.WALMode = DefaultSQLiteWALMode
	cfg.Records.SQLite.WALMode = DefaultSQLiteWALMode
	cfg.Telemetry.Logging.RedactPII = DefaultLoggingRedactPII
	cfg.Telemetry.Metrics.Enabled = DefaultMetricsEnabled
	cfg.Telemetry.Health.Enabled = DefaultHealthEnabled
	cfg.Telemetry.Tracing.SampleRatio = DefaultTracingSampleRatio
	cfg.Evidence.Retention.Days = DefaultEvidenceRetentionDays
	ApplyDefaults(cfg)
	return cfg
}

// ApplyDefaults sets defaults for any fields that have zero values.
// It is idempotent.
func ApplyDefaults(cfg *Config) {
	applyServerDefaults(&cfg.Server)
	applyEngineDefaults(&cfg.Engine)

	if cfg.Records.Backend == "" {
		cfg.Records.Backend = DefaultRecordsBackend
	}
	applySQLiteDefaults(&cfg.Records.SQLite, DefaultRecordsSQLitePath)

	applyEvidenceDefaults(&cfg.Evidence)

	if cfg.Events.Backend == "" {
		cfg.Events.Backend = DefaultEventsBackend
	}
	if cfg.Events.Kafka.Topic == "" {
		cfg.Events.Kafka.Topic = DefaultKafkaTopic
	}
	if cfg.Events.Kafka.WriteTimeout == 0 {
		cfg.Events.Kafka.WriteTimeout = DefaultKafkaWriteTimeout
	}
	if cfg.Events.Kafka.BatchTimeout == 0 {
		cfg.Events.Kafka.BatchTimeout = DefaultKafkaBatchTimeout
	}

	applyTelemetryDefaults(&cfg.Telemetry)
}

func applyServerDefaults(s *ServerConfig) {
	if s.ListenAddress == "" {
		s.ListenAddress = DefaultListenAddress
	}
	if s.ReadTimeout == 0 {
		s.ReadTimeout = DefaultReadTimeout
	}
	if s.WriteTimeout == 0 {
		s.WriteTimeout = DefaultWriteTimeout
	}
	if s.IdleTimeout == 0 {
		s.IdleTimeout = DefaultIdleTimeout
	}
	if s.ShutdownTimeout == 0 {
		s.ShutdownTimeout = DefaultShutdownTimeout
	}
	if s.RequestTimeout == 0 {
		s.RequestTimeout = DefaultRequestTimeout
	}
	if s.MaxHeaderBytes == 0 {
		s.MaxHeaderBytes = DefaultMaxHeaderBytes
	}
	if s.MaxBodyBytes == 0 {
		s.MaxBodyBytes = DefaultMaxBodyBytes
	}

	if len(s.CORS.AllowedOrigins) == 0 {
		s.CORS.AllowedOrigins = append([]string(nil), DefaultCORSAllowedOrigins...)
	}
	if len(s.CORS.AllowedMethods) == 0 {
		s.CORS.AllowedMethods = append([]string(nil), DefaultCORSAllowedMethods...)
	}
	if len(s.CORS.AllowedHeaders) == 0 {
		s.CORS.AllowedHeaders = append([]string(nil), DefaultCORSAllowedHeaders...)
	}
	if len(s.CORS.ExposedHeaders) == 0 {
		s.CORS.ExposedHeaders = append([]string(nil), DefaultCORSExposedHeaders...)
	}
	if s.CORS.MaxAge == 0 {
		s.CORS.MaxAge = DefaultCORSMaxAge
	}

	if s.TLS.MinVersion == "" {
		s.TLS.MinVersion = DefaultTLSMinVersion
	}
	if s.TLS.ClientCAFile != "" && s.TLS.ClientAuth == "" {
		s.TLS.ClientAuth = DefaultTLSClientAuth
	}

	if s.RateLimit.RequestsPerSecond == 0 {
		s.RateLimit.RequestsPerSecond = DefaultRateLimitRequestsPerSecond
	}
	if s.RateLimit.Burst == 0 {
		s.RateLimit.Burst = DefaultRateLimitBurst
	}
	if s.RateLimit.MaxClients == 0 {
		s.RateLimit.MaxClients = DefaultRateLimitMaxClients
	}
}

func applyEngineDefaults(e *EngineConfig) {
	if e.SlowEvaluationThreshold == 0 {
		e.SlowEvaluationThreshold = DefaultSlowEvaluationThreshold
	}
	if e.Cache.Backend == "" {
		e.Cache.Backend = DefaultCacheBackend
	}
	if e.Cache.Size == 0 {
		e.Cache.Size = DefaultCacheSize
	}
	if e.Cache.TTL == 0 {
		e.Cache.TTL = DefaultCacheTTL
	}
	if e.Cache.Redis.Address == "" {
		e.Cache.Redis.Address = DefaultRedisAddress
	}
	if e.Cache.Redis.KeyPrefix == "" {
		e.Cache.Redis.KeyPrefix = DefaultRedisKeyPrefix
	}
	if e.Cache.Redis.DialTimeout == 0 {
		e.Cache.Redis.DialTimeout = DefaultRedisDialTimeout
	}
}

func applySQLiteDefaults(s *SQLiteConfig, path string) {
	if s.Path == "" {
		s.Path = path
	}
	if s.MaxOpenConns == 0 {
		s.MaxOpenConns = DefaultSQLiteMaxOpenConns
	}
	if s.MaxIdleConns == 0 {
		s.MaxIdleConns = DefaultSQLiteMaxIdleConns
	}
	if s.BusyTimeout == 0 {
		s.BusyTimeout = DefaultSQLiteBusyTimeout
	}
}

func applyEvidenceDefaults(e *EvidenceConfig) {
	if e.Backend == "" {
		e.Backend = DefaultEvidenceBackend
	}
	applySQLiteDefaults(&e.SQLite, DefaultEvidenceSQLitePath)

	if e.Recorder.AsyncBuffer == 0 {
		e.Recorder.AsyncBuffer = DefaultEvidenceRecorderAsyncBuffer
	}
	if e.Recorder.WriteTimeout == 0 {
		e.Recorder.WriteTimeout = DefaultEvidenceRecorderWriteTimeout
	}
	if e.Retention.PruneSchedule == "" {
		e.Retention.PruneSchedule = DefaultEvidenceRetentionSchedule
	}
	if e.Query.DefaultLimit == 0 {
		e.Query.DefaultLimit = DefaultEvidenceQueryDefaultLimit
	}
	if e.Query.MaxLimit == 0 {
		e.Query.MaxLimit = DefaultEvidenceQueryMaxLimit
	}
}

func applyTelemetryDefaults(t *TelemetryConfig) {
	if t.Logging.Level == "" {
		t.Logging.Level = DefaultLoggingLevel
	}
	if t.Logging.Format == "" {
		t.Logging.Format = DefaultLoggingFormat
	}

	if t.Metrics.Path == "" {
		t.Metrics.Path = DefaultMetricsPath
	}
	if t.Metrics.Namespace == "" {
		t.Metrics.Namespace = DefaultMetricsNamespace
	}
	if len(t.Metrics.DurationBuckets) == 0 {
		t.Metrics.DurationBuckets = append([]float64(nil), DefaultDurationBuckets...)
	}
	if len(t.Metrics.HTTPDurationBuckets) == 0 {
		t.Metrics.HTTPDurationBuckets = append([]float64(nil), DefaultHTTPDurationBuckets...)
	}

	if t.Tracing.ServiceName == "" {
		t.Tracing.ServiceName = DefaultTracingServiceName
	}
	if t.Tracing.Timeout == 0 {
		t.Tracing.Timeout = DefaultTracingTimeout
	}

	if t.Health.LivenessPath == "" {
		t.Health.LivenessPath = DefaultLivenessPath
	}
	if t.Health.ReadinessPath == "" {
		t.Health.ReadinessPath = DefaultReadinessPath
	}
	if t.Health.VersionPath == "" {
		t.Health.VersionPath = DefaultVersionPath
	}
	if t.Health.CheckTimeout == 0 {
		t.Health.CheckTimeout = DefaultHealthCheckTimeout
	}
}
