// Package config provides configuration management for stormwatch.
//
// Configuration is loaded from a YAML file, completed with defaults,
// overridden from the environment and validated:
//
//	cfg, err := config.LoadConfig("stormwatch.yaml")
//
// An empty path skips the file and yields the defaults plus any environment
// overrides.
//
// # Environment Variable Overrides
//
// Every scalar setting can be overridden with a STORMWATCH_ prefixed
// variable whose name follows the YAML path:
//
//   - STORMWATCH_SERVER_LISTEN_ADDRESS overrides server.listen_address
//   - STORMWATCH_ENGINE_CACHE_BACKEND overrides engine.cache.backend
//   - STORMWATCH_EVENTS_KAFKA_BROKERS overrides events.kafka.brokers (comma separated)
//   - STORMWATCH_TELEMETRY_LOGGING_LEVEL overrides telemetry.logging.level
//
// # Configuration Precedence
//
//  1. Default values (defaults.go)
//  2. Values from the YAML file
//  3. Environment variable overrides
//  4. Validation, which reports every invalid field at once
//
// # Singleton
//
//	if err := config.Initialize("stormwatch.yaml"); err != nil {
//	    log.Fatal(err)
//	}
//	cfg := config.GetConfig()
//
// Tests should pass explicit Config values instead of relying on the
// singleton.
//
// # Example Configuration
//
//	server:
//	  listen_address: "127.0.0.1:8080"
//	  max_body_bytes: 1048576
//
//	engine:
//	  cache:
//	    backend: "memory"
//	    size: 1024
//
//	records:
//	  backend: "sqlite"
//	  sqlite:
//	    path: "data/records.db"
//
//	evidence:
//	  enabled: true
//	  backend: "sqlite"
//	  retention:
//	    days: 90
//	    prune_schedule: "0 3 * * *"
//
//	events:
//	  backend: "kafka"
//	  kafka:
//	    brokers: ["localhost:9092"]
//	    topic: "stormwatch.evaluations"
//
//	telemetry:
//	  logging:
//	    level: "info"
//	    format: "json"
package config
