// Package health provides liveness, readiness and version endpoints.
//
//   - /health: the process is running
//   - /ready: every registered component check passes (503 otherwise)
//   - /version: build and engine version
//
// Components register checks at startup:
//
//	checker := health.New(cfg.Telemetry.Health.CheckTimeout)
//	checker.RegisterCheck("evidence_storage", func(ctx context.Context) error {
//	    _, err := storage.Count(ctx, &evidence.Query{})
//	    return err
//	})
//	checker.Register(mux, health.Paths{Liveness: "/health", Readiness: "/ready", Version: "/version"}, info)
//
// A "GET" pattern in net/http's ServeMux also matches HEAD requests.
package health
