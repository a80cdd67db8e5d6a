// Package server assembles stormwatch's runtime components and serves them
// over HTTP.
//
// NewApp builds the evaluation engine, record store, decision cache,
// evidence storage and recorder, retention pruner, event publisher and
// advisor service from a config.Config, plus the per-client rate limiter
// when server.rate_limit is enabled. Each component that can report
// its health is registered as a readiness check. App.Close releases the
// components in reverse order.
//
// NewServer routes the API handlers and the telemetry endpoints through the
// middleware chain:
//
//	app, err := server.NewApp(cfg, tel)
//	if err != nil {
//	    return err
//	}
//	defer app.Close()
//
//	srv := server.NewServer(&cfg.Server, app)
//	return srv.Start(ctx)
//
// When server.tls is enabled Start wraps its listener with a TLS config
// whose certificate is reloaded whenever the files change on disk.
//
// Start blocks until ctx is cancelled, SIGINT or SIGTERM arrives, Stop is
// called or serving fails, and then shuts down gracefully within
// ServerConfig.ShutdownTimeout.
package server
