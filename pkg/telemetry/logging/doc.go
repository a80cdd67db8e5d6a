// Package logging provides structured logging on top of log/slog.
//
// # Overview
//
//   - JSON, text and console formats
//   - Configurable levels (debug, info, warn, error)
//   - Context-aware logging: request and scenario IDs travel in the context
//   - Optional redaction of contact details and credentials that operators
//     paste into scenario notes
//
// # Usage
//
//	logger, err := logging.New(logging.Config{
//	    Level:     "info",
//	    Format:    "json",
//	    RedactPII: true,
//	})
//
//	ctx = logging.WithRequestID(ctx, "req-123")
//	ctx = logging.WithScenarioID(ctx, "storm-7")
//	logger.InfoContext(ctx, "scenario evaluated", "etr_band", "LOW")
//
// Slog returns the logger as a *slog.Logger for components that take one;
// records logged through it still carry context fields and are redacted.
package logging
