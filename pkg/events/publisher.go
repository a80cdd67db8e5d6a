package events

import (
	"context"
	"fmt"
	"log/slog"

	"mercator-hq/stormwatch/pkg/config"
)

// Publisher delivers evaluation events.
type Publisher interface {
	Publish(ctx context.Context, evt Event) error
	// Name is the backend name used in logs and metrics.
	Name() string
	Close() error
}

// New returns the publisher selected by cfg.Backend.
func New(cfg *config.EventsConfig, logger *slog.Logger) (Publisher, error) {
	switch cfg.Backend {
	case "log":
		return NewLogPublisher(logger), nil
	case "kafka":
		return NewKafkaPublisher(&cfg.Kafka, logger)
	case "none", "":
		return Noop{}, nil
	default:
		return nil, fmt.Errorf("unknown events backend %q", cfg.Backend)
	}
}

// LogPublisher writes events to a structured logger.
type LogPublisher struct {
	logger *slog.Logger
}

// NewLogPublisher creates a LogPublisher.
func NewLogPublisher(logger *slog.Logger) *LogPublisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogPublisher{logger: logger.With("component", "events")}
}

func (p *LogPublisher) Publish(ctx context.Context, evt Event) error {
	p.logger.InfoContext(ctx, "evaluation event",
		"event_id", evt.ID,
		"type", evt.Type,
		"scenario_id", evt.ScenarioID,
		"hash", evt.Hash,
		"etr_band", evt.ETRBand,
		"flags", evt.EscalationFlags,
		"blocked", evt.BlockedActions,
		"critical_load_at_risk", evt.CriticalLoadAtRisk,
	)
	return nil
}

func (p *LogPublisher) Name() string { return "log" }
func (p *LogPublisher) Close() error { return nil }

// Noop discards events.
type Noop struct{}

func (Noop) Publish(context.Context, Event) error { return nil }
func (Noop) Name() string                         { return "none" }
func (Noop) Close() error                         { return nil }
