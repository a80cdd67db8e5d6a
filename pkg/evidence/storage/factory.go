package storage

import (
	"fmt"
	"log/slog"

	"mercator-hq/stormwatch/pkg/config"
	"mercator-hq/stormwatch/pkg/evidence"
)

// New returns the backend selected by cfg.Backend.
func New(cfg *config.EvidenceConfig, logger *slog.Logger) (evidence.Storage, error) {
	switch cfg.Backend {
	case "memory":
		return NewMemoryStorage(), nil
	case "sqlite":
		return NewSQLiteStorage(&cfg.SQLite, logger)
	default:
		return nil, fmt.Errorf("unknown evidence backend %q", cfg.Backend)
	}
}
