package records

import (
	"fmt"
	"log/slog"

	"mercator-hq/stormwatch/pkg/config"
)

// New returns the store selected by cfg.Backend.
func New(cfg *config.RecordsConfig, logger *slog.Logger) (Store, error) {
	switch cfg.Backend {
	case "memory":
		return NewMemoryStore(), nil
	case "sqlite":
		return NewSQLiteStore(&cfg.SQLite, logger)
	default:
		return nil, fmt.Errorf("unknown records backend %q", cfg.Backend)
	}
}
