package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"mercator-hq/stormwatch/pkg/config"
	"mercator-hq/stormwatch/pkg/policy/engine"
)

// Cache stores evaluation responses by Key. Implementations return copies:
// callers may modify what Get returns.
type Cache interface {
	// Get returns the cached response. A miss is (nil, false, nil).
	Get(ctx context.Context, key string) (*engine.Response, bool, error)
	Set(ctx context.Context, key string, resp *engine.Response) error
	// Name is the backend name used in logs and metrics.
	Name() string
	Close() error
}

// Key identifies a decision by engine version and deterministic hash.
// Responses from a different engine version never match.
func Key(engineVersion, hash string) string {
	return engineVersion + ":" + hash
}

// New returns the backend selected by cfg.Backend.
func New(cfg *config.CacheConfig, logger *slog.Logger) (Cache, error) {
	switch cfg.Backend {
	case "memory":
		return NewMemory(cfg.Size, cfg.TTL), nil
	case "redis":
		return NewRedis(&cfg.Redis, cfg.TTL, logger), nil
	case "none", "":
		return Noop{}, nil
	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.Backend)
	}
}

func encode(resp *engine.Response) ([]byte, error) {
	data, err := json.Marshal(resp)
	if err != nil {
		return nil, fmt.Errorf("encode cached response: %w", err)
	}
	return data, nil
}

func decode(data []byte) (*engine.Response, error) {
	var resp engine.Response
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("decode cached response: %w", err)
	}
	return &resp, nil
}

// Noop never stores anything.
type Noop struct{}

func (Noop) Get(context.Context, string) (*engine.Response, bool, error) { return nil, false, nil }
func (Noop) Set(context.Context, string, *engine.Response) error         { return nil }
func (Noop) Name() string                                                 { return "none" }
func (Noop) Close() error                                                 { return nil }
