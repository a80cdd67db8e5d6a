package cache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"mercator-hq/stormwatch/pkg/config"
	"mercator-hq/stormwatch/pkg/policy/engine"
)

// Redis stores JSON-encoded responses in Redis with a TTL. The connection
// is established lazily; an unreachable server shows up as Get and Set
// errors and in Ping.
type Redis struct {
	client    *redis.Client
	keyPrefix string
	ttl       time.Duration
	logger    *slog.Logger
}

// NewRedis creates a Redis cache client.
func NewRedis(cfg *config.RedisConfig, ttl time.Duration, logger *slog.Logger) *Redis {
	if logger == nil {
		logger = slog.Default()
	}
	client := redis.NewClient(&redis.Options{
		Addr:        cfg.Address,
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: cfg.DialTimeout,
	})

	logger.Info("redis decision cache configured",
		"component", "cache.redis",
		"address", cfg.Address,
		"db", cfg.DB,
		"ttl", ttl,
	)

	return &Redis{
		client:    client,
		keyPrefix: cfg.KeyPrefix,
		ttl:       ttl,
		logger:    logger,
	}
}

func (r *Redis) key(k string) string {
	return r.keyPrefix + k
}

func (r *Redis) Get(ctx context.Context, key string) (*engine.Response, bool, error) {
	data, err := r.client.Get(ctx, r.key(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("redis get: %w", err)
	}

	resp, err := decode(data)
	if err != nil {
		return nil, false, err
	}
	return resp, true, nil
}

func (r *Redis) Set(ctx context.Context, key string, resp *engine.Response) error {
	data, err := encode(resp)
	if err != nil {
		return err
	}
	if err := r.client.Set(ctx, r.key(key), data, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// Ping checks the server connection.
func (r *Redis) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *Redis) Name() string { return "redis" }

func (r *Redis) Close() error {
	return r.client.Close()
}
