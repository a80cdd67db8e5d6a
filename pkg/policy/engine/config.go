package engine

import (
	"fmt"
	"time"
)

// EngineConfig contains configuration for the evaluation engine.
type EngineConfig struct {
	// EnableTrace attaches an EvaluationTrace to every response.
	// Default: false.
	EnableTrace bool

	// SlowEvaluationThreshold is the evaluation time above which a warning
	// is logged. Zero disables the warning.
	// Default: 50ms.
	SlowEvaluationThreshold time.Duration

	// Clock returns the evaluation time. Default: time.Now.
	Clock func() time.Time
}

// DefaultEngineConfig returns the default engine configuration.
func DefaultEngineConfig() *EngineConfig {
	return &EngineConfig{
		EnableTrace:             false,
		SlowEvaluationThreshold: 50 * time.Millisecond,
		Clock:                   time.Now,
	}
}

// Validate validates the engine configuration.
func (c *EngineConfig) Validate() error {
	if c.SlowEvaluationThreshold < 0 {
		return fmt.Errorf("%w: slow evaluation threshold cannot be negative", ErrInvalidConfig)
	}
	return nil
}

// WithTrace enables or disables evaluation tracing.
func (c *EngineConfig) WithTrace(enabled bool) *EngineConfig {
	c.EnableTrace = enabled
	return c
}

// WithClock sets the clock used for evaluation timestamps.
func (c *EngineConfig) WithClock(clock func() time.Time) *EngineConfig {
	c.Clock = clock
	return c
}

// WithSlowEvaluationThreshold sets the slow evaluation warning threshold.
func (c *EngineConfig) WithSlowEvaluationThreshold(d time.Duration) *EngineConfig {
	c.SlowEvaluationThreshold = d
	return c
}
