package config

import (
	"sync"
	"sync/atomic"
)

var (
	current  atomic.Pointer[Config]
	initOnce sync.Once
	initErr  error
)

// Initialize loads the configuration at path and installs it as the process
// configuration. Later calls return the first call's result without loading
// anything.
func Initialize(path string) error {
	initOnce.Do(func() {
		cfg, err := LoadConfig(path)
		if err != nil {
			initErr = err
			return
		}
		current.Store(cfg)
	})
	return initErr
}

// GetConfig returns the process configuration, or nil before Initialize or
// SetConfig.
func GetConfig() *Config {
	return current.Load()
}

// SetConfig installs cfg as the process configuration.
func SetConfig(cfg *Config) {
	current.Store(cfg)
}
