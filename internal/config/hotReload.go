package config

import (
	"fmt"
	"time"
)

// HotReloadConfig controls whether the config file is watched and how long
// a burst of file events is coalesced before settings are re-applied.
type HotReloadConfig struct {
	Enabled  bool          `json:"enabled" yaml:"enabled"`
	Debounce time.Duration `json:"debounce" yaml:"debounce"`
}

// DefaultHotReloadConfig returns default hot reload configuration
func DefaultHotReloadConfig() HotReloadConfig {
	return HotReloadConfig{
		Enabled:  true,
		Debounce: 500 * time.Millisecond,
	}
}

// Validate validates hot reload configuration
func (h HotReloadConfig) Validate() error {
	if h.Debounce < 0 {
		return fmt.Errorf("hot reload debounce time must be non-negative")
	}
	return nil
}
