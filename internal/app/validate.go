package app

import (
	"fmt"

	"github.com/wuya51/gmic-buildathon/pkg/config"
)

// validateConfig holds the startup checks that need more than the config
// package knows about.
func validateConfig(cfg *config.Config) error {
	if cfg == nil {
		return fmt.Errorf("nil config")
	}
	if !cfg.Storage.InMemory && cfg.Storage.Path == "" {
		return fmt.Errorf("database path is empty: set --db, GMSTATS_DB_PATH or storage.path")
	}
	if cfg.Server.RateLimit.RPS <= 0 || cfg.Server.RateLimit.Burst <= 0 {
		return fmt.Errorf("rate limit must be positive; run ValidateConfig first")
	}
	return nil
}
