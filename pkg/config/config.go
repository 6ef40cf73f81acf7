// Package config loads the server configuration from a YAML file,
// GMSTATS_* environment variables and command-line flags, in that order of
// increasing precedence.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

const (
	defaultAddress        = "0.0.0.0"
	defaultPort           = 8080
	defaultDBPath         = "./.gmstats"
	defaultLogLevel       = "info"
	defaultRateRPS        = 100
	defaultRateBurst      = 200
	defaultMaxBucketRange = 10_000
	defaultClockSkewSecs  = 300
	defaultRetentionCron  = "0 3 * * *"
	defaultRetentionDays  = 30
	minRetentionPeriodHrs = 1
	defaultTelemetryQueue = 1024
	defaultTelemetryBuf   = 64 * 1024
	defaultTelemetryFile  = 32 * 1024 * 1024
	defaultTelemetryFlush = 2
	defaultSensorPollSecs = 10
	defaultDiskHighPct    = 90
	defaultDiskLowPct     = 80
)

// Addr returns the HTTP listen address as host:port.
func (c *Config) Addr() string {
	addr := c.Server.Address
	if addr == "" {
		addr = defaultAddress
	}
	port := c.Server.Port
	if port == 0 {
		port = defaultPort
	}
	return fmt.Sprintf("%s:%d", addr, port)
}

// LoadConfigFile reads and parses a config file.
func LoadConfigFile(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseConfig(b)
}

// ParseConfig parses YAML config bytes.
func ParseConfig(b []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return &cfg, nil
}

// ResolveConfigPath prefers the flag when it was set, then GMSTATS_CONFIG.
func ResolveConfigPath(flagPath string, flagSet bool) string {
	if flagSet {
		return flagPath
	}
	if p := os.Getenv("GMSTATS_CONFIG"); p != "" {
		return p
	}
	return flagPath
}
