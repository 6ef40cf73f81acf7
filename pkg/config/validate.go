package config

import (
	"fmt"
	"time"

	"github.com/adhocore/gronx"
)

// ValidateConfig fills in defaults and fails fast on invalid values.
func (c *Config) ValidateConfig() error {
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server.port: %d", c.Server.Port)
	}
	if c.Server.RateLimit.RPS <= 0 {
		c.Server.RateLimit.RPS = defaultRateRPS
	}
	if c.Server.RateLimit.Burst <= 0 {
		c.Server.RateLimit.Burst = defaultRateBurst
	}
	if c.Server.MaxBucketRange <= 0 {
		c.Server.MaxBucketRange = defaultMaxBucketRange
	}
	if c.Server.MaxClockSkew < 0 {
		return fmt.Errorf("invalid server.max_clock_skew: %s", c.Server.MaxClockSkew.Duration())
	}
	if c.Server.MaxClockSkew == 0 {
		c.Server.MaxClockSkew = Duration(defaultClockSkewSecs * time.Second)
	}

	if !c.Storage.InMemory && c.Storage.Path == "" {
		c.Storage.Path = defaultDBPath
	}
	if c.Storage.CacheSize < 0 {
		return fmt.Errorf("invalid storage.cache_size: %d", c.Storage.CacheSize)
	}

	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("invalid logging.level: %q", c.Logging.Level)
	}

	if c.Retention.Cron == "" {
		c.Retention.Cron = defaultRetentionCron
	}
	if !gronx.IsValid(c.Retention.Cron) {
		return fmt.Errorf("invalid retention.cron: %q", c.Retention.Cron)
	}
	if c.Retention.Period == 0 {
		c.Retention.Period = Duration(defaultRetentionDays * 24 * time.Hour)
	}
	if c.Retention.Period.Duration() < minRetentionPeriodHrs*time.Hour {
		return fmt.Errorf("retention.period must be at least %dh", minRetentionPeriodHrs)
	}

	if c.Telemetry.QueueCapacity <= 0 {
		c.Telemetry.QueueCapacity = defaultTelemetryQueue
	}
	if c.Telemetry.BufferSize == 0 {
		c.Telemetry.BufferSize = defaultTelemetryBuf
	}
	if c.Telemetry.FileMaxSize == 0 {
		c.Telemetry.FileMaxSize = defaultTelemetryFile
	}
	if c.Telemetry.FlushInterval == 0 {
		c.Telemetry.FlushInterval = Duration(defaultTelemetryFlush * time.Second)
	}

	if c.Sensor.PollInterval == 0 {
		c.Sensor.PollInterval = Duration(defaultSensorPollSecs * time.Second)
	}
	if c.Sensor.DiskHighPct == 0 {
		c.Sensor.DiskHighPct = defaultDiskHighPct
	}
	if c.Sensor.DiskLowPct == 0 {
		c.Sensor.DiskLowPct = defaultDiskLowPct
	}
	if c.Sensor.DiskLowPct >= c.Sensor.DiskHighPct || c.Sensor.DiskHighPct > 100 {
		return fmt.Errorf("invalid sensor watermarks: low %d, high %d", c.Sensor.DiskLowPct, c.Sensor.DiskHighPct)
	}
	return nil
}
