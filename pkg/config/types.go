package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"gopkg.in/yaml.v3"
)

// Config is the server configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Storage   StorageConfig   `yaml:"storage"`
	Logging   LoggingConfig   `yaml:"logging"`
	Admin     AdminConfig     `yaml:"admin"`
	Retention RetentionConfig `yaml:"retention"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	Sensor    SensorConfig    `yaml:"sensor"`
}

type ServerConfig struct {
	Address string `yaml:"address"`
	Port    int    `yaml:"port"`
	// APIKeys, when non-empty, are required on every /v1 request.
	APIKeys   []string `yaml:"api_keys"`
	RateLimit struct {
		RPS   float64 `yaml:"rps"`
		Burst int     `yaml:"burst"`
	} `yaml:"rate_limit"`
	CORS struct {
		AllowedOrigins []string `yaml:"allowed_origins"`
	} `yaml:"cors"`
	// MaxBucketRange caps how many buckets one stats request may span.
	MaxBucketRange int `yaml:"max_bucket_range"`
	// MaxClockSkew bounds client timestamps around the server clock.
	MaxClockSkew Duration `yaml:"max_clock_skew"`
}

type StorageConfig struct {
	Path       string    `yaml:"path"`
	InMemory   bool      `yaml:"in_memory"`
	CacheSize  SizeBytes `yaml:"cache_size"`
	DisableWAL bool      `yaml:"disable_wal"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
}

// AdminConfig seeds the allow-list on an empty database.
type AdminConfig struct {
	Bootstrap []string `yaml:"bootstrap"`
}

// RetentionConfig controls pruning of the stream feed.
type RetentionConfig struct {
	Enabled bool     `yaml:"enabled"`
	Cron    string   `yaml:"cron"`
	Period  Duration `yaml:"period"`
	DryRun  bool     `yaml:"dry_run"`
}

// TelemetryConfig enables trace files when Dir is set.
type TelemetryConfig struct {
	Dir           string    `yaml:"dir"`
	BufferSize    SizeBytes `yaml:"buffer_size"`
	FileMaxSize   SizeBytes `yaml:"file_max_size"`
	FlushInterval Duration  `yaml:"flush_interval"`
	QueueCapacity int       `yaml:"queue_capacity"`
}

type SensorConfig struct {
	PollInterval Duration `yaml:"poll_interval"`
	DiskHighPct  int      `yaml:"disk_high_pct"`
	DiskLowPct   int      `yaml:"disk_low_pct"`
}

// SizeBytes is a byte count read from strings like "64MB" or plain integers.
type SizeBytes int64

func (s *SizeBytes) UnmarshalYAML(node *yaml.Node) error {
	v, err := ParseSizeBytes(node.Value)
	if err != nil {
		return err
	}
	*s = v
	return nil
}

func (s SizeBytes) Int64() int64 { return int64(s) }

func (s SizeBytes) String() string { return humanize.IBytes(uint64(s)) }

// ParseSizeBytes accepts human sizes ("64MB", "1GiB") and plain integers.
// Blank input is 0.
func ParseSizeBytes(raw string) (SizeBytes, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	if v, err := humanize.ParseBytes(raw); err == nil {
		return SizeBytes(v), nil
	}
	if i, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return SizeBytes(i), nil
	}
	return 0, fmt.Errorf("invalid size value: %q", raw)
}

// Duration reads "100ms"-style strings or plain numbers of seconds.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	v, err := ParseDuration(node.Value)
	if err != nil {
		return err
	}
	*d = v
	return nil
}

func (d Duration) Duration() time.Duration { return time.Duration(d) }

// ParseDuration accepts Go durations, numeric seconds and a "d" day suffix.
// Blank input is 0.
func ParseDuration(raw string) (Duration, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	if td, err := time.ParseDuration(raw); err == nil {
		return Duration(td), nil
	}
	if strings.HasSuffix(raw, "d") {
		if n, err := strconv.ParseFloat(strings.TrimSuffix(raw, "d"), 64); err == nil {
			return Duration(time.Duration(n * float64(24*time.Hour))), nil
		}
	}
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		return Duration(time.Duration(f * float64(time.Second))), nil
	}
	return 0, fmt.Errorf("invalid duration value: %q", raw)
}
