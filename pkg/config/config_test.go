package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleYAML = `
server:
  address: 127.0.0.1
  port: 9090
  api_keys: [k1, k2]
  rate_limit:
    rps: 5
    burst: 10
storage:
  path: /var/lib/gmstats
  cache_size: 64MB
logging:
  level: debug
admin:
  bootstrap: [owner]
retention:
  enabled: true
  cron: "*/5 * * * *"
  period: 7d
sensor:
  poll_interval: 2
`

func noEnv(string) string { return "" }

func envMap(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func TestParseConfig(t *testing.T) {
	cfg, err := ParseConfig([]byte(sampleYAML))
	require.NoError(t, err)
	require.NoError(t, cfg.ValidateConfig())

	assert.Equal(t, "127.0.0.1:9090", cfg.Addr())
	assert.Equal(t, []string{"k1", "k2"}, cfg.Server.APIKeys)
	assert.Equal(t, float64(5), cfg.Server.RateLimit.RPS)
	assert.Equal(t, int64(64_000_000), cfg.Storage.CacheSize.Int64())
	assert.Equal(t, []string{"owner"}, cfg.Admin.Bootstrap)
	assert.Equal(t, 7*24*time.Hour, cfg.Retention.Period.Duration())
	assert.Equal(t, 2*time.Second, cfg.Sensor.PollInterval.Duration())
	assert.Equal(t, defaultMaxBucketRange, cfg.Server.MaxBucketRange)
}

func TestDefaults(t *testing.T) {
	cfg := &Config{}
	require.NoError(t, cfg.ValidateConfig())
	assert.Equal(t, "0.0.0.0:8080", cfg.Addr())
	assert.Equal(t, defaultDBPath, cfg.Storage.Path)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, defaultRetentionCron, cfg.Retention.Cron)
	assert.Equal(t, defaultDiskHighPct, cfg.Sensor.DiskHighPct)
	assert.Equal(t, 5*time.Minute, cfg.Server.MaxClockSkew.Duration())

	mem := &Config{Storage: StorageConfig{InMemory: true}}
	require.NoError(t, mem.ValidateConfig())
	assert.Empty(t, mem.Storage.Path)
}

func TestValidateRejects(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{"bad cron", Config{Retention: RetentionConfig{Cron: "every day"}}},
		{"bad level", Config{Logging: LoggingConfig{Level: "loud"}}},
		{"short period", Config{Retention: RetentionConfig{Period: Duration(time.Minute)}}},
		{"bad port", Config{Server: ServerConfig{Port: 70000}}},
		{"negative skew", Config{Server: ServerConfig{MaxClockSkew: Duration(-time.Second)}}},
		{"watermarks", Config{Sensor: SensorConfig{DiskHighPct: 50, DiskLowPct: 60}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := tt.cfg
			assert.Error(t, cfg.ValidateConfig())
		})
	}
}

func TestSizeAndDurationParsing(t *testing.T) {
	s, err := ParseSizeBytes("1KiB")
	require.NoError(t, err)
	assert.Equal(t, SizeBytes(1024), s)
	s, err = ParseSizeBytes("")
	require.NoError(t, err)
	assert.Zero(t, s)
	_, err = ParseSizeBytes("lots")
	assert.Error(t, err)

	d, err := ParseDuration("90s")
	require.NoError(t, err)
	assert.Equal(t, 90*time.Second, d.Duration())
	d, err = ParseDuration("1.5")
	require.NoError(t, err)
	assert.Equal(t, 1500*time.Millisecond, d.Duration())
	d, err = ParseDuration("2d")
	require.NoError(t, err)
	assert.Equal(t, 48*time.Hour, d.Duration())
	_, err = ParseDuration("soon")
	assert.Error(t, err)
}

func TestApplyEnv(t *testing.T) {
	cfg := &Config{}
	used, err := ApplyEnv(cfg, noEnv)
	require.NoError(t, err)
	assert.False(t, used)

	used, err = ApplyEnv(cfg, envMap(map[string]string{
		"GMSTATS_ADDR":              "10.0.0.1:7000",
		"GMSTATS_API_KEYS":          "a, b ,",
		"GMSTATS_DB_CACHE_SIZE":     "8MiB",
		"GMSTATS_ADMIN_BOOTSTRAP":   "x,y",
		"GMSTATS_RETENTION_ENABLED": "yes",
		"GMSTATS_LOG_LEVEL":         "warn",
		"GMSTATS_MAX_CLOCK_SKEW":    "30s",
	}))
	require.NoError(t, err)
	assert.True(t, used)
	assert.Equal(t, "10.0.0.1:7000", cfg.Addr())
	assert.Equal(t, []string{"a", "b"}, cfg.Server.APIKeys)
	assert.Equal(t, SizeBytes(8<<20), cfg.Storage.CacheSize)
	assert.Equal(t, []string{"x", "y"}, cfg.Admin.Bootstrap)
	assert.True(t, cfg.Retention.Enabled)
	assert.Equal(t, "warn", cfg.Logging.Level)
	assert.Equal(t, 30*time.Second, cfg.Server.MaxClockSkew.Duration())

	_, err = ApplyEnv(cfg, envMap(map[string]string{"GMSTATS_PORT": "http"}))
	assert.Error(t, err)
}

func TestLoadPrecedence(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleYAML), 0o600))

	flags, err := ParseConfigFlags([]string{"--config", path, "--addr", ":7777", "--memory"})
	require.NoError(t, err)

	cfg, err := Load(flags, envMap(map[string]string{
		"GMSTATS_PORT":    "8888",
		"GMSTATS_DB_PATH": "/env/path",
	}))
	require.NoError(t, err)
	// flags beat env beats file
	assert.Equal(t, 7777, cfg.Server.Port)
	assert.Equal(t, "", cfg.Server.Address)
	assert.Equal(t, "/env/path", cfg.Storage.Path)
	assert.True(t, cfg.Storage.InMemory)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestMissingConfigFile(t *testing.T) {
	flags, err := ParseConfigFlags([]string{"--db", "/tmp/x"})
	require.NoError(t, err)
	flags.Config = filepath.Join(t.TempDir(), "absent.yaml")

	cfg, err := Load(flags, noEnv)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/x", cfg.Storage.Path)

	flags.Set["config"] = true
	_, err = Load(flags, noEnv)
	assert.Error(t, err)
}
