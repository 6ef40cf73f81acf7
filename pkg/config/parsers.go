package config

import (
	"flag"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
)

// Flags holds parsed command-line values and which of them were set.
type Flags struct {
	Addr   string
	DB     string
	Config string
	Memory bool
	Set    map[string]bool
}

// ParseConfigFlags parses args (without the program name).
func ParseConfigFlags(args []string) (Flags, error) {
	fs := flag.NewFlagSet("gmstats", flag.ContinueOnError)
	addr := fs.String("addr", ":8080", "HTTP listen address")
	dbPath := fs.String("db", defaultDBPath, "Pebble database path")
	cfgPath := fs.String("config", "./config.yaml", "Path to config file")
	memory := fs.Bool("memory", false, "Keep the database in memory")
	if err := fs.Parse(args); err != nil {
		return Flags{}, err
	}

	set := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })
	return Flags{Addr: *addr, DB: *dbPath, Config: *cfgPath, Memory: *memory, Set: set}, nil
}

// ParseConfigFile loads the config file named by flags. A missing file is
// not an error unless --config was given explicitly.
func ParseConfigFile(flags Flags) (*Config, bool, error) {
	path := ResolveConfigPath(flags.Config, flags.Set["config"])
	cfg, err := LoadConfigFile(path)
	if err != nil {
		if os.IsNotExist(err) && !flags.Set["config"] {
			return &Config{}, false, nil
		}
		return nil, false, err
	}
	return cfg, true, nil
}

func parseList(v string) []string {
	var out []string
	for _, p := range strings.Split(v, ",") {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func parseBool(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes":
		return true
	}
	return false
}

// ApplyEnv overlays GMSTATS_* variables onto cfg and reports whether any
// were set. getenv is os.Getenv outside of tests.
func ApplyEnv(cfg *Config, getenv func(string) string) (bool, error) {
	used := false
	env := func(name string) string {
		v := strings.TrimSpace(getenv("GMSTATS_" + name))
		if v != "" {
			used = true
		}
		return v
	}

	if v := env("ADDR"); v != "" {
		if h, p, err := net.SplitHostPort(v); err == nil {
			cfg.Server.Address = h
			if pi, err := strconv.Atoi(p); err == nil {
				cfg.Server.Port = pi
			}
		} else {
			cfg.Server.Address = v
		}
	}
	if v := env("PORT"); v != "" {
		pi, err := strconv.Atoi(v)
		if err != nil {
			return used, fmt.Errorf("GMSTATS_PORT: %w", err)
		}
		cfg.Server.Port = pi
	}
	if v := env("API_KEYS"); v != "" {
		cfg.Server.APIKeys = parseList(v)
	}
	if v := env("RATE_RPS"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return used, fmt.Errorf("GMSTATS_RATE_RPS: %w", err)
		}
		cfg.Server.RateLimit.RPS = f
	}
	if v := env("RATE_BURST"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return used, fmt.Errorf("GMSTATS_RATE_BURST: %w", err)
		}
		cfg.Server.RateLimit.Burst = n
	}
	if v := env("MAX_CLOCK_SKEW"); v != "" {
		d, err := ParseDuration(v)
		if err != nil {
			return used, fmt.Errorf("GMSTATS_MAX_CLOCK_SKEW: %w", err)
		}
		cfg.Server.MaxClockSkew = d
	}
	if v := env("CORS_ORIGINS"); v != "" {
		cfg.Server.CORS.AllowedOrigins = parseList(v)
	}

	if v := env("DB_PATH"); v != "" {
		cfg.Storage.Path = v
	}
	if v := env("DB_MEMORY"); v != "" {
		cfg.Storage.InMemory = parseBool(v)
	}
	if v := env("DB_CACHE_SIZE"); v != "" {
		s, err := ParseSizeBytes(v)
		if err != nil {
			return used, fmt.Errorf("GMSTATS_DB_CACHE_SIZE: %w", err)
		}
		cfg.Storage.CacheSize = s
	}
	if v := env("DB_DISABLE_WAL"); v != "" {
		cfg.Storage.DisableWAL = parseBool(v)
	}

	if v := env("LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := env("ADMIN_BOOTSTRAP"); v != "" {
		cfg.Admin.Bootstrap = parseList(v)
	}

	if v := env("RETENTION_ENABLED"); v != "" {
		cfg.Retention.Enabled = parseBool(v)
	}
	if v := env("RETENTION_CRON"); v != "" {
		cfg.Retention.Cron = v
	}
	if v := env("RETENTION_PERIOD"); v != "" {
		d, err := ParseDuration(v)
		if err != nil {
			return used, fmt.Errorf("GMSTATS_RETENTION_PERIOD: %w", err)
		}
		cfg.Retention.Period = d
	}
	if v := env("RETENTION_DRY_RUN"); v != "" {
		cfg.Retention.DryRun = parseBool(v)
	}

	if v := env("TELEMETRY_DIR"); v != "" {
		cfg.Telemetry.Dir = v
	}
	if v := env("SENSOR_POLL_INTERVAL"); v != "" {
		d, err := ParseDuration(v)
		if err != nil {
			return used, fmt.Errorf("GMSTATS_SENSOR_POLL_INTERVAL: %w", err)
		}
		cfg.Sensor.PollInterval = d
	}
	if v := env("SENSOR_DISK_HIGH_PCT"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return used, fmt.Errorf("GMSTATS_SENSOR_DISK_HIGH_PCT: %w", err)
		}
		cfg.Sensor.DiskHighPct = n
	}
	if v := env("SENSOR_DISK_LOW_PCT"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return used, fmt.Errorf("GMSTATS_SENSOR_DISK_LOW_PCT: %w", err)
		}
		cfg.Sensor.DiskLowPct = n
	}
	return used, nil
}

// ApplyFlags overlays explicitly set flags onto cfg.
func ApplyFlags(cfg *Config, flags Flags) error {
	if flags.Set["addr"] {
		host, port, err := net.SplitHostPort(flags.Addr)
		if err != nil {
			return fmt.Errorf("invalid --addr %q: %w", flags.Addr, err)
		}
		cfg.Server.Address = host
		if port != "" {
			pi, err := strconv.Atoi(port)
			if err != nil {
				return fmt.Errorf("invalid --addr port %q: %w", port, err)
			}
			cfg.Server.Port = pi
		}
	}
	if flags.Set["db"] {
		cfg.Storage.Path = flags.DB
	}
	if flags.Set["memory"] {
		cfg.Storage.InMemory = flags.Memory
	}
	return nil
}

// Load builds the effective config: file, then env, then flags, then
// defaults and validation.
func Load(flags Flags, getenv func(string) string) (*Config, error) {
	cfg, _, err := ParseConfigFile(flags)
	if err != nil {
		return nil, err
	}
	if _, err := ApplyEnv(cfg, getenv); err != nil {
		return nil, err
	}
	if err := ApplyFlags(cfg, flags); err != nil {
		return nil, err
	}
	if err := cfg.ValidateConfig(); err != nil {
		return nil, err
	}
	return cfg, nil
}
