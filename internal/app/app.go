// Package app wires storage, the engine, background jobs and the HTTP
// server into one process lifecycle.
package app

import (
	"context"
	"fmt"

	"github.com/valyala/fasthttp"

	"github.com/wuya51/gmic-buildathon/internal/retention"
	"github.com/wuya51/gmic-buildathon/pkg/api"
	"github.com/wuya51/gmic-buildathon/pkg/config"
	"github.com/wuya51/gmic-buildathon/pkg/engine"
	"github.com/wuya51/gmic-buildathon/pkg/logger"
	"github.com/wuya51/gmic-buildathon/pkg/sensor"
	"github.com/wuya51/gmic-buildathon/pkg/store/db"
	"github.com/wuya51/gmic-buildathon/pkg/telemetry"
)

// App groups server state and components.
type App struct {
	cfg       *config.Config
	version   string
	commit    string
	buildDate string

	db      *db.DB
	eng     *engine.Engine
	api     *api.Server
	srvFast *fasthttp.Server
	sensor  *sensor.Sensor

	retentionCancel context.CancelFunc
	state           string
}

// New opens the database, builds the engine and seeds the allow-list. It
// starts nothing; call Run for that.
func New(cfg *config.Config, version, commit, buildDate string) (*App, error) {
	if err := validateConfig(cfg); err != nil {
		return nil, err
	}

	var (
		d   *db.DB
		err error
	)
	if cfg.Storage.InMemory {
		logger.Warn("storage_in_memory", "msg", "state is lost on exit")
		d, err = db.OpenInMemory()
	} else {
		d, err = db.Open(cfg.Storage.Path, db.Options{
			CacheSize:  cfg.Storage.CacheSize.Int64(),
			DisableWAL: cfg.Storage.DisableWAL,
		})
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open pebble at %s: %w", cfg.Storage.Path, err)
	}

	eng := engine.New(d)
	seeded, err := eng.Bootstrap(cfg.Admin.Bootstrap)
	if err != nil {
		_ = d.Close()
		return nil, fmt.Errorf("bootstrap allow-list: %w", err)
	}
	if !seeded && len(cfg.Admin.Bootstrap) > 0 {
		logger.Info("allow_list_bootstrap_skipped", "reason", "allow-list not empty")
	}

	if cfg.Telemetry.Dir != "" {
		err := telemetry.Init(cfg.Telemetry.Dir,
			int(cfg.Telemetry.BufferSize.Int64()),
			cfg.Telemetry.QueueCapacity,
			cfg.Telemetry.FlushInterval.Duration(),
			cfg.Telemetry.FileMaxSize.Int64())
		if err != nil {
			_ = d.Close()
			return nil, fmt.Errorf("telemetry init: %w", err)
		}
	}

	a := &App{
		cfg:       cfg,
		version:   version,
		commit:    commit,
		buildDate: buildDate,
		db:        d,
		eng:       eng,
		api: api.NewServer(eng, api.Options{
			APIKeys:        cfg.Server.APIKeys,
			RPS:            cfg.Server.RateLimit.RPS,
			Burst:          cfg.Server.RateLimit.Burst,
			AllowedOrigins: cfg.Server.CORS.AllowedOrigins,
			MaxBucketRange: cfg.Server.MaxBucketRange,
			MaxClockSkew:   cfg.Server.MaxClockSkew.Duration(),
		}),
		state: "initialized",
	}
	return a, nil
}

// Engine exposes the engine, mainly for tests and embedding.
func (a *App) Engine() *engine.Engine {
	return a.eng
}

// Run starts retention, the disk sensor and the HTTP server, and blocks
// until ctx is canceled or the server fails.
func (a *App) Run(ctx context.Context) error {
	a.printBanner()

	cancel, err := retention.Start(ctx, a.cfg.Retention, a.eng)
	if err != nil {
		return err
	}
	a.retentionCancel = cancel

	if !a.cfg.Storage.InMemory {
		a.sensor = sensor.New(sensor.Config{
			Path:         a.cfg.Storage.Path,
			PollInterval: a.cfg.Sensor.PollInterval.Duration(),
			DiskHighPct:  a.cfg.Sensor.DiskHighPct,
			DiskLowPct:   a.cfg.Sensor.DiskLowPct,
			DBSize: func() uint64 {
				if m := a.db.Metrics(); m != nil {
					return m.DiskSpaceUsage()
				}
				return 0
			},
		})
		a.sensor.Start()
	}

	errCh := a.startHTTP()
	a.state = "running"

	select {
	case <-ctx.Done():
		return nil
	case err := <-errCh:
		return err
	}
}
