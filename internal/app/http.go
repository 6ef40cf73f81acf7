package app

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/valyala/fasthttp"

	"github.com/wuya51/gmic-buildathon/pkg/logger"
)

// printBanner prints build info and the settings an operator checks first.
func (a *App) printBanner() {
	ver := a.version
	if a.commit != "" && a.commit != "none" {
		ver += " (" + a.commit + ")"
	}
	if a.buildDate != "" && a.buildDate != "unknown" {
		ver += " @ " + a.buildDate
	}
	storage := a.cfg.Storage.Path
	if a.cfg.Storage.InMemory {
		storage = "in-memory"
	}
	items := []string{
		"version: " + ver,
		"listen: " + a.cfg.Addr(),
		"storage: " + storage,
		"cache_size: " + humanize.IBytes(uint64(a.cfg.Storage.CacheSize.Int64())),
		fmt.Sprintf("api_keys: %d", len(a.cfg.Server.APIKeys)),
		fmt.Sprintf("rate_limit: %s rps, burst %s", humanize.Ftoa(a.cfg.Server.RateLimit.RPS), humanize.Comma(int64(a.cfg.Server.RateLimit.Burst))),
		fmt.Sprintf("retention: enabled=%t period=%s", a.cfg.Retention.Enabled, a.cfg.Retention.Period.Duration()),
	}
	if a.cfg.Telemetry.Dir != "" {
		items = append(items, "telemetry: "+a.cfg.Telemetry.Dir)
	}
	logger.LogConfigSummary("gmstats_starting", items)
}

// Handler is the full request pipeline: gateway then router.
func (a *App) Handler() fasthttp.RequestHandler {
	return a.api.Handler()
}

// startHTTP starts the fasthttp server and returns a channel that carries
// its terminal error.
func (a *App) startHTTP() <-chan error {
	const (
		readBufferSize       = 16 * 1024
		maxRequestBodySize   = 64 * 1024
		readTimeout          = 10 * time.Second
		writeTimeout         = 10 * time.Second
		idleTimeout          = 30 * time.Second
		maxKeepaliveDuration = 2 * time.Minute
	)
	a.srvFast = &fasthttp.Server{
		Handler:              a.Handler(),
		Name:                 "gmstats",
		ReadBufferSize:       readBufferSize,
		MaxRequestBodySize:   maxRequestBodySize,
		ReadTimeout:          readTimeout,
		WriteTimeout:         writeTimeout,
		IdleTimeout:          idleTimeout,
		MaxKeepaliveDuration: maxKeepaliveDuration,
	}

	addr := a.cfg.Addr()
	errCh := make(chan error, 1)
	go func() {
		logger.Info("http_listening", "addr", addr)
		errCh <- a.srvFast.ListenAndServe(addr)
	}()
	return errCh
}
