// Package api exposes the engine over HTTP (fasthttp).
package api

import (
	"time"

	"github.com/valyala/fasthttp"

	"github.com/wuya51/gmic-buildathon/pkg/api/router"
	"github.com/wuya51/gmic-buildathon/pkg/engine"
)

type Options struct {
	APIKeys        []string
	RPS            float64
	Burst          int
	AllowedOrigins []string
	// MaxBucketRange caps the buckets one stats request may return.
	MaxBucketRange int
	// MaxClockSkew bounds how far a client timestamp may drift from the
	// server clock.
	MaxClockSkew time.Duration
}

type Server struct {
	eng      *engine.Engine
	opts     Options
	apiKeys  map[string]struct{}
	limiters *limiterPool
}

func NewServer(eng *engine.Engine, opts Options) *Server {
	if opts.RPS <= 0 {
		opts.RPS = 100
	}
	if opts.Burst <= 0 {
		opts.Burst = 200
	}
	if opts.MaxBucketRange <= 0 {
		opts.MaxBucketRange = 10_000
	}
	if opts.MaxClockSkew <= 0 {
		opts.MaxClockSkew = 5 * time.Minute
	}
	keys := make(map[string]struct{}, len(opts.APIKeys))
	for _, k := range opts.APIKeys {
		keys[k] = struct{}{}
	}
	return &Server{
		eng:      eng,
		opts:     opts,
		apiKeys:  keys,
		limiters: newLimiterPool(opts.RPS, opts.Burst),
	}
}

// RegisterRoutes wires every endpoint onto r.
func (s *Server) RegisterRoutes(r *router.Router) {
	r.GET("/healthz", s.health)
	r.GET("/readyz", s.ready)

	r.POST("/v1/greetings", s.recordGreeting)

	r.GET("/v1/stats", s.globalStats)
	r.GET("/v1/chains/{chain}/count", s.chainCount)
	r.GET("/v1/chains/{chain}/senders/{id}/events", s.sentEvents)
	r.GET("/v1/chains/{chain}/senders/{id}/last", s.lastGreeting)
	r.GET("/v1/chains/{chain}/recipients/{id}/events", s.receivedEvents)
	r.GET("/v1/chains/{chain}/feed", s.feed)
	r.GET("/v1/chains/{chain}/latest", s.latest)
	r.GET("/v1/chains/{chain}/stats/{granularity}", s.bucketStats)
	r.GET("/v1/chains/{chain}/trend", s.messageTrend)
	r.GET("/v1/chains/{chain}/cooldown/{id}", s.cooldownStatus)

	r.GET("/v1/identities/{id}", s.identity)
	r.GET("/v1/identities/{id}/invitations", s.invitations)
	r.PUT("/v1/identities/{id}/profile", s.setProfile)

	r.GET("/v1/leaderboard/{board}", s.leaderboard)

	r.GET("/v1/cooldown", s.cooldownConfig)
	r.POST("/v1/admin/cooldown", s.setCooldown)
	r.POST("/v1/admin/allow-list", s.addAllowList)
	r.DELETE("/v1/admin/allow-list", s.removeAllowList)

	r.GET("/admin/metrics", metricsHandler())
}

// Handler returns the routed handler behind the gateway.
func (s *Server) Handler() fasthttp.RequestHandler {
	r := router.New()
	s.RegisterRoutes(r)
	return s.gateway(r.Handler)
}

// Close stops background work owned by the server.
func (s *Server) Close() {
	s.limiters.Shutdown()
}

func (s *Server) health(ctx *fasthttp.RequestCtx) {
	_ = router.WriteJSON(ctx, map[string]string{"status": "ok"})
}

func (s *Server) ready(ctx *fasthttp.RequestCtx) {
	if !s.eng.DB().Ready() {
		router.WriteJSONError(ctx, fasthttp.StatusServiceUnavailable, "database not ready")
		return
	}
	_ = router.WriteJSON(ctx, map[string]string{"status": "ready"})
}
