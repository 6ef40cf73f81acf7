package api

import (
	"net"
	"strings"

	"github.com/valyala/fasthttp"

	"github.com/wuya51/gmic-buildathon/pkg/api/router"
	"github.com/wuya51/gmic-buildathon/pkg/logger"
)

// gateway applies CORS, API key checks and per-client rate limiting in
// front of next. Health checks skip authentication and limiting.
func (s *Server) gateway(next fasthttp.RequestHandler) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		path := string(ctx.Path())

		if origin := string(ctx.Request.Header.Peek("Origin")); origin != "" && originAllowed(origin, s.opts.AllowedOrigins) {
			ctx.Response.Header.Set("Access-Control-Allow-Origin", origin)
			ctx.Response.Header.Set("Vary", "Origin")
			ctx.Response.Header.Set("Access-Control-Allow-Methods", "GET,POST,PUT,DELETE,OPTIONS")
			ctx.Response.Header.Set("Access-Control-Allow-Headers", "Authorization,Content-Type,X-API-Key")
			ctx.Response.Header.Set("Access-Control-Max-Age", "600")
		}
		if ctx.IsOptions() {
			ctx.SetStatusCode(fasthttp.StatusNoContent)
			return
		}

		if publicPath(path) {
			next(ctx)
			return
		}

		key := extractAPIKey(ctx)
		if len(s.apiKeys) > 0 {
			if _, ok := s.apiKeys[key]; !ok {
				router.WriteJSONError(ctx, fasthttp.StatusUnauthorized, "unauthorized")
				logger.Warn("request_unauthorized", "path", path, "remote", clientIP(ctx))
				return
			}
		}

		limitKey := key
		if limitKey == "" {
			limitKey = clientIP(ctx)
		}
		if !s.limiters.Allow(limitKey) {
			router.WriteJSONError(ctx, fasthttp.StatusTooManyRequests, "rate limit exceeded")
			logger.Warn("rate_limited", "path", path, "has_api_key", key != "")
			return
		}

		logger.Debug("request", "method", string(ctx.Method()), "path", path)
		next(ctx)
	}
}

func publicPath(path string) bool {
	return path == "/healthz" || path == "/readyz"
}

// extractAPIKey reads "Authorization: Bearer <key>" or X-API-Key.
func extractAPIKey(ctx *fasthttp.RequestCtx) string {
	if auth := string(ctx.Request.Header.Peek("Authorization")); auth != "" {
		if k, ok := strings.CutPrefix(auth, "Bearer "); ok {
			return strings.TrimSpace(k)
		}
	}
	return strings.TrimSpace(string(ctx.Request.Header.Peek("X-API-Key")))
}

func clientIP(ctx *fasthttp.RequestCtx) string {
	host := ctx.RemoteAddr().String()
	h, _, err := net.SplitHostPort(host)
	if err != nil {
		return host
	}
	return h
}

func originAllowed(origin string, allowed []string) bool {
	for _, a := range allowed {
		if a == "*" || strings.EqualFold(a, origin) {
			return true
		}
	}
	return false
}
