// Package router dispatches gmstats API requests on fasthttp.
//
// A pattern is a slash-separated list of literals and {name} captures, for
// example /v1/chains/{chain}/stats/{granularity}. Captured segments are
// stored as request user values and read back with PathParam. One pattern
// may carry a handler per method; a path that matches a pattern but not the
// method gets 405 with an Allow header.
package router

import (
	"fmt"
	"sort"
	"strings"

	"github.com/valyala/fasthttp"
)

type Router struct {
	routes   []*route
	notFound fasthttp.RequestHandler
}

type route struct {
	pattern  string
	segments []segment
	handlers map[string]fasthttp.RequestHandler
}

type segment struct {
	name    string
	capture bool
}

func New() *Router {
	return &Router{}
}

func (r *Router) GET(pattern string, h fasthttp.RequestHandler) {
	r.Handle(fasthttp.MethodGet, pattern, h)
}

func (r *Router) POST(pattern string, h fasthttp.RequestHandler) {
	r.Handle(fasthttp.MethodPost, pattern, h)
}

func (r *Router) PUT(pattern string, h fasthttp.RequestHandler) {
	r.Handle(fasthttp.MethodPut, pattern, h)
}

func (r *Router) DELETE(pattern string, h fasthttp.RequestHandler) {
	r.Handle(fasthttp.MethodDelete, pattern, h)
}

// NotFound replaces the default JSON 404.
func (r *Router) NotFound(h fasthttp.RequestHandler) {
	r.notFound = h
}

// Handle registers h for method on pattern. Malformed patterns and
// duplicate registrations panic at startup.
func (r *Router) Handle(method, pattern string, h fasthttp.RequestHandler) {
	for _, rt := range r.routes {
		if rt.pattern != pattern {
			continue
		}
		if _, dup := rt.handlers[method]; dup {
			panic(fmt.Sprintf("router: %s %s registered twice", method, pattern))
		}
		rt.handlers[method] = h
		return
	}
	r.routes = append(r.routes, &route{
		pattern:  pattern,
		segments: compile(pattern),
		handlers: map[string]fasthttp.RequestHandler{method: h},
	})
}

// Handler is the fasthttp entry point. Patterns are tried in registration
// order.
func (r *Router) Handler(ctx *fasthttp.RequestCtx) {
	parts, ok := split(string(ctx.Path()))
	if !ok {
		r.miss(ctx)
		return
	}
	method := string(ctx.Method())
	var allowed []string
	for _, rt := range r.routes {
		if !rt.matches(parts) {
			continue
		}
		h, ok := rt.handlers[method]
		if !ok {
			for m := range rt.handlers {
				allowed = append(allowed, m)
			}
			continue
		}
		for i, seg := range rt.segments {
			if seg.capture {
				ctx.SetUserValue(seg.name, parts[i])
			}
		}
		h(ctx)
		return
	}
	if len(allowed) > 0 {
		sort.Strings(allowed)
		ctx.Response.Header.Set("Allow", strings.Join(allowed, ", "))
		WriteJSONError(ctx, fasthttp.StatusMethodNotAllowed, "method not allowed")
		return
	}
	r.miss(ctx)
}

func (r *Router) miss(ctx *fasthttp.RequestCtx) {
	if r.notFound != nil {
		r.notFound(ctx)
		return
	}
	WriteJSONError(ctx, fasthttp.StatusNotFound, "not found")
}

func (rt *route) matches(parts []string) bool {
	if len(parts) != len(rt.segments) {
		return false
	}
	for i, seg := range rt.segments {
		if !seg.capture && seg.name != parts[i] {
			return false
		}
	}
	return true
}

// split breaks a request path into segments. One trailing slash is
// tolerated; "/" has no segments; any other empty segment rejects the path,
// so an empty identity or chain never reaches a handler.
func split(path string) ([]string, bool) {
	if !strings.HasPrefix(path, "/") {
		return nil, false
	}
	path = strings.TrimPrefix(path, "/")
	path = strings.TrimSuffix(path, "/")
	if path == "" {
		return nil, true
	}
	parts := strings.Split(path, "/")
	for _, p := range parts {
		if p == "" {
			return nil, false
		}
	}
	return parts, true
}

func compile(pattern string) []segment {
	parts, ok := split(pattern)
	if !ok || strings.HasSuffix(pattern, "/") && pattern != "/" {
		panic(fmt.Sprintf("router: malformed pattern %q", pattern))
	}
	segs := make([]segment, len(parts))
	seen := make(map[string]bool)
	for i, p := range parts {
		if strings.HasPrefix(p, "{") && strings.HasSuffix(p, "}") {
			name := p[1 : len(p)-1]
			if name == "" || seen[name] {
				panic(fmt.Sprintf("router: bad capture %q in %q", p, pattern))
			}
			seen[name] = true
			segs[i] = segment{name: name, capture: true}
			continue
		}
		segs[i] = segment{name: p}
	}
	return segs
}
