package api

import (
	"encoding/json"

	"github.com/valyala/fasthttp"

	"github.com/wuya51/gmic-buildathon/pkg/api/router"
)

type cooldownRequest struct {
	Caller  string `json:"caller"`
	Enabled *bool  `json:"enabled"`
}

type allowListRequest struct {
	Caller string `json:"caller"`
	Target string `json:"target"`
}

// grantResponse reports whether the caller was authorized. An unauthorized
// call is not an HTTP error; state is simply left unchanged.
func grantResponse(ctx *fasthttp.RequestCtx, granted bool) {
	_ = router.WriteJSON(ctx, map[string]bool{"granted": granted})
}

func (s *Server) setCooldown(ctx *fasthttp.RequestCtx) {
	var req cooldownRequest
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil || req.Enabled == nil {
		router.WriteJSONError(ctx, fasthttp.StatusBadRequest, "body must carry caller and enabled")
		return
	}
	if err := validateID("caller", req.Caller); err != nil {
		badRequest(ctx, err)
		return
	}
	ok, err := s.eng.SetCooldownEnabled(req.Caller, *req.Enabled)
	if err != nil {
		internalError(ctx, "set_cooldown", err)
		return
	}
	grantResponse(ctx, ok)
}

func (s *Server) decodeAllowList(ctx *fasthttp.RequestCtx) (allowListRequest, bool) {
	var req allowListRequest
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil {
		router.WriteJSONError(ctx, fasthttp.StatusBadRequest, "invalid request body")
		return req, false
	}
	if err := validateID("caller", req.Caller); err != nil {
		badRequest(ctx, err)
		return req, false
	}
	if err := validateID("target", req.Target); err != nil {
		badRequest(ctx, err)
		return req, false
	}
	return req, true
}

func (s *Server) addAllowList(ctx *fasthttp.RequestCtx) {
	req, ok := s.decodeAllowList(ctx)
	if !ok {
		return
	}
	granted, err := s.eng.AddAllowList(req.Caller, req.Target)
	if err != nil {
		internalError(ctx, "allow_list_add", err)
		return
	}
	grantResponse(ctx, granted)
}

func (s *Server) removeAllowList(ctx *fasthttp.RequestCtx) {
	req, ok := s.decodeAllowList(ctx)
	if !ok {
		return
	}
	granted, err := s.eng.RemoveAllowList(req.Caller, req.Target)
	if err != nil {
		internalError(ctx, "allow_list_remove", err)
		return
	}
	grantResponse(ctx, granted)
}
