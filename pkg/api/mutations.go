package api

import (
	"encoding/json"
	"errors"

	"github.com/valyala/fasthttp"

	"github.com/wuya51/gmic-buildathon/pkg/api/router"
	"github.com/wuya51/gmic-buildathon/pkg/engine"
	"github.com/wuya51/gmic-buildathon/pkg/models"
	"github.com/wuya51/gmic-buildathon/pkg/telemetry"
)

type greetingRequest struct {
	Chain     string         `json:"chain"`
	Sender    string         `json:"sender"`
	Recipient string         `json:"recipient,omitempty"`
	Timestamp *int64         `json:"timestamp,omitempty"`
	Content   models.Content `json:"content"`
	Inviter   string         `json:"inviter,omitempty"`
}

func (r greetingRequest) validate() error {
	if err := validateID("chain", r.Chain); err != nil {
		return err
	}
	if err := validateID("sender", r.Sender); err != nil {
		return err
	}
	if r.Recipient != "" {
		if err := validateID("recipient", r.Recipient); err != nil {
			return err
		}
	}
	if r.Inviter != "" {
		if err := validateID("inviter", r.Inviter); err != nil {
			return err
		}
	}
	return validateContent(r.Content)
}

// recordGreeting ingests one event. Client timestamps may not run ahead of
// the server clock by more than MaxClockSkew, and while the cooldown applies
// to the sender they may not lag behind it by more either. The cooldown is
// then checked at the event's own timestamp; senders inside the window get
// 429 with the remaining wait.
func (s *Server) recordGreeting(ctx *fasthttp.RequestCtx) {
	var req greetingRequest
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil {
		telemetry.InvalidEvent()
		router.WriteJSONError(ctx, fasthttp.StatusBadRequest, "invalid request body")
		return
	}
	if err := req.validate(); err != nil {
		telemetry.InvalidEvent()
		badRequest(ctx, err)
		return
	}

	now := s.eng.Now()
	ts := now
	if req.Timestamp != nil {
		ts = *req.Timestamp
	}
	skew := s.opts.MaxClockSkew.Microseconds()
	if ts > now+skew {
		telemetry.InvalidEvent()
		router.WriteJSONError(ctx, fasthttp.StatusBadRequest, "timestamp is ahead of the server clock")
		return
	}
	if ts > 0 && ts < now-skew {
		st, err := s.eng.CooldownStatus(req.Chain, req.Sender, now)
		if err != nil {
			internalError(ctx, "cooldown_status", err)
			return
		}
		if st.Enabled && !st.Exempt {
			telemetry.InvalidEvent()
			router.WriteJSONError(ctx, fasthttp.StatusBadRequest, "timestamp is behind the server clock while cooldown is enabled")
			return
		}
	}

	ev := models.GreetingEvent{
		Sender:    req.Sender,
		Recipient: req.Recipient,
		Timestamp: ts,
		Content:   req.Content,
	}
	st, err := s.eng.RecordGuarded(req.Chain, ev, req.Inviter)
	if err != nil {
		if errors.Is(err, engine.ErrInvalidTimestamp) {
			badRequest(ctx, err)
			return
		}
		internalError(ctx, "record_event", err)
		return
	}
	if st.Blocked {
		_ = router.WriteJSONStatus(ctx, fasthttp.StatusTooManyRequests, map[string]any{
			"error":        "sender is in cooldown",
			"remaining_us": st.RemainingUS,
		})
		return
	}
	_ = router.WriteJSONStatus(ctx, fasthttp.StatusCreated, map[string]any{"event": ev})
}

type profileRequest struct {
	Name   *string `json:"name"`
	Avatar *string `json:"avatar"`
}

func (s *Server) setProfile(ctx *fasthttp.RequestCtx) {
	id := router.PathParam(ctx, "id")
	var req profileRequest
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil {
		router.WriteJSONError(ctx, fasthttp.StatusBadRequest, "invalid request body")
		return
	}
	if req.Name != nil && len(*req.Name) > maxIDBytes {
		router.WriteJSONError(ctx, fasthttp.StatusBadRequest, "name too long")
		return
	}
	if req.Avatar != nil && len(*req.Avatar) > maxMediaBytes {
		router.WriteJSONError(ctx, fasthttp.StatusBadRequest, "avatar too long")
		return
	}
	p, err := s.eng.SetProfile(id, req.Name, req.Avatar)
	if err != nil {
		internalError(ctx, "set_profile", err)
		return
	}
	_ = router.WriteJSON(ctx, p)
}
