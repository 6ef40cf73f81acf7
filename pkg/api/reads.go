package api

import (
	"github.com/valyala/fasthttp"

	"github.com/wuya51/gmic-buildathon/pkg/api/router"
	"github.com/wuya51/gmic-buildathon/pkg/logger"
	"github.com/wuya51/gmic-buildathon/pkg/models"
	"github.com/wuya51/gmic-buildathon/pkg/stats/buckets"
)

const (
	defaultTopLimit   = 10
	maxTopLimit       = 1000
	defaultTrendDays  = 7
	maxTrendDays      = 366
	maxFeedLimit      = 1000
	defaultFeedLimit  = 100
	defaultHourSpan   = 24
	defaultDaySpan    = 30
	defaultMonthSpan  = 12
	defaultInviteRows = 100
)

// internalError logs err and answers 500.
func internalError(ctx *fasthttp.RequestCtx, op string, err error) {
	logger.Error("request_failed", "op", op, "path", string(ctx.Path()), "error", err)
	router.WriteJSONError(ctx, fasthttp.StatusInternalServerError, "internal error")
}

func badRequest(ctx *fasthttp.RequestCtx, err error) {
	router.WriteJSONError(ctx, fasthttp.StatusBadRequest, err.Error())
}

func (s *Server) globalStats(ctx *fasthttp.RequestCtx) {
	total, err := s.eng.Total()
	if err != nil {
		internalError(ctx, "total", err)
		return
	}
	enabled, err := s.eng.CooldownEnabled()
	if err != nil {
		internalError(ctx, "cooldown_enabled", err)
		return
	}
	_ = router.WriteJSON(ctx, map[string]any{
		"total":            total,
		"cooldown_enabled": enabled,
	})
}

func (s *Server) chainCount(ctx *fasthttp.RequestCtx) {
	chain := router.PathParam(ctx, "chain")
	n, err := s.eng.ChainCount(chain)
	if err != nil {
		internalError(ctx, "chain_count", err)
		return
	}
	_ = router.WriteJSON(ctx, map[string]any{"chain": chain, "count": n})
}

func (s *Server) sentEvents(ctx *fasthttp.RequestCtx) {
	view, err := s.eng.Sent(router.PathParam(ctx, "chain"), router.PathParam(ctx, "id"))
	if err != nil {
		internalError(ctx, "sent_view", err)
		return
	}
	_ = router.WriteJSON(ctx, map[string]any{"events": view})
}

func (s *Server) receivedEvents(ctx *fasthttp.RequestCtx) {
	view, err := s.eng.Received(router.PathParam(ctx, "chain"), router.PathParam(ctx, "id"))
	if err != nil {
		internalError(ctx, "received_view", err)
		return
	}
	_ = router.WriteJSON(ctx, map[string]any{"events": view})
}

func (s *Server) lastGreeting(ctx *fasthttp.RequestCtx) {
	chain, sender := router.PathParam(ctx, "chain"), router.PathParam(ctx, "id")
	recipient := string(ctx.QueryArgs().Peek("recipient"))
	ev, err := s.eng.LastGreeting(chain, sender, recipient)
	if err != nil {
		internalError(ctx, "last_greeting", err)
		return
	}
	last, _, err := s.eng.LastSeen(chain, sender)
	if err != nil {
		internalError(ctx, "last_seen", err)
		return
	}
	_ = router.WriteJSON(ctx, map[string]any{"event": ev, "last_seen": last})
}

func (s *Server) feed(ctx *fasthttp.RequestCtx) {
	since, err := queryInt(ctx, "since", 0)
	if err != nil {
		badRequest(ctx, err)
		return
	}
	limit, err := queryLimit(ctx, defaultFeedLimit, maxFeedLimit)
	if err != nil {
		badRequest(ctx, err)
		return
	}
	evs, err := s.eng.StreamEvents(router.PathParam(ctx, "chain"), since, limit)
	if err != nil {
		internalError(ctx, "stream", err)
		return
	}
	_ = router.WriteJSON(ctx, map[string]any{"events": evs})
}

func (s *Server) latest(ctx *fasthttp.RequestCtx) {
	since, err := queryInt(ctx, "since", 0)
	if err != nil {
		badRequest(ctx, err)
		return
	}
	evs, err := s.eng.LatestEvents(router.PathParam(ctx, "chain"), since)
	if err != nil {
		internalError(ctx, "latest", err)
		return
	}
	_ = router.WriteJSON(ctx, map[string]any{"events": evs})
}

func defaultSpan(g buckets.Granularity) uint64 {
	switch g {
	case buckets.Hour:
		return defaultHourSpan
	case buckets.Month:
		return defaultMonthSpan
	default:
		return defaultDaySpan
	}
}

// bucketStats serves a dense bucket range. Without start/end it covers
// the most recent buckets up to now.
func (s *Server) bucketStats(ctx *fasthttp.RequestCtx) {
	g, err := buckets.ParseGranularity(router.PathParam(ctx, "granularity"))
	if err != nil {
		router.WriteJSONError(ctx, fasthttp.StatusNotFound, err.Error())
		return
	}
	current := buckets.Index(max(s.eng.Now(), 0), g)
	end, err := queryUint(ctx, "end", current)
	if err != nil {
		badRequest(ctx, err)
		return
	}
	defStart := uint64(0)
	if span := defaultSpan(g); end >= span {
		defStart = end - span + 1
	}
	start, err := queryUint(ctx, "start", defStart)
	if err != nil {
		badRequest(ctx, err)
		return
	}
	if start <= end && end-start >= uint64(s.opts.MaxBucketRange) {
		router.WriteJSONError(ctx, fasthttp.StatusBadRequest, "range too large")
		return
	}
	stats, err := s.eng.Range(router.PathParam(ctx, "chain"), start, end, g)
	if err != nil {
		internalError(ctx, "bucket_range", err)
		return
	}
	_ = router.WriteJSON(ctx, map[string]any{
		"granularity": g.String(),
		"start":       start,
		"end":         end,
		"stats":       stats,
	})
}

func (s *Server) messageTrend(ctx *fasthttp.RequestCtx) {
	days, err := queryUint(ctx, "days", defaultTrendDays)
	if err != nil || days > maxTrendDays {
		router.WriteJSONError(ctx, fasthttp.StatusBadRequest, "invalid days")
		return
	}
	trend, err := s.eng.MessageTrend(router.PathParam(ctx, "chain"), days, s.eng.Now())
	if err != nil {
		internalError(ctx, "message_trend", err)
		return
	}
	_ = router.WriteJSON(ctx, map[string]any{"days": days, "trend": trend})
}

func (s *Server) cooldownStatus(ctx *fasthttp.RequestCtx) {
	st, err := s.eng.CooldownStatus(router.PathParam(ctx, "chain"), router.PathParam(ctx, "id"), s.eng.Now())
	if err != nil {
		internalError(ctx, "cooldown_status", err)
		return
	}
	_ = router.WriteJSON(ctx, st)
}

func (s *Server) cooldownConfig(ctx *fasthttp.RequestCtx) {
	enabled, err := s.eng.CooldownEnabled()
	if err != nil {
		internalError(ctx, "cooldown_enabled", err)
		return
	}
	list, err := s.eng.AllowList()
	if err != nil {
		internalError(ctx, "allow_list", err)
		return
	}
	_ = router.WriteJSON(ctx, map[string]any{"enabled": enabled, "allow_list": list})
}

type identityView struct {
	Identity       string               `json:"identity"`
	Count          uint64               `json:"count"`
	Rank           uint64               `json:"rank"`
	Profile        models.Profile       `json:"profile"`
	Referral       models.ReferralStats `json:"referral"`
	InvitationRank uint64               `json:"invitation_rank"`
	InvitedBy      string               `json:"invited_by,omitempty"`
	Activity       []models.TimeStat    `json:"activity"`
}

func (s *Server) identity(ctx *fasthttp.RequestCtx) {
	id := router.PathParam(ctx, "id")
	days, err := queryUint(ctx, "days", defaultTrendDays)
	if err != nil || days > maxTrendDays {
		router.WriteJSONError(ctx, fasthttp.StatusBadRequest, "invalid days")
		return
	}

	v := identityView{Identity: id}
	if v.Count, err = s.eng.IdentityCount(id); err != nil {
		internalError(ctx, "identity_count", err)
		return
	}
	if v.Rank, err = s.eng.RankOf(id); err != nil {
		internalError(ctx, "rank_of", err)
		return
	}
	if v.Profile, err = s.eng.Profile(id); err != nil {
		internalError(ctx, "profile", err)
		return
	}
	if v.Referral, err = s.eng.ReferralStats(id); err != nil {
		internalError(ctx, "referral_stats", err)
		return
	}
	if v.InvitationRank, err = s.eng.InvitationRank(id); err != nil {
		internalError(ctx, "invitation_rank", err)
		return
	}
	rec, err := s.eng.ReferralRecord(id)
	if err != nil {
		internalError(ctx, "referral_record", err)
		return
	}
	if rec != nil {
		v.InvitedBy = rec.Inviter
	}
	if v.Activity, err = s.eng.ActivityTrend(id, days, s.eng.Now()); err != nil {
		internalError(ctx, "activity_trend", err)
		return
	}
	_ = router.WriteJSON(ctx, v)
}

func (s *Server) invitations(ctx *fasthttp.RequestCtx) {
	recs, err := s.eng.InvitationRecords(router.PathParam(ctx, "id"))
	if err != nil {
		internalError(ctx, "invitation_records", err)
		return
	}
	if len(recs) > defaultInviteRows {
		recs = recs[:defaultInviteRows]
	}
	_ = router.WriteJSON(ctx, map[string]any{"records": recs})
}

func (s *Server) leaderboard(ctx *fasthttp.RequestCtx) {
	limit, err := queryLimit(ctx, defaultTopLimit, maxTopLimit)
	if err != nil {
		badRequest(ctx, err)
		return
	}
	board := router.PathParam(ctx, "board")
	var entries []models.RankEntry
	switch board {
	case "identities":
		entries, err = s.eng.TopIdentities(limit, s.eng.Now())
	case "chains":
		entries, err = s.eng.TopChains(limit, s.eng.Now())
	case "invitations":
		entries, err = s.eng.TopInvitationRewards(limit)
	case "inviters":
		entries, err = s.eng.TopInviters(limit)
	default:
		router.WriteJSONError(ctx, fasthttp.StatusNotFound, "unknown leaderboard")
		return
	}
	if err != nil {
		internalError(ctx, "leaderboard", err)
		return
	}
	if entries == nil {
		entries = []models.RankEntry{}
	}
	_ = router.WriteJSON(ctx, map[string]any{"board": board, "entries": entries})
}
