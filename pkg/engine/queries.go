package engine

import (
	"github.com/wuya51/gmic-buildathon/pkg/cooldown"
	"github.com/wuya51/gmic-buildathon/pkg/events"
	"github.com/wuya51/gmic-buildathon/pkg/leaderboard"
	"github.com/wuya51/gmic-buildathon/pkg/models"
	"github.com/wuya51/gmic-buildathon/pkg/profiles"
	"github.com/wuya51/gmic-buildathon/pkg/referral"
	"github.com/wuya51/gmic-buildathon/pkg/stats/buckets"
	"github.com/wuya51/gmic-buildathon/pkg/stats/counters"
)

// Reads go to the committed database. Absent data reads as zero values.

func (e *Engine) LastSeen(chain, sender string) (int64, bool, error) {
	return events.LastSeen(e.db, chain, sender)
}

func (e *Engine) LastGreeting(chain, sender, recipient string) (*models.GreetingEvent, error) {
	return events.LastGreeting(e.db, chain, sender, recipient)
}

func (e *Engine) Sent(chain, sender string) ([]models.ViewEntry, error) {
	return events.Sent(e.db, chain, sender)
}

func (e *Engine) Received(chain, recipient string) ([]models.ViewEntry, error) {
	return events.Received(e.db, chain, recipient)
}

// StreamEvents returns chain's feed newest first from since on.
func (e *Engine) StreamEvents(chain string, since int64, limit int) ([]models.GreetingEvent, error) {
	return events.Stream(e.db, chain, since, limit)
}

func (e *Engine) LatestEvents(chain string, since int64) ([]models.GreetingEvent, error) {
	return events.Latest(e.db, chain, since)
}

func (e *Engine) Total() (uint64, error) {
	return counters.Total(e.db)
}

func (e *Engine) ChainCount(chain string) (uint64, error) {
	return counters.ChainCount(e.db, chain)
}

func (e *Engine) IdentityCount(identity string) (uint64, error) {
	return counters.IdentityCount(e.db, identity)
}

// Range returns one entry per bucket in [start, end].
func (e *Engine) Range(chain string, start, end uint64, g buckets.Granularity) ([]models.TimeStat, error) {
	return buckets.Range(e.db, chain, start, end, g)
}

func (e *Engine) HourlyStats(chain string, start, end uint64) ([]models.TimeStat, error) {
	return e.Range(chain, start, end, buckets.Hour)
}

func (e *Engine) DailyStats(chain string, start, end uint64) ([]models.TimeStat, error) {
	return e.Range(chain, start, end, buckets.Day)
}

func (e *Engine) MonthlyStats(chain string, start, end uint64) ([]models.TimeStat, error) {
	return e.Range(chain, start, end, buckets.Month)
}

func (e *Engine) MessageTrend(chain string, periodDays uint64, now int64) ([]models.TimeStat, error) {
	return buckets.MessageTrend(e.db, chain, periodDays, now)
}

func (e *Engine) ActivityTrend(identity string, periodDays uint64, now int64) ([]models.TimeStat, error) {
	return events.ActivityTrend(e.db, identity, periodDays, now)
}

func (e *Engine) ReferralRecord(invitee string) (*models.ReferralRecord, error) {
	return referral.Record(e.db, invitee)
}

func (e *Engine) ReferralStats(inviter string) (models.ReferralStats, error) {
	return referral.Stats(e.db, inviter)
}

func (e *Engine) InvitationRecords(inviter string) ([]models.ReferralRecord, error) {
	return referral.Records(e.db, inviter)
}

// InvitationRewards is identity's accumulated reward points.
func (e *Engine) InvitationRewards(identity string) (uint64, error) {
	st, err := referral.Stats(e.db, identity)
	if err != nil {
		return 0, err
	}
	return st.TotalRewards, nil
}

func (e *Engine) TopInvitationRewards(limit int) ([]models.RankEntry, error) {
	return referral.TopRewards(e.db, limit)
}

func (e *Engine) TopInviters(limit int) ([]models.RankEntry, error) {
	return referral.TopInviters(e.db, limit)
}

func (e *Engine) InvitationRank(identity string) (uint64, error) {
	return referral.Rank(e.db, identity)
}

// IsInCooldown reports whether sender is blocked on chain at now and the
// remaining wait in microseconds.
func (e *Engine) IsInCooldown(chain, sender string, now int64) (bool, int64, error) {
	return cooldown.Check(e.db, chain, sender, now)
}

// CooldownStatus is IsInCooldown with allow-listed senders exempted.
func (e *Engine) CooldownStatus(chain, sender string, now int64) (models.CooldownStatus, error) {
	return cooldown.Status(e.db, chain, sender, now)
}

func (e *Engine) CooldownEnabled() (bool, error) {
	return cooldown.Enabled(e.db)
}

func (e *Engine) IsAllowListed(identity string) (bool, error) {
	return cooldown.IsAllowListed(e.db, identity)
}

func (e *Engine) AllowList() ([]string, error) {
	return cooldown.AllowList(e.db)
}

// TopIdentities is served from the leaderboard cache.
func (e *Engine) TopIdentities(limit int, now int64) ([]models.RankEntry, error) {
	return e.board.TopIdentities(limit, now)
}

// TopChains is served from the leaderboard cache.
func (e *Engine) TopChains(limit int, now int64) ([]models.RankEntry, error) {
	return e.board.TopChains(limit, now)
}

// RankOf always scans; it is never served from the cache.
func (e *Engine) RankOf(identity string) (uint64, error) {
	return leaderboard.RankOf(e.db, identity)
}

func (e *Engine) Profile(identity string) (models.Profile, error) {
	return profiles.Get(e.db, identity)
}
