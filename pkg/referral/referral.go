// Package referral keeps the invitation ledger: one permanent record per
// invitee and reward totals per inviter.
package referral

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/wuya51/gmic-buildathon/pkg/models"
	"github.com/wuya51/gmic-buildathon/pkg/stats/rank"
	"github.com/wuya51/gmic-buildathon/pkg/store"
	"github.com/wuya51/gmic-buildathon/pkg/store/keys"
)

const (
	FirstReward  = 30
	RepeatReward = 10
)

// Apply resolves the referral effect of one event from invitee at ts and
// returns the inviter that was rewarded, or "" when nothing changed.
//
// An attributed invitee always rewards the original inviter, whatever hint
// is given. An unattributed invitee is attributed to hint unless hint is
// empty or the invitee itself.
func Apply(w store.Writer, invitee, hint string, ts int64) (string, error) {
	var rec models.ReferralRecord
	found, err := store.GetJSON(w, keys.GenReferralRecordKey(invitee), &rec)
	if err != nil {
		return "", err
	}
	if found {
		return rec.Inviter, reward(w, rec.Inviter, RepeatReward, false, ts)
	}
	if hint == "" || hint == invitee {
		return "", nil
	}
	rec = models.ReferralRecord{
		Inviter:    hint,
		Invitee:    invitee,
		InvitedAt:  ts,
		Rewarded:   true,
		RewardedAt: ts,
	}
	if err := store.SetJSON(w, keys.GenReferralRecordKey(invitee), rec); err != nil {
		return "", err
	}
	return hint, reward(w, hint, FirstReward, true, ts)
}

func reward(w store.Writer, inviter string, points uint64, invited bool, ts int64) error {
	st, err := Stats(w, inviter)
	if err != nil {
		return err
	}
	st.TotalRewards += points
	if invited {
		st.TotalInvited++
	}
	st.LastRewardTime = ts
	if err := store.SetJSON(w, keys.GenReferralStatsKey(inviter), st); err != nil {
		return fmt.Errorf("reward %s: %w", inviter, err)
	}
	return nil
}

// Record returns invitee's referral record, or nil if never attributed.
func Record(r store.Reader, invitee string) (*models.ReferralRecord, error) {
	var rec models.ReferralRecord
	ok, err := store.GetJSON(r, keys.GenReferralRecordKey(invitee), &rec)
	if err != nil || !ok {
		return nil, err
	}
	return &rec, nil
}

// Stats returns inviter's totals; zero when it never earned anything.
func Stats(r store.Reader, inviter string) (models.ReferralStats, error) {
	var st models.ReferralStats
	if _, err := store.GetJSON(r, keys.GenReferralStatsKey(inviter), &st); err != nil {
		return models.ReferralStats{}, err
	}
	return st, nil
}

// Records lists the invitees first attributed to inviter, newest first.
func Records(r store.Reader, inviter string) ([]models.ReferralRecord, error) {
	out := []models.ReferralRecord{}
	err := r.Scan([]byte(keys.PrefixReferralRecord), func(k, v []byte) error {
		var rec models.ReferralRecord
		if err := json.Unmarshal(v, &rec); err != nil {
			return fmt.Errorf("decode %s: %w", k, err)
		}
		if rec.Inviter == inviter {
			out = append(out, rec)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].InvitedAt > out[j].InvitedAt
	})
	return out, nil
}

func scanStats(r store.Reader, pick func(models.ReferralStats) uint64) ([]models.RankEntry, error) {
	var entries []models.RankEntry
	err := r.Scan([]byte(keys.PrefixReferralStats), func(k, v []byte) error {
		inviter, err := keys.ParseReferralStatsKey(string(k))
		if err != nil {
			return err
		}
		var st models.ReferralStats
		if err := json.Unmarshal(v, &st); err != nil {
			return fmt.Errorf("decode %s: %w", k, err)
		}
		entries = append(entries, models.RankEntry{ID: inviter, Count: pick(st)})
		return nil
	})
	if err != nil {
		return nil, err
	}
	rank.Sort(entries)
	return entries, nil
}

func byRewards(st models.ReferralStats) uint64 { return st.TotalRewards }
func byInvited(st models.ReferralStats) uint64 { return st.TotalInvited }

// TopRewards ranks inviters by total reward points.
func TopRewards(r store.Reader, limit int) ([]models.RankEntry, error) {
	entries, err := scanStats(r, byRewards)
	if err != nil {
		return nil, err
	}
	return rank.Top(entries, limit), nil
}

// TopInviters ranks inviters by distinct invitees.
func TopInviters(r store.Reader, limit int) ([]models.RankEntry, error) {
	entries, err := scanStats(r, byInvited)
	if err != nil {
		return nil, err
	}
	return rank.Top(entries, limit), nil
}

// Rank is identity's 1-based position by reward points, 0 if absent.
func Rank(r store.Reader, identity string) (uint64, error) {
	entries, err := scanStats(r, byRewards)
	if err != nil {
		return 0, err
	}
	return rank.Position(entries, identity), nil
}
