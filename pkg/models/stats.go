package models

// ReferralRecord attributes an invitee to their first inviter. Never
// rewritten once stored.
type ReferralRecord struct {
	Inviter    string `json:"inviter"`
	Invitee    string `json:"invitee"`
	InvitedAt  int64  `json:"invited_at"`
	Rewarded   bool   `json:"rewarded"`
	RewardedAt int64  `json:"rewarded_at,omitempty"`
}

// ReferralStats aggregates rewards per inviter. LastRewardTime is 0 until
// the first reward.
type ReferralStats struct {
	TotalInvited   uint64 `json:"total_invited"`
	TotalRewards   uint64 `json:"total_rewards"`
	LastRewardTime int64  `json:"last_reward_time,omitempty"`
}

// RankEntry is one row of a leaderboard; ID is an identity or a chain.
type RankEntry struct {
	ID    string `json:"id"`
	Count uint64 `json:"count"`
}

// TimeStat is the count for one bucket index.
type TimeStat struct {
	Time  uint64 `json:"time"`
	Count uint64 `json:"count"`
}

// CooldownStatus is the answer to a cooldown check. RemainingUS is only set
// while Blocked; Exempt marks an allow-listed sender.
type CooldownStatus struct {
	Enabled     bool  `json:"enabled"`
	Exempt      bool  `json:"exempt,omitempty"`
	Blocked     bool  `json:"in_cooldown"`
	RemainingUS int64 `json:"remaining_us,omitempty"`
}

// Profile fields are optional; nil means never set.
type Profile struct {
	Name   *string `json:"name,omitempty"`
	Avatar *string `json:"avatar,omitempty"`
}
