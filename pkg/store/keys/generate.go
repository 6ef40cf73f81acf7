package keys

import (
	"fmt"
	"net/url"
)

// EscapeToken makes an identity or chain token safe to embed in a key.
func EscapeToken(s string) string {
	return url.QueryEscape(s)
}

// UnescapeToken reverses EscapeToken.
func UnescapeToken(s string) (string, error) {
	return url.QueryUnescape(s)
}

func PadNum(n uint64) string {
	return fmt.Sprintf("%0*d", NumPadWidth, n)
}

func GenLastSeenKey(chain, sender string) string {
	return fmt.Sprintf(LastSeen, EscapeToken(chain), EscapeToken(sender))
}

func GenChainCountKey(chain string) string {
	return fmt.Sprintf(CountChain, EscapeToken(chain))
}

func GenIdentityCountKey(identity string) string {
	return fmt.Sprintf(CountIdentity, EscapeToken(identity))
}

func GenEventLogKey(seq uint64) string {
	return fmt.Sprintf(EventLog, PadNum(seq))
}

// GenLastPairKey keys the latest event per (chain, sender, recipient). An
// absent recipient is the empty segment.
func GenLastPairKey(chain, sender, recipient string) string {
	return fmt.Sprintf(LastPair, EscapeToken(chain), EscapeToken(sender), EscapeToken(recipient))
}

func GenSentViewKey(chain, sender string) string {
	return fmt.Sprintf(SentView, EscapeToken(chain), EscapeToken(sender))
}

func GenRecvViewKey(chain, recipient string) string {
	return fmt.Sprintf(RecvView, EscapeToken(chain), EscapeToken(recipient))
}

func GenFeedKey(chain string, ts int64, seq uint64) string {
	return fmt.Sprintf(FeedEntry, EscapeToken(chain), PadNum(uint64(ts)), PadNum(seq))
}

// GenFeedPrefix is the scan prefix for one chain's feed.
func GenFeedPrefix(chain string) string {
	return PrefixFeed + EscapeToken(chain) + ":"
}

func GenBucketHourKey(chain string, bucket uint64) string {
	return fmt.Sprintf(BucketHour, EscapeToken(chain), PadNum(bucket))
}

func GenBucketDayKey(chain string, bucket uint64) string {
	return fmt.Sprintf(BucketDay, EscapeToken(chain), PadNum(bucket))
}

func GenBucketMonthKey(chain string, bucket uint64) string {
	return fmt.Sprintf(BucketMon, EscapeToken(chain), PadNum(bucket))
}

func GenReferralRecordKey(invitee string) string {
	return fmt.Sprintf(ReferralRecord, EscapeToken(invitee))
}

func GenReferralStatsKey(inviter string) string {
	return fmt.Sprintf(ReferralStats, EscapeToken(inviter))
}

func GenAllowListKey(identity string) string {
	return fmt.Sprintf(AllowList, EscapeToken(identity))
}

func GenProfileKey(identity string) string {
	return fmt.Sprintf(Profile, EscapeToken(identity))
}
