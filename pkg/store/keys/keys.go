package keys

// Key layout. Every token segment is escaped with EscapeToken so ':' only
// ever appears as a separator; numeric segments are zero padded so byte
// order matches numeric order.
const (
	LastSeen = "gm:last:%s:%s" // chain, sender

	CountTotal    = "gm:cnt:total"
	CountChain    = "gm:cnt:chain:%s" // chain
	CountIdentity = "gm:cnt:id:%s"    // identity

	EventLog   = "gm:ev:%s"          // seq
	LastPair   = "gm:pair:%s:%s:%s"  // chain, sender, recipient
	SentView   = "gm:sent:%s:%s"     // chain, sender
	RecvView   = "gm:recv:%s:%s"     // chain, recipient
	FeedEntry  = "gm:feed:%s:%s:%s"  // chain, ts, seq
	BucketHour = "gm:bkt:h:%s:%s"    // chain, bucket
	BucketDay  = "gm:bkt:d:%s:%s"    // chain, bucket
	BucketMon  = "gm:bkt:m:%s:%s"    // chain, bucket

	ReferralRecord = "gm:ref:rec:%s"   // invitee
	ReferralStats  = "gm:ref:stats:%s" // inviter

	CooldownEnabled = "gm:cd:enabled"
	AllowList       = "gm:cd:allow:%s" // identity

	LeaderboardIdentities = "gm:lb:ids"
	LeaderboardChains     = "gm:lb:chains"
	LeaderboardAt         = "gm:lb:at"

	Profile = "gm:prof:%s" // identity
)

// Prefixes used for scans.
const (
	PrefixEventLog       = "gm:ev:"
	PrefixCountChain     = "gm:cnt:chain:"
	PrefixCountIdentity  = "gm:cnt:id:"
	PrefixReferralRecord = "gm:ref:rec:"
	PrefixReferralStats  = "gm:ref:stats:"
	PrefixAllowList      = "gm:cd:allow:"
	PrefixFeed           = "gm:feed:"
)

const (
	// NumPadWidth fits the largest uint64 (20 digits).
	NumPadWidth = 20
)
