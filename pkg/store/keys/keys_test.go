package keys

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEscapeKeepsSeparatorsOut(t *testing.T) {
	k := GenChainCountKey("chain:a b")
	assert.Equal(t, "gm:cnt:chain:chain%3Aa+b", k)

	chain, err := ParseChainCountKey(k)
	require.NoError(t, err)
	assert.Equal(t, "chain:a b", chain)
}

func TestPaddedNumbersSortNumerically(t *testing.T) {
	assert.Less(t, GenEventLogKey(9), GenEventLogKey(10))
	assert.Less(t, GenBucketDayKey("c", 99), GenBucketDayKey("c", 100))
	assert.Len(t, PadNum(0), NumPadWidth)
	assert.Len(t, PadNum(^uint64(0)), NumPadWidth)
}

func TestParseTokenKeys(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		parse func(string) (string, error)
		want  string
	}{
		{"identity", GenIdentityCountKey("alice"), ParseIdentityCountKey, "alice"},
		{"referral record", GenReferralRecordKey("bob"), ParseReferralRecordKey, "bob"},
		{"referral stats", GenReferralStatsKey("carol"), ParseReferralStatsKey, "carol"},
		{"allow list", GenAllowListKey("0xAbC"), ParseAllowListKey, "0xAbC"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.parse(tt.key)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := ParseIdentityCountKey("gm:cnt:chain:x")
	assert.Error(t, err)
	_, err = ParseIdentityCountKey("gm:cnt:id:a:b")
	assert.Error(t, err)
}

func TestEventLogAndFeedKeys(t *testing.T) {
	seq, err := ParseEventLogKey(GenEventLogKey(42))
	require.NoError(t, err)
	assert.Equal(t, uint64(42), seq)

	_, err = ParseEventLogKey("gm:feed:x")
	assert.Error(t, err)

	k := GenFeedKey("c:1", 1_000_000, 7)
	assert.Contains(t, k, GenFeedPrefix("c:1"))
	parts, err := ParseFeedKey(k)
	require.NoError(t, err)
	assert.Equal(t, &FeedKeyParts{Chain: "c:1", TS: 1_000_000, Seq: 7}, parts)

	_, err = ParseFeedKey("gm:feed:c:1")
	assert.Error(t, err)
}

func TestLastPairKeyAbsentRecipient(t *testing.T) {
	assert.Equal(t, "gm:pair:c:s:", GenLastPairKey("c", "s", ""))
	assert.NotEqual(t, GenLastPairKey("c", "s", ""), GenLastPairKey("c", "s", "r"))
}
