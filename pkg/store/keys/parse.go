package keys

import (
	"fmt"
	"strconv"
	"strings"
)

type FeedKeyParts struct {
	Chain string
	TS    int64
	Seq   uint64
}

func parsePaddedUint(s string) (uint64, error) {
	if len(s) == 0 || len(s) > NumPadWidth {
		return 0, fmt.Errorf("length invalid: %s", s)
	}
	trimmed := strings.TrimLeft(s, "0")
	if trimmed == "" {
		return 0, nil
	}
	return strconv.ParseUint(trimmed, 10, 64)
}

// parseTokenKey strips prefix and unescapes the single token that follows.
func parseTokenKey(key, prefix string) (string, error) {
	if !strings.HasPrefix(key, prefix) {
		return "", fmt.Errorf("key %q does not start with %q", key, prefix)
	}
	rest := key[len(prefix):]
	if strings.Contains(rest, ":") {
		return "", fmt.Errorf("key %q has extra segments", key)
	}
	return UnescapeToken(rest)
}

func ParseChainCountKey(key string) (string, error) {
	return parseTokenKey(key, PrefixCountChain)
}

func ParseIdentityCountKey(key string) (string, error) {
	return parseTokenKey(key, PrefixCountIdentity)
}

func ParseReferralRecordKey(key string) (string, error) {
	return parseTokenKey(key, PrefixReferralRecord)
}

func ParseReferralStatsKey(key string) (string, error) {
	return parseTokenKey(key, PrefixReferralStats)
}

func ParseAllowListKey(key string) (string, error) {
	return parseTokenKey(key, PrefixAllowList)
}

func ParseEventLogKey(key string) (uint64, error) {
	if !strings.HasPrefix(key, PrefixEventLog) {
		return 0, fmt.Errorf("not an event log key: %s", key)
	}
	return parsePaddedUint(key[len(PrefixEventLog):])
}

func ParseFeedKey(key string) (*FeedKeyParts, error) {
	parts := strings.Split(key, ":")
	if len(parts) != 5 || parts[0] != "gm" || parts[1] != "feed" {
		return nil, fmt.Errorf("invalid feed key: %s", key)
	}
	chain, err := UnescapeToken(parts[2])
	if err != nil {
		return nil, err
	}
	ts, err := parsePaddedUint(parts[3])
	if err != nil {
		return nil, fmt.Errorf("invalid feed timestamp: %w", err)
	}
	seq, err := parsePaddedUint(parts[4])
	if err != nil {
		return nil, fmt.Errorf("invalid feed seq: %w", err)
	}
	return &FeedKeyParts{Chain: chain, TS: int64(ts), Seq: seq}, nil
}
