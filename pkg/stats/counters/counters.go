// Package counters maintains lifetime message counts: global, per chain and
// per sending identity. Counts never decrease.
package counters

import (
	"fmt"

	"github.com/wuya51/gmic-buildathon/pkg/models"
	"github.com/wuya51/gmic-buildathon/pkg/store"
	"github.com/wuya51/gmic-buildathon/pkg/store/keys"
)

// Record adds one event from sender on chain and returns the new global total.
func Record(w store.Writer, chain, sender string) (uint64, error) {
	total, err := store.AddUint64(w, keys.CountTotal, 1)
	if err != nil {
		return 0, fmt.Errorf("bump total: %w", err)
	}
	if _, err := store.AddUint64(w, keys.GenChainCountKey(chain), 1); err != nil {
		return 0, fmt.Errorf("bump chain count: %w", err)
	}
	if _, err := store.AddUint64(w, keys.GenIdentityCountKey(sender), 1); err != nil {
		return 0, fmt.Errorf("bump identity count: %w", err)
	}
	return total, nil
}

func Total(r store.Reader) (uint64, error) {
	return store.GetUint64(r, keys.CountTotal)
}

func ChainCount(r store.Reader, chain string) (uint64, error) {
	return store.GetUint64(r, keys.GenChainCountKey(chain))
}

func IdentityCount(r store.Reader, identity string) (uint64, error) {
	return store.GetUint64(r, keys.GenIdentityCountKey(identity))
}

// Chains returns every per-chain count in key order.
func Chains(r store.Reader) ([]models.RankEntry, error) {
	return scan(r, keys.PrefixCountChain, keys.ParseChainCountKey)
}

// Identities returns every per-identity count in key order.
func Identities(r store.Reader) ([]models.RankEntry, error) {
	return scan(r, keys.PrefixCountIdentity, keys.ParseIdentityCountKey)
}

func scan(r store.Reader, prefix string, parse func(string) (string, error)) ([]models.RankEntry, error) {
	var out []models.RankEntry
	err := r.Scan([]byte(prefix), func(k, v []byte) error {
		id, err := parse(string(k))
		if err != nil {
			return err
		}
		n, err := store.DecodeUint64(v)
		if err != nil {
			return fmt.Errorf("decode %s: %w", k, err)
		}
		out = append(out, models.RankEntry{ID: id, Count: n})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
