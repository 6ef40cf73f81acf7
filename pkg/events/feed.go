package events

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/valyala/bytebufferpool"

	"github.com/wuya51/gmic-buildathon/pkg/models"
	"github.com/wuya51/gmic-buildathon/pkg/store"
	"github.com/wuya51/gmic-buildathon/pkg/store/keys"
)

const (
	DefaultStreamLimit = 100
	LatestLimit        = 50
)

func putFeed(w store.Writer, chain string, seq uint64, ev models.GreetingEvent) error {
	bb := bytebufferpool.Get()
	defer bytebufferpool.Put(bb)
	if err := json.NewEncoder(bb).Encode(ev); err != nil {
		return err
	}
	// Set copies the value, so handing back the pooled buffer is safe.
	w.Set([]byte(keys.GenFeedKey(chain, ev.Timestamp, seq)), bytes.TrimRight(bb.B, "\n"))
	return nil
}

func unmarshal(v []byte, out any) error {
	return json.Unmarshal(v, out)
}

// errFeedDone ends a feed scan early.
var errFeedDone = errors.New("feed scan done")

// Stream returns chain's feed newest first, keeping events with
// timestamp >= since. limit <= 0 means DefaultStreamLimit. The feed is
// walked backwards and the walk stops at limit entries or at the first one
// older than since.
func Stream(r store.Reader, chain string, since int64, limit int) ([]models.GreetingEvent, error) {
	if limit <= 0 {
		limit = DefaultStreamLimit
	}
	out := []models.GreetingEvent{}
	err := r.ScanReverse([]byte(keys.GenFeedPrefix(chain)), func(k, v []byte) error {
		parts, err := keys.ParseFeedKey(string(k))
		if err != nil {
			return err
		}
		if parts.TS < since {
			return errFeedDone
		}
		var ev models.GreetingEvent
		if err := unmarshal(v, &ev); err != nil {
			return fmt.Errorf("decode %s: %w", k, err)
		}
		out = append(out, ev)
		if len(out) >= limit {
			return errFeedDone
		}
		return nil
	})
	if err != nil && !errors.Is(err, errFeedDone) {
		return nil, err
	}
	return out, nil
}

// Latest is Stream capped at LatestLimit.
func Latest(r store.Reader, chain string, since int64) ([]models.GreetingEvent, error) {
	return Stream(r, chain, since, LatestLimit)
}

// PruneFeed deletes feed entries older than cutoff across all chains and
// returns how many it removed. The event log and views are never pruned.
func PruneFeed(w store.Writer, cutoff int64) (int, error) {
	var stale [][]byte
	err := w.Scan([]byte(keys.PrefixFeed), func(k, _ []byte) error {
		parts, err := keys.ParseFeedKey(string(k))
		if err != nil {
			return err
		}
		if parts.TS < cutoff {
			stale = append(stale, append([]byte(nil), k...))
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	for _, k := range stale {
		w.Delete(k)
	}
	return len(stale), nil
}
