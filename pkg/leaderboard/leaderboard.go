// Package leaderboard serves top-N rankings from a cache that is persisted
// next to the counters and recomputed lazily once it is an hour old.
package leaderboard

import (
	"fmt"
	"sync"
	"time"

	"github.com/wuya51/gmic-buildathon/pkg/logger"
	"github.com/wuya51/gmic-buildathon/pkg/models"
	"github.com/wuya51/gmic-buildathon/pkg/stats/counters"
	"github.com/wuya51/gmic-buildathon/pkg/stats/rank"
	"github.com/wuya51/gmic-buildathon/pkg/store"
	"github.com/wuya51/gmic-buildathon/pkg/store/batch"
	"github.com/wuya51/gmic-buildathon/pkg/store/db"
	"github.com/wuya51/gmic-buildathon/pkg/store/keys"
	"github.com/wuya51/gmic-buildathon/pkg/telemetry"
)

// TTL is how long a computed leaderboard is served, in microseconds.
const TTL = int64(time.Hour / time.Microsecond)

const (
	BoardIdentities = "identities"
	BoardChains     = "chains"
)

// Snapshot is the cached state: both boards share one generation time.
type Snapshot struct {
	Identities  []models.RankEntry `json:"identities"`
	Chains      []models.RankEntry `json:"chains"`
	GeneratedAt int64              `json:"generated_at"`
}

// Cache owns the persisted leaderboard of one database. Refreshes are
// serialized by the cache itself.
type Cache struct {
	db *db.DB
	mu sync.Mutex
}

func New(d *db.DB) *Cache {
	return &Cache{db: d}
}

// Fresh reports whether a cache generated at generatedAt is still valid at
// now. A generation time in the future counts as expired.
func Fresh(generatedAt, now int64) bool {
	age := now - generatedAt
	return age >= 0 && age < TTL
}

// TopIdentities returns the first limit identities by message count.
func (c *Cache) TopIdentities(limit int, now int64) ([]models.RankEntry, error) {
	return c.top(BoardIdentities, limit, now)
}

// TopChains returns the first limit chains by message count.
func (c *Cache) TopChains(limit int, now int64) ([]models.RankEntry, error) {
	return c.top(BoardChains, limit, now)
}

func (c *Cache) top(board string, limit int, now int64) ([]models.RankEntry, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	snap, err := Load(c.db)
	if err != nil {
		return nil, err
	}
	seq := snap.Identities
	if board == BoardChains {
		seq = snap.Chains
	}
	if len(seq) > 0 && Fresh(snap.GeneratedAt, now) {
		return rank.Top(seq, limit), nil
	}

	snap, err = c.refresh(board, now)
	if err != nil {
		return nil, err
	}
	seq = snap.Identities
	if board == BoardChains {
		seq = snap.Chains
	}
	return rank.Top(seq, limit), nil
}

// refresh recomputes both boards from the counters and stores them.
func (c *Cache) refresh(trigger string, now int64) (Snapshot, error) {
	tr := telemetry.Track("leaderboard.refresh")
	defer tr.Finish()

	ids, err := Compute(c.db, BoardIdentities)
	if err != nil {
		return Snapshot{}, err
	}
	chains, err := Compute(c.db, BoardChains)
	if err != nil {
		return Snapshot{}, err
	}
	tr.Mark("scan")

	snap := Snapshot{Identities: ids, Chains: chains, GeneratedAt: now}
	b := batch.New(c.db)
	if err := store.SetJSON(b, keys.LeaderboardIdentities, snap.Identities); err != nil {
		b.Discard()
		return Snapshot{}, err
	}
	if err := store.SetJSON(b, keys.LeaderboardChains, snap.Chains); err != nil {
		b.Discard()
		return Snapshot{}, err
	}
	store.SetUint64(b, keys.LeaderboardAt, uint64(now))
	if err := b.Commit(); err != nil {
		return Snapshot{}, fmt.Errorf("store leaderboard: %w", err)
	}
	tr.Mark("store")

	telemetry.LeaderboardRecomputed(trigger)
	logger.Debug("leaderboard_recomputed", "trigger", trigger, "identities", len(ids), "chains", len(chains))
	return snap, nil
}

// Load reads the persisted snapshot; an empty one if none was stored.
func Load(r store.Reader) (Snapshot, error) {
	var snap Snapshot
	if _, err := store.GetJSON(r, keys.LeaderboardIdentities, &snap.Identities); err != nil {
		return Snapshot{}, err
	}
	if _, err := store.GetJSON(r, keys.LeaderboardChains, &snap.Chains); err != nil {
		return Snapshot{}, err
	}
	at, err := store.GetUint64(r, keys.LeaderboardAt)
	if err != nil {
		return Snapshot{}, err
	}
	snap.GeneratedAt = int64(at)
	return snap, nil
}

// Compute scans the counters behind board and sorts them. Ties keep key
// order.
func Compute(r store.Reader, board string) ([]models.RankEntry, error) {
	var (
		entries []models.RankEntry
		err     error
	)
	switch board {
	case BoardIdentities:
		entries, err = counters.Identities(r)
	case BoardChains:
		entries, err = counters.Chains(r)
	default:
		return nil, fmt.Errorf("unknown board %q", board)
	}
	if err != nil {
		return nil, err
	}
	rank.Sort(entries)
	return entries, nil
}

// RankOf is identity's 1-based rank by message count from a fresh scan, or
// 0 if it never sent anything. The cache is not consulted.
func RankOf(r store.Reader, identity string) (uint64, error) {
	entries, err := Compute(r, BoardIdentities)
	if err != nil {
		return 0, err
	}
	return rank.Position(entries, identity), nil
}
