// Package rank orders scan results for leaderboards.
package rank

import (
	"sort"

	"github.com/wuya51/gmic-buildathon/pkg/models"
)

// Sort orders entries by count, descending. Ties keep their input order,
// which for scans is key order.
func Sort(entries []models.RankEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Count > entries[j].Count
	})
}

// Top returns the first limit entries. limit <= 0 returns all of them.
func Top(entries []models.RankEntry, limit int) []models.RankEntry {
	if limit <= 0 || limit >= len(entries) {
		out := make([]models.RankEntry, len(entries))
		copy(out, entries)
		return out
	}
	out := make([]models.RankEntry, limit)
	copy(out, entries[:limit])
	return out
}

// Position is the 1-based position of id in sorted entries, or 0.
func Position(entries []models.RankEntry, id string) uint64 {
	for i, e := range entries {
		if e.ID == id {
			return uint64(i + 1)
		}
	}
	return 0
}
