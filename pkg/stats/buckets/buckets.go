// Package buckets keeps per-chain event counts in hourly, daily and
// monthly buckets. A bucket index is timestamp_micros / granularity_micros.
package buckets

import (
	"fmt"

	"github.com/wuya51/gmic-buildathon/pkg/models"
	"github.com/wuya51/gmic-buildathon/pkg/store"
	"github.com/wuya51/gmic-buildathon/pkg/store/keys"
)

type Granularity int

const (
	Hour Granularity = iota
	Day
	Month
)

const (
	MicrosPerSecond = int64(1_000_000)
	HourMicros      = 3600 * MicrosPerSecond
	DayMicros       = 86400 * MicrosPerSecond
	MonthMicros     = 30 * DayMicros
)

// Micros is the width of one bucket in microseconds.
func (g Granularity) Micros() int64 {
	switch g {
	case Hour:
		return HourMicros
	case Month:
		return MonthMicros
	default:
		return DayMicros
	}
}

func (g Granularity) String() string {
	switch g {
	case Hour:
		return "hourly"
	case Month:
		return "monthly"
	default:
		return "daily"
	}
}

// ParseGranularity accepts hourly, daily or monthly (and hour/day/month).
func ParseGranularity(s string) (Granularity, error) {
	switch s {
	case "hourly", "hour":
		return Hour, nil
	case "daily", "day":
		return Day, nil
	case "monthly", "month":
		return Month, nil
	}
	return Day, fmt.Errorf("unknown granularity %q", s)
}

func (g Granularity) key(chain string, bucket uint64) string {
	switch g {
	case Hour:
		return keys.GenBucketHourKey(chain, bucket)
	case Month:
		return keys.GenBucketMonthKey(chain, bucket)
	default:
		return keys.GenBucketDayKey(chain, bucket)
	}
}

// Index returns the bucket a timestamp falls in. Callers guarantee ts > 0.
func Index(ts int64, g Granularity) uint64 {
	return uint64(ts / g.Micros())
}

// Record increments the hour, day and month buckets for ts on chain.
func Record(w store.Writer, chain string, ts int64) error {
	for _, g := range []Granularity{Hour, Day, Month} {
		if _, err := store.AddUint64(w, g.key(chain, Index(ts, g)), 1); err != nil {
			return fmt.Errorf("bump %s bucket: %w", g, err)
		}
	}
	return nil
}

// Count returns the count of a single bucket (0 if never written).
func Count(r store.Reader, chain string, bucket uint64, g Granularity) (uint64, error) {
	return store.GetUint64(r, g.key(chain, bucket))
}

// Range returns one entry per bucket in [start, end], absent buckets as 0.
// An inverted range yields no entries.
func Range(r store.Reader, chain string, start, end uint64, g Granularity) ([]models.TimeStat, error) {
	if start > end {
		return []models.TimeStat{}, nil
	}
	out := make([]models.TimeStat, 0, end-start+1)
	for b := start; ; b++ {
		n, err := Count(r, chain, b, g)
		if err != nil {
			return nil, err
		}
		out = append(out, models.TimeStat{Time: b, Count: n})
		if b == end {
			break
		}
	}
	return out, nil
}

// TrendWindow converts now (microseconds) and a period in days into the
// inclusive day range [end-period, end]. The start saturates at day 0.
func TrendWindow(now int64, periodDays uint64) (startDay, endDay uint64) {
	if now < 0 {
		now = 0
	}
	endDay = uint64(now/MicrosPerSecond) / 86400
	if periodDays > endDay {
		return 0, endDay
	}
	return endDay - periodDays, endDay
}

// MessageTrend returns daily counts for chain over the last periodDays days.
func MessageTrend(r store.Reader, chain string, periodDays uint64, now int64) ([]models.TimeStat, error) {
	start, end := TrendWindow(now, periodDays)
	return Range(r, chain, start, end, Day)
}
