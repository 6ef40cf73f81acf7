package events

import (
	"github.com/wuya51/gmic-buildathon/pkg/models"
	"github.com/wuya51/gmic-buildathon/pkg/stats/buckets"
	"github.com/wuya51/gmic-buildathon/pkg/store"
)

// ActivityTrend counts identity's sent greetings per day, across every
// chain, over the last periodDays days. One entry per day, gaps as 0.
func ActivityTrend(r store.Reader, identity string, periodDays uint64, now int64) ([]models.TimeStat, error) {
	start, end := buckets.TrendWindow(now, periodDays)
	out := make([]models.TimeStat, 0, end-start+1)
	for d := start; d <= end; d++ {
		out = append(out, models.TimeStat{Time: d})
	}
	err := ScanLog(r, func(e models.LoggedEvent) error {
		if e.Event.Sender != identity {
			return nil
		}
		d := buckets.Index(e.Event.Timestamp, buckets.Day)
		if d >= start && d <= end {
			out[d-start].Count++
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
