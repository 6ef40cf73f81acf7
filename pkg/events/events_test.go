package events

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wuya51/gmic-buildathon/pkg/models"
	"github.com/wuya51/gmic-buildathon/pkg/stats/buckets"
	"github.com/wuya51/gmic-buildathon/pkg/store"
	"github.com/wuya51/gmic-buildathon/pkg/store/batch"
	"github.com/wuya51/gmic-buildathon/pkg/store/db"
	"github.com/wuya51/gmic-buildathon/pkg/store/storetest"
)

func text(s string) models.Content {
	return models.Content{Kind: models.KindText, Payload: s}
}

func appendAll(t *testing.T, d *db.DB, chain string, evs ...models.GreetingEvent) {
	t.Helper()
	storetest.Commit(t, d, func(b *batch.Batch) {
		for i, ev := range evs {
			require.NoError(t, Append(b, uint64(i+1), chain, ev, ""))
		}
	})
}

func TestViewsNewestFirst(t *testing.T) {
	d := storetest.OpenMem(t)
	appendAll(t, d, "c",
		models.GreetingEvent{Sender: "s", Recipient: "r", Timestamp: 1_000_000, Content: text("one")},
		models.GreetingEvent{Sender: "s", Recipient: "r", Timestamp: 3_000_000, Content: text("three")},
		models.GreetingEvent{Sender: "s", Timestamp: 2_000_000, Content: text("two")},
	)

	sent, err := Sent(d, "c", "s")
	require.NoError(t, err)
	require.Len(t, sent, 3)
	assert.Equal(t, []int64{3_000_000, 2_000_000, 1_000_000},
		[]int64{sent[0].Timestamp, sent[1].Timestamp, sent[2].Timestamp})
	assert.Equal(t, "r", sent[0].Peer)
	assert.Empty(t, sent[1].Peer)

	recv, err := Received(d, "c", "r")
	require.NoError(t, err)
	require.Len(t, recv, 2)
	assert.Equal(t, "s", recv[0].Peer)
	assert.Equal(t, "three", recv[0].Content.Payload)

	none, err := Received(d, "c", "s")
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

func TestViewTiesKeepInsertionOrder(t *testing.T) {
	d := storetest.OpenMem(t)
	appendAll(t, d, "c",
		models.GreetingEvent{Sender: "s", Timestamp: 5, Content: text("first")},
		models.GreetingEvent{Sender: "s", Timestamp: 5, Content: text("second")},
		models.GreetingEvent{Sender: "s", Timestamp: 9, Content: text("newest")},
	)
	sent, err := Sent(d, "c", "s")
	require.NoError(t, err)
	require.Len(t, sent, 3)
	assert.Equal(t, "newest", sent[0].Content.Payload)
	assert.Equal(t, "first", sent[1].Content.Payload)
	assert.Equal(t, "second", sent[2].Content.Payload)
}

func TestLastSeenAndLastGreeting(t *testing.T) {
	d := storetest.OpenMem(t)

	_, ok, err := LastSeen(d, "c", "s")
	require.NoError(t, err)
	assert.False(t, ok)

	appendAll(t, d, "c",
		models.GreetingEvent{Sender: "s", Recipient: "r", Timestamp: 10, Content: text("a")},
		models.GreetingEvent{Sender: "s", Recipient: "r", Timestamp: 20, Content: text("b")},
		models.GreetingEvent{Sender: "s", Timestamp: 30, Content: text("c")},
	)

	ts, ok, err := LastSeen(d, "c", "s")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, int64(30), ts)

	ev, err := LastGreeting(d, "c", "s", "r")
	require.NoError(t, err)
	require.NotNil(t, ev)
	assert.Equal(t, "b", ev.Content.Payload)

	ev, err = LastGreeting(d, "c", "s", "")
	require.NoError(t, err)
	require.NotNil(t, ev)
	assert.Equal(t, "c", ev.Content.Payload)

	ev, err = LastGreeting(d, "other", "s", "r")
	require.NoError(t, err)
	assert.Nil(t, ev)
}

func TestEventLog(t *testing.T) {
	d := storetest.OpenMem(t)
	storetest.Commit(t, d, func(b *batch.Batch) {
		require.NoError(t, Append(b, 1, "c", models.GreetingEvent{Sender: "s", Timestamp: 10}, "inv"))
		require.NoError(t, Append(b, 2, "d", models.GreetingEvent{Sender: "t", Timestamp: 20}, ""))
	})

	e, err := Logged(d, 1)
	require.NoError(t, err)
	require.NotNil(t, e)
	assert.Equal(t, "inv", e.Inviter)
	assert.Equal(t, "c", e.Chain)

	missing, err := Logged(d, 99)
	require.NoError(t, err)
	assert.Nil(t, missing)

	var seqs []uint64
	require.NoError(t, ScanLog(d, func(e models.LoggedEvent) error {
		seqs = append(seqs, e.Seq)
		return nil
	}))
	assert.Equal(t, []uint64{1, 2}, seqs)
}

func TestStreamAndPrune(t *testing.T) {
	d := storetest.OpenMem(t)
	var evs []models.GreetingEvent
	for i := 1; i <= 120; i++ {
		evs = append(evs, models.GreetingEvent{Sender: "s", Timestamp: int64(i * 1000), Content: text("x")})
	}
	appendAll(t, d, "c", evs...)
	appendAll(t, d, "other", models.GreetingEvent{Sender: "s", Timestamp: 1})

	got, err := Stream(d, "c", 0, 0)
	require.NoError(t, err)
	require.Len(t, got, DefaultStreamLimit)
	assert.Equal(t, int64(120_000), got[0].Timestamp)
	assert.Equal(t, int64(21_000), got[len(got)-1].Timestamp)

	got, err = Stream(d, "c", 118_000, 10)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, int64(118_000), got[2].Timestamp)

	latest, err := Latest(d, "c", 0)
	require.NoError(t, err)
	assert.Len(t, latest, LatestLimit)

	storetest.Commit(t, d, func(b *batch.Batch) {
		n, err := PruneFeed(b, 100_000)
		require.NoError(t, err)
		assert.Equal(t, 100, n) // 99 on c plus the one on other
	})

	got, err = Stream(d, "c", 0, 1000)
	require.NoError(t, err)
	assert.Len(t, got, 21)

	// the views are untouched by pruning
	sent, err := Sent(d, "c", "s")
	require.NoError(t, err)
	assert.Len(t, sent, 120)
}

// countingReader counts the entries a reverse scan hands out.
type countingReader struct {
	store.Reader
	visited int
}

func (c *countingReader) ScanReverse(prefix []byte, fn func(k, v []byte) error) error {
	return c.Reader.ScanReverse(prefix, func(k, v []byte) error {
		c.visited++
		return fn(k, v)
	})
}

func TestStreamStopsEarly(t *testing.T) {
	d := storetest.OpenMem(t)
	var evs []models.GreetingEvent
	for i := 1; i <= 500; i++ {
		evs = append(evs, models.GreetingEvent{Sender: "s", Timestamp: int64(i), Content: text("x")})
	}
	appendAll(t, d, "c", evs...)

	r := &countingReader{Reader: d}
	got, err := Stream(r, "c", 0, 5)
	require.NoError(t, err)
	require.Len(t, got, 5)
	assert.Equal(t, int64(500), got[0].Timestamp)
	assert.Equal(t, 5, r.visited)

	r.visited = 0
	got, err = Stream(r, "c", 498, 10)
	require.NoError(t, err)
	assert.Len(t, got, 3)
	assert.Equal(t, 4, r.visited, "stops at the first entry older than since")

	got, err = Stream(d, "empty", 0, 10)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestActivityTrend(t *testing.T) {
	d := storetest.OpenMem(t)
	day := buckets.DayMicros
	storetest.Commit(t, d, func(b *batch.Batch) {
		require.NoError(t, Append(b, 1, "c1", models.GreetingEvent{Sender: "s", Timestamp: 3 * day}, ""))
		require.NoError(t, Append(b, 2, "c2", models.GreetingEvent{Sender: "s", Timestamp: 3*day + 5}, ""))
		require.NoError(t, Append(b, 3, "c1", models.GreetingEvent{Sender: "t", Timestamp: 4 * day}, ""))
		require.NoError(t, Append(b, 4, "c1", models.GreetingEvent{Sender: "s", Timestamp: 5 * day}, ""))
		require.NoError(t, Append(b, 5, "c1", models.GreetingEvent{Sender: "s", Timestamp: day}, ""))
	})

	got, err := ActivityTrend(d, "s", 2, 5*day+1)
	require.NoError(t, err)
	assert.Equal(t, []models.TimeStat{
		{Time: 3, Count: 2},
		{Time: 4, Count: 0},
		{Time: 5, Count: 1},
	}, got)
}
