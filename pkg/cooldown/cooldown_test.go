package cooldown

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wuya51/gmic-buildathon/pkg/events"
	"github.com/wuya51/gmic-buildathon/pkg/models"
	"github.com/wuya51/gmic-buildathon/pkg/store/batch"
	"github.com/wuya51/gmic-buildathon/pkg/store/storetest"
)

func TestDisabledByDefault(t *testing.T) {
	d := storetest.OpenMem(t)
	on, err := Enabled(d)
	require.NoError(t, err)
	assert.False(t, on)

	storetest.Commit(t, d, func(b *batch.Batch) {
		require.NoError(t, events.Append(b, 1, "c", models.GreetingEvent{Sender: "s", Timestamp: 1_000}, ""))
	})
	blocked, remaining, err := Check(d, "c", "s", 2_000)
	require.NoError(t, err)
	assert.False(t, blocked)
	assert.Zero(t, remaining)
}

func TestWindow(t *testing.T) {
	d := storetest.OpenMem(t)
	storetest.Commit(t, d, func(b *batch.Batch) { SetEnabled(b, true) })

	blocked, _, err := Check(d, "c", "s", 5_000_000)
	require.NoError(t, err)
	assert.False(t, blocked, "no prior event")

	last := int64(1_000_000)
	storetest.Commit(t, d, func(b *batch.Batch) {
		require.NoError(t, events.Append(b, 1, "c", models.GreetingEvent{Sender: "s", Timestamp: last}, ""))
	})

	tests := []struct {
		name      string
		chain     string
		now       int64
		blocked   bool
		remaining int64
	}{
		{"just after", "c", last + 1, true, Window - 1},
		{"one before window end", "c", last + Window - 1, true, 1},
		{"exactly at window", "c", last + Window, false, 0},
		{"after window", "c", last + 2*Window, false, 0},
		{"other chain", "d", last + 1, false, 0},
		{"same instant", "c", last, true, Window},
		{"before last event", "c", last - 1, true, Window},
		{"long before last event", "c", last - 30*Window, true, Window},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			blocked, remaining, err := Check(d, tt.chain, "s", tt.now)
			require.NoError(t, err)
			assert.Equal(t, tt.blocked, blocked)
			assert.Equal(t, tt.remaining, remaining)
		})
	}
}

func TestAllowList(t *testing.T) {
	d := storetest.OpenMem(t)
	storetest.Commit(t, d, func(b *batch.Batch) {
		Allow(b, "admin")
		Allow(b, "bob")
		SetEnabled(b, true)
	})

	ok, err := IsAuthorized(d, "admin")
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = IsAuthorized(d, "mallory")
	require.NoError(t, err)
	assert.False(t, ok)

	list, err := AllowList(d)
	require.NoError(t, err)
	assert.Equal(t, []string{"admin", "bob"}, list)

	storetest.Commit(t, d, func(b *batch.Batch) { Disallow(b, "bob") })
	list, err = AllowList(d)
	require.NoError(t, err)
	assert.Equal(t, []string{"admin"}, list)
}

func TestStatus(t *testing.T) {
	d := storetest.OpenMem(t)
	storetest.Commit(t, d, func(b *batch.Batch) {
		require.NoError(t, events.Append(b, 1, "c", models.GreetingEvent{Sender: "s", Timestamp: 100}, ""))
		require.NoError(t, events.Append(b, 2, "c", models.GreetingEvent{Sender: "admin", Timestamp: 100}, ""))
		Allow(b, "admin")
	})

	st, err := Status(d, "c", "s", 200)
	require.NoError(t, err)
	assert.Equal(t, models.CooldownStatus{}, st)

	storetest.Commit(t, d, func(b *batch.Batch) { SetEnabled(b, true) })

	st, err = Status(d, "c", "s", 200)
	require.NoError(t, err)
	assert.Equal(t, models.CooldownStatus{Enabled: true, Blocked: true, RemainingUS: Window - 100}, st)

	st, err = Status(d, "c", "admin", 200)
	require.NoError(t, err)
	assert.Equal(t, models.CooldownStatus{Enabled: true, Exempt: true}, st)

	// a clock behind the last event reports one full window, not more
	st, err = Status(d, "c", "s", 50)
	require.NoError(t, err)
	assert.Equal(t, models.CooldownStatus{Enabled: true, Blocked: true, RemainingUS: Window}, st)
}
