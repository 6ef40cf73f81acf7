// Package engine is the single entry point for recording greetings and
// reading everything derived from them.
//
// Every write goes through one batch commit, so readers, which go straight
// to the committed database, see a recorded event either completely or not
// at all.
package engine

import (
	"errors"
	"fmt"
	"time"

	"github.com/wuya51/gmic-buildathon/pkg/cooldown"
	"github.com/wuya51/gmic-buildathon/pkg/events"
	"github.com/wuya51/gmic-buildathon/pkg/leaderboard"
	"github.com/wuya51/gmic-buildathon/pkg/logger"
	"github.com/wuya51/gmic-buildathon/pkg/models"
	"github.com/wuya51/gmic-buildathon/pkg/referral"
	"github.com/wuya51/gmic-buildathon/pkg/stats/buckets"
	"github.com/wuya51/gmic-buildathon/pkg/stats/counters"
	"github.com/wuya51/gmic-buildathon/pkg/store/batch"
	"github.com/wuya51/gmic-buildathon/pkg/store/db"
	"github.com/wuya51/gmic-buildathon/pkg/store/locks"
	"github.com/wuya51/gmic-buildathon/pkg/telemetry"
)

// ErrInvalidTimestamp rejects events whose timestamp is not positive.
var ErrInvalidTimestamp = errors.New("invalid timestamp: must be > 0")

const lockEvents = "events"

// Clock returns the current time in microseconds.
type Clock func() int64

func SystemClock() int64 {
	return time.Now().UnixMicro()
}

type Option func(*Engine)

// WithClock replaces the clock used by Now.
func WithClock(c Clock) Option {
	return func(e *Engine) { e.clock = c }
}

type Engine struct {
	db    *db.DB
	locks locks.Keyed
	board *leaderboard.Cache
	clock Clock
}

// New builds an engine over d. Several engines may share a process, each
// with its own database.
func New(d *db.DB, opts ...Option) *Engine {
	e := &Engine{
		db:    d,
		board: leaderboard.New(d),
		clock: SystemClock,
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// DB exposes the underlying database to maintenance tools.
func (e *Engine) DB() *db.DB {
	return e.db
}

// Now is the engine clock in microseconds.
func (e *Engine) Now() int64 {
	return e.clock()
}

// RecordEvent applies ev on chain as one atomic unit: last-seen, views and
// feed, counters, referral and time buckets. inviter is the optional hint
// naming who invited the sender.
//
// Calls are serialized: the global total is shared by every chain.
func (e *Engine) RecordEvent(chain string, ev models.GreetingEvent, inviter string) error {
	_, err := e.record(chain, ev, inviter, false)
	return err
}

// RecordGuarded is RecordEvent behind the cooldown. The sender's status is
// taken at ev.Timestamp under the same lock as the write, so the time that
// is checked is the time that becomes LastSeen. A blocked sender's event is
// not recorded; the returned status says so.
func (e *Engine) RecordGuarded(chain string, ev models.GreetingEvent, inviter string) (models.CooldownStatus, error) {
	return e.record(chain, ev, inviter, true)
}

func (e *Engine) record(chain string, ev models.GreetingEvent, inviter string, guarded bool) (models.CooldownStatus, error) {
	var st models.CooldownStatus
	if ev.Timestamp <= 0 {
		telemetry.InvalidEvent()
		logger.Warn("event_rejected", "reason", "invalid_timestamp", "chain", chain, "sender", ev.Sender, "timestamp", ev.Timestamp)
		return st, ErrInvalidTimestamp
	}

	tr := telemetry.Track("engine.record_event")
	defer tr.Finish()

	unlock := e.locks.Lock(lockEvents)
	defer unlock()
	tr.Mark("lock")

	b := batch.New(e.db)
	if guarded {
		var err error
		if st, err = cooldown.Status(b, chain, ev.Sender, ev.Timestamp); err != nil {
			b.Discard()
			return st, fmt.Errorf("cooldown status: %w", err)
		}
		if st.Blocked {
			b.Discard()
			logger.Info("cooldown_denied", "chain", chain, "sender", ev.Sender, "remaining_us", st.RemainingUS)
			return st, nil
		}
		tr.Mark("cooldown")
	}

	seq, rewarded, err := apply(b, chain, ev, inviter)
	if err != nil {
		b.Discard()
		return st, fmt.Errorf("record event: %w", err)
	}
	tr.Mark("apply")
	if err := b.Commit(); err != nil {
		return st, fmt.Errorf("commit event: %w", err)
	}
	tr.Mark("commit")

	telemetry.EventRecorded(chain)
	logger.Debug("event_recorded", "chain", chain, "sender", ev.Sender, "recipient", ev.Recipient, "seq", seq, "rewarded", rewarded)
	return st, nil
}

func apply(b *batch.Batch, chain string, ev models.GreetingEvent, inviter string) (uint64, string, error) {
	seq, err := counters.Record(b, chain, ev.Sender)
	if err != nil {
		return 0, "", err
	}
	rewarded, err := referral.Apply(b, ev.Sender, inviter, ev.Timestamp)
	if err != nil {
		return 0, "", fmt.Errorf("referral: %w", err)
	}
	if err := events.Append(b, seq, chain, ev, rewarded); err != nil {
		return 0, "", err
	}
	if err := buckets.Record(b, chain, ev.Timestamp); err != nil {
		return 0, "", err
	}
	return seq, rewarded, nil
}

// PruneFeed removes stream feed entries older than cutoff.
func (e *Engine) PruneFeed(cutoff int64) (int, error) {
	unlock := e.locks.Lock(lockEvents)
	defer unlock()

	b := batch.New(e.db)
	n, err := events.PruneFeed(b, cutoff)
	if err != nil {
		b.Discard()
		return 0, err
	}
	if err := b.Commit(); err != nil {
		return 0, err
	}
	telemetry.FeedPruned(n)
	return n, nil
}

// StaleFeed counts the feed entries PruneFeed would remove at cutoff.
func (e *Engine) StaleFeed(cutoff int64) (int, error) {
	b := batch.New(e.db)
	defer b.Discard()
	return events.PruneFeed(b, cutoff)
}
