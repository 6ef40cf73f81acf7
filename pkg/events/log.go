// Package events holds the append-only event log and the views derived from
// it: last-seen timestamps, sent and received views, and the stream feed.
package events

import (
	"fmt"

	"github.com/wuya51/gmic-buildathon/pkg/models"
	"github.com/wuya51/gmic-buildathon/pkg/store"
	"github.com/wuya51/gmic-buildathon/pkg/store/keys"
)

// Append writes one recorded event into every structure this package owns.
// seq must be unique and increasing; the engine uses the new global total.
func Append(w store.Writer, seq uint64, chain string, ev models.GreetingEvent, inviter string) error {
	entry := models.LoggedEvent{Seq: seq, Chain: chain, Event: ev, Inviter: inviter}
	if err := store.SetJSON(w, keys.GenEventLogKey(seq), entry); err != nil {
		return err
	}
	store.SetUint64(w, keys.GenLastSeenKey(chain, ev.Sender), uint64(ev.Timestamp))
	if err := store.SetJSON(w, keys.GenLastPairKey(chain, ev.Sender, ev.Recipient), ev); err != nil {
		return err
	}
	if err := appendView(w, keys.GenSentViewKey(chain, ev.Sender), models.ViewEntry{
		Peer: ev.Recipient, Timestamp: ev.Timestamp, Content: ev.Content,
	}); err != nil {
		return fmt.Errorf("sent view: %w", err)
	}
	if ev.HasRecipient() {
		if err := appendView(w, keys.GenRecvViewKey(chain, ev.Recipient), models.ViewEntry{
			Peer: ev.Sender, Timestamp: ev.Timestamp, Content: ev.Content,
		}); err != nil {
			return fmt.Errorf("received view: %w", err)
		}
	}
	if err := putFeed(w, chain, seq, ev); err != nil {
		return fmt.Errorf("feed: %w", err)
	}
	return nil
}

// LastSeen returns the timestamp of sender's latest event on chain, and
// false if it never sent one.
func LastSeen(r store.Reader, chain, sender string) (int64, bool, error) {
	ts, err := store.GetUint64(r, keys.GenLastSeenKey(chain, sender))
	if err != nil {
		return 0, false, err
	}
	return int64(ts), ts != 0, nil
}

// LastGreeting returns the latest event for (chain, sender, recipient). An
// empty recipient addresses greetings sent without one.
func LastGreeting(r store.Reader, chain, sender, recipient string) (*models.GreetingEvent, error) {
	var ev models.GreetingEvent
	ok, err := store.GetJSON(r, keys.GenLastPairKey(chain, sender, recipient), &ev)
	if err != nil || !ok {
		return nil, err
	}
	return &ev, nil
}

// Logged returns the event log entry with sequence seq, or nil.
func Logged(r store.Reader, seq uint64) (*models.LoggedEvent, error) {
	var e models.LoggedEvent
	ok, err := store.GetJSON(r, keys.GenEventLogKey(seq), &e)
	if err != nil || !ok {
		return nil, err
	}
	return &e, nil
}

// ScanLog visits the event log in sequence order.
func ScanLog(r store.Reader, fn func(models.LoggedEvent) error) error {
	return r.Scan([]byte(keys.PrefixEventLog), func(k, v []byte) error {
		var e models.LoggedEvent
		if err := unmarshal(v, &e); err != nil {
			return fmt.Errorf("decode %s: %w", k, err)
		}
		return fn(e)
	})
}
