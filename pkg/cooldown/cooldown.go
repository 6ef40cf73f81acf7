// Package cooldown is the rate-limit guard: a global on/off flag, a fixed
// 24h window per (chain, sender) and an allow-list that is both exempt from
// the window and authorized to administer it.
package cooldown

import (
	"github.com/wuya51/gmic-buildathon/pkg/events"
	"github.com/wuya51/gmic-buildathon/pkg/models"
	"github.com/wuya51/gmic-buildathon/pkg/store"
	"github.com/wuya51/gmic-buildathon/pkg/store/keys"
)

// Window is the cooldown length in microseconds.
const Window = int64(24 * 60 * 60 * 1_000_000)

// Enabled reports the cooldown flag. It is off until someone turns it on.
func Enabled(r store.Reader) (bool, error) {
	return store.GetBool(r, keys.CooldownEnabled)
}

func SetEnabled(w store.Writer, enabled bool) {
	store.SetBool(w, keys.CooldownEnabled, enabled)
}

func IsAllowListed(r store.Reader, identity string) (bool, error) {
	return store.GetBool(r, keys.GenAllowListKey(identity))
}

// IsAuthorized is the single check guarding every administrative action.
// Today it is allow-list membership.
func IsAuthorized(r store.Reader, identity string) (bool, error) {
	return IsAllowListed(r, identity)
}

func Allow(w store.Writer, identity string) {
	store.SetBool(w, keys.GenAllowListKey(identity), true)
}

func Disallow(w store.Writer, identity string) {
	w.Delete([]byte(keys.GenAllowListKey(identity)))
}

// AllowList returns every allow-listed identity in key order.
func AllowList(r store.Reader) ([]string, error) {
	out := []string{}
	err := r.Scan([]byte(keys.PrefixAllowList), func(k, v []byte) error {
		if len(v) != 1 || v[0] != 1 {
			return nil
		}
		id, err := keys.ParseAllowListKey(string(k))
		if err != nil {
			return err
		}
		out = append(out, id)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Check reports whether sender is blocked on chain at now and, if so, how
// many microseconds remain. The allow-list is not consulted here; callers
// that exempt allow-listed senders use Status.
//
// A now earlier than the last event counts as still inside the window, and
// the remaining wait never exceeds Window.
func Check(r store.Reader, chain, sender string, now int64) (bool, int64, error) {
	on, err := Enabled(r)
	if err != nil || !on {
		return false, 0, err
	}
	last, ok, err := events.LastSeen(r, chain, sender)
	if err != nil || !ok {
		return false, 0, err
	}
	elapsed := now - last
	if elapsed < 0 {
		return true, Window, nil
	}
	if elapsed < Window {
		return true, Window - elapsed, nil
	}
	return false, 0, nil
}

// Status is Check plus the flag and the allow-list exemption.
func Status(r store.Reader, chain, sender string, now int64) (models.CooldownStatus, error) {
	on, err := Enabled(r)
	if err != nil {
		return models.CooldownStatus{}, err
	}
	st := models.CooldownStatus{Enabled: on}
	if !on {
		return st, nil
	}
	exempt, err := IsAllowListed(r, sender)
	if err != nil {
		return models.CooldownStatus{}, err
	}
	if exempt {
		st.Exempt = true
		return st, nil
	}
	blocked, remaining, err := Check(r, chain, sender, now)
	if err != nil {
		return models.CooldownStatus{}, err
	}
	st.Blocked = blocked
	st.RemainingUS = remaining
	return st, nil
}
