package engine

import (
	"github.com/wuya51/gmic-buildathon/pkg/cooldown"
	"github.com/wuya51/gmic-buildathon/pkg/logger"
	"github.com/wuya51/gmic-buildathon/pkg/models"
	"github.com/wuya51/gmic-buildathon/pkg/profiles"
	"github.com/wuya51/gmic-buildathon/pkg/store/batch"
	"github.com/wuya51/gmic-buildathon/pkg/telemetry"
)

const (
	lockCooldown  = "cooldown:enabled"
	lockAllowList = "cooldown:allow:"
	lockProfile   = "profile:"
)

// IsAuthorized reports whether identity may run administrative actions.
func (e *Engine) IsAuthorized(identity string) (bool, error) {
	return cooldown.IsAuthorized(e.db, identity)
}

// authorize returns false, and counts the denial, when caller is not
// authorized for action.
func (e *Engine) authorize(caller, action string) (bool, error) {
	ok, err := e.IsAuthorized(caller)
	if err != nil {
		return false, err
	}
	if !ok {
		telemetry.AdminDenied(action)
		logger.Info("admin_denied", "action", action, "caller", caller)
	}
	return ok, nil
}

// commit runs fn in its own batch and commits it.
func (e *Engine) commit(fn func(b *batch.Batch) error) error {
	b := batch.New(e.db)
	if err := fn(b); err != nil {
		b.Discard()
		return err
	}
	return b.Commit()
}

// SetCooldownEnabled toggles the cooldown. granted is false, with nothing
// changed, when caller is not authorized.
func (e *Engine) SetCooldownEnabled(caller string, enabled bool) (bool, error) {
	unlock := e.locks.Lock(lockCooldown)
	defer unlock()

	if ok, err := e.authorize(caller, "set_cooldown"); err != nil || !ok {
		return false, err
	}
	err := e.commit(func(b *batch.Batch) error {
		cooldown.SetEnabled(b, enabled)
		return nil
	})
	if err != nil {
		return false, err
	}
	logger.Info("cooldown_set", "caller", caller, "enabled", enabled)
	return true, nil
}

// AddAllowList puts target on the allow-list.
func (e *Engine) AddAllowList(caller, target string) (bool, error) {
	unlock := e.locks.Lock(lockAllowList + target)
	defer unlock()

	if ok, err := e.authorize(caller, "allow_list_add"); err != nil || !ok {
		return false, err
	}
	err := e.commit(func(b *batch.Batch) error {
		cooldown.Allow(b, target)
		return nil
	})
	if err != nil {
		return false, err
	}
	logger.Info("allow_list_added", "caller", caller, "target", target)
	return true, nil
}

// RemoveAllowList takes target off the allow-list.
func (e *Engine) RemoveAllowList(caller, target string) (bool, error) {
	unlock := e.locks.Lock(lockAllowList + target)
	defer unlock()

	if ok, err := e.authorize(caller, "allow_list_remove"); err != nil || !ok {
		return false, err
	}
	err := e.commit(func(b *batch.Batch) error {
		cooldown.Disallow(b, target)
		return nil
	})
	if err != nil {
		return false, err
	}
	logger.Info("allow_list_removed", "caller", caller, "target", target)
	return true, nil
}

// Bootstrap seeds the allow-list with admins and turns the cooldown off,
// but only while the allow-list is empty. It reports whether it did.
func (e *Engine) Bootstrap(admins []string) (bool, error) {
	if len(admins) == 0 {
		return false, nil
	}
	unlock := e.locks.Lock(lockCooldown)
	defer unlock()

	current, err := cooldown.AllowList(e.db)
	if err != nil {
		return false, err
	}
	if len(current) > 0 {
		return false, nil
	}
	err = e.commit(func(b *batch.Batch) error {
		for _, id := range admins {
			cooldown.Allow(b, id)
		}
		cooldown.SetEnabled(b, false)
		return nil
	})
	if err != nil {
		return false, err
	}
	logger.Info("allow_list_bootstrapped", "admins", len(admins))
	return true, nil
}

// SetProfile updates the given fields of identity's profile. Nil fields
// are left as they were.
func (e *Engine) SetProfile(identity string, name, avatar *string) (models.Profile, error) {
	unlock := e.locks.Lock(lockProfile + identity)
	defer unlock()

	var p models.Profile
	err := e.commit(func(b *batch.Batch) error {
		var err error
		p, err = profiles.Set(b, identity, name, avatar)
		return err
	})
	if err != nil {
		return models.Profile{}, err
	}
	return p, nil
}
