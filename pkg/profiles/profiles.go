package profiles

import (
	"github.com/wuya51/gmic-buildathon/pkg/models"
	"github.com/wuya51/gmic-buildathon/pkg/store"
	"github.com/wuya51/gmic-buildathon/pkg/store/keys"
)

// Get returns identity's profile, empty if never set.
func Get(r store.Reader, identity string) (models.Profile, error) {
	var p models.Profile
	if _, err := store.GetJSON(r, keys.GenProfileKey(identity), &p); err != nil {
		return models.Profile{}, err
	}
	return p, nil
}

// Set overwrites the fields that are non-nil and keeps the others.
func Set(w store.Writer, identity string, name, avatar *string) (models.Profile, error) {
	p, err := Get(w, identity)
	if err != nil {
		return models.Profile{}, err
	}
	if name != nil {
		v := *name
		p.Name = &v
	}
	if avatar != nil {
		v := *avatar
		p.Avatar = &v
	}
	if err := store.SetJSON(w, keys.GenProfileKey(identity), p); err != nil {
		return models.Profile{}, err
	}
	return p, nil
}
