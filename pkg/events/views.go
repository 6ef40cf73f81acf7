package events

import (
	"sort"

	"github.com/wuya51/gmic-buildathon/pkg/models"
	"github.com/wuya51/gmic-buildathon/pkg/store"
	"github.com/wuya51/gmic-buildathon/pkg/store/keys"
)

// appendView adds e and re-sorts newest first. Equal timestamps keep
// insertion order.
func appendView(w store.Writer, key string, e models.ViewEntry) error {
	var view []models.ViewEntry
	if _, err := store.GetJSON(w, key, &view); err != nil {
		return err
	}
	view = append(view, e)
	sort.SliceStable(view, func(i, j int) bool {
		return view[i].Timestamp > view[j].Timestamp
	})
	return store.SetJSON(w, key, view)
}

func readView(r store.Reader, key string) ([]models.ViewEntry, error) {
	view := []models.ViewEntry{}
	if _, err := store.GetJSON(r, key, &view); err != nil {
		return nil, err
	}
	return view, nil
}

// Sent returns the greetings sender sent on chain, newest first.
func Sent(r store.Reader, chain, sender string) ([]models.ViewEntry, error) {
	return readView(r, keys.GenSentViewKey(chain, sender))
}

// Received returns the greetings recipient received on chain, newest first.
func Received(r store.Reader, chain, recipient string) ([]models.ViewEntry, error) {
	return readView(r, keys.GenRecvViewKey(chain, recipient))
}
