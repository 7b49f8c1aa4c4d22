package store

import (
	"github.com/cockroachdb/pebble"

	"teamline/pkg/models"
)

// PushNotification prepends one entry to a user's feed (newest first).
func (s *Store) PushNotification(uid int64, n models.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	var list []models.Notification
	if err := s.getJSON(notifKey(uid), &list); err != nil && err != pebble.ErrNotFound {
		return err
	}
	list = append([]models.Notification{n}, list...)
	return s.setJSON(notifKey(uid), list)
}

// Notifications returns at most max entries of a user's feed, newest
// first.
func (s *Store) Notifications(uid int64, max int) ([]models.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var list []models.Notification
	if err := s.getJSON(notifKey(uid), &list); err != nil {
		if err == pebble.ErrNotFound {
			return []models.Notification{}, nil
		}
		return nil, err
	}
	if max > 0 && len(list) > max {
		list = list[:max]
	}
	return list, nil
}

// PruneNotifications truncates every feed to cap entries. Only the most
// recent cap entries are ever retrievable, so the tail is dead weight the
// janitor trims on its cron.
func (s *Store) PruneNotifications(cap int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	pruned := 0
	err := s.scanPrefix([]byte("notif:"), func(k, v []byte) error {
		var list []models.Notification
		if err := unmarshal(v, &list); err != nil {
			return err
		}
		if len(list) <= cap {
			return nil
		}
		pruned += len(list) - cap
		b, err := marshalJSON(list[:cap])
		if err != nil {
			return err
		}
		return s.db.Set(k, b, pebble.Sync)
	})
	return pruned, err
}
