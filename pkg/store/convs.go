package store

import (
	"github.com/cockroachdb/pebble"

	"teamline/pkg/apperr"
	"teamline/pkg/models"
)

// CreateChannel assigns the next channel id and writes the record.
func (s *Store) CreateChannel(ch models.Channel) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, err := s.nextSeq("channel")
	if err != nil {
		return 0, err
	}
	ch.ID = id
	if err := s.setJSON(channelKey(id), ch); err != nil {
		return 0, err
	}
	return id, nil
}

// CreateDm assigns the next DM id and writes the record.
func (s *Store) CreateDm(dm models.Dm) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, err := s.nextSeq("dm")
	if err != nil {
		return 0, err
	}
	dm.ID = id
	if err := s.setJSON(dmKey(id), dm); err != nil {
		return 0, err
	}
	return id, nil
}

// Channel returns the channel record for id.
func (s *Store) Channel(id int64) (models.Channel, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.channel(id)
}

func (s *Store) channel(id int64) (models.Channel, error) {
	var ch models.Channel
	if err := s.getJSON(channelKey(id), &ch); err != nil {
		if err == pebble.ErrNotFound {
			return ch, apperr.NotFoundf("channel %d not found", id)
		}
		return ch, err
	}
	return ch, nil
}

// Dm returns the DM record for id.
func (s *Store) Dm(id int64) (models.Dm, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dm(id)
}

func (s *Store) dm(id int64) (models.Dm, error) {
	var dm models.Dm
	if err := s.getJSON(dmKey(id), &dm); err != nil {
		if err == pebble.ErrNotFound {
			return dm, apperr.NotFoundf("dm %d not found", id)
		}
		return dm, err
	}
	return dm, nil
}

// UpdateChannel applies fn to the channel record under the store lock.
func (s *Store) UpdateChannel(id int64, fn func(*models.Channel) error) (models.Channel, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ch, err := s.channel(id)
	if err != nil {
		return ch, err
	}
	if err := fn(&ch); err != nil {
		return ch, err
	}
	ch.ID = id
	return ch, s.setJSON(channelKey(id), ch)
}

// UpdateDm applies fn to the DM record under the store lock.
func (s *Store) UpdateDm(id int64, fn func(*models.Dm) error) (models.Dm, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	dm, err := s.dm(id)
	if err != nil {
		return dm, err
	}
	if err := fn(&dm); err != nil {
		return dm, err
	}
	dm.ID = id
	return dm, s.setJSON(dmKey(id), dm)
}

// Channels returns every channel in id order.
func (s *Store) Channels() ([]models.Channel, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Channel
	err := s.scanPrefix([]byte("channel:"), func(_, v []byte) error {
		var ch models.Channel
		if err := unmarshal(v, &ch); err != nil {
			return err
		}
		out = append(out, ch)
		return nil
	})
	return out, err
}

// Dms returns every DM in id order.
func (s *Store) Dms() ([]models.Dm, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Dm
	err := s.scanPrefix([]byte("dm:"), func(_, v []byte) error {
		var dm models.Dm
		if err := unmarshal(v, &dm); err != nil {
			return err
		}
		out = append(out, dm)
		return nil
	})
	return out, err
}

// DeleteDm removes the DM record and every message in it.
func (s *Store) DeleteDm(id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.dm(id); err != nil {
		return err
	}
	batch := s.db.NewBatch()
	defer batch.Close()
	if err := batch.Delete(dmKey(id), nil); err != nil {
		return err
	}
	prefix := convMsgPrefix(models.DmRef(id))
	err := s.scanPrefix(prefix, func(k, v []byte) error {
		var m models.Message
		if err := unmarshal(v, &m); err != nil {
			return err
		}
		if err := batch.Delete(k, nil); err != nil {
			return err
		}
		return batch.Delete(msgRefKey(m.ID), nil)
	})
	if err != nil {
		return err
	}
	return s.db.Apply(batch, pebble.Sync)
}

// Conversation resolves a ref to its display name, member set and owner
// set (a DM's sole owner is its creator). Used by the notification engine
// and the reaction/pin permission checks.
func (s *Store) Conversation(ref models.ConvRef) (name string, members, owners []int64, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conversation(ref)
}

func (s *Store) conversation(ref models.ConvRef) (string, []int64, []int64, error) {
	switch ref.Kind {
	case models.KindChannel:
		ch, err := s.channel(ref.ID)
		if err != nil {
			return "", nil, nil, err
		}
		return ch.Name, ch.Members, ch.Owners, nil
	case models.KindDm:
		dm, err := s.dm(ref.ID)
		if err != nil {
			return "", nil, nil, err
		}
		return dm.Name, dm.Members, []int64{dm.Creator}, nil
	}
	return "", nil, nil, apperr.Validationf("invalid conversation ref %q", ref.Kind)
}
