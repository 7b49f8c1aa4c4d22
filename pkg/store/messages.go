package store

import (
	"fmt"
	"time"

	"github.com/cockroachdb/pebble"

	"teamline/pkg/apperr"
	"teamline/pkg/logger"
	"teamline/pkg/models"
)

func convMsgPrefix(ref models.ConvRef) []byte {
	return []byte(fmt.Sprintf("convmsg:%s:%020d:", kindTag(ref.Kind), ref.ID))
}

func convMsgKey(ref models.ConvRef, msgID int64) []byte {
	return []byte(fmt.Sprintf("convmsg:%s:%020d:%020d", kindTag(ref.Kind), ref.ID, msgID))
}

func kindTag(k models.ConvKind) string {
	if k == models.KindDm {
		return "d"
	}
	return "c"
}

// ReserveMessageID advances the global message counter without writing a
// message. Deferred sends hand the reserved id back to AppendMessage at
// fire time; until then the message does not exist in the store.
func (s *Store) ReserveMessageID() (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.nextSeq("message")
}

// AppendMessage writes a fully constructed message into ref. A zero
// reservedID draws the next global id; TimeSent is stamped here. The
// record and its locator land in one batch, so readers never see a
// half-applied append.
func (s *Store) AppendMessage(ref models.ConvRef, sender int64, body string, reservedID int64) (models.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, _, _, err := s.conversation(ref); err != nil {
		return models.Message{}, err
	}
	id := reservedID
	if id == 0 {
		var err error
		if id, err = s.nextSeq("message"); err != nil {
			return models.Message{}, err
		}
	}
	m := models.Message{
		ID:       id,
		Ref:      ref,
		Sender:   sender,
		Body:     body,
		TimeSent: time.Now().Unix(),
	}
	if err := s.writeMessage(m); err != nil {
		return models.Message{}, err
	}
	logger.Debug("message_appended", "ref", ref.String(), "id", id, "sender", sender)
	return m, nil
}

func (s *Store) writeMessage(m models.Message) error {
	batch := s.db.NewBatch()
	defer batch.Close()
	b, err := marshalMessage(m)
	if err != nil {
		return err
	}
	if err := batch.Set(convMsgKey(m.Ref, m.ID), b, nil); err != nil {
		return err
	}
	if err := batch.Set(msgRefKey(m.ID), []byte(kindTag(m.Ref.Kind)+":"+formatID(m.Ref.ID)), nil); err != nil {
		return err
	}
	return s.db.Apply(batch, pebble.Sync)
}

// Message returns the message with the given global id.
func (s *Store) Message(id int64) (models.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.message(id)
}

func (s *Store) message(id int64) (models.Message, error) {
	ref, err := s.messageRef(id)
	if err != nil {
		return models.Message{}, err
	}
	var m models.Message
	if err := s.getJSON(convMsgKey(ref, id), &m); err != nil {
		if err == pebble.ErrNotFound {
			return m, apperr.NotFoundf("message %d not found", id)
		}
		return m, err
	}
	return m, nil
}

func (s *Store) messageRef(id int64) (models.ConvRef, error) {
	b, closer, err := s.db.Get(msgRefKey(id))
	if err != nil {
		if err == pebble.ErrNotFound {
			return models.ConvRef{}, apperr.NotFoundf("message %d not found", id)
		}
		return models.ConvRef{}, err
	}
	defer closer.Close()
	loc := string(b)
	if len(loc) < 3 {
		return models.ConvRef{}, fmt.Errorf("corrupt message locator %q", loc)
	}
	id2 := parseID(loc[2:])
	if loc[0] == 'd' {
		return models.DmRef(id2), nil
	}
	return models.ChannelRef(id2), nil
}

// UpdateMessage applies fn to the stored message under the store lock.
// The conversation ref is immutable; fn may change anything else.
func (s *Store) UpdateMessage(id int64, fn func(*models.Message) error) (models.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, err := s.message(id)
	if err != nil {
		return m, err
	}
	ref := m.Ref
	if err := fn(&m); err != nil {
		return m, err
	}
	m.ID, m.Ref = id, ref
	b, err := marshalMessage(m)
	if err != nil {
		return m, err
	}
	return m, s.db.Set(convMsgKey(ref, id), b, pebble.Sync)
}

// DeleteMessage removes the record and its locator entirely.
func (s *Store) DeleteMessage(id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, err := s.message(id)
	if err != nil {
		return err
	}
	batch := s.db.NewBatch()
	defer batch.Close()
	if err := batch.Delete(convMsgKey(m.Ref, id), nil); err != nil {
		return err
	}
	if err := batch.Delete(msgRefKey(id), nil); err != nil {
		return err
	}
	return s.db.Apply(batch, pebble.Sync)
}

// ListMessages returns every message of a conversation in ascending id
// order (id order is send order; callers reverse for newest-first views).
func (s *Store) ListMessages(ref models.ConvRef) ([]models.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, _, _, err := s.conversation(ref); err != nil {
		return nil, err
	}
	var out []models.Message
	err := s.scanPrefix(convMsgPrefix(ref), func(_, v []byte) error {
		var m models.Message
		if err := unmarshal(v, &m); err != nil {
			return err
		}
		out = append(out, m)
		return nil
	})
	return out, err
}

// RewriteMessages applies fn to every message and writes back the ones fn
// reports changed, in a single batch. Used by the admin cascade.
func (s *Store) RewriteMessages(fn func(*models.Message) bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	batch := s.db.NewBatch()
	defer batch.Close()
	err := s.scanPrefix([]byte("convmsg:"), func(k, v []byte) error {
		var m models.Message
		if err := unmarshal(v, &m); err != nil {
			return err
		}
		if !fn(&m) {
			return nil
		}
		b, err := marshalMessage(m)
		if err != nil {
			return err
		}
		return batch.Set(k, b, nil)
	})
	if err != nil {
		return err
	}
	return s.db.Apply(batch, pebble.Sync)
}

func marshalMessage(m models.Message) ([]byte, error) {
	b, err := marshalJSON(m)
	if err != nil {
		return nil, fmt.Errorf("marshal message %d: %w", m.ID, err)
	}
	return b, nil
}
