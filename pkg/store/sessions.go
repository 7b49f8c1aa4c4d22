package store

import (
	"time"

	"github.com/cockroachdb/pebble"

	"teamline/pkg/apperr"
)

type sessionRecord struct {
	UID       int64 `json:"u_id"`
	ExpiresAt int64 `json:"expires_at,omitempty"`
}

// PutSession stores token -> uid. A zero expiresAt never expires.
func (s *Store) PutSession(token string, uid int64, expiresAt int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.setJSON(sessionKey(token), sessionRecord{UID: uid, ExpiresAt: expiresAt})
}

// Session resolves a token to its user id and expiry instant (zero for
// no expiry). Expired or unknown tokens are not found.
func (s *Store) Session(token string) (int64, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var rec sessionRecord
	if err := s.getJSON(sessionKey(token), &rec); err != nil {
		if err == pebble.ErrNotFound {
			return 0, 0, apperr.NotFoundf("session not found")
		}
		return 0, 0, err
	}
	if rec.ExpiresAt != 0 && rec.ExpiresAt <= time.Now().Unix() {
		return 0, 0, apperr.NotFoundf("session expired")
	}
	return rec.UID, rec.ExpiresAt, nil
}

// DeleteSession invalidates one token.
func (s *Store) DeleteSession(token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Delete(sessionKey(token), pebble.Sync)
}

// DeleteSessionsFor invalidates every session of a user (admin removal).
func (s *Store) DeleteSessionsFor(uid int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.scanPrefix([]byte("session:"), func(k, v []byte) error {
		var rec sessionRecord
		if err := unmarshal(v, &rec); err != nil {
			return err
		}
		if rec.UID != uid {
			return nil
		}
		return s.db.Delete(k, pebble.Sync)
	})
}

// SweepSessions deletes expired sessions and reports how many went.
func (s *Store) SweepSessions(now int64) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	swept := 0
	err := s.scanPrefix([]byte("session:"), func(k, v []byte) error {
		var rec sessionRecord
		if err := unmarshal(v, &rec); err != nil {
			return err
		}
		if rec.ExpiresAt == 0 || rec.ExpiresAt > now {
			return nil
		}
		swept++
		return s.db.Delete(k, pebble.Sync)
	})
	return swept, err
}
