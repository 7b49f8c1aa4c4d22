package store

import (
	"github.com/cockroachdb/pebble"

	"teamline/pkg/apperr"
	"teamline/pkg/models"
)

// CreateUser assigns the next user id, writes the record and its
// handle/email indexes, and returns the id.
func (s *Store) CreateUser(u models.User) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, err := s.nextSeq("user")
	if err != nil {
		return 0, err
	}
	u.ID = id
	if err := s.setJSON(userKey(id), u); err != nil {
		return 0, err
	}
	if err := s.writeIdentityIndexes(u); err != nil {
		return 0, err
	}
	return id, nil
}

// User returns the record for id, removed users included.
func (s *Store) User(id int64) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.user(id)
}

func (s *Store) user(id int64) (models.User, error) {
	var u models.User
	if err := s.getJSON(userKey(id), &u); err != nil {
		if err == pebble.ErrNotFound {
			return u, apperr.NotFoundf("user %d not found", id)
		}
		return u, err
	}
	return u, nil
}

// UpdateUser applies fn to the stored record under the store lock and
// keeps the handle/email indexes in step. Removed users lose their
// indexes so both identifiers become reusable immediately.
func (s *Store) UpdateUser(id int64, fn func(*models.User) error) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, err := s.user(id)
	if err != nil {
		return u, err
	}
	prev := u
	if err := fn(&u); err != nil {
		return u, err
	}
	u.ID = id
	if err := s.setJSON(userKey(id), u); err != nil {
		return u, err
	}
	if prev.Handle != u.Handle || prev.Removed != u.Removed {
		if err := s.db.Delete(handleKey(prev.Handle), pebble.Sync); err != nil {
			return u, err
		}
	}
	if prev.Email != u.Email || prev.Removed != u.Removed {
		if err := s.db.Delete(emailKey(prev.Email), pebble.Sync); err != nil {
			return u, err
		}
	}
	if err := s.writeIdentityIndexes(u); err != nil {
		return u, err
	}
	return u, nil
}

func (s *Store) writeIdentityIndexes(u models.User) error {
	if u.Removed {
		return nil
	}
	id := []byte(formatID(u.ID))
	if err := s.db.Set(handleKey(u.Handle), id, pebble.Sync); err != nil {
		return err
	}
	return s.db.Set(emailKey(u.Email), id, pebble.Sync)
}

// UserByHandle resolves a handle to its (non-removed) owner.
func (s *Store) UserByHandle(handle string) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.userByIndex(handleKey(handle), "handle "+handle)
}

// UserByEmail resolves an email to its (non-removed) owner.
func (s *Store) UserByEmail(email string) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.userByIndex(emailKey(email), "email "+email)
}

func (s *Store) userByIndex(key []byte, what string) (models.User, error) {
	b, closer, err := s.db.Get(key)
	if err != nil {
		if err == pebble.ErrNotFound {
			return models.User{}, apperr.NotFoundf("%s not found", what)
		}
		return models.User{}, err
	}
	id := parseID(string(b))
	closer.Close()
	return s.user(id)
}

// Users returns every user record in id order.
func (s *Store) Users() ([]models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.User
	err := s.scanPrefix([]byte("user:"), func(_, v []byte) error {
		var u models.User
		if err := unmarshal(v, &u); err != nil {
			return err
		}
		out = append(out, u)
		return nil
	})
	return out, err
}
