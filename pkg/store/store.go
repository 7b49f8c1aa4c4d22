// Package store owns every persistent record of the workspace: users,
// channels, DMs, messages, notification feeds and sessions. It is the
// single source of truth, constructed once and passed by handle into each
// service; there is no package-level instance.
//
// All read-modify-write mutations run under one mutex, so concurrent
// request handlers and timer tasks serialize on the store and never
// observe a partially applied append.
package store

import (
	"encoding/json"
	"fmt"
	"strconv"
	"sync"

	"github.com/cockroachdb/pebble"
	"github.com/cockroachdb/pebble/vfs"

	"teamline/pkg/logger"
)

// MemoryPath selects a volatile in-memory pebble filesystem. The
// workspace is reset by the admin clear operation either way; a disk path
// merely survives restarts as a convenience.
const MemoryPath = ":memory:"

type Store struct {
	mu sync.Mutex
	db *pebble.DB

	path string
}

// Open opens (or creates) the pebble database at path. MemoryPath opens a
// pebble instance backed by an in-memory VFS.
func Open(path string) (*Store, error) {
	opts := &pebble.Options{}
	dir := path
	if path == MemoryPath {
		opts.FS = vfs.NewMem()
		dir = "teamline"
	}
	logger.Info("opening_store", "path", path)
	db, err := pebble.Open(dir, opts)
	if err != nil {
		logger.Error("store_open_failed", "path", path, "error", err)
		return nil, err
	}
	return &Store{db: db, path: path}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	logger.Info("store_closed")
	return err
}

// Ready reports whether the store is open.
func (s *Store) Ready() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db != nil
}

// Reset wipes every record and counter. This is the external "clear"
// operation; schedulers holding pending work reset themselves separately.
func (s *Store) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	// all keys are ASCII, so 0xff bounds the whole keyspace
	if err := s.db.DeleteRange([]byte(""), []byte("\xff"), pebble.Sync); err != nil {
		logger.Error("store_reset_failed", "error", err)
		return err
	}
	logger.Info("store_reset")
	return nil
}

// --- key construction ---

func userKey(id int64) []byte      { return []byte(fmt.Sprintf("user:%020d", id)) }
func handleKey(h string) []byte    { return []byte("idx:handle:" + h) }
func emailKey(e string) []byte     { return []byte("idx:email:" + e) }
func channelKey(id int64) []byte   { return []byte(fmt.Sprintf("channel:%020d", id)) }
func dmKey(id int64) []byte        { return []byte(fmt.Sprintf("dm:%020d", id)) }
func msgRefKey(id int64) []byte    { return []byte(fmt.Sprintf("msgref:%020d", id)) }
func notifKey(uid int64) []byte    { return []byte(fmt.Sprintf("notif:%020d", uid)) }
func sessionKey(tok string) []byte { return []byte("session:" + tok) }

// --- low-level helpers (callers hold s.mu) ---

func (s *Store) getJSON(key []byte, v interface{}) error {
	b, closer, err := s.db.Get(key)
	if err != nil {
		return err
	}
	defer closer.Close()
	return json.Unmarshal(b, v)
}

func (s *Store) setJSON(key []byte, v interface{}) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", key, err)
	}
	return s.db.Set(key, b, pebble.Sync)
}

// nextSeq advances the named counter and returns its new value. Counters
// start at 1.
func (s *Store) nextSeq(name string) (int64, error) {
	key := []byte("seq:" + name)
	var cur int64
	b, closer, err := s.db.Get(key)
	if err == nil {
		cur, _ = strconv.ParseInt(string(b), 10, 64)
		closer.Close()
	} else if err != pebble.ErrNotFound {
		return 0, err
	}
	cur++
	if err := s.db.Set(key, []byte(strconv.FormatInt(cur, 10)), pebble.Sync); err != nil {
		return 0, err
	}
	return cur, nil
}

// scanPrefix visits every key with the given prefix in ascending order.
func (s *Store) scanPrefix(prefix []byte, fn func(key, value []byte) error) error {
	iter, err := s.db.NewIter(prefixIterOptions(prefix))
	if err != nil {
		return err
	}
	defer iter.Close()
	for iter.First(); iter.Valid(); iter.Next() {
		v := append([]byte(nil), iter.Value()...)
		k := append([]byte(nil), iter.Key()...)
		if err := fn(k, v); err != nil {
			return err
		}
	}
	return iter.Error()
}

func prefixIterOptions(prefix []byte) *pebble.IterOptions {
	return &pebble.IterOptions{
		LowerBound: prefix,
		UpperBound: prefixUpperBound(prefix),
	}
}

func prefixUpperBound(prefix []byte) []byte {
	end := append([]byte(nil), prefix...)
	for i := len(end) - 1; i >= 0; i-- {
		end[i]++
		if end[i] != 0 {
			return end[:i+1]
		}
	}
	return nil
}
