// Package standup runs per-channel standup windows. A window buffers
// lines in memory while active and flushes them as a single channel
// message at its deadline; the buffer never touches the store, so a
// crashed server simply loses the open window.
package standup

import (
	"strings"
	"sync"
	"time"

	"teamline/pkg/apperr"
	"teamline/pkg/logger"
	"teamline/pkg/metrics"
	"teamline/pkg/models"
	"teamline/pkg/notify"
	"teamline/pkg/sched"
	"teamline/pkg/store"
	"teamline/pkg/validation"
)

type window struct {
	starter int64
	fireAt  int64
	lines   []string
}

type Service struct {
	st    *store.Store
	notif *notify.Engine
	timer *sched.Scheduler

	mu     sync.Mutex
	active map[int64]*window // by channel id
}

func NewService(st *store.Store, notif *notify.Engine, timer *sched.Scheduler) *Service {
	return &Service{st: st, notif: notif, timer: timer, active: make(map[int64]*window)}
}

// Start opens a standup window of the given length in seconds and
// returns the flush instant. Zero-length windows are legal and flush on
// the next scheduler pass.
func (s *Service) Start(caller, channelID, length int64) (int64, error) {
	if length < 0 {
		return 0, apperr.Validationf("standup length %d is negative", length)
	}
	if err := s.requireMember(caller, channelID); err != nil {
		return 0, err
	}
	fireAt := time.Now().Unix() + length

	s.mu.Lock()
	if _, busy := s.active[channelID]; busy {
		s.mu.Unlock()
		return 0, apperr.Validationf("a standup is already active in channel %d", channelID)
	}
	s.active[channelID] = &window{starter: caller, fireAt: fireAt}
	s.mu.Unlock()

	s.timer.Schedule(time.Unix(fireAt, 0), func() { s.flush(channelID) })
	logger.Info("standup_started", "channel", channelID, "starter", caller, "fire_at", fireAt)
	return fireAt, nil
}

// Send buffers one line into the active window as "<handle>: <line>".
// Buffered lines are invisible until the flush.
func (s *Service) Send(caller, channelID int64, line string) error {
	if err := validation.StandupLine(line); err != nil {
		return err
	}
	if err := s.requireMember(caller, channelID); err != nil {
		return err
	}
	u, err := s.st.User(caller)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	w, busy := s.active[channelID]
	if !busy {
		return apperr.Validationf("no standup is active in channel %d", channelID)
	}
	w.lines = append(w.lines, u.Handle+": "+line)
	return nil
}

// Active reports whether a window is open and its flush instant; fireAt
// is 0 when idle (the transport renders it as null).
func (s *Service) Active(caller, channelID int64) (bool, int64, error) {
	if err := s.requireMember(caller, channelID); err != nil {
		return false, 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if w, busy := s.active[channelID]; busy {
		return true, w.fireAt, nil
	}
	return false, 0, nil
}

// Reset drops every open window without flushing. Workspace clear only.
func (s *Service) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.active = make(map[int64]*window)
}

// flush closes the window and posts the aggregate, authored by the
// starter, through the ordinary append path so the body is tag-scanned.
func (s *Service) flush(channelID int64) {
	s.mu.Lock()
	w, busy := s.active[channelID]
	delete(s.active, channelID)
	s.mu.Unlock()
	if !busy {
		return // cleared while pending
	}

	metrics.StandupFlushes.Inc()
	if len(w.lines) == 0 {
		logger.Debug("standup_flushed_empty", "channel", channelID)
		return
	}
	ref := models.ChannelRef(channelID)
	body := strings.Join(w.lines, "\n")
	if _, err := s.st.AppendMessage(ref, w.starter, body, 0); err != nil {
		logger.Error("standup_flush_failed", "channel", channelID, "error", err)
		return
	}
	metrics.MessagesSent.WithLabelValues(string(models.KindChannel)).Inc()
	s.notif.Tagged(ref, w.starter, body, false)
	logger.Info("standup_flushed", "channel", channelID, "lines", len(w.lines))
}

func (s *Service) requireMember(caller, channelID int64) error {
	ch, err := s.st.Channel(channelID)
	if err != nil {
		return err
	}
	if !ch.IsMember(caller) {
		return apperr.Permissionf("user %d is not a member of channel %d", caller, channelID)
	}
	return nil
}
