// Package admin holds the global-owner operations: removing a user with
// its full cascade, changing workspace permissions, and clearing the
// workspace.
package admin

import (
	"teamline/pkg/apperr"
	"teamline/pkg/logger"
	"teamline/pkg/models"
	"teamline/pkg/sched"
	"teamline/pkg/store"
)

// Resetter clears in-memory state alongside the store on workspace
// clear; the scheduler, the standup registry and the session cache all
// implement it.
type Resetter interface {
	Reset()
}

// SessionRevoker drops every live session of a user; the identity
// service implements it over the store plus its token cache.
type SessionRevoker interface {
	Revoke(uid int64) error
}

type Service struct {
	st       *store.Store
	timer    *sched.Scheduler
	sessions SessionRevoker
	resets   []Resetter
}

func NewService(st *store.Store, timer *sched.Scheduler, sessions SessionRevoker, resets ...Resetter) *Service {
	return &Service{st: st, timer: timer, sessions: sessions, resets: resets}
}

// RemoveUser removes target from the workspace. Their message history
// survives with every body replaced by "Removed user", their profile
// stays readable as Removed/user, and their email and handle become
// reusable at once.
func (s *Service) RemoveUser(caller, target int64) error {
	if err := s.requireGlobalOwner(caller); err != nil {
		return err
	}
	tu, err := s.st.User(target)
	if err != nil || tu.Removed {
		return apperr.Validationf("user %d does not exist", target)
	}
	if tu.IsGlobalOwner() && s.globalOwnerCount() == 1 {
		return apperr.Validationf("user %d is the only global owner", target)
	}

	if err := s.st.RewriteMessages(func(m *models.Message) bool {
		if m.Sender != target {
			return false
		}
		m.Body = "Removed user"
		return true
	}); err != nil {
		return err
	}

	chs, err := s.st.Channels()
	if err != nil {
		return err
	}
	for _, ch := range chs {
		if !ch.IsMember(target) && !ch.IsOwner(target) {
			continue
		}
		if _, err := s.st.UpdateChannel(ch.ID, func(ch *models.Channel) error {
			ch.Members = models.RemoveID(ch.Members, target)
			ch.Owners = models.RemoveID(ch.Owners, target)
			return nil
		}); err != nil {
			return err
		}
	}
	dms, err := s.st.Dms()
	if err != nil {
		return err
	}
	for _, dm := range dms {
		if !dm.IsMember(target) {
			continue
		}
		if _, err := s.st.UpdateDm(dm.ID, func(dm *models.Dm) error {
			dm.Members = models.RemoveID(dm.Members, target)
			return nil
		}); err != nil {
			return err
		}
	}

	// Flipping Removed drops the identity indexes, freeing the email and
	// handle for re-registration.
	if _, err := s.st.UpdateUser(target, func(u *models.User) error {
		u.NameFirst, u.NameLast = "Removed", "user"
		u.Removed = true
		return nil
	}); err != nil {
		return err
	}
	if err := s.sessions.Revoke(target); err != nil {
		return err
	}
	logger.Info("user_removed", "target", target, "by", caller)
	return nil
}

// SetUserPermission switches target between workspace member and global
// owner. Demoting the sole global owner fails.
func (s *Service) SetUserPermission(caller, target, perm int64) error {
	if err := s.requireGlobalOwner(caller); err != nil {
		return err
	}
	if perm != models.PermOwner && perm != models.PermMember {
		return apperr.Validationf("permission %d is not valid", perm)
	}
	tu, err := s.st.User(target)
	if err != nil || tu.Removed {
		return apperr.Validationf("user %d does not exist", target)
	}
	if tu.IsGlobalOwner() && perm == models.PermMember && s.globalOwnerCount() == 1 {
		return apperr.Validationf("user %d is the only global owner", target)
	}
	if tu.Permission == perm {
		return apperr.Validationf("user %d already has permission %d", target, perm)
	}
	_, err = s.st.UpdateUser(target, func(u *models.User) error {
		u.Permission = perm
		return nil
	})
	return err
}

// Clear wipes the store and every in-memory registry; the workspace
// returns to its freshly-booted state.
func (s *Service) Clear() error {
	s.timer.Reset()
	for _, r := range s.resets {
		r.Reset()
	}
	if err := s.st.Reset(); err != nil {
		return err
	}
	logger.Info("workspace_cleared")
	return nil
}

func (s *Service) requireGlobalOwner(caller int64) error {
	u, err := s.st.User(caller)
	if err != nil || !u.IsGlobalOwner() {
		return apperr.Permissionf("user %d is not a global owner", caller)
	}
	return nil
}

func (s *Service) globalOwnerCount() int {
	us, err := s.st.Users()
	if err != nil {
		return 0
	}
	n := 0
	for _, u := range us {
		if !u.Removed && u.IsGlobalOwner() {
			n++
		}
	}
	return n
}
