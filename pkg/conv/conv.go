// Package conv implements the conversation operations of the workspace:
// channels, DMs, membership, and every message mutation that flows into
// the store. Notification generation hangs off the append/edit/share
// paths as a side effect.
package conv

import (
	"sort"
	"strings"

	"teamline/pkg/apperr"
	"teamline/pkg/logger"
	"teamline/pkg/models"
	"teamline/pkg/notify"
	"teamline/pkg/sched"
	"teamline/pkg/store"
	"teamline/pkg/validation"
)

type Service struct {
	st    *store.Store
	notif *notify.Engine
	timer *sched.Scheduler
}

func NewService(st *store.Store, notif *notify.Engine, timer *sched.Scheduler) *Service {
	return &Service{st: st, notif: notif, timer: timer}
}

// --- channels ---

// CreateChannel creates a channel with the caller as first member and
// owner.
func (s *Service) CreateChannel(caller int64, name string, isPublic bool) (int64, error) {
	if err := validation.ChannelName(name); err != nil {
		return 0, err
	}
	id, err := s.st.CreateChannel(models.Channel{
		Name:     name,
		IsPublic: isPublic,
		Members:  []int64{caller},
		Owners:   []int64{caller},
	})
	if err != nil {
		return 0, err
	}
	logger.Info("channel_created", "id", id, "name", name, "creator", caller)
	return id, nil
}

// ChannelsFor lists the channels the caller belongs to.
func (s *Service) ChannelsFor(caller int64) ([]models.Channel, error) {
	chs, err := s.st.Channels()
	if err != nil {
		return nil, err
	}
	out := make([]models.Channel, 0, len(chs))
	for _, ch := range chs {
		if ch.IsMember(caller) {
			out = append(out, ch)
		}
	}
	return out, nil
}

// AllChannels lists every channel, public and private alike.
func (s *Service) AllChannels() ([]models.Channel, error) {
	return s.st.Channels()
}

// ChannelDetails returns the channel record; members only.
func (s *Service) ChannelDetails(caller, channelID int64) (models.Channel, error) {
	ch, err := s.st.Channel(channelID)
	if err != nil {
		return ch, err
	}
	if !ch.IsMember(caller) {
		return ch, apperr.Permissionf("user %d is not a member of channel %d", caller, channelID)
	}
	return ch, nil
}

// Join adds the caller to a public channel; global owners may join
// private ones too.
func (s *Service) Join(caller, channelID int64) error {
	_, err := s.st.UpdateChannel(channelID, func(ch *models.Channel) error {
		if ch.IsMember(caller) {
			return apperr.Validationf("user %d is already a member", caller)
		}
		if !ch.IsPublic && !s.isGlobalOwner(caller) {
			return apperr.Permissionf("channel %d is private", channelID)
		}
		ch.Members = append(ch.Members, caller)
		return nil
	})
	return err
}

// Invite adds target to the channel and notifies them.
func (s *Service) Invite(caller, channelID, target int64) error {
	tu, err := s.st.User(target)
	if err != nil || tu.Removed {
		return apperr.Validationf("user %d does not exist", target)
	}
	_, err = s.st.UpdateChannel(channelID, func(ch *models.Channel) error {
		if !ch.IsMember(caller) {
			return apperr.Permissionf("user %d is not a member of channel %d", caller, channelID)
		}
		if ch.IsMember(target) {
			return apperr.Validationf("user %d is already a member", target)
		}
		ch.Members = append(ch.Members, target)
		return nil
	})
	if err != nil {
		return err
	}
	s.notif.Invited(models.ChannelRef(channelID), caller, target)
	return nil
}

// Leave removes the caller from the member and owner sets.
func (s *Service) Leave(caller, channelID int64) error {
	_, err := s.st.UpdateChannel(channelID, func(ch *models.Channel) error {
		if !ch.IsMember(caller) {
			return apperr.Permissionf("user %d is not a member of channel %d", caller, channelID)
		}
		ch.Members = models.RemoveID(ch.Members, caller)
		ch.Owners = models.RemoveID(ch.Owners, caller)
		return nil
	})
	return err
}

// AddOwner promotes a member to channel owner. The caller needs owner
// permission in the channel (owner, or global owner who is a member).
func (s *Service) AddOwner(caller, channelID, target int64) error {
	_, err := s.st.UpdateChannel(channelID, func(ch *models.Channel) error {
		if !s.hasChannelOwnerPerm(ch, caller) {
			return apperr.Permissionf("user %d lacks owner permission in channel %d", caller, channelID)
		}
		if !ch.IsMember(target) {
			return apperr.Validationf("user %d is not a member of channel %d", target, channelID)
		}
		if ch.IsOwner(target) {
			return apperr.Validationf("user %d is already an owner", target)
		}
		ch.Owners = append(ch.Owners, target)
		return nil
	})
	return err
}

// RemoveOwner demotes a channel owner; the last owner stays.
func (s *Service) RemoveOwner(caller, channelID, target int64) error {
	_, err := s.st.UpdateChannel(channelID, func(ch *models.Channel) error {
		if !s.hasChannelOwnerPerm(ch, caller) {
			return apperr.Permissionf("user %d lacks owner permission in channel %d", caller, channelID)
		}
		if !ch.IsOwner(target) {
			return apperr.Validationf("user %d is not an owner of channel %d", target, channelID)
		}
		if len(ch.Owners) == 1 {
			return apperr.Validationf("user %d is the only owner of channel %d", target, channelID)
		}
		ch.Owners = models.RemoveID(ch.Owners, target)
		return nil
	})
	return err
}

// --- DMs ---

// CreateDm creates a DM between the caller and uids. The DM name is the
// alphabetically sorted member handles joined by ", ". Invitees are
// notified.
func (s *Service) CreateDm(caller int64, uids []int64) (int64, error) {
	seen := map[int64]bool{caller: true}
	members := []int64{caller}
	for _, uid := range uids {
		if seen[uid] {
			return 0, apperr.Validationf("duplicate u_id %d", uid)
		}
		u, err := s.st.User(uid)
		if err != nil || u.Removed {
			return 0, apperr.Validationf("user %d does not exist", uid)
		}
		seen[uid] = true
		members = append(members, uid)
	}
	handles := make([]string, 0, len(members))
	for _, uid := range members {
		u, err := s.st.User(uid)
		if err != nil {
			return 0, err
		}
		handles = append(handles, u.Handle)
	}
	sort.Strings(handles)
	id, err := s.st.CreateDm(models.Dm{
		Name:    strings.Join(handles, ", "),
		Creator: caller,
		Members: members,
	})
	if err != nil {
		return 0, err
	}
	for _, uid := range uids {
		s.notif.Invited(models.DmRef(id), caller, uid)
	}
	logger.Info("dm_created", "id", id, "creator", caller, "members", len(members))
	return id, nil
}

// DmsFor lists the DMs the caller belongs to.
func (s *Service) DmsFor(caller int64) ([]models.Dm, error) {
	dms, err := s.st.Dms()
	if err != nil {
		return nil, err
	}
	out := make([]models.Dm, 0, len(dms))
	for _, dm := range dms {
		if dm.IsMember(caller) {
			out = append(out, dm)
		}
	}
	return out, nil
}

// DmDetails returns the DM record; members only.
func (s *Service) DmDetails(caller, dmID int64) (models.Dm, error) {
	dm, err := s.st.Dm(dmID)
	if err != nil {
		return dm, err
	}
	if !dm.IsMember(caller) {
		return dm, apperr.Permissionf("user %d is not a member of dm %d", caller, dmID)
	}
	return dm, nil
}

// DmLeave removes the caller from the DM; the DM itself survives.
func (s *Service) DmLeave(caller, dmID int64) error {
	_, err := s.st.UpdateDm(dmID, func(dm *models.Dm) error {
		if !dm.IsMember(caller) {
			return apperr.Permissionf("user %d is not a member of dm %d", caller, dmID)
		}
		dm.Members = models.RemoveID(dm.Members, caller)
		return nil
	})
	return err
}

// DmRemove deletes the DM and all its messages; creator only, and only
// while still a member.
func (s *Service) DmRemove(caller, dmID int64) error {
	dm, err := s.st.Dm(dmID)
	if err != nil {
		return err
	}
	if caller != dm.Creator {
		return apperr.Permissionf("user %d is not the creator of dm %d", caller, dmID)
	}
	if !dm.IsMember(caller) {
		return apperr.Permissionf("user %d has left dm %d", caller, dmID)
	}
	return s.st.DeleteDm(dmID)
}

// --- shared permission helpers ---

func (s *Service) isGlobalOwner(uid int64) bool {
	u, err := s.st.User(uid)
	return err == nil && u.IsGlobalOwner()
}

func (s *Service) hasChannelOwnerPerm(ch *models.Channel, uid int64) bool {
	if ch.IsOwner(uid) {
		return true
	}
	return ch.IsMember(uid) && s.isGlobalOwner(uid)
}

// hasMessagePerm reports whether uid may edit/remove a message sent by
// sender in the conversation with the given owner set. Global owner
// permission only reaches into channels; a DM answers to its creator.
func (s *Service) hasMessagePerm(uid, sender int64, ref models.ConvRef, owners []int64) bool {
	if uid == sender {
		return true
	}
	for _, o := range owners {
		if o == uid {
			return true
		}
	}
	return ref.Kind == models.KindChannel && s.isGlobalOwner(uid)
}
