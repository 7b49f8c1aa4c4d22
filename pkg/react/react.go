// Package react toggles reactions and pins on stored messages. Both are
// idempotence-guarded: reacting twice or pinning a pinned message is a
// validation failure, so toggle pairs always return a message to its
// prior state.
package react

import (
	"teamline/pkg/apperr"
	"teamline/pkg/models"
	"teamline/pkg/notify"
	"teamline/pkg/store"
)

// ValidReactID is the only reaction the workspace recognizes.
const ValidReactID int64 = 1

type Service struct {
	st    *store.Store
	notif *notify.Engine
}

func NewService(st *store.Store, notif *notify.Engine) *Service {
	return &Service{st: st, notif: notif}
}

// React adds the caller to the reaction's uid set and notifies the
// message sender.
func (s *Service) React(caller, msgID, reactID int64) error {
	m, _, err := s.member(caller, msgID)
	if err != nil {
		return err
	}
	if reactID != ValidReactID {
		return apperr.Validationf("react id %d is not valid", reactID)
	}
	_, err = s.st.UpdateMessage(msgID, func(m *models.Message) error {
		r := m.Reaction(reactID)
		if r == nil {
			m.Reactions = append(m.Reactions, models.Reaction{ReactID: reactID})
			r = &m.Reactions[len(m.Reactions)-1]
		}
		for _, uid := range r.UIDs {
			if uid == caller {
				return apperr.Validationf("user %d already reacted to message %d", caller, msgID)
			}
		}
		r.UIDs = append(r.UIDs, caller)
		return nil
	})
	if err != nil {
		return err
	}
	s.notif.Reacted(m.Ref, caller, m.Sender)
	return nil
}

// Unreact removes the caller from the reaction's uid set; an emptied
// reaction disappears from the message.
func (s *Service) Unreact(caller, msgID, reactID int64) error {
	if _, _, err := s.member(caller, msgID); err != nil {
		return err
	}
	if reactID != ValidReactID {
		return apperr.Validationf("react id %d is not valid", reactID)
	}
	_, err := s.st.UpdateMessage(msgID, func(m *models.Message) error {
		r := m.Reaction(reactID)
		if r == nil {
			return apperr.Validationf("user %d has not reacted to message %d", caller, msgID)
		}
		found := false
		kept := r.UIDs[:0]
		for _, uid := range r.UIDs {
			if uid == caller {
				found = true
				continue
			}
			kept = append(kept, uid)
		}
		if !found {
			return apperr.Validationf("user %d has not reacted to message %d", caller, msgID)
		}
		r.UIDs = kept
		if len(r.UIDs) == 0 {
			for i := range m.Reactions {
				if m.Reactions[i].ReactID == reactID {
					m.Reactions = append(m.Reactions[:i], m.Reactions[i+1:]...)
					break
				}
			}
		}
		return nil
	})
	return err
}

// Pin marks a message pinned; conversation owner permission required.
// The pin-state guard runs inside the update closure so concurrent pins
// serialize: the second always observes the first. Permission is
// resolved outside (the closure runs under the store lock and may not
// re-enter the store), which is safe because ownership only changes
// through calls the same caller serializes on.
func (s *Service) Pin(caller, msgID int64) error {
	m, owners, err := s.member(caller, msgID)
	if err != nil {
		return err
	}
	perm := s.hasOwnerPerm(caller, m.Ref, owners)
	_, err = s.st.UpdateMessage(msgID, func(m *models.Message) error {
		if m.Pinned {
			return apperr.Validationf("message %d is already pinned", msgID)
		}
		if !perm {
			return apperr.Permissionf("user %d may not pin in this conversation", caller)
		}
		m.Pinned = true
		return nil
	})
	return err
}

// Unpin clears the pin; same permission and serialization as Pin.
func (s *Service) Unpin(caller, msgID int64) error {
	m, owners, err := s.member(caller, msgID)
	if err != nil {
		return err
	}
	perm := s.hasOwnerPerm(caller, m.Ref, owners)
	_, err = s.st.UpdateMessage(msgID, func(m *models.Message) error {
		if !m.Pinned {
			return apperr.Validationf("message %d is not pinned", msgID)
		}
		if !perm {
			return apperr.Permissionf("user %d may not unpin in this conversation", caller)
		}
		m.Pinned = false
		return nil
	})
	return err
}

// member loads a message and requires the caller to belong to its
// conversation; a message out of reach reads as a plain validation
// failure, the same as an unknown id.
func (s *Service) member(caller, msgID int64) (models.Message, []int64, error) {
	m, err := s.st.Message(msgID)
	if err != nil {
		return m, nil, apperr.Validationf("message %d is not valid for user %d", msgID, caller)
	}
	_, members, owners, err := s.st.Conversation(m.Ref)
	if err != nil {
		return m, nil, apperr.Validationf("message %d is not valid for user %d", msgID, caller)
	}
	for _, id := range members {
		if id == caller {
			return m, owners, nil
		}
	}
	return m, nil, apperr.Validationf("message %d is not valid for user %d", msgID, caller)
}

// hasOwnerPerm: conversation owners always; global owners only in
// channels (a DM answers to its creator alone).
func (s *Service) hasOwnerPerm(caller int64, ref models.ConvRef, owners []int64) bool {
	for _, o := range owners {
		if o == caller {
			return true
		}
	}
	if ref.Kind != models.KindChannel {
		return false
	}
	u, err := s.st.User(caller)
	return err == nil && u.IsGlobalOwner()
}
