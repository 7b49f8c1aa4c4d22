package conv

import (
	"sort"
	"strings"
	"time"

	"teamline/pkg/apperr"
	"teamline/pkg/logger"
	"teamline/pkg/metrics"
	"teamline/pkg/models"
	"teamline/pkg/validation"
)

// pageSize is the listMessages window.
const pageSize = 50

// ReactionView is a reaction as seen by one viewer.
type ReactionView struct {
	ReactID           int64   `json:"react_id"`
	UIDs              []int64 `json:"u_ids"`
	IsThisUserReacted bool    `json:"is_this_user_reacted"`
}

// MessageView is a message as seen by one viewer.
type MessageView struct {
	MessageID int64          `json:"message_id"`
	UID       int64          `json:"u_id"`
	Message   string         `json:"message"`
	TimeSent  int64          `json:"time_sent"`
	Reacts    []ReactionView `json:"reacts"`
	IsPinned  bool           `json:"is_pinned"`
}

// Page is one listMessages window, most recent first. End is the start
// index of the next page, or -1 when this page reaches the oldest
// message.
type Page struct {
	Messages []MessageView `json:"messages"`
	Start    int64         `json:"start"`
	End      int64         `json:"end"`
}

// Send appends a message to a conversation the caller belongs to and
// scans it for tag notifications.
func (s *Service) Send(caller int64, ref models.ConvRef, body string) (int64, error) {
	if err := validation.MessageBody(body); err != nil {
		return 0, err
	}
	if err := s.requireMember(caller, ref); err != nil {
		return 0, err
	}
	m, err := s.st.AppendMessage(ref, caller, body, 0)
	if err != nil {
		return 0, err
	}
	metrics.MessagesSent.WithLabelValues(string(ref.Kind)).Inc()
	s.notif.Tagged(ref, caller, body, false)
	return m.ID, nil
}

// SendLater reserves a message id now and materializes the message in
// the channel at fireAt. The reserved id keeps the chronological order
// of the reservation instant, and the message is invisible to every
// read until it fires.
func (s *Service) SendLater(caller, channelID int64, body string, fireAt int64) (int64, error) {
	ref := models.ChannelRef(channelID)
	if _, _, _, err := s.st.Conversation(ref); err != nil {
		return 0, err
	}
	if err := validation.MessageBody(body); err != nil {
		return 0, err
	}
	if fireAt < time.Now().Unix() {
		return 0, apperr.Validationf("time_sent %d is in the past", fireAt)
	}
	if err := s.requireMember(caller, ref); err != nil {
		return 0, err
	}
	id, err := s.st.ReserveMessageID()
	if err != nil {
		return 0, err
	}
	s.timer.Schedule(time.Unix(fireAt, 0), func() {
		if _, err := s.st.AppendMessage(ref, caller, body, id); err != nil {
			logger.Error("deferred_send_failed", "id", id, "channel", channelID, "error", err)
			return
		}
		metrics.MessagesSent.WithLabelValues(string(ref.Kind)).Inc()
		metrics.ScheduledFires.Inc()
		s.notif.Tagged(ref, caller, body, false)
	})
	logger.Info("message_deferred", "id", id, "channel", channelID, "fire_at", fireAt)
	return id, nil
}

// Edit replaces a message body; an empty body deletes the message
// instead. The edited body is rescanned for tags, so an edit can notify
// users the original never mentioned.
func (s *Service) Edit(caller, msgID int64, body string) error {
	if err := validation.EditBody(body); err != nil {
		return err
	}
	m, owners, err := s.accessibleMessage(caller, msgID)
	if err != nil {
		return err
	}
	if !s.hasMessagePerm(caller, m.Sender, m.Ref, owners) {
		return apperr.Permissionf("user %d may not edit message %d", caller, msgID)
	}
	if body == "" {
		return s.st.DeleteMessage(msgID)
	}
	if _, err := s.st.UpdateMessage(msgID, func(m *models.Message) error {
		m.Body = body
		return nil
	}); err != nil {
		return err
	}
	s.notif.Tagged(m.Ref, caller, body, false)
	return nil
}

// Remove deletes a message; sender, conversation owner or global owner.
func (s *Service) Remove(caller, msgID int64) error {
	m, owners, err := s.accessibleMessage(caller, msgID)
	if err != nil {
		return err
	}
	if !s.hasMessagePerm(caller, m.Sender, m.Ref, owners) {
		return apperr.Permissionf("user %d may not remove message %d", caller, msgID)
	}
	return s.st.DeleteMessage(msgID)
}

// Messages returns one page of a conversation's messages, most recent
// first, starting at index start from the newest.
func (s *Service) Messages(caller int64, ref models.ConvRef, start int64) (Page, error) {
	if err := s.requireMember(caller, ref); err != nil {
		return Page{}, err
	}
	msgs, err := s.st.ListMessages(ref)
	if err != nil {
		return Page{}, err
	}
	total := int64(len(msgs))
	if start < 0 || start > total {
		return Page{}, apperr.Validationf("start %d is outside message count %d", start, total)
	}
	// Store order is oldest first; the page reads newest first.
	sort.Slice(msgs, func(i, j int) bool { return msgs[i].ID > msgs[j].ID })
	end := start + pageSize
	if end >= total {
		end = -1
	}
	upper := start + pageSize
	if upper > total {
		upper = total
	}
	return Page{
		Messages: viewMessages(msgs[start:upper], caller),
		Start:    start,
		End:      end,
	}, nil
}

// Share posts a copy of an existing message into another conversation
// the caller belongs to, with an optional addition appended after a
// space. The combined body is tag-scanned with the "shared: " snippet
// prefix.
func (s *Service) Share(caller, ogID int64, extra string, ref models.ConvRef) (int64, error) {
	if err := validation.EditBody(extra); err != nil {
		return 0, err
	}
	if err := s.requireMember(caller, ref); err != nil {
		return 0, err
	}
	og, _, err := s.accessibleMessage(caller, ogID)
	if err != nil {
		return 0, err
	}
	combined := og.Body
	if extra != "" {
		combined += " " + extra
	}
	m, err := s.st.AppendMessage(ref, caller, combined, 0)
	if err != nil {
		return 0, err
	}
	metrics.MessagesSent.WithLabelValues(string(ref.Kind)).Inc()
	s.notif.Tagged(ref, caller, combined, true)
	return m.ID, nil
}

// Search returns every message containing the query, case-insensitively,
// across the conversations the caller belongs to, most recent first.
func (s *Service) Search(caller int64, query string) ([]MessageView, error) {
	if err := validation.Query(query); err != nil {
		return nil, err
	}
	needle := strings.ToLower(query)
	var refs []models.ConvRef
	chs, err := s.ChannelsFor(caller)
	if err != nil {
		return nil, err
	}
	for _, ch := range chs {
		refs = append(refs, models.ChannelRef(ch.ID))
	}
	dms, err := s.DmsFor(caller)
	if err != nil {
		return nil, err
	}
	for _, dm := range dms {
		refs = append(refs, models.DmRef(dm.ID))
	}
	var hits []models.Message
	for _, ref := range refs {
		msgs, err := s.st.ListMessages(ref)
		if err != nil {
			return nil, err
		}
		for _, m := range msgs {
			if strings.Contains(strings.ToLower(m.Body), needle) {
				hits = append(hits, m)
			}
		}
	}
	sort.Slice(hits, func(i, j int) bool { return hits[i].ID > hits[j].ID })
	return viewMessages(hits, caller), nil
}

// requireMember resolves ref and checks the caller's membership.
func (s *Service) requireMember(caller int64, ref models.ConvRef) error {
	_, members, _, err := s.st.Conversation(ref)
	if err != nil {
		return err
	}
	for _, m := range members {
		if m == caller {
			return nil
		}
	}
	return apperr.Permissionf("user %d is not a member of %s", caller, ref.String())
}

// accessibleMessage loads a message the caller can see. A message in a
// conversation the caller never joined is indistinguishable from a
// missing one.
func (s *Service) accessibleMessage(caller, msgID int64) (models.Message, []int64, error) {
	m, err := s.st.Message(msgID)
	if err != nil {
		return m, nil, err
	}
	_, members, owners, err := s.st.Conversation(m.Ref)
	if err != nil {
		return m, nil, err
	}
	member := false
	for _, id := range members {
		if id == caller {
			member = true
			break
		}
	}
	if !member {
		return m, nil, apperr.NotFoundf("message %d not found", msgID)
	}
	return m, owners, nil
}

func viewMessages(msgs []models.Message, viewer int64) []MessageView {
	out := make([]MessageView, 0, len(msgs))
	for _, m := range msgs {
		reacts := make([]ReactionView, 0, len(m.Reactions))
		for _, r := range m.Reactions {
			rv := ReactionView{ReactID: r.ReactID, UIDs: r.UIDs}
			for _, uid := range r.UIDs {
				if uid == viewer {
					rv.IsThisUserReacted = true
					break
				}
			}
			reacts = append(reacts, rv)
		}
		out = append(out, MessageView{
			MessageID: m.ID,
			UID:       m.Sender,
			Message:   m.Body,
			TimeSent:  m.TimeSent,
			Reacts:    reacts,
			IsPinned:  m.Pinned,
		})
	}
	return out
}
