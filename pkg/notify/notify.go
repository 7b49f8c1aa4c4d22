// Package notify parses @mentions out of message bodies and maintains the
// per-user notification feeds. Notification pushes are best-effort side
// effects of an already-committed mutation: failures are logged, never
// propagated back to the caller.
package notify

import (
	"regexp"
	"unicode/utf8"

	"teamline/pkg/logger"
	"teamline/pkg/metrics"
	"teamline/pkg/models"
	"teamline/pkg/store"
)

// FeedLimit is the number of feed entries a user can retrieve.
const FeedLimit = 20

// snippetLen is the tag/share snippet cap in characters, counted after
// any prefix.
const snippetLen = 20

// A mention is '@' followed by a maximal run of handle characters. A
// handle embedded in a longer alphanumeric run therefore does not match
// unless the '@' sits immediately before it.
var mentionRe = regexp.MustCompile(`@[a-zA-Z0-9]+`)

// Mentions returns the distinct candidate handles mentioned in body, in
// first-appearance order. Validity against conversation membership is the
// engine's job.
func Mentions(body string) []string {
	seen := map[string]bool{}
	var out []string
	for _, m := range mentionRe.FindAllString(body, -1) {
		h := m[1:]
		if !seen[h] {
			seen[h] = true
			out = append(out, h)
		}
	}
	return out
}

// Engine appends notification records against the store.
type Engine struct {
	st *store.Store
}

func NewEngine(st *store.Store) *Engine { return &Engine{st: st} }

// Tagged scans body for valid member mentions and notifies each distinct
// tagged user except the sender. One send/edit/share event produces at
// most one notification per user, but separate events never deduplicate
// against each other. shared selects the "shared: " snippet prefix.
func (e *Engine) Tagged(ref models.ConvRef, sender int64, body string, shared bool) {
	handles := Mentions(body)
	if len(handles) == 0 {
		return
	}
	name, members, _, err := e.st.Conversation(ref)
	if err != nil {
		logger.Error("notify_conversation_lookup_failed", "ref", ref.String(), "error", err)
		return
	}
	senderHandle := e.handleOf(sender)
	effective := body
	if shared {
		effective = "shared: " + body
	}
	text := senderHandle + " tagged you in " + name + ": " + snippet(effective)
	for _, h := range handles {
		u, err := e.st.UserByHandle(h)
		if err != nil {
			continue // not a registered handle; not a valid mention
		}
		if u.ID == sender || !memberOf(members, u.ID) {
			continue
		}
		e.push(u.ID, ref, text, "tag")
	}
}

// Invited notifies target that inviter added them to the conversation.
func (e *Engine) Invited(ref models.ConvRef, inviter, target int64) {
	name, _, _, err := e.st.Conversation(ref)
	if err != nil {
		logger.Error("notify_conversation_lookup_failed", "ref", ref.String(), "error", err)
		return
	}
	e.push(target, ref, e.handleOf(inviter)+" added you to "+name, "invite")
}

// Reacted notifies the message sender that reactor reacted. Self-reacts
// and senders who have since left the conversation are skipped.
func (e *Engine) Reacted(ref models.ConvRef, reactor, msgSender int64) {
	if reactor == msgSender {
		return
	}
	name, members, _, err := e.st.Conversation(ref)
	if err != nil {
		logger.Error("notify_conversation_lookup_failed", "ref", ref.String(), "error", err)
		return
	}
	if !memberOf(members, msgSender) {
		return
	}
	e.push(msgSender, ref, e.handleOf(reactor)+" reacted to your message in "+name, "react")
}

// Feed returns the newest FeedLimit entries of a user's feed.
func (e *Engine) Feed(uid int64) ([]models.Notification, error) {
	return e.st.Notifications(uid, FeedLimit)
}

func (e *Engine) push(uid int64, ref models.ConvRef, text, kind string) {
	n := models.Notification{
		ChannelID: ref.ChannelID(),
		DmID:      ref.DmID(),
		Text:      text,
	}
	if err := e.st.PushNotification(uid, n); err != nil {
		logger.Error("notification_push_failed", "uid", uid, "kind", kind, "error", err)
		return
	}
	metrics.NotificationsEmitted.WithLabelValues(kind).Inc()
	logger.Debug("notification_pushed", "uid", uid, "kind", kind)
}

func (e *Engine) handleOf(uid int64) string {
	u, err := e.st.User(uid)
	if err != nil {
		return "unknown"
	}
	return u.Handle
}

func snippet(s string) string {
	i := 0
	for n := 0; i < len(s); n++ {
		if n == snippetLen {
			return s[:i]
		}
		_, w := utf8.DecodeRuneInString(s[i:])
		i += w
	}
	return s
}

func memberOf(members []int64, uid int64) bool {
	for _, m := range members {
		if m == uid {
			return true
		}
	}
	return false
}
