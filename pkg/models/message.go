package models

// Reaction groups the users that reacted with one react id. A record with
// an empty UIDs set is deleted, never left dangling, and a user appears in
// UIDs at most once.
type Reaction struct {
	ReactID int64   `json:"react_id"`
	UIDs    []int64 `json:"u_ids"`
}

// Message belongs to exactly one conversation for its lifetime; sharing
// creates a new message, never a reparent. IDs are globally monotonic
// across channels and DMs from a single counter, which is the documented
// chronological tie-break for ordering.
type Message struct {
	ID        int64      `json:"message_id"`
	Ref       ConvRef    `json:"ref"`
	Sender    int64      `json:"u_id"`
	Body      string     `json:"message"`
	TimeSent  int64      `json:"time_sent"`
	Pinned    bool       `json:"is_pinned"`
	Reactions []Reaction `json:"reacts,omitempty"`
}

// Reaction returns the reaction record for id, or nil.
func (m *Message) Reaction(reactID int64) *Reaction {
	for i := range m.Reactions {
		if m.Reactions[i].ReactID == reactID {
			return &m.Reactions[i]
		}
	}
	return nil
}
