package models

import "fmt"

// ConvKind tags a ConvRef as pointing at a channel or a DM.
type ConvKind string

const (
	KindChannel ConvKind = "channel"
	KindDm      ConvKind = "dm"
)

// NotApplicable is the wire sentinel used when one of the two mutually
// exclusive conversation id fields does not apply (share, notifications).
// It exists only at the transport edge; internally a ConvRef is always a
// tagged variant.
const NotApplicable int64 = -1

// ConvRef identifies the single conversation a message belongs to.
type ConvRef struct {
	Kind ConvKind `json:"kind"`
	ID   int64    `json:"id"`
}

// ChannelRef builds a ConvRef for a channel id.
func ChannelRef(id int64) ConvRef { return ConvRef{Kind: KindChannel, ID: id} }

// DmRef builds a ConvRef for a DM id.
func DmRef(id int64) ConvRef { return ConvRef{Kind: KindDm, ID: id} }

// ChannelID returns the channel id or the -1 sentinel for DM refs.
func (r ConvRef) ChannelID() int64 {
	if r.Kind == KindChannel {
		return r.ID
	}
	return NotApplicable
}

// DmID returns the DM id or the -1 sentinel for channel refs.
func (r ConvRef) DmID() int64 {
	if r.Kind == KindDm {
		return r.ID
	}
	return NotApplicable
}

func (r ConvRef) String() string { return fmt.Sprintf("%s:%d", r.Kind, r.ID) }

// Channel is a named conversation with separate member and owner sets.
type Channel struct {
	ID       int64   `json:"channel_id"`
	Name     string  `json:"name"`
	IsPublic bool    `json:"is_public"`
	Members  []int64 `json:"members"`
	Owners   []int64 `json:"owners"`
}

// Dm is an unnamed-by-the-caller conversation owned by its creator.
type Dm struct {
	ID      int64   `json:"dm_id"`
	Name    string  `json:"name"`
	Creator int64   `json:"creator"`
	Members []int64 `json:"members"`
}

func (c *Channel) IsMember(uid int64) bool { return containsID(c.Members, uid) }
func (c *Channel) IsOwner(uid int64) bool  { return containsID(c.Owners, uid) }
func (d *Dm) IsMember(uid int64) bool      { return containsID(d.Members, uid) }

func containsID(ids []int64, id int64) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

// RemoveID returns ids without id, preserving order.
func RemoveID(ids []int64, id int64) []int64 {
	out := ids[:0]
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}
