package models

// Permission ids for workspace-wide roles.
const (
	PermOwner  int64 = 1
	PermMember int64 = 2
)

// User is a registered identity. Removed users keep their row (history
// references them) but lose their handle/email indexes so both become
// reusable immediately.
type User struct {
	ID           int64  `json:"u_id"`
	Email        string `json:"email"`
	NameFirst    string `json:"name_first"`
	NameLast     string `json:"name_last"`
	Handle       string `json:"handle_str"`
	PasswordHash []byte `json:"password_hash,omitempty"`
	Permission   int64  `json:"permission_id"`
	Removed      bool   `json:"removed,omitempty"`
}

// IsGlobalOwner reports workspace-wide owner permission.
func (u *User) IsGlobalOwner() bool { return u.Permission == PermOwner }

// Notification is one entry of a user's feed. Exactly one of ChannelID and
// DmID is a real id; the other carries the -1 sentinel on the wire.
type Notification struct {
	ChannelID int64  `json:"channel_id"`
	DmID      int64  `json:"dm_id"`
	Text      string `json:"notification_message"`
}
