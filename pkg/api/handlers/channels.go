package handlers

import (
	"net/http"

	"teamline/pkg/auth"
	"teamline/pkg/users"
	"teamline/pkg/utils"
)

type channelSummary struct {
	ChannelID int64  `json:"channel_id"`
	Name      string `json:"name"`
}

func (h *Handlers) ChannelsCreate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name     string `json:"name"`
		IsPublic bool   `json:"is_public"`
	}
	if !decode(w, r, &req) {
		return
	}
	id, err := h.Conv.CreateChannel(auth.Caller(r), req.Name, req.IsPublic)
	if err != nil {
		writeErr(w, err)
		return
	}
	_ = utils.JSONWrite(w, http.StatusOK, struct {
		ChannelID int64 `json:"channel_id"`
	}{id})
}

func (h *Handlers) ChannelsList(w http.ResponseWriter, r *http.Request) {
	chs, err := h.Conv.ChannelsFor(auth.Caller(r))
	if err != nil {
		writeErr(w, err)
		return
	}
	out := make([]channelSummary, 0, len(chs))
	for _, ch := range chs {
		out = append(out, channelSummary{ChannelID: ch.ID, Name: ch.Name})
	}
	_ = utils.JSONWrite(w, http.StatusOK, struct {
		Channels []channelSummary `json:"channels"`
	}{out})
}

func (h *Handlers) ChannelsListAll(w http.ResponseWriter, r *http.Request) {
	chs, err := h.Conv.AllChannels()
	if err != nil {
		writeErr(w, err)
		return
	}
	out := make([]channelSummary, 0, len(chs))
	for _, ch := range chs {
		out = append(out, channelSummary{ChannelID: ch.ID, Name: ch.Name})
	}
	_ = utils.JSONWrite(w, http.StatusOK, struct {
		Channels []channelSummary `json:"channels"`
	}{out})
}

func (h *Handlers) ChannelDetails(w http.ResponseWriter, r *http.Request) {
	id, okv := queryID(w, r, "channel_id")
	if !okv {
		return
	}
	ch, err := h.Conv.ChannelDetails(auth.Caller(r), id)
	if err != nil {
		writeErr(w, err)
		return
	}
	_ = utils.JSONWrite(w, http.StatusOK, struct {
		Name         string          `json:"name"`
		IsPublic     bool            `json:"is_public"`
		OwnerMembers []users.Profile `json:"owner_members"`
		AllMembers   []users.Profile `json:"all_members"`
	}{ch.Name, ch.IsPublic, h.profilesOf(ch.Owners), h.profilesOf(ch.Members)})
}

func (h *Handlers) ChannelJoin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ChannelID int64 `json:"channel_id"`
	}
	if !decode(w, r, &req) {
		return
	}
	if err := h.Conv.Join(auth.Caller(r), req.ChannelID); err != nil {
		writeErr(w, err)
		return
	}
	ok(w)
}

func (h *Handlers) ChannelInvite(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ChannelID int64 `json:"channel_id"`
		UID       int64 `json:"u_id"`
	}
	if !decode(w, r, &req) {
		return
	}
	if err := h.Conv.Invite(auth.Caller(r), req.ChannelID, req.UID); err != nil {
		writeErr(w, err)
		return
	}
	ok(w)
}

func (h *Handlers) ChannelLeave(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ChannelID int64 `json:"channel_id"`
	}
	if !decode(w, r, &req) {
		return
	}
	if err := h.Conv.Leave(auth.Caller(r), req.ChannelID); err != nil {
		writeErr(w, err)
		return
	}
	ok(w)
}

func (h *Handlers) ChannelAddOwner(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ChannelID int64 `json:"channel_id"`
		UID       int64 `json:"u_id"`
	}
	if !decode(w, r, &req) {
		return
	}
	if err := h.Conv.AddOwner(auth.Caller(r), req.ChannelID, req.UID); err != nil {
		writeErr(w, err)
		return
	}
	ok(w)
}

func (h *Handlers) ChannelRemoveOwner(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ChannelID int64 `json:"channel_id"`
		UID       int64 `json:"u_id"`
	}
	if !decode(w, r, &req) {
		return
	}
	if err := h.Conv.RemoveOwner(auth.Caller(r), req.ChannelID, req.UID); err != nil {
		writeErr(w, err)
		return
	}
	ok(w)
}

// profilesOf resolves member ids to public profiles, dropping any id
// that no longer resolves.
func (h *Handlers) profilesOf(ids []int64) []users.Profile {
	out := make([]users.Profile, 0, len(ids))
	for _, id := range ids {
		p, err := h.Users.Profile(id)
		if err != nil {
			continue
		}
		out = append(out, p)
	}
	return out
}
