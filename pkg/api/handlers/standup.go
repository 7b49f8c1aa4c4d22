package handlers

import (
	"net/http"

	"teamline/pkg/auth"
	"teamline/pkg/utils"
)

func (h *Handlers) StandupStart(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ChannelID int64 `json:"channel_id"`
		Length    int64 `json:"length"`
	}
	if !decode(w, r, &req) {
		return
	}
	fireAt, err := h.Standup.Start(auth.Caller(r), req.ChannelID, req.Length)
	if err != nil {
		writeErr(w, err)
		return
	}
	_ = utils.JSONWrite(w, http.StatusOK, struct {
		TimeFinish int64 `json:"time_finish"`
	}{fireAt})
}

func (h *Handlers) StandupSend(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ChannelID int64  `json:"channel_id"`
		Message   string `json:"message"`
	}
	if !decode(w, r, &req) {
		return
	}
	if err := h.Standup.Send(auth.Caller(r), req.ChannelID, req.Message); err != nil {
		writeErr(w, err)
		return
	}
	ok(w)
}

// StandupActive renders time_finish as null while idle.
func (h *Handlers) StandupActive(w http.ResponseWriter, r *http.Request) {
	id, okv := queryID(w, r, "channel_id")
	if !okv {
		return
	}
	active, fireAt, err := h.Standup.Active(auth.Caller(r), id)
	if err != nil {
		writeErr(w, err)
		return
	}
	var finish *int64
	if active {
		finish = &fireAt
	}
	_ = utils.JSONWrite(w, http.StatusOK, struct {
		IsActive   bool   `json:"is_active"`
		TimeFinish *int64 `json:"time_finish"`
	}{active, finish})
}
