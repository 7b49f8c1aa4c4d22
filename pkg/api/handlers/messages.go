package handlers

import (
	"net/http"

	"teamline/pkg/auth"
	"teamline/pkg/conv"
	"teamline/pkg/models"
	"teamline/pkg/utils"
)

type messageIDResponse struct {
	MessageID int64 `json:"message_id"`
}

func (h *Handlers) MessageSend(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ChannelID int64  `json:"channel_id"`
		Message   string `json:"message"`
	}
	if !decode(w, r, &req) {
		return
	}
	id, err := h.Conv.Send(auth.Caller(r), models.ChannelRef(req.ChannelID), req.Message)
	if err != nil {
		writeErr(w, err)
		return
	}
	_ = utils.JSONWrite(w, http.StatusOK, messageIDResponse{id})
}

func (h *Handlers) MessageSendDm(w http.ResponseWriter, r *http.Request) {
	var req struct {
		DmID    int64  `json:"dm_id"`
		Message string `json:"message"`
	}
	if !decode(w, r, &req) {
		return
	}
	id, err := h.Conv.Send(auth.Caller(r), models.DmRef(req.DmID), req.Message)
	if err != nil {
		writeErr(w, err)
		return
	}
	_ = utils.JSONWrite(w, http.StatusOK, messageIDResponse{id})
}

func (h *Handlers) MessageEdit(w http.ResponseWriter, r *http.Request) {
	var req struct {
		MessageID int64  `json:"message_id"`
		Message   string `json:"message"`
	}
	if !decode(w, r, &req) {
		return
	}
	if err := h.Conv.Edit(auth.Caller(r), req.MessageID, req.Message); err != nil {
		writeErr(w, err)
		return
	}
	ok(w)
}

func (h *Handlers) MessageRemove(w http.ResponseWriter, r *http.Request) {
	id, okv := queryID(w, r, "message_id")
	if !okv {
		return
	}
	if err := h.Conv.Remove(auth.Caller(r), id); err != nil {
		writeErr(w, err)
		return
	}
	ok(w)
}

func (h *Handlers) ChannelMessages(w http.ResponseWriter, r *http.Request) {
	id, okv := queryID(w, r, "channel_id")
	if !okv {
		return
	}
	start, okv := queryID(w, r, "start")
	if !okv {
		return
	}
	page, err := h.Conv.Messages(auth.Caller(r), models.ChannelRef(id), start)
	if err != nil {
		writeErr(w, err)
		return
	}
	_ = utils.JSONWrite(w, http.StatusOK, page)
}

func (h *Handlers) DmMessages(w http.ResponseWriter, r *http.Request) {
	id, okv := queryID(w, r, "dm_id")
	if !okv {
		return
	}
	start, okv := queryID(w, r, "start")
	if !okv {
		return
	}
	page, err := h.Conv.Messages(auth.Caller(r), models.DmRef(id), start)
	if err != nil {
		writeErr(w, err)
		return
	}
	_ = utils.JSONWrite(w, http.StatusOK, page)
}

// MessageShare takes exactly one of channel_id / dm_id; the other must
// carry the -1 sentinel.
func (h *Handlers) MessageShare(w http.ResponseWriter, r *http.Request) {
	var req struct {
		OgMessageID int64  `json:"og_message_id"`
		Message     string `json:"message"`
		ChannelID   int64  `json:"channel_id"`
		DmID        int64  `json:"dm_id"`
	}
	if !decode(w, r, &req) {
		return
	}
	var ref models.ConvRef
	switch {
	case req.ChannelID != models.NotApplicable && req.DmID == models.NotApplicable:
		ref = models.ChannelRef(req.ChannelID)
	case req.DmID != models.NotApplicable && req.ChannelID == models.NotApplicable:
		ref = models.DmRef(req.DmID)
	default:
		utils.JSONError(w, http.StatusBadRequest, "exactly one of channel_id and dm_id must be -1")
		return
	}
	id, err := h.Conv.Share(auth.Caller(r), req.OgMessageID, req.Message, ref)
	if err != nil {
		writeErr(w, err)
		return
	}
	_ = utils.JSONWrite(w, http.StatusOK, struct {
		SharedMessageID int64 `json:"shared_message_id"`
	}{id})
}

func (h *Handlers) MessageSendLater(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ChannelID int64  `json:"channel_id"`
		Message   string `json:"message"`
		TimeSent  int64  `json:"time_sent"`
	}
	if !decode(w, r, &req) {
		return
	}
	id, err := h.Conv.SendLater(auth.Caller(r), req.ChannelID, req.Message, req.TimeSent)
	if err != nil {
		writeErr(w, err)
		return
	}
	_ = utils.JSONWrite(w, http.StatusOK, messageIDResponse{id})
}

func (h *Handlers) MessageReact(w http.ResponseWriter, r *http.Request) {
	var req struct {
		MessageID int64 `json:"message_id"`
		ReactID   int64 `json:"react_id"`
	}
	if !decode(w, r, &req) {
		return
	}
	if err := h.React.React(auth.Caller(r), req.MessageID, req.ReactID); err != nil {
		writeErr(w, err)
		return
	}
	ok(w)
}

func (h *Handlers) MessageUnreact(w http.ResponseWriter, r *http.Request) {
	var req struct {
		MessageID int64 `json:"message_id"`
		ReactID   int64 `json:"react_id"`
	}
	if !decode(w, r, &req) {
		return
	}
	if err := h.React.Unreact(auth.Caller(r), req.MessageID, req.ReactID); err != nil {
		writeErr(w, err)
		return
	}
	ok(w)
}

func (h *Handlers) MessagePin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		MessageID int64 `json:"message_id"`
	}
	if !decode(w, r, &req) {
		return
	}
	if err := h.React.Pin(auth.Caller(r), req.MessageID); err != nil {
		writeErr(w, err)
		return
	}
	ok(w)
}

func (h *Handlers) MessageUnpin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		MessageID int64 `json:"message_id"`
	}
	if !decode(w, r, &req) {
		return
	}
	if err := h.React.Unpin(auth.Caller(r), req.MessageID); err != nil {
		writeErr(w, err)
		return
	}
	ok(w)
}

func (h *Handlers) Search(w http.ResponseWriter, r *http.Request) {
	hits, err := h.Conv.Search(auth.Caller(r), r.URL.Query().Get("query_str"))
	if err != nil {
		writeErr(w, err)
		return
	}
	_ = utils.JSONWrite(w, http.StatusOK, struct {
		Messages []conv.MessageView `json:"messages"`
	}{hits})
}
