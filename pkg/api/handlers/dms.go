package handlers

import (
	"net/http"

	"teamline/pkg/auth"
	"teamline/pkg/users"
	"teamline/pkg/utils"
)

type dmSummary struct {
	DmID int64  `json:"dm_id"`
	Name string `json:"name"`
}

func (h *Handlers) DmCreate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UIDs []int64 `json:"u_ids"`
	}
	if !decode(w, r, &req) {
		return
	}
	id, err := h.Conv.CreateDm(auth.Caller(r), req.UIDs)
	if err != nil {
		writeErr(w, err)
		return
	}
	_ = utils.JSONWrite(w, http.StatusOK, struct {
		DmID int64 `json:"dm_id"`
	}{id})
}

func (h *Handlers) DmList(w http.ResponseWriter, r *http.Request) {
	dms, err := h.Conv.DmsFor(auth.Caller(r))
	if err != nil {
		writeErr(w, err)
		return
	}
	out := make([]dmSummary, 0, len(dms))
	for _, dm := range dms {
		out = append(out, dmSummary{DmID: dm.ID, Name: dm.Name})
	}
	_ = utils.JSONWrite(w, http.StatusOK, struct {
		Dms []dmSummary `json:"dms"`
	}{out})
}

func (h *Handlers) DmDetails(w http.ResponseWriter, r *http.Request) {
	id, okv := queryID(w, r, "dm_id")
	if !okv {
		return
	}
	dm, err := h.Conv.DmDetails(auth.Caller(r), id)
	if err != nil {
		writeErr(w, err)
		return
	}
	_ = utils.JSONWrite(w, http.StatusOK, struct {
		Name    string          `json:"name"`
		Members []users.Profile `json:"members"`
	}{dm.Name, h.profilesOf(dm.Members)})
}

func (h *Handlers) DmLeave(w http.ResponseWriter, r *http.Request) {
	var req struct {
		DmID int64 `json:"dm_id"`
	}
	if !decode(w, r, &req) {
		return
	}
	if err := h.Conv.DmLeave(auth.Caller(r), req.DmID); err != nil {
		writeErr(w, err)
		return
	}
	ok(w)
}

func (h *Handlers) DmRemove(w http.ResponseWriter, r *http.Request) {
	id, okv := queryID(w, r, "dm_id")
	if !okv {
		return
	}
	if err := h.Conv.DmRemove(auth.Caller(r), id); err != nil {
		writeErr(w, err)
		return
	}
	ok(w)
}
