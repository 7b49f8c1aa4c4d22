package handlers

import (
	"net/http"

	"teamline/pkg/auth"
	"teamline/pkg/users"
	"teamline/pkg/utils"
)

func (h *Handlers) UserProfile(w http.ResponseWriter, r *http.Request) {
	uid, okv := queryID(w, r, "u_id")
	if !okv {
		return
	}
	p, err := h.Users.Profile(uid)
	if err != nil {
		writeErr(w, err)
		return
	}
	_ = utils.JSONWrite(w, http.StatusOK, struct {
		User users.Profile `json:"user"`
	}{p})
}

func (h *Handlers) UsersAll(w http.ResponseWriter, r *http.Request) {
	ps, err := h.Users.All()
	if err != nil {
		writeErr(w, err)
		return
	}
	_ = utils.JSONWrite(w, http.StatusOK, struct {
		Users []users.Profile `json:"users"`
	}{ps})
}

func (h *Handlers) UserSetName(w http.ResponseWriter, r *http.Request) {
	var req struct {
		NameFirst string `json:"name_first"`
		NameLast  string `json:"name_last"`
	}
	if !decode(w, r, &req) {
		return
	}
	if err := h.Users.SetName(auth.Caller(r), req.NameFirst, req.NameLast); err != nil {
		writeErr(w, err)
		return
	}
	ok(w)
}

func (h *Handlers) UserSetEmail(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if !decode(w, r, &req) {
		return
	}
	if err := h.Users.SetEmail(auth.Caller(r), req.Email); err != nil {
		writeErr(w, err)
		return
	}
	ok(w)
}

func (h *Handlers) UserSetHandle(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Handle string `json:"handle_str"`
	}
	if !decode(w, r, &req) {
		return
	}
	if err := h.Users.SetHandle(auth.Caller(r), req.Handle); err != nil {
		writeErr(w, err)
		return
	}
	ok(w)
}
