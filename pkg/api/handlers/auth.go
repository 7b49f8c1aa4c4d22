package handlers

import (
	"net/http"

	"teamline/pkg/auth"
	"teamline/pkg/utils"
)

type registerRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	NameFirst string `json:"name_first"`
	NameLast  string `json:"name_last"`
}

func (h *Handlers) AuthRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !decode(w, r, &req) {
		return
	}
	res, err := h.Users.Register(req.Email, req.Password, req.NameFirst, req.NameLast)
	if err != nil {
		writeErr(w, err)
		return
	}
	_ = utils.JSONWrite(w, http.StatusOK, res)
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handlers) AuthLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decode(w, r, &req) {
		return
	}
	res, err := h.Users.Login(req.Email, req.Password)
	if err != nil {
		writeErr(w, err)
		return
	}
	_ = utils.JSONWrite(w, http.StatusOK, res)
}

func (h *Handlers) AuthLogout(w http.ResponseWriter, r *http.Request) {
	if err := h.Users.Logout(r.Header.Get(auth.TokenHeader)); err != nil {
		writeErr(w, err)
		return
	}
	ok(w)
}
