// Package handlers holds the HTTP handlers of the v1 API. Handlers
// decode and validate transport shapes, delegate to the services, and
// translate apperr kinds to status codes; no workspace rule lives here.
package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"teamline/pkg/admin"
	"teamline/pkg/apperr"
	"teamline/pkg/conv"
	"teamline/pkg/logger"
	"teamline/pkg/notify"
	"teamline/pkg/react"
	"teamline/pkg/standup"
	"teamline/pkg/users"
	"teamline/pkg/utils"
)

// Handlers bundles the services behind the v1 routes.
type Handlers struct {
	Users   *users.Service
	Conv    *conv.Service
	React   *react.Service
	Standup *standup.Service
	Admin   *admin.Service
	Notif   *notify.Engine
}

// writeErr maps service errors to wire statuses: permission failures are
// 403, everything the caller got wrong (validation, unknown ids) is 400.
func writeErr(w http.ResponseWriter, err error) {
	switch apperr.KindOf(err) {
	case apperr.KindPermission:
		utils.JSONError(w, http.StatusForbidden, err.Error())
	case apperr.KindValidation, apperr.KindNotFound:
		utils.JSONError(w, http.StatusBadRequest, err.Error())
	default:
		logger.Error("request_failed", "error", err)
		utils.JSONError(w, http.StatusInternalServerError, "internal error")
	}
}

func decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		utils.JSONError(w, http.StatusBadRequest, "invalid json")
		return false
	}
	return true
}

// queryID parses a required int64 query parameter.
func queryID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	v, err := strconv.ParseInt(r.URL.Query().Get(name), 10, 64)
	if err != nil {
		utils.JSONError(w, http.StatusBadRequest, name+" must be an integer")
		return 0, false
	}
	return v, true
}

func ok(w http.ResponseWriter) {
	_ = utils.JSONWrite(w, http.StatusOK, struct{}{})
}
