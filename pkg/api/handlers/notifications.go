package handlers

import (
	"net/http"

	"teamline/pkg/auth"
	"teamline/pkg/models"
	"teamline/pkg/utils"
)

// NotificationsGet returns the caller's 20 most recent notifications,
// newest first.
func (h *Handlers) NotificationsGet(w http.ResponseWriter, r *http.Request) {
	feed, err := h.Notif.Feed(auth.Caller(r))
	if err != nil {
		writeErr(w, err)
		return
	}
	_ = utils.JSONWrite(w, http.StatusOK, struct {
		Notifications []models.Notification `json:"notifications"`
	}{feed})
}
