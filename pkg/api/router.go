// Package api wires the v1 routes onto a gorilla/mux router.
package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"teamline/pkg/api/handlers"
)

// OpenPaths lists the routes served without a session token: the two
// entry points into the workspace and the clear used to reset it.
func OpenPaths() map[string]bool {
	return map[string]bool{
		"/v1/auth/register": true,
		"/v1/auth/login":    true,
		"/v1/admin/clear":   true,
	}
}

// NewRouter builds the v1 API router over the handler set.
func NewRouter(h *handlers.Handlers) *mux.Router {
	r := mux.NewRouter()
	v1 := r.PathPrefix("/v1").Subrouter()

	v1.HandleFunc("/auth/register", h.AuthRegister).Methods(http.MethodPost)
	v1.HandleFunc("/auth/login", h.AuthLogin).Methods(http.MethodPost)
	v1.HandleFunc("/auth/logout", h.AuthLogout).Methods(http.MethodPost)

	v1.HandleFunc("/channels/create", h.ChannelsCreate).Methods(http.MethodPost)
	v1.HandleFunc("/channels/list", h.ChannelsList).Methods(http.MethodGet)
	v1.HandleFunc("/channels/listall", h.ChannelsListAll).Methods(http.MethodGet)
	v1.HandleFunc("/channel/details", h.ChannelDetails).Methods(http.MethodGet)
	v1.HandleFunc("/channel/join", h.ChannelJoin).Methods(http.MethodPost)
	v1.HandleFunc("/channel/invite", h.ChannelInvite).Methods(http.MethodPost)
	v1.HandleFunc("/channel/leave", h.ChannelLeave).Methods(http.MethodPost)
	v1.HandleFunc("/channel/addowner", h.ChannelAddOwner).Methods(http.MethodPost)
	v1.HandleFunc("/channel/removeowner", h.ChannelRemoveOwner).Methods(http.MethodPost)
	v1.HandleFunc("/channel/messages", h.ChannelMessages).Methods(http.MethodGet)

	v1.HandleFunc("/dm/create", h.DmCreate).Methods(http.MethodPost)
	v1.HandleFunc("/dm/list", h.DmList).Methods(http.MethodGet)
	v1.HandleFunc("/dm/details", h.DmDetails).Methods(http.MethodGet)
	v1.HandleFunc("/dm/leave", h.DmLeave).Methods(http.MethodPost)
	v1.HandleFunc("/dm/remove", h.DmRemove).Methods(http.MethodDelete)
	v1.HandleFunc("/dm/messages", h.DmMessages).Methods(http.MethodGet)

	v1.HandleFunc("/message/send", h.MessageSend).Methods(http.MethodPost)
	v1.HandleFunc("/message/senddm", h.MessageSendDm).Methods(http.MethodPost)
	v1.HandleFunc("/message/edit", h.MessageEdit).Methods(http.MethodPut)
	v1.HandleFunc("/message/remove", h.MessageRemove).Methods(http.MethodDelete)
	v1.HandleFunc("/message/share", h.MessageShare).Methods(http.MethodPost)
	v1.HandleFunc("/message/sendlater", h.MessageSendLater).Methods(http.MethodPost)
	v1.HandleFunc("/message/react", h.MessageReact).Methods(http.MethodPost)
	v1.HandleFunc("/message/unreact", h.MessageUnreact).Methods(http.MethodPost)
	v1.HandleFunc("/message/pin", h.MessagePin).Methods(http.MethodPost)
	v1.HandleFunc("/message/unpin", h.MessageUnpin).Methods(http.MethodPost)

	v1.HandleFunc("/standup/start", h.StandupStart).Methods(http.MethodPost)
	v1.HandleFunc("/standup/send", h.StandupSend).Methods(http.MethodPost)
	v1.HandleFunc("/standup/active", h.StandupActive).Methods(http.MethodGet)

	v1.HandleFunc("/notifications/get", h.NotificationsGet).Methods(http.MethodGet)
	v1.HandleFunc("/search", h.Search).Methods(http.MethodGet)

	v1.HandleFunc("/users/all", h.UsersAll).Methods(http.MethodGet)
	v1.HandleFunc("/user/profile", h.UserProfile).Methods(http.MethodGet)
	v1.HandleFunc("/user/profile/setname", h.UserSetName).Methods(http.MethodPut)
	v1.HandleFunc("/user/profile/setemail", h.UserSetEmail).Methods(http.MethodPut)
	v1.HandleFunc("/user/profile/sethandle", h.UserSetHandle).Methods(http.MethodPut)

	v1.HandleFunc("/admin/user/remove", h.AdminUserRemove).Methods(http.MethodDelete)
	v1.HandleFunc("/admin/userpermission/change", h.AdminUserPermissionChange).Methods(http.MethodPost)
	v1.HandleFunc("/admin/clear", h.AdminClear).Methods(http.MethodDelete)

	return r
}
