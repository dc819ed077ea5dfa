package handlers

import (
	"net/http"

	"rentflow-backend/internal/notify"
)

// NotificationHandler upgrades to the per-user toast stream
type NotificationHandler struct {
	Hub *notify.Hub
}

func NewNotificationHandler(hub *notify.Hub) *NotificationHandler {
	return &NotificationHandler{Hub: hub}
}

func (h *NotificationHandler) Stream(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	h.Hub.ServeUser(w, r, actor.UserID)
}
