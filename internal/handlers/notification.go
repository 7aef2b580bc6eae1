package handlers

import (
	"net/http"

	"dilemmas/internal/middleware"
	"dilemmas/internal/services"

	"github.com/gin-gonic/gin"
)

type NotificationHandler struct {
	notifications *services.NotificationService
}

func NewNotificationHandler(notifications *services.NotificationService) *NotificationHandler {
	return &NotificationHandler{notifications: notifications}
}

func (h *NotificationHandler) List(c *gin.Context) {
	notifications, err := h.notifications.List(c.Request.Context(), middleware.CurrentPrincipal(c).UserID)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "", notifications)
}

// Read marks a single notification as read.
func (h *NotificationHandler) Read(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	if err := h.notifications.MarkRead(c.Request.Context(), id, middleware.CurrentPrincipal(c).UserID); err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "notification marked as read", nil)
}
