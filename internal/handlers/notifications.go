package handlers

import (
	"net/http"

	"task-tracker/internal/logging"
	"task-tracker/internal/middleware"
	"task-tracker/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type NotificationHandler struct {
	notificationService services.NotificationService
	logger              logrus.FieldLogger
}

func NewNotificationHandler(notificationService services.NotificationService, logger logrus.FieldLogger) *NotificationHandler {
	return &NotificationHandler{
		notificationService: notificationService,
		logger:              logging.OrDiscard(logger).WithField("handler", "notifications"),
	}
}

func notificationFailures(internal string) failureMessages {
	return failureMessages{
		notFound:  "Notification not found",
		forbidden: "Unauthorized access to notification",
		internal:  internal,
	}
}

func (h *NotificationHandler) GetNotifications(c *gin.Context) {
	notifications, err := h.notificationService.ListForUser(c.Request.Context(), middleware.ActorFromContext(c))
	if err != nil {
		respondError(c, h.logger, err, notificationFailures("Failed to get notifications"))
		return
	}
	respond(c, http.StatusOK, "Notifications retrieved successfully", notifications)
}

func (h *NotificationHandler) MarkAsRead(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		respondFailure(c, http.StatusNotFound, "Notification not found", "")
		return
	}

	notification, err := h.notificationService.MarkAsRead(c.Request.Context(), middleware.ActorFromContext(c), id)
	if err != nil {
		respondError(c, h.logger, err, notificationFailures("Failed to mark notification as read"))
		return
	}
	respond(c, http.StatusOK, "Notification marked as read", notification)
}

func (h *NotificationHandler) MarkAllAsRead(c *gin.Context) {
	count, err := h.notificationService.MarkAllAsRead(c.Request.Context(), middleware.ActorFromContext(c))
	if err != nil {
		respondError(c, h.logger, err, notificationFailures("Failed to mark notifications as read"))
		return
	}
	respond(c, http.StatusOK, "All notifications marked as read", gin.H{"updated": count})
}
