package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"modmarket/internal/middleware"
	"modmarket/internal/repository"
	"modmarket/pkg/utils"
)

// NotificationHandler notification feed handler
type NotificationHandler struct {
	notificationRepo repository.NotificationRepository
}

// NewNotificationHandler creates a notification handler
func NewNotificationHandler(notificationRepo repository.NotificationRepository) *NotificationHandler {
	return &NotificationHandler{
		notificationRepo: notificationRepo,
	}
}

// List returns the caller's notifications, newest first
func (h *NotificationHandler) List(c *gin.Context) {
	user := middleware.MustGetUser(c)

	notifications, err := h.notificationRepo.ListByUser(c.Request.Context(), user.ID)
	if err != nil {
		utils.FailResponse(c, err)
		return
	}

	utils.SuccessResponse(c, notifications)
}

// UnreadCount returns how many of the caller's notifications are unread
func (h *NotificationHandler) UnreadCount(c *gin.Context) {
	user := middleware.MustGetUser(c)

	count, err := h.notificationRepo.CountUnread(c.Request.Context(), user.ID)
	if err != nil {
		utils.FailResponse(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{"unread": count})
}

// MarkRead marks one of the caller's notifications as read
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	user := middleware.MustGetUser(c)

	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		utils.Error(c, utils.CodeInvalidParam, "invalid notification id")
		return
	}

	if err := h.notificationRepo.MarkRead(c.Request.Context(), id, user.ID); err != nil {
		utils.FailResponse(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{"read": id})
}

// MarkAllRead marks all of the caller's notifications as read
func (h *NotificationHandler) MarkAllRead(c *gin.Context) {
	user := middleware.MustGetUser(c)

	if err := h.notificationRepo.MarkAllRead(c.Request.Context(), user.ID); err != nil {
		utils.FailResponse(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{"message": "all read"})
}
