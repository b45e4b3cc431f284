package handler

import (
	"github.com/gin-gonic/gin"

	"modmarket/internal/middleware"
	"modmarket/internal/repository"
	"modmarket/internal/ws"
	"modmarket/pkg/utils"
)

// UserHandler current-user profile handler
type UserHandler struct {
	userRepo repository.UserRepository
	hub      *ws.Hub
}

// NewUserHandler creates a user handler
func NewUserHandler(userRepo repository.UserRepository, hub *ws.Hub) *UserHandler {
	return &UserHandler{
		userRepo: userRepo,
		hub:      hub,
	}
}

// Me returns the caller's profile
func (h *UserHandler) Me(c *gin.Context) {
	user := middleware.MustGetUser(c)

	u, err := h.userRepo.GetByID(c.Request.Context(), user.ID)
	if err != nil {
		utils.FailResponse(c, err)
		return
	}

	utils.SuccessResponse(c, u)
}

// UpdateProfileRequest profile update request. Pointer fields distinguish
// "leave unchanged" from "set empty".
type UpdateProfileRequest struct {
	Email            *string `json:"email" binding:"omitempty,email"`
	TelegramID       *string `json:"telegram_id"`
	PushSubscription *string `json:"push_subscription"`
	NotifyEmail      *bool   `json:"notify_email"`
	NotifyTelegram   *bool   `json:"notify_telegram"`
	NotifyPush       *bool   `json:"notify_push"`
}

// UpdateProfile updates side-channel identities and notification preferences
func (h *UserHandler) UpdateProfile(c *gin.Context) {
	user := middleware.MustGetUser(c)

	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, utils.CodeInvalidParam, err.Error())
		return
	}

	updates := map[string]interface{}{}
	if req.Email != nil {
		updates["email"] = *req.Email
	}
	if req.TelegramID != nil {
		updates["telegram_id"] = *req.TelegramID
	}
	if req.PushSubscription != nil {
		updates["push_subscription"] = *req.PushSubscription
	}
	if req.NotifyEmail != nil {
		updates["notify_email"] = *req.NotifyEmail
	}
	if req.NotifyTelegram != nil {
		updates["notify_telegram"] = *req.NotifyTelegram
	}
	if req.NotifyPush != nil {
		updates["notify_push"] = *req.NotifyPush
	}
	if len(updates) == 0 {
		utils.Error(c, utils.CodeInvalidParam, "nothing to update")
		return
	}

	if err := h.userRepo.UpdateProfile(c.Request.Context(), user.ID, updates); err != nil {
		utils.FailResponse(c, err)
		return
	}

	u, err := h.userRepo.GetByID(c.Request.Context(), user.ID)
	if err != nil {
		utils.FailResponse(c, err)
		return
	}

	utils.SuccessResponse(c, u)
}

// OnlineUsers returns the IDs of currently connected users
func (h *UserHandler) OnlineUsers(c *gin.Context) {
	utils.SuccessResponse(c, gin.H{
		"online_user_ids": h.hub.OnlineUsers(),
		"count":           h.hub.OnlineCount(),
	})
}
