package handler

import (
	"github.com/gin-gonic/gin"

	"modmarket/internal/middleware"
	"modmarket/internal/service/auth"
	"modmarket/pkg/utils"
)

// AuthHandler authentication handler
type AuthHandler struct {
	authService auth.AuthService
}

// NewAuthHandler creates an authentication handler
func NewAuthHandler(authService auth.AuthService) *AuthHandler {
	return &AuthHandler{
		authService: authService,
	}
}

// Register registers a new account
func (h *AuthHandler) Register(c *gin.Context) {
	var req auth.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, utils.CodeInvalidParam, err.Error())
		return
	}

	user, err := h.authService.Register(c.Request.Context(), &req)
	if err != nil {
		utils.FailResponse(c, err)
		return
	}

	utils.SuccessResponse(c, user)
}

// Login exchanges credentials for a token pair
func (h *AuthHandler) Login(c *gin.Context) {
	var req auth.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, utils.CodeInvalidParam, err.Error())
		return
	}

	tokens, err := h.authService.Login(c.Request.Context(), &req, c.ClientIP())
	if err != nil {
		utils.FailResponse(c, err)
		return
	}

	utils.SuccessResponse(c, tokens)
}

// Logout invalidates the caller's current access token
func (h *AuthHandler) Logout(c *gin.Context) {
	user := middleware.MustGetUser(c)
	token, _ := middleware.GetToken(c)

	if err := h.authService.Logout(c.Request.Context(), user.ID, token); err != nil {
		utils.FailResponse(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{"message": "logged out"})
}

// RefreshRequest token refresh request
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// Refresh issues a new access token from a refresh token
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, utils.CodeInvalidParam, err.Error())
		return
	}

	tokens, err := h.authService.RefreshToken(c.Request.Context(), req.RefreshToken)
	if err != nil {
		utils.FailResponse(c, err)
		return
	}

	utils.SuccessResponse(c, tokens)
}
