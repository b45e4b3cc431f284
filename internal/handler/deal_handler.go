package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"modmarket/internal/middleware"
	"modmarket/internal/model"
	"modmarket/internal/service/deal"
	"modmarket/pkg/utils"
)

// DealHandler deal lifecycle handler
type DealHandler struct {
	dealService deal.DealService
}

// NewDealHandler creates a deal handler
func NewDealHandler(dealService deal.DealService) *DealHandler {
	return &DealHandler{
		dealService: dealService,
	}
}

func actorFrom(c *gin.Context) deal.Actor {
	u := middleware.MustGetUser(c)
	return deal.Actor{
		ID:       u.ID,
		Username: u.Username,
		IsAdmin:  u.IsAdmin,
	}
}

func dealIDParam(c *gin.Context) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		utils.Error(c, utils.CodeInvalidParam, "invalid deal id")
		return 0, false
	}
	return id, true
}

// CreateDealRequest deal creation request
type CreateDealRequest struct {
	ProductID uint64 `json:"product_id" binding:"required"`
}

// Create opens a pending deal on a product
func (h *DealHandler) Create(c *gin.Context) {
	var req CreateDealRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, utils.CodeInvalidParam, err.Error())
		return
	}

	d, err := h.dealService.Create(c.Request.Context(), actorFrom(c), req.ProductID)
	if err != nil {
		utils.FailResponse(c, err)
		return
	}

	utils.SuccessResponse(c, d)
}

// List returns the caller's deals, or all deals for admins
func (h *DealHandler) List(c *gin.Context) {
	deals, err := h.dealService.List(c.Request.Context(), actorFrom(c))
	if err != nil {
		utils.FailResponse(c, err)
		return
	}

	utils.SuccessResponse(c, deals)
}

// Get returns one deal
func (h *DealHandler) Get(c *gin.Context) {
	id, ok := dealIDParam(c)
	if !ok {
		return
	}

	d, err := h.dealService.Get(c.Request.Context(), actorFrom(c), id)
	if err != nil {
		utils.FailResponse(c, err)
		return
	}

	utils.SuccessResponse(c, d)
}

// UpdateDealStatusRequest status transition request
type UpdateDealStatusRequest struct {
	Status        string  `json:"status" binding:"required"`
	SteamCardCode *string `json:"steam_card_code"`
}

// UpdateStatus moves the deal through the status graph
func (h *DealHandler) UpdateStatus(c *gin.Context) {
	id, ok := dealIDParam(c)
	if !ok {
		return
	}

	var req UpdateDealStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, utils.CodeInvalidParam, err.Error())
		return
	}

	d, err := h.dealService.UpdateStatus(
		c.Request.Context(),
		actorFrom(c),
		id,
		model.DealStatus(req.Status),
		req.SteamCardCode,
	)
	if err != nil {
		utils.FailResponse(c, err)
		return
	}

	utils.SuccessResponse(c, d)
}

// SendMessageRequest thread message request
type SendMessageRequest struct {
	Message string `json:"message" binding:"required,min=1,max=2000"`
}

// SendMessage appends a message to the deal thread
func (h *DealHandler) SendMessage(c *gin.Context) {
	id, ok := dealIDParam(c)
	if !ok {
		return
	}

	var req SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, utils.CodeInvalidParam, err.Error())
		return
	}

	msg, err := h.dealService.SendMessage(c.Request.Context(), actorFrom(c), id, req.Message)
	if err != nil {
		utils.FailResponse(c, err)
		return
	}

	utils.SuccessResponse(c, msg)
}

// ListMessages returns the deal thread in creation order
func (h *DealHandler) ListMessages(c *gin.Context) {
	id, ok := dealIDParam(c)
	if !ok {
		return
	}

	msgs, err := h.dealService.ListMessages(c.Request.Context(), actorFrom(c), id)
	if err != nil {
		utils.FailResponse(c, err)
		return
	}

	utils.SuccessResponse(c, msgs)
}
