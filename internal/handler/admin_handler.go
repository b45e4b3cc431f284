package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"modmarket/internal/repository"
	"modmarket/internal/service/deal"
	"modmarket/internal/ws"
	"modmarket/pkg/log"
	"modmarket/pkg/utils"
)

// AdminHandler admin-only operations
type AdminHandler struct {
	userRepo    repository.UserRepository
	dealRepo    repository.DealRepository
	productRepo repository.ProductRepository
	dealService deal.DealService
	hub         *ws.Hub
}

// NewAdminHandler creates an admin handler
func NewAdminHandler(
	userRepo repository.UserRepository,
	dealRepo repository.DealRepository,
	productRepo repository.ProductRepository,
	dealService deal.DealService,
	hub *ws.Hub,
) *AdminHandler {
	return &AdminHandler{
		userRepo:    userRepo,
		dealRepo:    dealRepo,
		productRepo: productRepo,
		dealService: dealService,
		hub:         hub,
	}
}

// ListUsers returns all users
func (h *AdminHandler) ListUsers(c *gin.Context) {
	users, err := h.userRepo.List(c.Request.Context())
	if err != nil {
		utils.FailResponse(c, err)
		return
	}

	utils.SuccessResponse(c, users)
}

func (h *AdminHandler) userIDParam(c *gin.Context) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		utils.Error(c, utils.CodeInvalidParam, "invalid user id")
		return 0, false
	}
	return id, true
}

// BanUser bans an account. All of its active deals are cancelled in one
// transaction and its live connection, if any, is dropped.
func (h *AdminHandler) BanUser(c *gin.Context) {
	id, ok := h.userIDParam(c)
	if !ok {
		return
	}

	target, err := h.userRepo.GetByID(c.Request.Context(), id)
	if err != nil {
		utils.FailResponse(c, err)
		return
	}
	if target.IsAdmin {
		utils.Error(c, utils.CodeForbidden, "cannot ban an admin account")
		return
	}

	if err := h.userRepo.SetBanned(c.Request.Context(), id, true); err != nil {
		utils.FailResponse(c, err)
		return
	}

	cancelled, err := h.dealService.CancelActiveDealsForUser(c.Request.Context(), actorFrom(c), id)
	if err != nil {
		// The ban flag is already set; report the partial state instead of
		// pretending nothing happened.
		log.Errorf("ban user %d: cancel active deals: %v", id, err)
		utils.FailResponse(c, err)
		return
	}

	h.hub.Disconnect(id)

	utils.SuccessResponse(c, gin.H{
		"banned":          id,
		"deals_cancelled": cancelled,
	})
}

// UnbanUser lifts a ban. Cancelled deals stay cancelled.
func (h *AdminHandler) UnbanUser(c *gin.Context) {
	id, ok := h.userIDParam(c)
	if !ok {
		return
	}

	if _, err := h.userRepo.GetByID(c.Request.Context(), id); err != nil {
		utils.FailResponse(c, err)
		return
	}

	if err := h.userRepo.SetBanned(c.Request.Context(), id, false); err != nil {
		utils.FailResponse(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{"unbanned": id})
}

// Stats returns marketplace totals
func (h *AdminHandler) Stats(c *gin.Context) {
	ctx := c.Request.Context()

	userCount, err := h.userRepo.Count(ctx)
	if err != nil {
		utils.FailResponse(c, err)
		return
	}

	productCount, err := h.productRepo.Count(ctx)
	if err != nil {
		utils.FailResponse(c, err)
		return
	}

	byStatus, err := h.dealRepo.CountByStatus(ctx)
	if err != nil {
		utils.FailResponse(c, err)
		return
	}

	revenue, err := h.dealRepo.CompletedRevenue(ctx)
	if err != nil {
		utils.FailResponse(c, err)
		return
	}

	var dealTotal int64
	for _, n := range byStatus {
		dealTotal += n
	}

	utils.SuccessResponse(c, gin.H{
		"users":           userCount,
		"products":        productCount,
		"deals_total":     dealTotal,
		"deals_by_status": byStatus,
		"revenue":         revenue,
		"online_users":    h.hub.OnlineCount(),
	})
}
