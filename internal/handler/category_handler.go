package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"modmarket/internal/model"
	"modmarket/internal/repository"
	"modmarket/pkg/utils"
)

// CategoryHandler category handler
type CategoryHandler struct {
	categoryRepo repository.CategoryRepository
}

// NewCategoryHandler creates a category handler
func NewCategoryHandler(categoryRepo repository.CategoryRepository) *CategoryHandler {
	return &CategoryHandler{
		categoryRepo: categoryRepo,
	}
}

// List returns all categories
func (h *CategoryHandler) List(c *gin.Context) {
	categories, err := h.categoryRepo.List(c.Request.Context())
	if err != nil {
		utils.FailResponse(c, err)
		return
	}

	utils.SuccessResponse(c, categories)
}

// CategoryRequest category create/update request
type CategoryRequest struct {
	NameRU        string  `json:"name_ru" binding:"required,max=100"`
	NameEN        string  `json:"name_en" binding:"required,max=100"`
	DescriptionRU *string `json:"description_ru"`
	DescriptionEN *string `json:"description_en"`
	Icon          *string `json:"icon"`
}

// Create adds a category (admin)
func (h *CategoryHandler) Create(c *gin.Context) {
	var req CategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, utils.CodeInvalidParam, err.Error())
		return
	}

	category := &model.Category{
		NameRU:        req.NameRU,
		NameEN:        req.NameEN,
		DescriptionRU: req.DescriptionRU,
		DescriptionEN: req.DescriptionEN,
		Icon:          req.Icon,
	}
	if err := h.categoryRepo.Create(c.Request.Context(), category); err != nil {
		utils.FailResponse(c, err)
		return
	}

	utils.SuccessResponse(c, category)
}

// Update replaces a category's fields (admin)
func (h *CategoryHandler) Update(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		utils.Error(c, utils.CodeInvalidParam, "invalid category id")
		return
	}

	var req CategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, utils.CodeInvalidParam, err.Error())
		return
	}

	category, err := h.categoryRepo.GetByID(c.Request.Context(), id)
	if err != nil {
		utils.FailResponse(c, err)
		return
	}

	category.NameRU = req.NameRU
	category.NameEN = req.NameEN
	category.DescriptionRU = req.DescriptionRU
	category.DescriptionEN = req.DescriptionEN
	category.Icon = req.Icon

	if err := h.categoryRepo.Update(c.Request.Context(), category); err != nil {
		utils.FailResponse(c, err)
		return
	}

	utils.SuccessResponse(c, category)
}

// Delete removes a category (admin)
func (h *CategoryHandler) Delete(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		utils.Error(c, utils.CodeInvalidParam, "invalid category id")
		return
	}

	if err := h.categoryRepo.Delete(c.Request.Context(), id); err != nil {
		utils.FailResponse(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{"deleted": id})
}
