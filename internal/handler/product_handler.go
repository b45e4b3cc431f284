package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"modmarket/internal/middleware"
	"modmarket/internal/model"
	"modmarket/internal/repository"
	"modmarket/internal/service/product"
	"modmarket/pkg/utils"
)

// ProductHandler product catalog handler
type ProductHandler struct {
	productService product.ProductService
}

// NewProductHandler creates a product handler
func NewProductHandler(productService product.ProductService) *ProductHandler {
	return &ProductHandler{
		productService: productService,
	}
}

// List returns a filtered product page. Non-admin callers only see active
// products.
func (h *ProductHandler) List(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	categoryID, _ := strconv.ParseUint(c.Query("category_id"), 10, 64)

	onlyActive := true
	if u, ok := middleware.GetUser(c); ok && u.IsAdmin {
		onlyActive = c.Query("include_inactive") == ""
	}

	filter := repository.ProductFilter{
		CategoryID: categoryID,
		Search:     c.Query("search"),
		OnlyActive: onlyActive,
	}

	products, total, err := h.productService.List(c.Request.Context(), filter, page, pageSize)
	if err != nil {
		utils.FailResponse(c, err)
		return
	}

	utils.SuccessPageResponse(c, products, total, page, pageSize)
}

// Get returns one product
func (h *ProductHandler) Get(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		utils.Error(c, utils.CodeInvalidParam, "invalid product id")
		return
	}

	p, err := h.productService.Get(c.Request.Context(), id)
	if err != nil {
		utils.FailResponse(c, err)
		return
	}

	utils.SuccessResponse(c, p)
}

// ProductRequest product create/update request
type ProductRequest struct {
	CategoryID    uint64  `json:"category_id" binding:"required"`
	TitleRU       string  `json:"title_ru" binding:"required,max=200"`
	TitleEN       string  `json:"title_en" binding:"required,max=200"`
	DescriptionRU string  `json:"description_ru" binding:"required"`
	DescriptionEN string  `json:"description_en" binding:"required"`
	Price         int64   `json:"price" binding:"required,gt=0"`
	Currency      string  `json:"currency"`
	ImageURL      *string `json:"image_url"`
	DownloadLink  *string `json:"download_link"`
	StockQuantity *int    `json:"stock_quantity"`
}

// Create adds a product (admin)
func (h *ProductHandler) Create(c *gin.Context) {
	var req ProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, utils.CodeInvalidParam, err.Error())
		return
	}

	p := &model.Product{
		CategoryID:    req.CategoryID,
		TitleRU:       req.TitleRU,
		TitleEN:       req.TitleEN,
		DescriptionRU: req.DescriptionRU,
		DescriptionEN: req.DescriptionEN,
		Price:         req.Price,
		Currency:      req.Currency,
		ImageURL:      req.ImageURL,
		DownloadLink:  req.DownloadLink,
		IsActive:      true,
	}
	if p.Currency == "" {
		p.Currency = "RUB"
	}
	if req.StockQuantity != nil {
		p.StockQuantity = *req.StockQuantity
	} else {
		p.StockQuantity = 999
	}

	if err := h.productService.Create(c.Request.Context(), p); err != nil {
		utils.FailResponse(c, err)
		return
	}

	utils.SuccessResponse(c, p)
}

// Update replaces a product's fields (admin)
func (h *ProductHandler) Update(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		utils.Error(c, utils.CodeInvalidParam, "invalid product id")
		return
	}

	var req ProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, utils.CodeInvalidParam, err.Error())
		return
	}

	p, err := h.productService.Get(c.Request.Context(), id)
	if err != nil {
		utils.FailResponse(c, err)
		return
	}

	p.CategoryID = req.CategoryID
	p.TitleRU = req.TitleRU
	p.TitleEN = req.TitleEN
	p.DescriptionRU = req.DescriptionRU
	p.DescriptionEN = req.DescriptionEN
	p.Price = req.Price
	if req.Currency != "" {
		p.Currency = req.Currency
	}
	p.ImageURL = req.ImageURL
	p.DownloadLink = req.DownloadLink
	if req.StockQuantity != nil {
		p.StockQuantity = *req.StockQuantity
	}

	if err := h.productService.Update(c.Request.Context(), p); err != nil {
		utils.FailResponse(c, err)
		return
	}

	utils.SuccessResponse(c, p)
}

// Deactivate takes a product off sale (admin)
func (h *ProductHandler) Deactivate(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		utils.Error(c, utils.CodeInvalidParam, "invalid product id")
		return
	}

	if err := h.productService.Deactivate(c.Request.Context(), id); err != nil {
		utils.FailResponse(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{"deactivated": id})
}
