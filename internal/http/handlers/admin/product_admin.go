package admin

import (
	"strconv"
	"strings"

	"github.com/leafline-next/internal/http/response"
	"github.com/leafline-next/internal/models"
	"github.com/leafline-next/internal/repository"
	"github.com/leafline-next/internal/service"

	"github.com/gin-gonic/gin"
)

// AdminProductRequest 商品创建/更新请求
type AdminProductRequest struct {
	MerchantID      uint               `json:"merchant_id"`
	Slug            string             `json:"slug" binding:"required"`
	Name            string             `json:"name" binding:"required"`
	Description     string             `json:"description"`
	Category        string             `json:"category" binding:"required"`
	PriceAmount     models.Money       `json:"price_amount"`
	UnitWeightGrams models.Grams       `json:"unit_weight_grams"`
	Stock           int                `json:"stock"`
	Images          models.StringArray `json:"images"`
	Tags            models.StringArray `json:"tags"`
	IsActive        *bool              `json:"is_active"`
	SortOrder       int                `json:"sort_order"`
}

var adminProductErrorRules = []mappedHandlerError{
	{target: service.ErrProductNotAvailable, code: response.CodeBadRequest, key: "error.product_invalid"},
	{target: service.ErrInvalidOrderAmount, code: response.CodeBadRequest, key: "error.product_invalid"},
	{target: service.ErrInvalidOrderItem, code: response.CodeBadRequest, key: "error.product_invalid"},
}

// AdminListProducts 管理端商品列表
func (h *Handler) AdminListProducts(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)

	products, total, err := h.ProductService.ListAdmin(repository.ProductListFilter{
		Page:       page,
		PageSize:   pageSize,
		Category:   strings.TrimSpace(c.Query("category")),
		Search:     strings.TrimSpace(c.Query("search")),
		OnlyActive: c.Query("only_active") == "true",
	})
	if err != nil {
		respondError(c, response.CodeInternal, "error.product_fetch_failed", err)
		return
	}

	pagination := response.BuildPagination(page, pageSize, total)
	response.SuccessWithPage(c, products, pagination)
}

// AdminGetProduct 管理端商品详情
func (h *Handler) AdminGetProduct(c *gin.Context) {
	productID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || productID == 0 {
		respondError(c, response.CodeBadRequest, "error.invalid_params", nil)
		return
	}

	product, err := h.ProductService.GetByID(uint(productID))
	if err != nil {
		respondError(c, response.CodeInternal, "error.product_fetch_failed", err)
		return
	}
	if product == nil {
		respondError(c, response.CodeNotFound, "error.product_not_found", nil)
		return
	}

	response.Success(c, product)
}

// AdminCreateProduct 创建商品
func (h *Handler) AdminCreateProduct(c *gin.Context) {
	var req AdminProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	merchantID := req.MerchantID
	if merchantID == 0 {
		merchantID = h.Config.Delivery.DefaultMerchantID
	}
	product := &models.Product{
		MerchantID:      merchantID,
		Slug:            strings.TrimSpace(req.Slug),
		Name:            strings.TrimSpace(req.Name),
		Description:     req.Description,
		Category:        req.Category,
		PriceAmount:     req.PriceAmount,
		UnitWeightGrams: req.UnitWeightGrams,
		Stock:           req.Stock,
		Images:          req.Images,
		Tags:            req.Tags,
		IsActive:        req.IsActive == nil || *req.IsActive,
		SortOrder:       req.SortOrder,
	}

	if err := h.ProductService.Create(product); err != nil {
		respondWithMappedError(c, err, adminProductErrorRules, response.CodeInternal, "error.product_save_failed")
		return
	}

	response.Success(c, product)
}

// AdminUpdateProduct 更新商品
func (h *Handler) AdminUpdateProduct(c *gin.Context) {
	productID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || productID == 0 {
		respondError(c, response.CodeBadRequest, "error.invalid_params", nil)
		return
	}

	var req AdminProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	product, err := h.ProductService.GetByID(uint(productID))
	if err != nil {
		respondError(c, response.CodeInternal, "error.product_fetch_failed", err)
		return
	}
	if product == nil {
		respondError(c, response.CodeNotFound, "error.product_not_found", nil)
		return
	}

	product.Slug = strings.TrimSpace(req.Slug)
	product.Name = strings.TrimSpace(req.Name)
	product.Description = req.Description
	product.Category = req.Category
	product.PriceAmount = req.PriceAmount
	product.UnitWeightGrams = req.UnitWeightGrams
	product.Images = req.Images
	product.Tags = req.Tags
	product.SortOrder = req.SortOrder
	if req.MerchantID != 0 {
		product.MerchantID = req.MerchantID
	}
	if req.IsActive != nil {
		product.IsActive = *req.IsActive
	}

	if err := h.ProductService.Update(product); err != nil {
		respondWithMappedError(c, err, adminProductErrorRules, response.CodeInternal, "error.product_save_failed")
		return
	}

	response.Success(c, product)
}

// AdminAdjustStockRequest 库存修正请求
type AdminAdjustStockRequest struct {
	Delta  int    `json:"delta" binding:"required"`
	Reason string `json:"reason"`
}

// AdminAdjustStock 库存修正（负向修正不允许打穿库存）
func (h *Handler) AdminAdjustStock(c *gin.Context) {
	adminID, ok := getAdminID(c)
	if !ok {
		return
	}

	productID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || productID == 0 {
		respondError(c, response.CodeBadRequest, "error.invalid_params", nil)
		return
	}

	var req AdminAdjustStockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	product, err := h.ProductService.AdjustStock(uint(productID), req.Delta, req.Reason, adminID, h.operatorName(adminID))
	if err != nil {
		respondWithMappedError(c, err, []mappedHandlerError{
			{target: service.ErrProductNotAvailable, code: response.CodeNotFound, key: "error.product_not_found"},
			{target: service.ErrInsufficientStock, code: response.CodeConflict, key: "error.insufficient_stock"},
			{target: service.ErrInvalidOrderItem, code: response.CodeBadRequest, key: "error.invalid_params"},
		}, response.CodeInternal, "error.product_save_failed")
		return
	}

	response.Success(c, product)
}
