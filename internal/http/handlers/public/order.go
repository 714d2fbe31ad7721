package public

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/leafline-next/internal/http/response"
	"github.com/leafline-next/internal/repository"
	"github.com/leafline-next/internal/service"

	"github.com/gin-gonic/gin"
)

// OrderItemRequest 订单项请求
type OrderItemRequest struct {
	ProductID uint `json:"product_id" binding:"required"`
	Quantity  int  `json:"quantity" binding:"required"`
}

// AddressRequest 配送地址请求
type AddressRequest struct {
	Street  string  `json:"street" binding:"required"`
	Borough string  `json:"borough" binding:"required"`
	Lat     float64 `json:"lat"`
	Lng     float64 `json:"lng"`
}

// CreateOrderRequest 创建订单请求
type CreateOrderRequest struct {
	Items          []OrderItemRequest `json:"items" binding:"required"`
	Address        AddressRequest     `json:"address" binding:"required"`
	PaymentMethod  string             `json:"payment_method" binding:"required"`
	SpeedTier      string             `json:"speed_tier"`
	ScheduledAt    *time.Time         `json:"scheduled_at"`
	IdempotencyKey string             `json:"idempotency_key"`
	GuestEmail     string             `json:"guest_email"`
}

func buildCreateOrderInput(c *gin.Context, req CreateOrderRequest, userID uint) service.CreateOrderInput {
	var items []service.CreateOrderItem
	for _, item := range req.Items {
		items = append(items, service.CreateOrderItem{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
		})
	}

	idempotencyKey := strings.TrimSpace(req.IdempotencyKey)
	if headerKey := strings.TrimSpace(c.GetHeader("X-Idempotency-Key")); headerKey != "" {
		idempotencyKey = headerKey
	}

	return service.CreateOrderInput{
		UserID:     userID,
		GuestEmail: strings.TrimSpace(req.GuestEmail),
		Items:      items,
		Address: service.DeliveryAddress{
			Street:  strings.TrimSpace(req.Address.Street),
			Borough: req.Address.Borough,
			Lat:     req.Address.Lat,
			Lng:     req.Address.Lng,
		},
		PaymentMethod:  req.PaymentMethod,
		SpeedTier:      req.SpeedTier,
		ScheduledAt:    req.ScheduledAt,
		IdempotencyKey: idempotencyKey,
		ClientIP:       c.ClientIP(),
	}
}

// PreviewOrder 订单金额与运费预览
func (h *Handler) PreviewOrder(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}

	var req CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	preview, err := h.OrderService.PreviewOrder(buildCreateOrderInput(c, req, uid))
	if err != nil {
		respondUserOrderCreateError(c, err)
		return
	}

	response.Success(c, preview)
}

// CreateOrder 创建订单
func (h *Handler) CreateOrder(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}

	var req CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	result, err := h.OrderService.CreateOrder(buildCreateOrderInput(c, req, uid))
	if err != nil {
		respondUserOrderCreateError(c, err)
		return
	}

	response.Success(c, result)
}

// CreateGuestOrder 游客下单（不可含受限商品）
func (h *Handler) CreateGuestOrder(c *gin.Context) {
	var req CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	result, err := h.OrderService.CreateOrder(buildCreateOrderInput(c, req, 0))
	if err != nil {
		respondGuestOrderCreateError(c, err)
		return
	}

	response.Success(c, result)
}

// PreviewGuestOrder 游客下单预览
func (h *Handler) PreviewGuestOrder(c *gin.Context) {
	var req CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	preview, err := h.OrderService.PreviewOrder(buildCreateOrderInput(c, req, 0))
	if err != nil {
		respondGuestOrderCreateError(c, err)
		return
	}

	response.Success(c, preview)
}

// ListOrders 获取订单列表
func (h *Handler) ListOrders(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)

	status := strings.TrimSpace(c.Query("status"))
	orderNo := strings.TrimSpace(c.Query("order_no"))

	orders, total, err := h.OrderService.ListOrdersByUser(repository.OrderListFilter{
		Page:     page,
		PageSize: pageSize,
		UserID:   uid,
		Status:   status,
		OrderNo:  orderNo,
	})
	if err != nil {
		respondError(c, response.CodeInternal, "error.order_fetch_failed", err)
		return
	}

	pagination := response.BuildPagination(page, pageSize, total)
	response.SuccessWithPage(c, orders, pagination)
}

// GetOrder 获取订单详情
func (h *Handler) GetOrder(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}

	orderID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || orderID == 0 {
		respondError(c, response.CodeBadRequest, "error.invalid_params", nil)
		return
	}

	order, err := h.OrderService.GetOrderByUser(uint(orderID), uid)
	if err != nil {
		if errors.Is(err, service.ErrOrderNotFound) {
			respondError(c, response.CodeNotFound, "error.order_not_found", nil)
			return
		}
		respondError(c, response.CodeInternal, "error.order_fetch_failed", err)
		return
	}

	response.Success(c, order)
}

// GetOrderByOrderNo 按订单号获取订单详情
func (h *Handler) GetOrderByOrderNo(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}

	orderNo := strings.TrimSpace(c.Param("order_no"))
	if orderNo == "" {
		respondError(c, response.CodeBadRequest, "error.invalid_params", nil)
		return
	}

	order, err := h.OrderService.GetOrderByUserOrderNo(orderNo, uid)
	if err != nil {
		if errors.Is(err, service.ErrOrderNotFound) {
			respondError(c, response.CodeNotFound, "error.order_not_found", nil)
			return
		}
		respondError(c, response.CodeInternal, "error.order_fetch_failed", err)
		return
	}

	response.Success(c, order)
}

// CancelOrder 用户取消订单（不退还当日限购额度）
func (h *Handler) CancelOrder(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}

	orderID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || orderID == 0 {
		respondError(c, response.CodeBadRequest, "error.invalid_params", nil)
		return
	}

	order, err := h.OrderService.CancelOrder(uint(orderID), uid)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrOrderNotFound):
			respondError(c, response.CodeNotFound, "error.order_not_found", nil)
		case errors.Is(err, service.ErrOrderCancelNotAllowed):
			respondError(c, response.CodeBadRequest, "error.order_cancel_not_allowed", nil)
		default:
			respondError(c, response.CodeInternal, "error.order_cancel_failed", err)
		}
		return
	}

	response.Success(c, order)
}

// GetRemainingQuota 查询当日剩余限购额度
func (h *Handler) GetRemainingQuota(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}

	remaining, err := h.OrderService.RemainingQuota(uid)
	if err != nil {
		respondError(c, response.CodeInternal, "error.quota_fetch_failed", err)
		return
	}

	response.Success(c, remaining)
}
