package courier

import (
	"strconv"
	"strings"

	"github.com/leafline-next/internal/http/response"
	"github.com/leafline-next/internal/repository"
	"github.com/leafline-next/internal/service"

	"github.com/gin-gonic/gin"
)

var claimErrorRules = []mappedHandlerError{
	{target: service.ErrOrderNotFound, code: response.CodeNotFound, key: "error.order_not_found"},
	{target: service.ErrOrderAlreadyClaimed, code: response.CodeConflict, key: "error.order_already_claimed"},
	{target: service.ErrCourierNotFound, code: response.CodeForbidden, key: "error.courier_disabled"},
}

var advanceErrorRules = []mappedHandlerError{
	{target: service.ErrOrderNotFound, code: response.CodeNotFound, key: "error.order_not_found"},
	{target: service.ErrCourierNotAssigned, code: response.CodeForbidden, key: "error.courier_not_assigned"},
	{target: service.ErrInvalidTransition, code: response.CodeBadRequest, key: "error.order_status_invalid"},
}

// ListClaimable 可认领订单列表
func (h *Handler) ListClaimable(c *gin.Context) {
	if _, ok := getCourierID(c); !ok {
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	var boroughs []string
	for _, borough := range strings.Split(c.Query("boroughs"), ",") {
		if trimmed := strings.TrimSpace(borough); trimmed != "" {
			boroughs = append(boroughs, strings.ToLower(trimmed))
		}
	}

	orders, err := h.OrderService.ListClaimableOrders(boroughs, limit)
	if err != nil {
		respondError(c, response.CodeInternal, "error.order_fetch_failed", err)
		return
	}

	response.Success(c, orders)
}

// ClaimOrder 认领订单，竞争失败返回冲突
func (h *Handler) ClaimOrder(c *gin.Context) {
	courierID, ok := getCourierID(c)
	if !ok {
		return
	}

	orderID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || orderID == 0 {
		respondError(c, response.CodeBadRequest, "error.invalid_params", nil)
		return
	}

	order, err := h.OrderService.ClaimOrder(uint(orderID), courierID)
	if err != nil {
		respondWithMappedError(c, err, claimErrorRules, response.CodeInternal, "error.order_update_failed")
		return
	}

	response.Success(c, order)
}

// AdvanceStatusRequest 推进状态请求
type AdvanceStatusRequest struct {
	Target string   `json:"target" binding:"required"`
	Lat    *float64 `json:"lat"`
	Lng    *float64 `json:"lng"`
}

// AdvanceStatus 推进名下订单状态
func (h *Handler) AdvanceStatus(c *gin.Context) {
	courierID, ok := getCourierID(c)
	if !ok {
		return
	}

	orderID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || orderID == 0 {
		respondError(c, response.CodeBadRequest, "error.invalid_params", nil)
		return
	}

	var req AdvanceStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	var pos *service.CourierPosition
	if req.Lat != nil && req.Lng != nil {
		pos = &service.CourierPosition{Lat: *req.Lat, Lng: *req.Lng}
	}

	order, err := h.OrderService.AdvanceOrderStatus(uint(orderID), courierID, req.Target, pos)
	if err != nil {
		respondWithMappedError(c, err, advanceErrorRules, response.CodeInternal, "error.order_update_failed")
		return
	}

	response.Success(c, order)
}

// ListMyOrders 骑手名下订单列表
func (h *Handler) ListMyOrders(c *gin.Context) {
	courierID, ok := getCourierID(c)
	if !ok {
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)

	orders, total, err := h.OrderService.ListOrdersByCourier(repository.OrderListFilter{
		Page:      page,
		PageSize:  pageSize,
		CourierID: courierID,
		Status:    strings.TrimSpace(c.Query("status")),
	})
	if err != nil {
		respondError(c, response.CodeInternal, "error.order_fetch_failed", err)
		return
	}

	pagination := response.BuildPagination(page, pageSize, total)
	response.SuccessWithPage(c, orders, pagination)
}
