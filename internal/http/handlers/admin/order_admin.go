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

// AdminOrderListItem 管理端订单列表返回
type AdminOrderListItem struct {
	models.Order
	UserEmail       string `json:"user_email,omitempty"`
	UserDisplayName string `json:"user_display_name,omitempty"`
	CourierName     string `json:"courier_name,omitempty"`
}

var adminOrderCancelErrorRules = []mappedHandlerError{
	{target: service.ErrOrderNotFound, code: response.CodeNotFound, key: "error.order_not_found"},
	{target: service.ErrOrderCancelNotAllowed, code: response.CodeBadRequest, key: "error.order_cancel_not_allowed"},
}

var adminOrderAcceptErrorRules = []mappedHandlerError{
	{target: service.ErrOrderNotFound, code: response.CodeNotFound, key: "error.order_not_found"},
	{target: service.ErrInvalidTransition, code: response.CodeBadRequest, key: "error.order_status_invalid"},
}

var adminOrderReassignErrorRules = []mappedHandlerError{
	{target: service.ErrOrderNotFound, code: response.CodeNotFound, key: "error.order_not_found"},
	{target: service.ErrReassignNotAllowed, code: response.CodeBadRequest, key: "error.reassign_not_allowed"},
	{target: service.ErrCourierNotFound, code: response.CodeBadRequest, key: "error.courier_not_found"},
}

// AdminListOrders 管理端订单列表
func (h *Handler) AdminListOrders(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)

	createdFrom, err := parseTimeNullable(strings.TrimSpace(c.Query("created_from")))
	if err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	createdTo, err := parseTimeNullable(strings.TrimSpace(c.Query("created_to")))
	if err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	var userID uint
	if raw := strings.TrimSpace(c.Query("user_id")); raw != "" {
		if parsed, err := strconv.ParseUint(raw, 10, 64); err == nil {
			userID = uint(parsed)
		}
	}
	var courierID uint
	if raw := strings.TrimSpace(c.Query("courier_id")); raw != "" {
		if parsed, err := strconv.ParseUint(raw, 10, 64); err == nil {
			courierID = uint(parsed)
		}
	}

	orders, total, err := h.OrderService.ListOrdersForAdmin(repository.OrderListFilter{
		Page:        page,
		PageSize:    pageSize,
		UserID:      userID,
		CourierID:   courierID,
		Status:      strings.TrimSpace(c.Query("status")),
		OrderNo:     strings.TrimSpace(c.Query("order_no")),
		Borough:     strings.TrimSpace(c.Query("borough")),
		GuestEmail:  strings.TrimSpace(c.Query("guest_email")),
		CreatedFrom: createdFrom,
		CreatedTo:   createdTo,
	})
	if err != nil {
		respondError(c, response.CodeInternal, "error.order_fetch_failed", err)
		return
	}

	items, err := h.decorateOrders(orders)
	if err != nil {
		respondError(c, response.CodeInternal, "error.order_fetch_failed", err)
		return
	}

	pagination := response.BuildPagination(page, pageSize, total)
	response.SuccessWithPage(c, items, pagination)
}

func (h *Handler) decorateOrders(orders []models.Order) ([]AdminOrderListItem, error) {
	userMap := map[uint]models.User{}
	userIDs := make([]uint, 0, len(orders))
	seen := map[uint]struct{}{}
	for _, order := range orders {
		if order.UserID == 0 {
			continue
		}
		if _, ok := seen[order.UserID]; ok {
			continue
		}
		seen[order.UserID] = struct{}{}
		userIDs = append(userIDs, order.UserID)
	}
	if len(userIDs) > 0 {
		users, err := h.UserRepo.ListByIDs(userIDs)
		if err != nil {
			return nil, err
		}
		for _, user := range users {
			userMap[user.ID] = user
		}
	}

	courierMap := map[uint]string{}
	items := make([]AdminOrderListItem, 0, len(orders))
	for _, order := range orders {
		item := AdminOrderListItem{Order: order}
		if user, ok := userMap[order.UserID]; ok {
			item.UserEmail = user.Email
			item.UserDisplayName = user.DisplayName
		}
		if order.CourierID != nil {
			name, ok := courierMap[*order.CourierID]
			if !ok {
				if courier, err := h.CourierRepo.GetByID(*order.CourierID); err == nil && courier != nil {
					name = courier.Name
				}
				courierMap[*order.CourierID] = name
			}
			item.CourierName = name
		}
		items = append(items, item)
	}
	return items, nil
}

// AdminGetOrder 管理端订单详情
func (h *Handler) AdminGetOrder(c *gin.Context) {
	orderID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || orderID == 0 {
		respondError(c, response.CodeBadRequest, "error.invalid_params", nil)
		return
	}

	order, err := h.OrderService.GetOrderForAdmin(uint(orderID))
	if err != nil {
		respondWithMappedError(c, err, []mappedHandlerError{
			{target: service.ErrOrderNotFound, code: response.CodeNotFound, key: "error.order_not_found"},
		}, response.CodeInternal, "error.order_fetch_failed")
		return
	}

	items, err := h.decorateOrders([]models.Order{*order})
	if err != nil || len(items) == 0 {
		respondError(c, response.CodeInternal, "error.order_fetch_failed", err)
		return
	}

	response.Success(c, items[0])
}

// AdminCancelOrderRequest 管理端取消订单请求
type AdminCancelOrderRequest struct {
	Reason string `json:"reason"`
}

// AdminCancelOrder 管理端取消订单
func (h *Handler) AdminCancelOrder(c *gin.Context) {
	adminID, ok := getAdminID(c)
	if !ok {
		return
	}

	orderID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || orderID == 0 {
		respondError(c, response.CodeBadRequest, "error.invalid_params", nil)
		return
	}

	var req AdminCancelOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil && c.Request.ContentLength > 0 {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	order, err := h.OrderService.CancelOrderAdmin(uint(orderID), strings.TrimSpace(req.Reason))
	if err != nil {
		respondWithMappedError(c, err, adminOrderCancelErrorRules, response.CodeInternal, "error.order_cancel_failed")
		return
	}

	requestLog(c).Infow("admin_order_canceled",
		"admin_id", adminID,
		"order_id", order.ID,
		"reason", req.Reason,
	)
	response.Success(c, order)
}

// AdminAcceptOrder 商家确认订单
func (h *Handler) AdminAcceptOrder(c *gin.Context) {
	adminID, ok := getAdminID(c)
	if !ok {
		return
	}

	orderID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || orderID == 0 {
		respondError(c, response.CodeBadRequest, "error.invalid_params", nil)
		return
	}

	order, err := h.OrderService.AcceptOrder(uint(orderID), adminID, h.operatorName(adminID))
	if err != nil {
		respondWithMappedError(c, err, adminOrderAcceptErrorRules, response.CodeInternal, "error.order_update_failed")
		return
	}

	response.Success(c, order)
}

// AdminReassignCourierRequest 改派骑手请求
type AdminReassignCourierRequest struct {
	CourierID uint `json:"courier_id" binding:"required"`
	Override  bool `json:"override"`
}

// AdminReassignCourier 改派骑手（override 强制改派会留审计）
func (h *Handler) AdminReassignCourier(c *gin.Context) {
	adminID, ok := getAdminID(c)
	if !ok {
		return
	}

	orderID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || orderID == 0 {
		respondError(c, response.CodeBadRequest, "error.invalid_params", nil)
		return
	}

	var req AdminReassignCourierRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	order, err := h.OrderService.ReassignCourier(uint(orderID), req.CourierID, req.Override, adminID, h.operatorName(adminID))
	if err != nil {
		respondWithMappedError(c, err, adminOrderReassignErrorRules, response.CodeInternal, "error.order_update_failed")
		return
	}

	response.Success(c, order)
}
