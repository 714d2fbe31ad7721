package service

import (
	"time"

	"github.com/leafline-next/internal/constants"
	"github.com/leafline-next/internal/logger"
	"github.com/leafline-next/internal/models"
	"github.com/leafline-next/internal/repository"
)

// allowedTransitions 订单状态机
// 前向推进单向不可逆，取消可从任意非终态进入。
var allowedTransitions = map[string]map[string]bool{
	constants.OrderStatusPending: {
		constants.OrderStatusConfirmed: true,
		constants.OrderStatusCanceled:  true,
	},
	constants.OrderStatusConfirmed: {
		constants.OrderStatusPreparing: true,
		constants.OrderStatusCanceled:  true,
	},
	constants.OrderStatusPreparing: {
		constants.OrderStatusOutForDelivery: true,
		constants.OrderStatusCanceled:       true,
	},
	constants.OrderStatusOutForDelivery: {
		constants.OrderStatusDelivered: true,
		constants.OrderStatusCanceled:  true,
	},
	constants.OrderStatusDelivered: {},
	constants.OrderStatusCanceled:  {},
}

// isTransitionAllowed 判断状态流转是否合法
func isTransitionAllowed(current, target string) bool {
	if current == target {
		return true
	}
	allowed, ok := allowedTransitions[current]
	if !ok {
		return false
	}
	return allowed[target]
}

// ClaimOrder 骑手认领订单
// 条件更新一步完成归属与确认：status 仍为 pending 且 courier_id 为空时
// 才写入骑手并置为 confirmed，影响 0 行即认领竞争失败。
func (s *OrderService) ClaimOrder(orderID uint, courierID uint) (*models.Order, error) {
	courier, err := s.courierRepo.GetByID(courierID)
	if err != nil {
		return nil, ErrOrderFetchFailed
	}
	if courier == nil || !courier.IsActive {
		return nil, ErrCourierNotFound
	}

	affected, err := s.orderRepo.Claim(orderID, courierID, constants.OrderStatusPending, constants.OrderStatusConfirmed)
	if err != nil {
		return nil, ErrOrderUpdateFailed
	}
	if affected == 0 {
		order, err := s.orderRepo.GetByID(orderID)
		if err != nil {
			return nil, ErrOrderFetchFailed
		}
		if order == nil {
			return nil, ErrOrderNotFound
		}
		return nil, ErrOrderAlreadyClaimed
	}

	s.appendEvent(orderID, constants.OrderStatusConfirmed, nil, "claimed by courier "+courier.Name)
	logger.Infow("order_claimed", "order_id", orderID, "courier_id", courierID)

	return s.orderRepo.GetByID(orderID)
}

// CourierPosition 骑手上报的事件位置
type CourierPosition struct {
	Lat float64
	Lng float64
}

// AdvanceOrderStatus 骑手推进订单状态
// 仅允许状态机内的前向流转，且订单必须归属该骑手。
func (s *OrderService) AdvanceOrderStatus(orderID uint, courierID uint, target string, pos *CourierPosition) (*models.Order, error) {
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return nil, ErrOrderFetchFailed
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	if order.CourierID == nil || *order.CourierID != courierID {
		return nil, ErrCourierNotAssigned
	}
	if order.Status == target {
		return order, nil
	}
	if !isTransitionAllowed(order.Status, target) {
		return nil, ErrInvalidTransition
	}
	if target == constants.OrderStatusCanceled {
		// 骑手不走取消通道
		return nil, ErrInvalidTransition
	}

	updates := map[string]interface{}{}
	now := time.Now()
	if target == constants.OrderStatusDelivered {
		updates["delivered_at"] = now
	}
	affected, err := s.orderRepo.AdvanceStatus(orderID, order.Status, target, updates)
	if err != nil {
		return nil, ErrOrderUpdateFailed
	}
	if affected == 0 {
		return nil, ErrInvalidTransition
	}

	var eventPos *DeliveryAddress
	if pos != nil {
		eventPos = &DeliveryAddress{Lat: pos.Lat, Lng: pos.Lng}
	}
	s.appendEvent(orderID, target, eventPos, statusEventMessage(target))

	if target == constants.OrderStatusDelivered {
		s.enqueueLedgerFinalize(order)
	}

	return s.orderRepo.GetByID(orderID)
}

// AcceptOrder 商家或运营确认订单（pending -> confirmed，不绑定骑手）
func (s *OrderService) AcceptOrder(orderID uint, operatorAdminID uint, operatorUsername string) (*models.Order, error) {
	affected, err := s.orderRepo.AdvanceStatus(orderID, constants.OrderStatusPending, constants.OrderStatusConfirmed, nil)
	if err != nil {
		return nil, ErrOrderUpdateFailed
	}
	if affected == 0 {
		order, err := s.orderRepo.GetByID(orderID)
		if err != nil {
			return nil, ErrOrderFetchFailed
		}
		if order == nil {
			return nil, ErrOrderNotFound
		}
		return nil, ErrInvalidTransition
	}

	s.appendEvent(orderID, constants.OrderStatusConfirmed, nil, "confirmed by merchant")
	s.writeAudit(operatorAdminID, operatorUsername, constants.AuditActionMerchantAccept, &orderID, nil, nil)

	return s.orderRepo.GetByID(orderID)
}

// ReassignCourier 改派骑手
// 常规改派只允许 pending/confirmed；override 允许运营在任意非终态强制改派并留审计。
func (s *OrderService) ReassignCourier(orderID uint, newCourierID uint, override bool, operatorAdminID uint, operatorUsername string) (*models.Order, error) {
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return nil, ErrOrderFetchFailed
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	if order.Status == constants.OrderStatusDelivered || order.Status == constants.OrderStatusCanceled {
		return nil, ErrReassignNotAllowed
	}
	reassignable := order.Status == constants.OrderStatusPending || order.Status == constants.OrderStatusConfirmed
	if !reassignable && !override {
		return nil, ErrReassignNotAllowed
	}

	courier, err := s.courierRepo.GetByID(newCourierID)
	if err != nil {
		return nil, ErrOrderFetchFailed
	}
	if courier == nil || !courier.IsActive {
		return nil, ErrCourierNotFound
	}

	if err := s.orderRepo.ReassignCourier(orderID, newCourierID); err != nil {
		return nil, ErrOrderUpdateFailed
	}

	detail := models.JSON{
		"previous_courier_id": order.CourierID,
		"new_courier_id":      newCourierID,
		"order_status":        order.Status,
		"override":            override,
	}
	s.writeAudit(operatorAdminID, operatorUsername, constants.AuditActionCourierReassign, &orderID, &newCourierID, detail)
	s.appendEvent(orderID, order.Status, nil, "courier reassigned to "+courier.Name)

	return s.orderRepo.GetByID(orderID)
}

// ListClaimableOrders 可认领订单列表（按配送辖区过滤）
func (s *OrderService) ListClaimableOrders(boroughs []string, limit int) ([]models.Order, error) {
	if len(boroughs) == 0 {
		boroughs = s.resolveServedBoroughs()
	}
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	orders, err := s.orderRepo.ListClaimable(boroughs, limit)
	if err != nil {
		return nil, ErrOrderFetchFailed
	}
	return orders, nil
}

// ListOrdersByCourier 骑手名下订单列表
func (s *OrderService) ListOrdersByCourier(filter repository.OrderListFilter) ([]models.Order, int64, error) {
	orders, total, err := s.orderRepo.ListByCourier(filter)
	if err != nil {
		return nil, 0, ErrOrderFetchFailed
	}
	return orders, total, nil
}

func (s *OrderService) writeAudit(adminID uint, username, action string, orderID, courierID *uint, detail models.JSON) {
	if s.auditRepo == nil {
		return
	}
	entry := &models.AuditLog{
		OperatorAdminID:  adminID,
		OperatorUsername: username,
		Action:           action,
		OrderID:          orderID,
		CourierID:        courierID,
		DetailJSON:       detail,
		CreatedAt:        time.Now(),
	}
	if err := s.auditRepo.Create(entry); err != nil {
		logger.Errorw("audit_log_write_failed", "action", action, "error", err)
	}
}

func statusEventMessage(status string) string {
	switch status {
	case constants.OrderStatusConfirmed:
		return "order confirmed"
	case constants.OrderStatusPreparing:
		return "order is being prepared"
	case constants.OrderStatusOutForDelivery:
		return "courier is on the way"
	case constants.OrderStatusDelivered:
		return "order delivered"
	case constants.OrderStatusCanceled:
		return "order cancelled"
	default:
		return "status updated"
	}
}
