package service

import (
	"errors"
	"fmt"

	"github.com/leafline-next/internal/models"
)

// 订单与限购相关业务错误
// 并发竞争失败（库存 CAS、骑手认领 CAS）按普通业务结果返回，调用方可基于最新状态重试。
var (
	ErrNotEligible           = errors.New("customer not eligible to transact")
	ErrUnservedRegion        = errors.New("delivery address not in served region")
	ErrQuotaExceeded         = errors.New("daily purchase quota exceeded")
	ErrInsufficientStock     = errors.New("insufficient product stock")
	ErrInvalidOrderItem      = errors.New("invalid order item")
	ErrInvalidOrderAmount    = errors.New("invalid order amount")
	ErrInvalidPaymentMethod  = errors.New("invalid payment method")
	ErrInvalidSpeedTier      = errors.New("invalid speed tier")
	ErrInvalidAddress        = errors.New("invalid delivery address")
	ErrProductNotAvailable   = errors.New("product not available")
	ErrOrderNotFound         = errors.New("order not found")
	ErrTrackingNotFound      = errors.New("tracking code not found")
	ErrInvalidTransition     = errors.New("invalid order status transition")
	ErrOrderAlreadyClaimed   = errors.New("order already claimed")
	ErrCourierNotFound       = errors.New("courier not found")
	ErrCourierNotAssigned    = errors.New("courier not assigned to order")
	ErrReassignNotAllowed    = errors.New("courier reassignment not allowed in current status")
	ErrOrderCancelNotAllowed = errors.New("order cannot be cancelled in current status")
	ErrGuestNotAllowed       = errors.New("guest checkout disabled")
	ErrGuestEmailRequired    = errors.New("guest email required")
	ErrInvalidEmail          = errors.New("invalid email")
	ErrIdempotencyConflict   = errors.New("idempotency key used by a different customer")
	ErrPersistenceFailure    = errors.New("order persistence failed")
	ErrOrderFetchFailed      = errors.New("order fetch failed")
	ErrOrderUpdateFailed     = errors.New("order update failed")
)

// QuotaExceededError 限购超额错误，携带剩余额度供前端展示
type QuotaExceededError struct {
	RemainingFlowerGrams      models.Grams
	RemainingConcentrateGrams models.Grams
}

// Error 实现 error 接口
func (e *QuotaExceededError) Error() string {
	return fmt.Sprintf("daily purchase quota exceeded: remaining flower %s g, concentrate %s g",
		e.RemainingFlowerGrams.String(), e.RemainingConcentrateGrams.String())
}

// Unwrap 支持 errors.Is(err, ErrQuotaExceeded)
func (e *QuotaExceededError) Unwrap() error {
	return ErrQuotaExceeded
}

// InsufficientStockError 库存不足错误，携带商品信息
type InsufficientStockError struct {
	ProductID   uint
	ProductName string
	Requested   int
	Available   int
}

// Error 实现 error 接口
func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %d (%s): requested %d, available %d",
		e.ProductID, e.ProductName, e.Requested, e.Available)
}

// Unwrap 支持 errors.Is(err, ErrInsufficientStock)
func (e *InsufficientStockError) Unwrap() error {
	return ErrInsufficientStock
}
