package service

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"math/big"
	"net/mail"
	"strings"
	"time"

	"github.com/leafline-next/internal/constants"
	"github.com/leafline-next/internal/logger"
	"github.com/leafline-next/internal/models"
	"github.com/leafline-next/internal/queue"
	"github.com/leafline-next/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// OrderService 订单服务
// 下单按补偿事务编排：逐行条件扣减库存并登记反向动作，
// 限购累加与订单落库在同一数据库事务内完成，落库失败时按逆序释放库存。
type OrderService struct {
	orderRepo      repository.OrderRepository
	productRepo    repository.ProductRepository
	trackingRepo   repository.TrackingEventRepository
	courierRepo    repository.CourierRepository
	userRepo       repository.UserRepository
	merchantRepo   repository.MerchantRepository
	auditRepo      repository.AuditLogRepository
	quotaService   *QuotaService
	queueClient    *queue.Client
	settingService *SettingService
	options        OrderOptions
}

// OrderOptions 订单服务运行参数（来自配置，部分可被后台设置覆盖）
type OrderOptions struct {
	AllowGuest          bool
	ServedBoroughs      []string
	ClaimTimeoutMinutes int
	PresenceWindow      time.Duration
	Currency            string
	PricingRules        PricingRules
	DefaultMerchantID   uint
}

// NewOrderService 创建订单服务
func NewOrderService(
	orderRepo repository.OrderRepository,
	productRepo repository.ProductRepository,
	trackingRepo repository.TrackingEventRepository,
	courierRepo repository.CourierRepository,
	userRepo repository.UserRepository,
	merchantRepo repository.MerchantRepository,
	auditRepo repository.AuditLogRepository,
	quotaService *QuotaService,
	queueClient *queue.Client,
	settingService *SettingService,
	options OrderOptions,
) *OrderService {
	if options.ClaimTimeoutMinutes <= 0 {
		options.ClaimTimeoutMinutes = 30
	}
	if options.PresenceWindow <= 0 {
		options.PresenceWindow = 2 * time.Minute
	}
	if options.Currency == "" {
		options.Currency = constants.SiteCurrencyDefault
	}
	if len(options.ServedBoroughs) == 0 {
		options.ServedBoroughs = constants.DefaultServedBoroughs
	}
	return &OrderService{
		orderRepo:      orderRepo,
		productRepo:    productRepo,
		trackingRepo:   trackingRepo,
		courierRepo:    courierRepo,
		userRepo:       userRepo,
		merchantRepo:   merchantRepo,
		auditRepo:      auditRepo,
		quotaService:   quotaService,
		queueClient:    queueClient,
		settingService: settingService,
		options:        options,
	}
}

// DeliveryAddress 收货地址输入（落库为订单快照）
type DeliveryAddress struct {
	Street  string
	Borough string
	Lat     float64
	Lng     float64
}

// CreateOrderItem 创建订单项输入
type CreateOrderItem struct {
	ProductID uint
	Quantity  int
}

// CreateOrderInput 创建订单输入
type CreateOrderInput struct {
	UserID         uint
	GuestEmail     string
	Items          []CreateOrderItem
	Address        DeliveryAddress
	PaymentMethod  string
	SpeedTier      string
	ScheduledAt    *time.Time
	IdempotencyKey string
	ClientIP       string
}

// OrderCreateResult 创建订单结果
// TrackingCode 只在这里下发一次，后续查单不再返回。
type OrderCreateResult struct {
	Order        *models.Order `json:"order"`
	OrderNo      string        `json:"order_no"`
	TrackingCode string        `json:"tracking_code"`
	Replayed     bool          `json:"replayed"`
}

// OrderPreview 下单前预览（与创建共用计算路径，无任何副作用）
type OrderPreview struct {
	Currency         string       `json:"currency"`
	Subtotal         models.Money `json:"subtotal"`
	DeliveryFee      models.Money `json:"delivery_fee"`
	TotalAmount      models.Money `json:"total_amount"`
	FlowerGrams      models.Grams `json:"flower_grams"`
	ConcentrateGrams models.Grams `json:"concentrate_grams"`
}

// orderBuildResult 下单计算的中间结果
type orderBuildResult struct {
	Items            []models.OrderItem
	Products         map[uint]*models.Product
	Subtotal         decimal.Decimal
	FlowerGrams      decimal.Decimal
	ConcentrateGrams decimal.Decimal
	DeliveryFee      models.Money
}

// reservationStep 已完成的库存预占（失败时逆序释放）
type reservationStep struct {
	ProductID uint
	Quantity  int
}

// CreateOrder 创建订单
func (s *OrderService) CreateOrder(input CreateOrderInput) (*OrderCreateResult, error) {
	// 幂等重放：同一幂等键直接返回既有订单，不做任何预占。
	// 幂等键是客户端自选字符串，必须校验归属：追踪码随订单一起回放，
	// 跨顾客撞键绝不能把别人的订单（和追踪码）交出去。
	if key := strings.TrimSpace(input.IdempotencyKey); key != "" {
		existing, err := s.orderRepo.GetByIdempotencyKey(key)
		if err != nil {
			return nil, ErrOrderFetchFailed
		}
		if existing != nil {
			if !idempotencyKeyOwnedBy(existing, input) {
				return nil, ErrIdempotencyConflict
			}
			return &OrderCreateResult{
				Order:        existing,
				OrderNo:      existing.OrderNo,
				TrackingCode: existing.TrackingCode,
				Replayed:     true,
			}, nil
		}
	}

	if err := s.checkEligibility(input); err != nil {
		return nil, err
	}
	if err := s.checkServedRegion(input.Address); err != nil {
		return nil, err
	}
	if err := validatePaymentMethod(input.PaymentMethod); err != nil {
		return nil, err
	}
	speedTier, err := normalizeSpeedTier(input.SpeedTier)
	if err != nil {
		return nil, err
	}

	build, err := s.buildOrderResult(input)
	if err != nil {
		return nil, err
	}
	if input.UserID == 0 && (build.FlowerGrams.IsPositive() || build.ConcentrateGrams.IsPositive()) {
		// 受监管类目必须能落到限购账本上，游客没有账本身份
		return nil, ErrNotEligible
	}

	// 库存预占：逐行条件扣减，任何一行失败则逆序释放此前所有预占
	reserved := make([]reservationStep, 0, len(build.Items))
	for _, item := range build.Items {
		affected, err := s.productRepo.ReserveStock(item.ProductID, item.Quantity)
		if err != nil || affected == 0 {
			s.compensateReservations(reserved)
			if err != nil {
				return nil, ErrOrderCreateFailedWrap(err)
			}
			product := build.Products[item.ProductID]
			return nil, &InsufficientStockError{
				ProductID:   item.ProductID,
				ProductName: product.Name,
				Requested:   item.Quantity,
				Available:   product.Stock,
			}
		}
		reserved = append(reserved, reservationStep{ProductID: item.ProductID, Quantity: item.Quantity})
	}

	fee := build.DeliveryFee
	total := build.Subtotal.Add(fee.Decimal)
	now := time.Now()
	order := &models.Order{
		OrderNo:        generateOrderNo(),
		TrackingCode:   generateTrackingCode(),
		UserID:         input.UserID,
		GuestEmail:     strings.TrimSpace(input.GuestEmail),
		MerchantID:     s.options.DefaultMerchantID,
		Status:         constants.OrderStatusPending,
		Currency:       s.options.Currency,
		Subtotal:       models.NewMoneyFromDecimal(build.Subtotal),
		DeliveryFee:    fee,
		DiscountAmount: models.NewMoneyFromDecimal(decimal.Zero),
		TotalAmount:    models.NewMoneyFromDecimal(total),
		PaymentMethod:  input.PaymentMethod,
		SpeedTier:      speedTier,
		AddressStreet:  strings.TrimSpace(input.Address.Street),
		AddressBorough: normalizeBorough(input.Address.Borough),
		AddressLat:     input.Address.Lat,
		AddressLng:     input.Address.Lng,
		ClientIP:       strings.TrimSpace(input.ClientIP),
		ScheduledAt:    input.ScheduledAt,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if key := strings.TrimSpace(input.IdempotencyKey); key != "" {
		order.IdempotencyKey = &key
	}

	// 限购累加 + 订单落库 + 首条追踪事件在同一事务内提交：
	// 账本行锁串行化同一顾客的并发下单，事务失败时账本自动回滚，
	// 只有库存预占需要显式补偿。
	var quotaErr error
	txErr := models.DB.Transaction(func(tx *gorm.DB) error {
		if input.UserID != 0 {
			if _, err := s.quotaService.ReserveInTx(tx, input.UserID, LedgerDate(now), build.FlowerGrams, build.ConcentrateGrams); err != nil {
				quotaErr = err
				return err
			}
		}
		orderRepo := s.orderRepo.WithTx(tx)
		if err := orderRepo.Create(order, build.Items); err != nil {
			return err
		}
		event := &models.TrackingEvent{
			OrderID:   order.ID,
			Status:    constants.OrderStatusPending,
			Message:   "order placed",
			CreatedAt: now,
		}
		return s.trackingRepo.WithTx(tx).Append(event)
	})
	if txErr != nil {
		s.compensateReservations(reserved)
		if quotaErr != nil {
			return nil, quotaErr
		}
		logger.Errorw("order_persist_failed",
			"order_no", order.OrderNo,
			"user_id", input.UserID,
			"error", txErr,
		)
		return nil, ErrPersistenceFailure
	}

	s.enqueueTimeoutCancel(order)

	return &OrderCreateResult{
		Order:        order,
		OrderNo:      order.OrderNo,
		TrackingCode: order.TrackingCode,
	}, nil
}

// PreviewOrder 下单前预览：同一计算路径，零副作用
func (s *OrderService) PreviewOrder(input CreateOrderInput) (*OrderPreview, error) {
	if err := s.checkServedRegion(input.Address); err != nil {
		return nil, err
	}
	if _, err := normalizeSpeedTier(input.SpeedTier); err != nil {
		return nil, err
	}
	build, err := s.buildOrderResult(input)
	if err != nil {
		return nil, err
	}
	return &OrderPreview{
		Currency:         s.options.Currency,
		Subtotal:         models.NewMoneyFromDecimal(build.Subtotal),
		DeliveryFee:      build.DeliveryFee,
		TotalAmount:      models.NewMoneyFromDecimal(build.Subtotal.Add(build.DeliveryFee.Decimal)),
		FlowerGrams:      models.NewGramsFromDecimal(build.FlowerGrams),
		ConcentrateGrams: models.NewGramsFromDecimal(build.ConcentrateGrams),
	}, nil
}

// buildOrderResult 校验商品并汇总小计、受监管重量与配送费
func (s *OrderService) buildOrderResult(input CreateOrderInput) (*orderBuildResult, error) {
	items, err := mergeCreateOrderItems(input.Items)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, ErrInvalidOrderItem
	}

	ids := make([]uint, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.ProductID)
	}
	products, err := s.productRepo.ListByIDs(ids)
	if err != nil {
		return nil, ErrOrderFetchFailed
	}
	productMap := make(map[uint]*models.Product, len(products))
	for i := range products {
		productMap[products[i].ID] = &products[i]
	}

	result := &orderBuildResult{Products: productMap}
	for _, item := range items {
		product, ok := productMap[item.ProductID]
		if !ok || !product.IsActive {
			return nil, ErrProductNotAvailable
		}
		lineTotal := product.PriceAmount.Mul(decimal.NewFromInt(int64(item.Quantity)))
		result.Subtotal = result.Subtotal.Add(lineTotal)

		lineWeight := product.UnitWeightGrams.Mul(decimal.NewFromInt(int64(item.Quantity)))
		switch product.Category {
		case constants.CategoryFlower:
			result.FlowerGrams = result.FlowerGrams.Add(lineWeight)
		case constants.CategoryConcentrate:
			result.ConcentrateGrams = result.ConcentrateGrams.Add(lineWeight)
		}

		result.Items = append(result.Items, models.OrderItem{
			ProductID:       product.ID,
			ProductName:     product.Name,
			Category:        product.Category,
			UnitPrice:       product.PriceAmount,
			UnitWeightGrams: product.UnitWeightGrams,
			Quantity:        item.Quantity,
			TotalPrice:      models.NewMoneyFromDecimal(lineTotal),
		})
	}
	if !result.Subtotal.IsPositive() {
		return nil, ErrInvalidOrderAmount
	}

	// 运力信号按计价时刻从库里读，不用进程内计数器，避免并发下陈旧
	onlineCouriers, err := s.courierRepo.CountOnline(time.Now().Add(-s.options.PresenceWindow))
	if err != nil {
		return nil, ErrOrderFetchFailed
	}
	result.DeliveryFee = DeliveryFee(s.resolvePricingRules(), result.Subtotal, input.Address.Borough, input.SpeedTier, onlineCouriers)
	return result, nil
}

// compensateReservations 逆序释放已预占库存
// 释放失败不可静默丢弃：记错误日志并投递修复任务等待人工或重试对账。
func (s *OrderService) compensateReservations(reserved []reservationStep) {
	for i := len(reserved) - 1; i >= 0; i-- {
		step := reserved[i]
		if _, err := s.productRepo.ReleaseStock(step.ProductID, step.Quantity); err != nil {
			logger.Errorw("stock_compensation_failed",
				"product_id", step.ProductID,
				"quantity", step.Quantity,
				"error", err,
			)
			if s.queueClient != nil {
				if enqueueErr := s.queueClient.EnqueueReservationReconcile(queue.ReservationReconcilePayload{
					ProductID: step.ProductID,
					Quantity:  step.Quantity,
				}); enqueueErr != nil {
					logger.Errorw("stock_reconcile_enqueue_failed",
						"product_id", step.ProductID,
						"quantity", step.Quantity,
						"error", enqueueErr,
					)
				}
			}
		}
	}
}

func (s *OrderService) enqueueTimeoutCancel(order *models.Order) {
	if s.queueClient == nil || !s.queueClient.Enabled() {
		return
	}
	delay := time.Duration(s.resolveClaimTimeoutMinutes()) * time.Minute
	if err := s.queueClient.EnqueueOrderTimeoutCancel(queue.OrderTimeoutCancelPayload{OrderID: order.ID}, delay); err != nil {
		// 周期清扫兜底处理超时订单，这里只记录
		logger.Warnw("order_enqueue_timeout_cancel_failed",
			"order_id", order.ID,
			"order_no", order.OrderNo,
			"error", err,
		)
	}
}

// idempotencyKeyOwnedBy 判断既有订单是否归属当前请求方
// 用户订单按 user_id 匹配，游客订单按游客邮箱匹配。
func idempotencyKeyOwnedBy(existing *models.Order, input CreateOrderInput) bool {
	if existing.UserID != input.UserID {
		return false
	}
	if input.UserID == 0 {
		return strings.EqualFold(existing.GuestEmail, strings.TrimSpace(input.GuestEmail))
	}
	return true
}

func (s *OrderService) checkEligibility(input CreateOrderInput) error {
	if input.UserID == 0 {
		if !s.resolveAllowGuest() {
			return ErrGuestNotAllowed
		}
		email := strings.TrimSpace(input.GuestEmail)
		if email == "" {
			return ErrGuestEmailRequired
		}
		if _, err := mail.ParseAddress(email); err != nil {
			return ErrInvalidEmail
		}
		return nil
	}
	user, err := s.userRepo.GetByID(input.UserID)
	if err != nil {
		return ErrOrderFetchFailed
	}
	if user == nil || user.Status != constants.UserStatusActive || !user.IsVerified {
		return ErrNotEligible
	}
	return nil
}

func (s *OrderService) checkServedRegion(address DeliveryAddress) error {
	borough := normalizeBorough(address.Borough)
	if borough == "" || strings.TrimSpace(address.Street) == "" {
		return ErrInvalidAddress
	}
	for _, served := range s.resolveServedBoroughs() {
		if strings.EqualFold(served, borough) {
			return nil
		}
	}
	return ErrUnservedRegion
}

// CancelOrder 用户取消订单（仅限骑手出发前）
func (s *OrderService) CancelOrder(orderID uint, userID uint) (*models.Order, error) {
	order, err := s.orderRepo.GetByIDAndUser(orderID, userID)
	if err != nil {
		return nil, ErrOrderFetchFailed
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	return s.cancelOrder(order, "cancelled by customer")
}

// CancelOrderAdmin 管理端取消订单
func (s *OrderService) CancelOrderAdmin(orderID uint, reason string) (*models.Order, error) {
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return nil, ErrOrderFetchFailed
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	message := "cancelled by operator"
	if strings.TrimSpace(reason) != "" {
		message = message + ": " + strings.TrimSpace(reason)
	}
	return s.cancelOrder(order, message)
}

// CancelExpiredOrder 超时取消（仅针对仍无人认领的待处理订单）
func (s *OrderService) CancelExpiredOrder(orderID uint) (*models.Order, error) {
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return nil, ErrOrderFetchFailed
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	if order.Status != constants.OrderStatusPending {
		return order, nil
	}
	return s.cancelOrder(order, "cancelled: no courier claimed the order in time")
}

// cancelOrder 取消订单并释放仍被预占的库存
// 限购额度不回填（防刷单套额），库存只在骑手出发前的状态释放。
func (s *OrderService) cancelOrder(order *models.Order, message string) (*models.Order, error) {
	if order.Status == constants.OrderStatusDelivered || order.Status == constants.OrderStatusCanceled {
		return nil, ErrOrderCancelNotAllowed
	}
	releaseStock := order.Status == constants.OrderStatusPending ||
		order.Status == constants.OrderStatusConfirmed ||
		order.Status == constants.OrderStatusPreparing

	now := time.Now()
	affected, err := s.orderRepo.AdvanceStatus(order.ID, order.Status, constants.OrderStatusCanceled, map[string]interface{}{
		"canceled_at": now,
	})
	if err != nil {
		return nil, ErrOrderUpdateFailed
	}
	if affected == 0 {
		// 状态已被并发推进，按最新状态重试
		return nil, ErrInvalidTransition
	}

	if releaseStock {
		for _, item := range order.Items {
			if _, err := s.productRepo.ReleaseStock(item.ProductID, item.Quantity); err != nil {
				logger.Errorw("cancel_stock_release_failed",
					"order_id", order.ID,
					"product_id", item.ProductID,
					"quantity", item.Quantity,
					"error", err,
				)
			}
		}
	}

	s.appendEvent(order.ID, constants.OrderStatusCanceled, nil, message)
	s.enqueueLedgerFinalize(order)

	return s.orderRepo.GetByID(order.ID)
}

func (s *OrderService) appendEvent(orderID uint, status string, pos *DeliveryAddress, message string) {
	event := &models.TrackingEvent{
		OrderID:   orderID,
		Status:    status,
		Message:   message,
		CreatedAt: time.Now(),
	}
	if pos != nil {
		lat, lng := pos.Lat, pos.Lng
		event.Lat = &lat
		event.Lng = &lng
	}
	if err := s.trackingRepo.Append(event); err != nil {
		logger.Errorw("tracking_event_append_failed",
			"order_id", orderID,
			"status", status,
			"error", err,
		)
	}
}

func (s *OrderService) enqueueLedgerFinalize(order *models.Order) {
	if order.UserID == 0 {
		return
	}
	if s.queueClient == nil || !s.queueClient.Enabled() {
		// 队列不可用时直接定稿
		if err := s.quotaService.Finalize(order.UserID, LedgerDate(order.CreatedAt)); err != nil {
			logger.Errorw("ledger_finalize_failed", "order_id", order.ID, "error", err)
		}
		return
	}
	if err := s.queueClient.EnqueueOrderLedgerFinalize(queue.OrderLedgerFinalizePayload{
		CustomerID: order.UserID,
		LedgerDate: LedgerDate(order.CreatedAt),
		OrderID:    order.ID,
	}); err != nil {
		logger.Warnw("ledger_finalize_enqueue_failed", "order_id", order.ID, "error", err)
	}
}

// SweepExpiredPending 清扫超时未认领订单（延迟任务丢失时的兜底）
func (s *OrderService) SweepExpiredPending(limit int) int {
	if limit <= 0 {
		limit = 100
	}
	cutoff := time.Now().Add(-time.Duration(s.resolveClaimTimeoutMinutes()) * time.Minute)
	orders, err := s.orderRepo.ListPendingBefore(cutoff, limit)
	if err != nil {
		logger.Warnw("expired_order_sweep_list_failed", "error", err)
		return 0
	}
	cancelled := 0
	for i := range orders {
		if _, err := s.CancelExpiredOrder(orders[i].ID); err != nil {
			logger.Warnw("expired_order_sweep_cancel_failed", "order_id", orders[i].ID, "error", err)
			continue
		}
		cancelled++
	}
	if cancelled > 0 {
		logger.Infow("expired_order_sweep_done", "cancelled", cancelled)
	}
	return cancelled
}

// RemainingQuota 查询顾客当日剩余限购额度
func (s *OrderService) RemainingQuota(userID uint) (*QuotaRemaining, error) {
	if userID == 0 {
		return nil, ErrNotEligible
	}
	return s.quotaService.Remaining(userID, LedgerDate(time.Now()))
}

// GetOrderByUser 获取用户订单详情
func (s *OrderService) GetOrderByUser(orderID uint, userID uint) (*models.Order, error) {
	order, err := s.orderRepo.GetByIDAndUser(orderID, userID)
	if err != nil {
		return nil, ErrOrderFetchFailed
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	return order, nil
}

// GetOrderByUserOrderNo 获取用户订单详情（按订单号）
func (s *OrderService) GetOrderByUserOrderNo(orderNo string, userID uint) (*models.Order, error) {
	order, err := s.orderRepo.GetByOrderNoAndUser(orderNo, userID)
	if err != nil {
		return nil, ErrOrderFetchFailed
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	return order, nil
}

// ListOrdersByUser 用户订单列表
func (s *OrderService) ListOrdersByUser(filter repository.OrderListFilter) ([]models.Order, int64, error) {
	orders, total, err := s.orderRepo.ListByUser(filter)
	if err != nil {
		return nil, 0, ErrOrderFetchFailed
	}
	return orders, total, nil
}

// ListOrdersForAdmin 管理端订单列表
func (s *OrderService) ListOrdersForAdmin(filter repository.OrderListFilter) ([]models.Order, int64, error) {
	orders, total, err := s.orderRepo.ListAdmin(filter)
	if err != nil {
		return nil, 0, ErrOrderFetchFailed
	}
	return orders, total, nil
}

// GetOrderForAdmin 管理端订单详情
func (s *OrderService) GetOrderForAdmin(orderID uint) (*models.Order, error) {
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return nil, ErrOrderFetchFailed
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	return order, nil
}

// resolveClaimTimeoutMinutes 取认领超时分钟数（后台设置优先于配置）
func (s *OrderService) resolveClaimTimeoutMinutes() int {
	if s.settingService != nil {
		if v, err := s.settingService.GetOrderClaimTimeoutMinutes(s.options.ClaimTimeoutMinutes); err == nil && v > 0 {
			return v
		}
	}
	return s.options.ClaimTimeoutMinutes
}

// resolveAllowGuest 取游客下单开关（后台设置优先于配置）
func (s *OrderService) resolveAllowGuest() bool {
	if s.settingService != nil {
		return s.settingService.GetAllowGuest(s.options.AllowGuest)
	}
	return s.options.AllowGuest
}

// resolveServedBoroughs 取配送范围（后台设置优先于配置）
func (s *OrderService) resolveServedBoroughs() []string {
	if s.settingService != nil {
		if boroughs, err := s.settingService.GetServedBoroughs(); err == nil && len(boroughs) > 0 {
			return boroughs
		}
	}
	return s.options.ServedBoroughs
}

// resolvePricingRules 取计价规则（后台设置可覆盖默认辖区常量）
func (s *OrderService) resolvePricingRules() PricingRules {
	if s.settingService != nil {
		if rules, ok := s.settingService.GetPricingRules(s.options.PricingRules); ok {
			return rules
		}
	}
	return s.options.PricingRules
}

// ErrOrderCreateFailedWrap 保留底层错误细节的持久化失败
func ErrOrderCreateFailedWrap(err error) error {
	return fmt.Errorf("%w: %v", ErrPersistenceFailure, err)
}

func validatePaymentMethod(method string) error {
	switch strings.TrimSpace(method) {
	case constants.PaymentMethodCashOnDelivery, constants.PaymentMethodDebitOnDoor:
		return nil
	default:
		return ErrInvalidPaymentMethod
	}
}

func normalizeSpeedTier(tier string) (string, error) {
	normalized := strings.ToLower(strings.TrimSpace(tier))
	switch normalized {
	case "", constants.SpeedTierStandard:
		return constants.SpeedTierStandard, nil
	case constants.SpeedTierExpress:
		return constants.SpeedTierExpress, nil
	default:
		return "", ErrInvalidSpeedTier
	}
}

func normalizeBorough(borough string) string {
	return strings.ToLower(strings.TrimSpace(borough))
}

// mergeCreateOrderItems 合并重复商品的下单项
func mergeCreateOrderItems(items []CreateOrderItem) ([]CreateOrderItem, error) {
	if len(items) == 0 {
		return nil, nil
	}
	merged := make([]CreateOrderItem, 0, len(items))
	indexMap := make(map[uint]int)
	for _, item := range items {
		if item.ProductID == 0 || item.Quantity <= 0 {
			return nil, ErrInvalidOrderItem
		}
		if idx, ok := indexMap[item.ProductID]; ok {
			merged[idx].Quantity += item.Quantity
			continue
		}
		indexMap[item.ProductID] = len(merged)
		merged = append(merged, item)
	}
	return merged, nil
}

func generateOrderNo() string {
	now := time.Now().Format("20060102150405")
	randPart := randNumeric(6)
	return fmt.Sprintf("LL%s%s", now, randPart)
}

// generateTrackingCode 生成高熵追踪码（码本身即访问凭证，绝不能可猜测）
func generateTrackingCode() string {
	buf := make([]byte, constants.TrackingCodeBytes)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand 失败极罕见，退回时间戳加随机数字兜底
		return fmt.Sprintf("%x%s", time.Now().UnixNano(), randNumeric(12))
	}
	return hex.EncodeToString(buf)
}

func randNumeric(length int) string {
	var b strings.Builder
	for i := 0; i < length; i++ {
		n, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			b.WriteString("0")
			continue
		}
		b.WriteString(fmt.Sprintf("%d", n.Int64()))
	}
	return b.String()
}
