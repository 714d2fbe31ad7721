package service

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/leafline-next/internal/constants"
	"github.com/leafline-next/internal/models"
	"github.com/leafline-next/internal/repository"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func setupOrderServiceTest(t *testing.T, name string) (*OrderService, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:order_%s_%d?mode=memory&cache=shared", name, time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(
		&models.User{},
		&models.Merchant{},
		&models.Courier{},
		&models.Product{},
		&models.Order{},
		&models.OrderItem{},
		&models.QuotaLedgerEntry{},
		&models.TrackingEvent{},
		&models.AuditLog{},
		&models.Setting{},
	); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	models.DB = db

	quotaService := NewQuotaService(repository.NewQuotaLedgerRepository(db), DefaultQuotaRules())
	svc := NewOrderService(
		repository.NewOrderRepository(db),
		repository.NewProductRepository(db),
		repository.NewTrackingEventRepository(db),
		repository.NewCourierRepository(db),
		repository.NewUserRepository(db),
		repository.NewMerchantRepository(db),
		repository.NewAuditLogRepository(db),
		quotaService,
		nil,
		nil,
		OrderOptions{
			AllowGuest:          true,
			ServedBoroughs:      constants.DefaultServedBoroughs,
			ClaimTimeoutMinutes: 30,
			PresenceWindow:      2 * time.Minute,
			Currency:            "USD",
			PricingRules:        DefaultPricingRules(),
			DefaultMerchantID:   1,
		},
	)
	return svc, db
}

func createVerifiedUser(t *testing.T, db *gorm.DB, id uint) {
	t.Helper()
	now := time.Now()
	user := models.User{
		ID:         id,
		Email:      fmt.Sprintf("customer_%d@example.com", id),
		Status:     constants.UserStatusActive,
		IsVerified: true,
		VerifiedAt: &now,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("create user failed: %v", err)
	}
}

func createProductForOrder(t *testing.T, db *gorm.DB, slug, category string, price, weightGrams string, stock int) *models.Product {
	t.Helper()
	now := time.Now()
	product := &models.Product{
		MerchantID:      1,
		Slug:            slug,
		Name:            slug,
		Category:        category,
		PriceAmount:     models.NewMoneyFromString(price),
		UnitWeightGrams: models.NewGramsFromString(weightGrams),
		Stock:           stock,
		IsActive:        true,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := db.Create(product).Error; err != nil {
		t.Fatalf("create product failed: %v", err)
	}
	return product
}

func orderInput(userID uint, items ...CreateOrderItem) CreateOrderInput {
	return CreateOrderInput{
		UserID: userID,
		Items:  items,
		Address: DeliveryAddress{
			Street:  "101 Bedford Ave",
			Borough: constants.BoroughBrooklyn,
			Lat:     40.71,
			Lng:     -73.95,
		},
		PaymentMethod: constants.PaymentMethodCashOnDelivery,
		SpeedTier:     constants.SpeedTierStandard,
	}
}

func productStock(t *testing.T, db *gorm.DB, productID uint) int {
	t.Helper()
	var product models.Product
	if err := db.First(&product, productID).Error; err != nil {
		t.Fatalf("load product failed: %v", err)
	}
	return product.Stock
}

func TestCreateOrderSuccess(t *testing.T) {
	svc, db := setupOrderServiceTest(t, "success")
	createVerifiedUser(t, db, 1)
	product := createProductForOrder(t, db, "flower-a", constants.CategoryFlower, "45", "3.5", 40)

	result, err := svc.CreateOrder(orderInput(1, CreateOrderItem{ProductID: product.ID, Quantity: 2}))
	if err != nil {
		t.Fatalf("create order failed: %v", err)
	}
	if result.Replayed {
		t.Fatalf("fresh order should not be marked replayed")
	}
	if result.Order.Status != constants.OrderStatusPending {
		t.Fatalf("expected pending status, got %s", result.Order.Status)
	}
	if len(result.TrackingCode) != constants.TrackingCodeBytes*2 {
		t.Fatalf("unexpected tracking code length: %d", len(result.TrackingCode))
	}
	// 小计 90 未达免配门槛，无在线骑手按运力紧张计价：5 * 2 = 10
	if !result.Order.Subtotal.Decimal.Equal(decimal.NewFromInt(90)) {
		t.Fatalf("expected subtotal 90, got %s", result.Order.Subtotal.String())
	}
	if !result.Order.DeliveryFee.Decimal.Equal(decimal.NewFromInt(10)) {
		t.Fatalf("expected delivery fee 10, got %s", result.Order.DeliveryFee.String())
	}
	if !result.Order.TotalAmount.Decimal.Equal(decimal.NewFromInt(100)) {
		t.Fatalf("expected total 100, got %s", result.Order.TotalAmount.String())
	}
	if got := productStock(t, db, product.ID); got != 38 {
		t.Fatalf("expected stock 38 after reservation, got %d", got)
	}

	var entry models.QuotaLedgerEntry
	if err := db.Where("customer_id = ?", 1).First(&entry).Error; err != nil {
		t.Fatalf("load quota ledger failed: %v", err)
	}
	if !entry.FlowerGrams.Decimal.Equal(decimal.RequireFromString("7")) {
		t.Fatalf("expected 7g flower on ledger, got %s", entry.FlowerGrams.String())
	}

	var events []models.TrackingEvent
	if err := db.Where("order_id = ?", result.Order.ID).Find(&events).Error; err != nil {
		t.Fatalf("load tracking events failed: %v", err)
	}
	if len(events) != 1 || events[0].Status != constants.OrderStatusPending {
		t.Fatalf("expected single pending tracking event, got %+v", events)
	}
}

func TestCreateOrderInsufficientStockCompensates(t *testing.T) {
	svc, db := setupOrderServiceTest(t, "stock")
	createVerifiedUser(t, db, 2)
	full := createProductForOrder(t, db, "pipe", constants.CategoryAccessory, "18", "0", 5)
	short := createProductForOrder(t, db, "papers", constants.CategoryAccessory, "4", "0", 1)

	_, err := svc.CreateOrder(orderInput(2,
		CreateOrderItem{ProductID: full.ID, Quantity: 2},
		CreateOrderItem{ProductID: short.ID, Quantity: 3},
	))
	var stockErr *InsufficientStockError
	if !errors.As(err, &stockErr) {
		t.Fatalf("expected insufficient stock error, got: %v", err)
	}
	if stockErr.ProductID != short.ID || stockErr.Available != 1 || stockErr.Requested != 3 {
		t.Fatalf("unexpected stock error detail: %+v", stockErr)
	}

	// 先扣的库存必须被补偿释放
	if got := productStock(t, db, full.ID); got != 5 {
		t.Fatalf("expected compensated stock 5, got %d", got)
	}
	var count int64
	if err := db.Model(&models.Order{}).Count(&count).Error; err != nil {
		t.Fatalf("count orders failed: %v", err)
	}
	if count != 0 {
		t.Fatalf("failed order must not persist, got %d rows", count)
	}
}

func TestCreateOrderQuotaExceededReleasesStock(t *testing.T) {
	svc, db := setupOrderServiceTest(t, "quota")
	createVerifiedUser(t, db, 3)
	product := createProductForOrder(t, db, "flower-heavy", constants.CategoryFlower, "80", "43", 10)

	_, err := svc.CreateOrder(orderInput(3, CreateOrderItem{ProductID: product.ID, Quantity: 2}))
	var quotaErr *QuotaExceededError
	if !errors.As(err, &quotaErr) {
		t.Fatalf("expected quota exceeded error, got: %v", err)
	}
	if !quotaErr.RemainingFlowerGrams.Decimal.Equal(decimal.RequireFromString("85.05")) {
		t.Fatalf("expected full remaining quota in error, got %s", quotaErr.RemainingFlowerGrams.String())
	}
	if got := productStock(t, db, product.ID); got != 10 {
		t.Fatalf("expected stock released back to 10, got %d", got)
	}
}

func TestCreateOrderPersistFailureReleasesStock(t *testing.T) {
	svc, db := setupOrderServiceTest(t, "persist_fail")
	createVerifiedUser(t, db, 9)
	product := createProductForOrder(t, db, "pipe-persist", constants.CategoryAccessory, "18", "0", 10)

	// 让订单事务中途失败：库存已预占，首条追踪事件写不进去
	if err := db.Migrator().DropTable(&models.TrackingEvent{}); err != nil {
		t.Fatalf("drop tracking events failed: %v", err)
	}

	_, err := svc.CreateOrder(orderInput(9, CreateOrderItem{ProductID: product.ID, Quantity: 2}))
	if !errors.Is(err, ErrPersistenceFailure) {
		t.Fatalf("expected persistence failure, got: %v", err)
	}

	if got := productStock(t, db, product.ID); got != 10 {
		t.Fatalf("reserved stock must be released after persist failure, got %d", got)
	}
	var orders int64
	if err := db.Model(&models.Order{}).Count(&orders).Error; err != nil {
		t.Fatalf("count orders failed: %v", err)
	}
	if orders != 0 {
		t.Fatalf("failed transaction must not leave an order, got %d", orders)
	}
	var ledgers int64
	if err := db.Model(&models.QuotaLedgerEntry{}).Count(&ledgers).Error; err != nil {
		t.Fatalf("count ledgers failed: %v", err)
	}
	if ledgers != 0 {
		t.Fatalf("failed transaction must roll the ledger back, got %d", ledgers)
	}
}

func TestCreateOrderIdempotentReplay(t *testing.T) {
	svc, db := setupOrderServiceTest(t, "idem")
	createVerifiedUser(t, db, 4)
	product := createProductForOrder(t, db, "cart", constants.CategoryConcentrate, "55", "1", 20)

	input := orderInput(4, CreateOrderItem{ProductID: product.ID, Quantity: 1})
	input.IdempotencyKey = "client-key-001"

	first, err := svc.CreateOrder(input)
	if err != nil {
		t.Fatalf("first create failed: %v", err)
	}
	second, err := svc.CreateOrder(input)
	if err != nil {
		t.Fatalf("replay failed: %v", err)
	}
	if !second.Replayed {
		t.Fatalf("expected replayed result")
	}
	if second.OrderNo != first.OrderNo {
		t.Fatalf("replay should return the same order, got %s vs %s", second.OrderNo, first.OrderNo)
	}
	if got := productStock(t, db, product.ID); got != 19 {
		t.Fatalf("replay must not reserve stock twice, got %d", got)
	}
}

func TestCreateOrderIdempotencyKeyForeignCustomer(t *testing.T) {
	svc, db := setupOrderServiceTest(t, "idem_foreign")
	createVerifiedUser(t, db, 5)
	createVerifiedUser(t, db, 6)
	product := createProductForOrder(t, db, "cart-idem", constants.CategoryAccessory, "18", "0", 20)

	input := orderInput(5, CreateOrderItem{ProductID: product.ID, Quantity: 1})
	input.IdempotencyKey = "checkout-attempt-1"
	first, err := svc.CreateOrder(input)
	if err != nil {
		t.Fatalf("first create failed: %v", err)
	}

	// 另一个顾客撞到同一个键：不能回放别人的订单和追踪码
	foreign := orderInput(6, CreateOrderItem{ProductID: product.ID, Quantity: 1})
	foreign.IdempotencyKey = "checkout-attempt-1"
	result, err := svc.CreateOrder(foreign)
	if !errors.Is(err, ErrIdempotencyConflict) {
		t.Fatalf("foreign key reuse should conflict, got result=%v err=%v", result, err)
	}
	if result != nil {
		t.Fatalf("conflict must not return another customer's order")
	}
	if got := productStock(t, db, product.ID); got != 19 {
		t.Fatalf("conflict must not touch stock, got %d", got)
	}

	var count int64
	if err := db.Model(&models.Order{}).Count(&count).Error; err != nil {
		t.Fatalf("count orders failed: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected exactly one order, got %d", count)
	}

	// 本人重试仍然正常回放
	replay, err := svc.CreateOrder(input)
	if err != nil || !replay.Replayed || replay.OrderNo != first.OrderNo {
		t.Fatalf("owner retry should replay, got %+v err=%v", replay, err)
	}
}

func TestCreateOrderIdempotencyKeyForeignGuest(t *testing.T) {
	svc, db := setupOrderServiceTest(t, "idem_guest")
	product := createProductForOrder(t, db, "papers-idem", constants.CategoryAccessory, "4", "0", 20)

	input := orderInput(0, CreateOrderItem{ProductID: product.ID, Quantity: 1})
	input.GuestEmail = "first@example.com"
	input.IdempotencyKey = "guest-key-1"
	first, err := svc.CreateOrder(input)
	if err != nil {
		t.Fatalf("guest create failed: %v", err)
	}

	other := orderInput(0, CreateOrderItem{ProductID: product.ID, Quantity: 1})
	other.GuestEmail = "second@example.com"
	other.IdempotencyKey = "guest-key-1"
	if _, err := svc.CreateOrder(other); !errors.Is(err, ErrIdempotencyConflict) {
		t.Fatalf("different guest should conflict, got: %v", err)
	}

	// 同一游客（大小写不同的邮箱）重试正常回放
	retry := orderInput(0, CreateOrderItem{ProductID: product.ID, Quantity: 1})
	retry.GuestEmail = " First@Example.com "
	retry.IdempotencyKey = "guest-key-1"
	replay, err := svc.CreateOrder(retry)
	if err != nil || !replay.Replayed || replay.OrderNo != first.OrderNo {
		t.Fatalf("same guest retry should replay, got %+v err=%v", replay, err)
	}
}

func TestCreateOrderGuestRegulatedRejected(t *testing.T) {
	svc, db := setupOrderServiceTest(t, "guest_regulated")
	product := createProductForOrder(t, db, "flower-g", constants.CategoryFlower, "45", "3.5", 10)

	input := orderInput(0, CreateOrderItem{ProductID: product.ID, Quantity: 1})
	input.GuestEmail = "guest@example.com"

	_, err := svc.CreateOrder(input)
	if !errors.Is(err, ErrNotEligible) {
		t.Fatalf("guest with regulated item should be rejected, got: %v", err)
	}
	if got := productStock(t, db, product.ID); got != 10 {
		t.Fatalf("rejected order must not touch stock, got %d", got)
	}
}

func TestCreateOrderGuestAccessory(t *testing.T) {
	svc, db := setupOrderServiceTest(t, "guest_ok")
	product := createProductForOrder(t, db, "grinder", constants.CategoryAccessory, "25", "0", 10)

	input := orderInput(0, CreateOrderItem{ProductID: product.ID, Quantity: 1})
	input.GuestEmail = "guest@example.com"

	result, err := svc.CreateOrder(input)
	if err != nil {
		t.Fatalf("guest accessory order failed: %v", err)
	}
	if result.Order.UserID != 0 || result.Order.GuestEmail != "guest@example.com" {
		t.Fatalf("unexpected guest order identity: %+v", result.Order)
	}

	var ledgerCount int64
	if err := db.Model(&models.QuotaLedgerEntry{}).Count(&ledgerCount).Error; err != nil {
		t.Fatalf("count ledger failed: %v", err)
	}
	if ledgerCount != 0 {
		t.Fatalf("guest order must not write quota ledger")
	}
}

func TestCreateOrderUnservedBorough(t *testing.T) {
	svc, db := setupOrderServiceTest(t, "region")
	createVerifiedUser(t, db, 5)
	product := createProductForOrder(t, db, "pipe-b", constants.CategoryAccessory, "18", "0", 5)

	input := orderInput(5, CreateOrderItem{ProductID: product.ID, Quantity: 1})
	input.Address.Borough = constants.BoroughStatenIsland

	_, err := svc.CreateOrder(input)
	if !errors.Is(err, ErrUnservedRegion) {
		t.Fatalf("expected unserved region, got: %v", err)
	}
}

func TestCreateOrderUnverifiedUser(t *testing.T) {
	svc, db := setupOrderServiceTest(t, "unverified")
	user := models.User{ID: 6, Email: "pending@example.com", Status: constants.UserStatusActive, IsVerified: false}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("create user failed: %v", err)
	}
	product := createProductForOrder(t, db, "pipe-c", constants.CategoryAccessory, "18", "0", 5)

	_, err := svc.CreateOrder(orderInput(6, CreateOrderItem{ProductID: product.ID, Quantity: 1}))
	if !errors.Is(err, ErrNotEligible) {
		t.Fatalf("unverified user should be rejected, got: %v", err)
	}
}

func TestPreviewOrderHasNoSideEffects(t *testing.T) {
	svc, db := setupOrderServiceTest(t, "preview")
	createVerifiedUser(t, db, 7)
	product := createProductForOrder(t, db, "flower-p", constants.CategoryFlower, "45", "3.5", 40)

	preview, err := svc.PreviewOrder(orderInput(7, CreateOrderItem{ProductID: product.ID, Quantity: 2}))
	if err != nil {
		t.Fatalf("preview failed: %v", err)
	}
	if !preview.Subtotal.Decimal.Equal(decimal.NewFromInt(90)) {
		t.Fatalf("expected subtotal 90, got %s", preview.Subtotal.String())
	}
	if !preview.FlowerGrams.Decimal.Equal(decimal.RequireFromString("7")) {
		t.Fatalf("expected 7g flower, got %s", preview.FlowerGrams.String())
	}

	var orderCount, ledgerCount int64
	db.Model(&models.Order{}).Count(&orderCount)
	db.Model(&models.QuotaLedgerEntry{}).Count(&ledgerCount)
	if orderCount != 0 || ledgerCount != 0 {
		t.Fatalf("preview must not persist anything: orders=%d ledgers=%d", orderCount, ledgerCount)
	}
	if got := productStock(t, db, product.ID); got != 40 {
		t.Fatalf("preview must not reserve stock, got %d", got)
	}
}

func TestCancelOrderReleasesStockKeepsQuota(t *testing.T) {
	svc, db := setupOrderServiceTest(t, "cancel")
	createVerifiedUser(t, db, 8)
	product := createProductForOrder(t, db, "flower-c", constants.CategoryFlower, "45", "3.5", 40)

	result, err := svc.CreateOrder(orderInput(8, CreateOrderItem{ProductID: product.ID, Quantity: 2}))
	if err != nil {
		t.Fatalf("create order failed: %v", err)
	}

	canceled, err := svc.CancelOrder(result.Order.ID, 8)
	if err != nil {
		t.Fatalf("cancel failed: %v", err)
	}
	if canceled.Status != constants.OrderStatusCanceled {
		t.Fatalf("expected canceled status, got %s", canceled.Status)
	}
	if canceled.CanceledAt == nil {
		t.Fatalf("expected canceled_at to be set")
	}
	if got := productStock(t, db, product.ID); got != 40 {
		t.Fatalf("expected stock released on cancel, got %d", got)
	}

	// 限购额度不回填
	var entry models.QuotaLedgerEntry
	if err := db.Where("customer_id = ?", 8).First(&entry).Error; err != nil {
		t.Fatalf("load ledger failed: %v", err)
	}
	if !entry.FlowerGrams.Decimal.Equal(decimal.RequireFromString("7")) {
		t.Fatalf("cancel must not refund quota, ledger shows %s", entry.FlowerGrams.String())
	}
}

func TestCancelDeliveredOrderRejected(t *testing.T) {
	svc, db := setupOrderServiceTest(t, "cancel_final")
	createVerifiedUser(t, db, 9)
	product := createProductForOrder(t, db, "pipe-d", constants.CategoryAccessory, "18", "0", 5)

	result, err := svc.CreateOrder(orderInput(9, CreateOrderItem{ProductID: product.ID, Quantity: 1}))
	if err != nil {
		t.Fatalf("create order failed: %v", err)
	}
	if err := db.Model(&models.Order{}).Where("id = ?", result.Order.ID).
		Update("status", constants.OrderStatusDelivered).Error; err != nil {
		t.Fatalf("force delivered failed: %v", err)
	}

	_, err = svc.CancelOrderAdmin(result.Order.ID, "too late")
	if !errors.Is(err, ErrOrderCancelNotAllowed) {
		t.Fatalf("delivered order must not be cancellable, got: %v", err)
	}
}

func TestCancelExpiredOrderOnlyPending(t *testing.T) {
	svc, db := setupOrderServiceTest(t, "expire")
	createVerifiedUser(t, db, 10)
	product := createProductForOrder(t, db, "pipe-e", constants.CategoryAccessory, "18", "0", 5)

	result, err := svc.CreateOrder(orderInput(10, CreateOrderItem{ProductID: product.ID, Quantity: 1}))
	if err != nil {
		t.Fatalf("create order failed: %v", err)
	}
	if err := db.Model(&models.Order{}).Where("id = ?", result.Order.ID).
		Update("status", constants.OrderStatusConfirmed).Error; err != nil {
		t.Fatalf("force confirmed failed: %v", err)
	}

	order, err := svc.CancelExpiredOrder(result.Order.ID)
	if err != nil {
		t.Fatalf("expired cancel failed: %v", err)
	}
	if order.Status != constants.OrderStatusConfirmed {
		t.Fatalf("claimed order must survive timeout sweep, got %s", order.Status)
	}
}

func TestMergeCreateOrderItems(t *testing.T) {
	items := []CreateOrderItem{
		{ProductID: 1, Quantity: 1},
		{ProductID: 2, Quantity: 2},
		{ProductID: 1, Quantity: 3},
	}
	merged, err := mergeCreateOrderItems(items)
	if err != nil {
		t.Fatalf("merge failed: %v", err)
	}
	if len(merged) != 2 {
		t.Fatalf("expected 2 merged items, got %d", len(merged))
	}
	if merged[0].ProductID != 1 || merged[0].Quantity != 4 {
		t.Fatalf("unexpected merged item: %+v", merged[0])
	}
}

func TestMergeCreateOrderItemsRejectsInvalid(t *testing.T) {
	if _, err := mergeCreateOrderItems([]CreateOrderItem{{ProductID: 0, Quantity: 1}}); !errors.Is(err, ErrInvalidOrderItem) {
		t.Fatalf("expected invalid item error, got: %v", err)
	}
	if _, err := mergeCreateOrderItems([]CreateOrderItem{{ProductID: 1, Quantity: 0}}); !errors.Is(err, ErrInvalidOrderItem) {
		t.Fatalf("expected invalid quantity error, got: %v", err)
	}
}

func TestNormalizeSpeedTier(t *testing.T) {
	tier, err := normalizeSpeedTier("")
	if err != nil || tier != constants.SpeedTierStandard {
		t.Fatalf("empty tier should default to standard, got %s err=%v", tier, err)
	}
	tier, err = normalizeSpeedTier(" Express ")
	if err != nil || tier != constants.SpeedTierExpress {
		t.Fatalf("express should normalize, got %s err=%v", tier, err)
	}
	if _, err := normalizeSpeedTier("overnight"); !errors.Is(err, ErrInvalidSpeedTier) {
		t.Fatalf("unknown tier should fail, got: %v", err)
	}
}
