package service

import (
	"errors"
	"testing"
	"time"

	"github.com/leafline-next/internal/constants"
	"github.com/leafline-next/internal/models"

	"gorm.io/gorm"
)

func TestIsTransitionAllowed(t *testing.T) {
	cases := []struct {
		current string
		target  string
		want    bool
	}{
		{constants.OrderStatusPending, constants.OrderStatusConfirmed, true},
		{constants.OrderStatusConfirmed, constants.OrderStatusPreparing, true},
		{constants.OrderStatusPreparing, constants.OrderStatusOutForDelivery, true},
		{constants.OrderStatusOutForDelivery, constants.OrderStatusDelivered, true},
		{constants.OrderStatusPreparing, constants.OrderStatusCanceled, true},
		{constants.OrderStatusPending, constants.OrderStatusOutForDelivery, false},
		{constants.OrderStatusConfirmed, constants.OrderStatusDelivered, false},
		{constants.OrderStatusDelivered, constants.OrderStatusPreparing, false},
		{constants.OrderStatusDelivered, constants.OrderStatusCanceled, false},
		{constants.OrderStatusCanceled, constants.OrderStatusConfirmed, false},
		{constants.OrderStatusPreparing, constants.OrderStatusPreparing, true},
	}
	for _, tc := range cases {
		if got := isTransitionAllowed(tc.current, tc.target); got != tc.want {
			t.Fatalf("transition %s -> %s: want %v got %v", tc.current, tc.target, tc.want, got)
		}
	}
}

func createCourier(t *testing.T, db *gorm.DB, id uint, active bool) {
	t.Helper()
	now := time.Now()
	courier := models.Courier{
		ID:          id,
		Name:        "courier",
		VehicleType: constants.CourierVehicleBike,
		IsActive:    active,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := db.Create(&courier).Error; err != nil {
		t.Fatalf("create courier failed: %v", err)
	}
}

func createPendingOrder(t *testing.T, svc *OrderService, db *gorm.DB, userID uint) *models.Order {
	t.Helper()
	createVerifiedUser(t, db, userID)
	product := createProductForOrder(t, db, "claim-pipe", constants.CategoryAccessory, "18", "0", 10)
	result, err := svc.CreateOrder(orderInput(userID, CreateOrderItem{ProductID: product.ID, Quantity: 1}))
	if err != nil {
		t.Fatalf("create order failed: %v", err)
	}
	return result.Order
}

func TestClaimOrderSecondCourierLoses(t *testing.T) {
	svc, db := setupOrderServiceTest(t, "claim_race")
	createCourier(t, db, 1, true)
	createCourier(t, db, 2, true)
	order := createPendingOrder(t, svc, db, 20)

	claimed, err := svc.ClaimOrder(order.ID, 1)
	if err != nil {
		t.Fatalf("first claim failed: %v", err)
	}
	if claimed.Status != constants.OrderStatusConfirmed {
		t.Fatalf("expected confirmed after claim, got %s", claimed.Status)
	}
	if claimed.CourierID == nil || *claimed.CourierID != 1 {
		t.Fatalf("expected courier 1 to own the order")
	}
	if claimed.ClaimedAt == nil {
		t.Fatalf("expected claimed_at to be set")
	}

	if _, err := svc.ClaimOrder(order.ID, 2); !errors.Is(err, ErrOrderAlreadyClaimed) {
		t.Fatalf("second claim should lose, got: %v", err)
	}
	reloaded, err := svc.GetOrderForAdmin(order.ID)
	if err != nil {
		t.Fatalf("reload order failed: %v", err)
	}
	if reloaded.CourierID == nil || *reloaded.CourierID != 1 {
		t.Fatalf("losing claim must not change ownership")
	}
}

func TestClaimOrderInactiveCourier(t *testing.T) {
	svc, db := setupOrderServiceTest(t, "claim_inactive")
	createCourier(t, db, 3, false)
	order := createPendingOrder(t, svc, db, 21)

	if _, err := svc.ClaimOrder(order.ID, 3); !errors.Is(err, ErrCourierNotFound) {
		t.Fatalf("inactive courier should be rejected, got: %v", err)
	}
}

func TestAdvanceOrderStatusForwardOnly(t *testing.T) {
	svc, db := setupOrderServiceTest(t, "advance")
	createCourier(t, db, 4, true)
	order := createPendingOrder(t, svc, db, 22)

	if _, err := svc.ClaimOrder(order.ID, 4); err != nil {
		t.Fatalf("claim failed: %v", err)
	}

	// 越级推进不允许
	if _, err := svc.AdvanceOrderStatus(order.ID, 4, constants.OrderStatusDelivered, nil); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("skip-level advance should fail, got: %v", err)
	}

	for _, target := range []string{
		constants.OrderStatusPreparing,
		constants.OrderStatusOutForDelivery,
	} {
		if _, err := svc.AdvanceOrderStatus(order.ID, 4, target, nil); err != nil {
			t.Fatalf("advance to %s failed: %v", target, err)
		}
	}

	pos := &CourierPosition{Lat: 40.71, Lng: -73.95}
	delivered, err := svc.AdvanceOrderStatus(order.ID, 4, constants.OrderStatusDelivered, pos)
	if err != nil {
		t.Fatalf("advance to delivered failed: %v", err)
	}
	if delivered.DeliveredAt == nil {
		t.Fatalf("expected delivered_at to be set")
	}

	// 终态不可回退
	if _, err := svc.AdvanceOrderStatus(order.ID, 4, constants.OrderStatusPreparing, nil); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("backward transition from delivered should fail, got: %v", err)
	}

	var events []models.TrackingEvent
	if err := db.Where("order_id = ? AND status = ?", order.ID, constants.OrderStatusDelivered).Find(&events).Error; err != nil {
		t.Fatalf("load events failed: %v", err)
	}
	if len(events) != 1 || events[0].Lat == nil || *events[0].Lat != 40.71 {
		t.Fatalf("delivered event should carry courier position, got %+v", events)
	}
}

func TestAdvanceOrderStatusWrongCourier(t *testing.T) {
	svc, db := setupOrderServiceTest(t, "advance_wrong")
	createCourier(t, db, 5, true)
	createCourier(t, db, 6, true)
	order := createPendingOrder(t, svc, db, 23)

	if _, err := svc.ClaimOrder(order.ID, 5); err != nil {
		t.Fatalf("claim failed: %v", err)
	}
	if _, err := svc.AdvanceOrderStatus(order.ID, 6, constants.OrderStatusPreparing, nil); !errors.Is(err, ErrCourierNotAssigned) {
		t.Fatalf("non-owner courier should be rejected, got: %v", err)
	}
}

func TestAdvanceOrderStatusCourierCannotCancel(t *testing.T) {
	svc, db := setupOrderServiceTest(t, "advance_cancel")
	createCourier(t, db, 7, true)
	order := createPendingOrder(t, svc, db, 24)

	if _, err := svc.ClaimOrder(order.ID, 7); err != nil {
		t.Fatalf("claim failed: %v", err)
	}
	if _, err := svc.AdvanceOrderStatus(order.ID, 7, constants.OrderStatusCanceled, nil); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("courier cancel should be rejected, got: %v", err)
	}
}

func TestAcceptOrder(t *testing.T) {
	svc, db := setupOrderServiceTest(t, "accept")
	order := createPendingOrder(t, svc, db, 25)

	accepted, err := svc.AcceptOrder(order.ID, 1, "ops")
	if err != nil {
		t.Fatalf("accept failed: %v", err)
	}
	if accepted.Status != constants.OrderStatusConfirmed {
		t.Fatalf("expected confirmed, got %s", accepted.Status)
	}
	if _, err := svc.AcceptOrder(order.ID, 1, "ops"); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("double accept should fail, got: %v", err)
	}

	var audit models.AuditLog
	if err := db.Where("action = ?", constants.AuditActionMerchantAccept).First(&audit).Error; err != nil {
		t.Fatalf("expected audit log for accept: %v", err)
	}
}

func TestReassignCourierRequiresOverrideMidDelivery(t *testing.T) {
	svc, db := setupOrderServiceTest(t, "reassign")
	createCourier(t, db, 8, true)
	createCourier(t, db, 9, true)
	order := createPendingOrder(t, svc, db, 26)

	if _, err := svc.ClaimOrder(order.ID, 8); err != nil {
		t.Fatalf("claim failed: %v", err)
	}
	if _, err := svc.AdvanceOrderStatus(order.ID, 8, constants.OrderStatusPreparing, nil); err != nil {
		t.Fatalf("advance failed: %v", err)
	}

	if _, err := svc.ReassignCourier(order.ID, 9, false, 1, "ops"); !errors.Is(err, ErrReassignNotAllowed) {
		t.Fatalf("mid-delivery reassign without override should fail, got: %v", err)
	}

	reassigned, err := svc.ReassignCourier(order.ID, 9, true, 1, "ops")
	if err != nil {
		t.Fatalf("override reassign failed: %v", err)
	}
	if reassigned.CourierID == nil || *reassigned.CourierID != 9 {
		t.Fatalf("expected courier 9 after reassign")
	}

	var audit models.AuditLog
	if err := db.Where("action = ?", constants.AuditActionCourierReassign).First(&audit).Error; err != nil {
		t.Fatalf("expected audit log for reassign: %v", err)
	}
	if audit.DetailJSON["override"] != true {
		t.Fatalf("audit detail should record override, got %+v", audit.DetailJSON)
	}
}

func TestReassignCourierTerminalRejected(t *testing.T) {
	svc, db := setupOrderServiceTest(t, "reassign_terminal")
	createCourier(t, db, 10, true)
	order := createPendingOrder(t, svc, db, 27)

	if err := db.Model(&models.Order{}).Where("id = ?", order.ID).
		Update("status", constants.OrderStatusCanceled).Error; err != nil {
		t.Fatalf("force canceled failed: %v", err)
	}
	if _, err := svc.ReassignCourier(order.ID, 10, true, 1, "ops"); !errors.Is(err, ErrReassignNotAllowed) {
		t.Fatalf("terminal order reassign should fail even with override, got: %v", err)
	}
}
