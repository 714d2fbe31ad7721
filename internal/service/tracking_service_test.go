package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/leafline-next/internal/constants"
	"github.com/leafline-next/internal/models"
	"github.com/leafline-next/internal/repository"

	"gorm.io/gorm"
)

func newTrackingService(db *gorm.DB) *TrackingService {
	return NewTrackingService(
		repository.NewOrderRepository(db),
		repository.NewTrackingEventRepository(db),
		repository.NewCourierRepository(db),
	)
}

func TestTrackSnapshotHidesOrderIdentity(t *testing.T) {
	svc, db := setupOrderServiceTest(t, "track_snapshot")
	createVerifiedUser(t, db, 40)
	product := createProductForOrder(t, db, "track-papers", constants.CategoryAccessory, "4", "0", 50)

	result, err := svc.CreateOrder(orderInput(40, CreateOrderItem{ProductID: product.ID, Quantity: 2}))
	if err != nil {
		t.Fatalf("create order failed: %v", err)
	}
	if len(result.TrackingCode) != constants.TrackingCodeBytes*2 {
		t.Fatalf("unexpected tracking code length: %d", len(result.TrackingCode))
	}

	tracking := newTrackingService(db)
	snapshot, err := tracking.Track(context.Background(), result.TrackingCode)
	if err != nil {
		t.Fatalf("track failed: %v", err)
	}
	if snapshot.Status != constants.OrderStatusPending {
		t.Fatalf("expected pending snapshot, got %s", snapshot.Status)
	}
	if snapshot.Borough != constants.BoroughBrooklyn {
		t.Fatalf("expected brooklyn, got %s", snapshot.Borough)
	}
	if len(snapshot.Events) == 0 {
		t.Fatalf("expected at least the created event")
	}
	if snapshot.EstimatedArrival == nil {
		t.Fatalf("pending order should have an eta")
	}
	if len(snapshot.Items) != 1 || snapshot.Items[0].Quantity != 2 {
		t.Fatalf("snapshot items mismatch: %+v", snapshot.Items)
	}
	if !snapshot.Total.Equal(result.Order.TotalAmount.Decimal) {
		t.Fatalf("snapshot total mismatch: %s vs %s", snapshot.Total, result.Order.TotalAmount)
	}

	// 快照序列化后不能泄露订单号与顾客身份
	payload, err := json.Marshal(snapshot)
	if err != nil {
		t.Fatalf("marshal snapshot failed: %v", err)
	}
	body := string(payload)
	if strings.Contains(body, result.Order.OrderNo) {
		t.Fatalf("snapshot leaks order no: %s", body)
	}
	if strings.Contains(body, "order_no") || strings.Contains(body, "user_id") || strings.Contains(body, "email") {
		t.Fatalf("snapshot leaks order identity: %s", body)
	}
}

func TestTrackCodeIsCaseInsensitive(t *testing.T) {
	svc, db := setupOrderServiceTest(t, "track_case")
	createVerifiedUser(t, db, 41)
	product := createProductForOrder(t, db, "track-pipe", constants.CategoryAccessory, "18", "0", 10)

	result, err := svc.CreateOrder(orderInput(41, CreateOrderItem{ProductID: product.ID, Quantity: 1}))
	if err != nil {
		t.Fatalf("create order failed: %v", err)
	}

	tracking := newTrackingService(db)
	if _, err := tracking.Track(context.Background(), "  "+strings.ToUpper(result.TrackingCode)+" "); err != nil {
		t.Fatalf("uppercase code with padding should resolve, got: %v", err)
	}
}

func TestTrackRejectsBadCodes(t *testing.T) {
	_, db := setupOrderServiceTest(t, "track_bad")
	tracking := newTrackingService(db)

	if _, err := tracking.Track(context.Background(), "short"); !errors.Is(err, ErrTrackingNotFound) {
		t.Fatalf("short code should not resolve, got: %v", err)
	}
	if _, err := tracking.Track(context.Background(), strings.Repeat("ab", constants.TrackingCodeBytes)); !errors.Is(err, ErrTrackingNotFound) {
		t.Fatalf("unknown code should not resolve, got: %v", err)
	}
}

func TestTrackExpressShortensETA(t *testing.T) {
	svc, db := setupOrderServiceTest(t, "track_eta")
	createVerifiedUser(t, db, 42)
	product := createProductForOrder(t, db, "track-grinder", constants.CategoryAccessory, "25", "0", 10)

	standardInput := orderInput(42, CreateOrderItem{ProductID: product.ID, Quantity: 1})
	standard, err := svc.CreateOrder(standardInput)
	if err != nil {
		t.Fatalf("create standard order failed: %v", err)
	}

	expressInput := orderInput(42, CreateOrderItem{ProductID: product.ID, Quantity: 1})
	expressInput.SpeedTier = constants.SpeedTierExpress
	express, err := svc.CreateOrder(expressInput)
	if err != nil {
		t.Fatalf("create express order failed: %v", err)
	}

	tracking := newTrackingService(db)
	standardSnap, err := tracking.Track(context.Background(), standard.TrackingCode)
	if err != nil {
		t.Fatalf("track standard failed: %v", err)
	}
	expressSnap, err := tracking.Track(context.Background(), express.TrackingCode)
	if err != nil {
		t.Fatalf("track express failed: %v", err)
	}
	if standardSnap.EstimatedArrival == nil || expressSnap.EstimatedArrival == nil {
		t.Fatalf("both snapshots should carry an eta")
	}
	if !expressSnap.EstimatedArrival.Before(*standardSnap.EstimatedArrival) {
		t.Fatalf("express eta %v should be earlier than standard %v",
			expressSnap.EstimatedArrival, standardSnap.EstimatedArrival)
	}
}

func TestTrackDeliveredHasNoETA(t *testing.T) {
	svc, db := setupOrderServiceTest(t, "track_done")
	createVerifiedUser(t, db, 43)
	product := createProductForOrder(t, db, "track-lighter", constants.CategoryAccessory, "3", "0", 10)

	result, err := svc.CreateOrder(orderInput(43, CreateOrderItem{ProductID: product.ID, Quantity: 1}))
	if err != nil {
		t.Fatalf("create order failed: %v", err)
	}
	if err := db.Model(&models.Order{}).Where("id = ?", result.Order.ID).
		Update("status", constants.OrderStatusDelivered).Error; err != nil {
		t.Fatalf("force delivered failed: %v", err)
	}

	tracking := newTrackingService(db)
	snapshot, err := tracking.Track(context.Background(), result.TrackingCode)
	if err != nil {
		t.Fatalf("track failed: %v", err)
	}
	if snapshot.EstimatedArrival != nil {
		t.Fatalf("delivered order should not have an eta")
	}
}

func TestTrackShowsCourierOnlyOutForDelivery(t *testing.T) {
	svc, db := setupOrderServiceTest(t, "track_courier")
	createCourier(t, db, 30, true)
	createVerifiedUser(t, db, 44)
	product := createProductForOrder(t, db, "track-tray", constants.CategoryAccessory, "12", "0", 10)

	result, err := svc.CreateOrder(orderInput(44, CreateOrderItem{ProductID: product.ID, Quantity: 1}))
	if err != nil {
		t.Fatalf("create order failed: %v", err)
	}

	tracking := newTrackingService(db)
	if _, err := svc.ClaimOrder(result.Order.ID, 30); err != nil {
		t.Fatalf("claim failed: %v", err)
	}
	snapshot, err := tracking.Track(context.Background(), result.TrackingCode)
	if err != nil {
		t.Fatalf("track failed: %v", err)
	}
	if snapshot.Courier != nil {
		t.Fatalf("courier must stay hidden before out_for_delivery")
	}

	if _, err := svc.AdvanceOrderStatus(result.Order.ID, 30, constants.OrderStatusPreparing, nil); err != nil {
		t.Fatalf("advance to preparing failed: %v", err)
	}
	if _, err := svc.AdvanceOrderStatus(result.Order.ID, 30, constants.OrderStatusOutForDelivery, nil); err != nil {
		t.Fatalf("advance to out_for_delivery failed: %v", err)
	}
	snapshot, err = tracking.Track(context.Background(), result.TrackingCode)
	if err != nil {
		t.Fatalf("track failed: %v", err)
	}
	if snapshot.Courier == nil || snapshot.Courier.VehicleType != constants.CourierVehicleBike {
		t.Fatalf("expected courier public info while out for delivery, got %+v", snapshot.Courier)
	}
}

func TestHaversineKm(t *testing.T) {
	// 纬度一度约 111 公里
	got := haversineKm(40.0, -73.95, 41.0, -73.95)
	if got < 110 || got > 112.5 {
		t.Fatalf("unexpected distance for one degree of latitude: %f", got)
	}
	if d := haversineKm(40.7081, -73.9571, 40.7081, -73.9571); d != 0 {
		t.Fatalf("zero distance expected, got %f", d)
	}
}

func TestRecordCourierLocationValidation(t *testing.T) {
	_, db := setupOrderServiceTest(t, "track_loc")
	tracking := newTrackingService(db)
	ctx := context.Background()

	if err := tracking.RecordCourierLocation(ctx, 0, 40.7, -73.9, time.Now()); !errors.Is(err, ErrCourierNotFound) {
		t.Fatalf("courier id 0 should be rejected, got: %v", err)
	}
	if err := tracking.RecordCourierLocation(ctx, 1, 91.0, -73.9, time.Now()); !errors.Is(err, ErrInvalidAddress) {
		t.Fatalf("latitude out of range should be rejected, got: %v", err)
	}
	if err := tracking.RecordCourierLocation(ctx, 1, -40.7, 181.0, time.Now()); !errors.Is(err, ErrInvalidAddress) {
		t.Fatalf("longitude out of range should be rejected, got: %v", err)
	}
}
