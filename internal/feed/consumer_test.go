package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/segmentio/kafka-go"
	"gorm.io/gorm"

	"github.com/leafline-next/internal/config"
	"github.com/leafline-next/internal/constants"
	"github.com/leafline-next/internal/models"
	"github.com/leafline-next/internal/repository"
	"github.com/leafline-next/internal/service"
)

func setupFeedTest(t *testing.T) (*Service, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:feed_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(&models.Courier{}, &models.Order{}, &models.OrderItem{}, &models.TrackingEvent{}); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	trackingService := service.NewTrackingService(
		repository.NewOrderRepository(db),
		repository.NewTrackingEventRepository(db),
		repository.NewCourierRepository(db),
	)
	return &Service{name: "feed", trackingService: trackingService}, db
}

func TestHandleMessageRenewsHeartbeat(t *testing.T) {
	svc, db := setupFeedTest(t)
	now := time.Now()
	courier := models.Courier{
		ID:          7,
		Name:        "Marco",
		VehicleType: constants.CourierVehicleBike,
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := db.Create(&courier).Error; err != nil {
		t.Fatalf("create courier failed: %v", err)
	}

	payload, _ := json.Marshal(CourierLocationMessage{
		CourierID: 7,
		Lat:       40.7081,
		Lng:       -73.9571,
		Timestamp: now.Unix(),
	})
	svc.handleMessage(context.Background(), kafka.Message{Value: payload})

	var reloaded models.Courier
	if err := db.First(&reloaded, 7).Error; err != nil {
		t.Fatalf("reload courier failed: %v", err)
	}
	if reloaded.LastSeenAt == nil {
		t.Fatalf("heartbeat should set last_seen_at")
	}
	if !reloaded.IsOnline {
		t.Fatalf("heartbeat should mark courier online")
	}
}

func TestHandleMessageToleratesMalformedPayloads(t *testing.T) {
	svc, _ := setupFeedTest(t)
	ctx := context.Background()

	// 坏消息只丢弃，不能让消费循环崩掉
	svc.handleMessage(ctx, kafka.Message{Value: []byte("not json")})
	svc.handleMessage(ctx, kafka.Message{Value: []byte(`{"courier_id":0,"lat":1,"lng":2}`)})
	svc.handleMessage(ctx, kafka.Message{Value: []byte(`{"courier_id":9,"lat":999,"lng":2}`)})
}

func TestNewServiceRequiresBrokers(t *testing.T) {
	svc, _ := setupFeedTest(t)
	if _, err := NewService(&config.FeedConfig{Enabled: false}, svc.trackingService); err == nil {
		t.Fatalf("disabled feed should error")
	}
	if _, err := NewService(&config.FeedConfig{Enabled: true, Brokers: []string{" "}}, svc.trackingService); err == nil {
		t.Fatalf("empty brokers should error")
	}
}
