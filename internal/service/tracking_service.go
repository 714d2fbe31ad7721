package service

import (
	"context"
	"math"
	"strings"
	"time"

	"github.com/leafline-next/internal/cache"
	"github.com/leafline-next/internal/constants"
	"github.com/leafline-next/internal/models"
	"github.com/leafline-next/internal/repository"
)

// TrackingService 订单追踪服务
// 追踪码即访问凭证：只认码，不校验身份，接口返回里绝不回显码本身之外的可枚举标识。
type TrackingService struct {
	orderRepo    repository.OrderRepository
	trackingRepo repository.TrackingEventRepository
	courierRepo  repository.CourierRepository
}

// NewTrackingService 创建追踪服务
func NewTrackingService(
	orderRepo repository.OrderRepository,
	trackingRepo repository.TrackingEventRepository,
	courierRepo repository.CourierRepository,
) *TrackingService {
	return &TrackingService{
		orderRepo:    orderRepo,
		trackingRepo: trackingRepo,
		courierRepo:  courierRepo,
	}
}

// TrackingEventView 对外的追踪事件
type TrackingEventView struct {
	Status    string    `json:"status"`
	Message   string    `json:"message"`
	Lat       *float64  `json:"lat,omitempty"`
	Lng       *float64  `json:"lng,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// CourierLocationView 对外的骑手位置（仅配送中可见）
type CourierLocationView struct {
	Lat       float64   `json:"lat"`
	Lng       float64   `json:"lng"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TrackingCourierView 对外的骑手公开信息（仅配送中可见）
type TrackingCourierView struct {
	Name        string `json:"name"`
	VehicleType string `json:"vehicle_type"`
}

// TrackingItemView 对外的订单行（名称与数量快照）
type TrackingItemView struct {
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
}

// TrackingSnapshot 追踪快照
// 不包含订单号与顾客信息，持码人只能看到自己这单的配送进度与应付金额。
type TrackingSnapshot struct {
	Status           string               `json:"status"`
	Borough          string               `json:"borough"`
	SpeedTier        string               `json:"speed_tier"`
	Items            []TrackingItemView   `json:"items"`
	Total            models.Money         `json:"total"`
	Currency         string               `json:"currency"`
	EstimatedArrival *time.Time           `json:"estimated_arrival,omitempty"`
	Courier          *TrackingCourierView `json:"courier,omitempty"`
	CourierLocation  *CourierLocationView `json:"courier_location,omitempty"`
	Events           []TrackingEventView  `json:"events"`
}

// Track 按追踪码获取配送快照
func (s *TrackingService) Track(ctx context.Context, code string) (*TrackingSnapshot, error) {
	code = strings.ToLower(strings.TrimSpace(code))
	if len(code) != constants.TrackingCodeBytes*2 {
		return nil, ErrTrackingNotFound
	}

	order, err := s.orderRepo.GetByTrackingCode(code)
	if err != nil {
		return nil, ErrOrderFetchFailed
	}
	if order == nil {
		return nil, ErrTrackingNotFound
	}

	snapshot := &TrackingSnapshot{
		Status:    order.Status,
		Borough:   order.AddressBorough,
		SpeedTier: order.SpeedTier,
		Items:     make([]TrackingItemView, 0, len(order.Items)),
		Total:     order.TotalAmount,
		Currency:  order.Currency,
		Events:    make([]TrackingEventView, 0, len(order.Events)),
	}
	for _, item := range order.Items {
		snapshot.Items = append(snapshot.Items, TrackingItemView{
			Name:     item.ProductName,
			Quantity: item.Quantity,
		})
	}
	for _, event := range order.Events {
		snapshot.Events = append(snapshot.Events, TrackingEventView{
			Status:    event.Status,
			Message:   event.Message,
			Lat:       event.Lat,
			Lng:       event.Lng,
			CreatedAt: event.CreatedAt,
		})
	}

	if eta := s.estimateArrival(ctx, order); eta != nil {
		snapshot.EstimatedArrival = eta
	}
	if order.Status == constants.OrderStatusOutForDelivery && order.CourierID != nil {
		if order.Courier != nil {
			snapshot.Courier = &TrackingCourierView{
				Name:        order.Courier.Name,
				VehicleType: order.Courier.VehicleType,
			}
		}
		if location, hit, err := cache.GetCourierLocation(ctx, *order.CourierID); err == nil && hit {
			snapshot.CourierLocation = &CourierLocationView{
				Lat:       location.Lat,
				Lng:       location.Lng,
				UpdatedAt: time.Unix(location.UpdatedAt, 0),
			}
		}
	}

	return snapshot, nil
}

// 状态基础耗时估计（分钟），按历史配送中位数拍的经验值
var etaBaseMinutes = map[string]int{
	constants.OrderStatusPending:        75,
	constants.OrderStatusConfirmed:      60,
	constants.OrderStatusPreparing:      45,
	constants.OrderStatusOutForDelivery: 25,
}

// estimateArrival 估算送达时间
// 配送中且有骑手实时位置时按直线距离修正，否则用状态基础耗时。
func (s *TrackingService) estimateArrival(ctx context.Context, order *models.Order) *time.Time {
	base, ok := etaBaseMinutes[order.Status]
	if !ok {
		return nil
	}

	minutes := base
	if order.SpeedTier == constants.SpeedTierExpress {
		minutes = minutes * 2 / 3
	}

	if order.Status == constants.OrderStatusOutForDelivery && order.CourierID != nil {
		if location, hit, err := cache.GetCourierLocation(ctx, *order.CourierID); err == nil && hit {
			distanceKm := haversineKm(location.Lat, location.Lng, order.AddressLat, order.AddressLng)
			// 市区骑行均速约 15km/h，折合每公里 4 分钟
			travel := int(math.Ceil(distanceKm * 4))
			if travel < 5 {
				travel = 5
			}
			minutes = travel
		}
	}

	eta := time.Now().Add(time.Duration(minutes) * time.Minute)
	return &eta
}

// haversineKm 球面距离（公里）
func haversineKm(lat1, lng1, lat2, lng2 float64) float64 {
	const earthRadiusKm = 6371.0
	toRad := func(deg float64) float64 { return deg * math.Pi / 180 }

	dLat := toRad(lat2 - lat1)
	dLng := toRad(lng2 - lng1)
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(lat1))*math.Cos(toRad(lat2))*math.Sin(dLng/2)*math.Sin(dLng/2)
	return 2 * earthRadiusKm * math.Asin(math.Sqrt(a))
}

// RecordCourierLocation 记录骑手实时位置并续约心跳
func (s *TrackingService) RecordCourierLocation(ctx context.Context, courierID uint, lat, lng float64, at time.Time) error {
	if courierID == 0 {
		return ErrCourierNotFound
	}
	if lat < -90 || lat > 90 || lng < -180 || lng > 180 {
		return ErrInvalidAddress
	}
	if at.IsZero() {
		at = time.Now()
	}
	if err := cache.SetCourierLocation(ctx, &cache.CourierLocation{
		CourierID: courierID,
		Lat:       lat,
		Lng:       lng,
		UpdatedAt: at.Unix(),
	}); err != nil {
		return err
	}
	return s.courierRepo.Heartbeat(courierID, at)
}
