package feed

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/leafline-next/internal/config"
	"github.com/leafline-next/internal/logger"
	"github.com/leafline-next/internal/service"

	"github.com/segmentio/kafka-go"
)

// CourierLocationMessage 位置流消息
// 骑手端（或网关）持续上报，消费端落缓存并续约心跳。
type CourierLocationMessage struct {
	CourierID uint    `json:"courier_id"`
	Lat       float64 `json:"lat"`
	Lng       float64 `json:"lng"`
	Timestamp int64   `json:"timestamp"`
}

// Service 骑手位置流消费服务
// 消息格式错误直接提交位移丢弃，位置流容忍丢点，不容忍堵塞。
type Service struct {
	name            string
	reader          *kafka.Reader
	trackingService *service.TrackingService
}

// NewService 创建位置流消费服务
func NewService(cfg *config.FeedConfig, trackingService *service.TrackingService) (*Service, error) {
	if cfg == nil || !cfg.Enabled {
		return nil, errors.New("feed disabled")
	}
	if trackingService == nil {
		return nil, errors.New("tracking service is nil")
	}
	brokers := make([]string, 0, len(cfg.Brokers))
	for _, broker := range cfg.Brokers {
		if trimmed := strings.TrimSpace(broker); trimmed != "" {
			brokers = append(brokers, trimmed)
		}
	}
	if len(brokers) == 0 {
		return nil, errors.New("feed brokers empty")
	}
	topic := strings.TrimSpace(cfg.Topic)
	if topic == "" {
		topic = "courier-locations"
	}
	groupID := strings.TrimSpace(cfg.GroupID)
	if groupID == "" {
		groupID = "leafline-feed"
	}
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		GroupID:  groupID,
		Topic:    topic,
		MinBytes: 1,
		MaxBytes: 10e6,
		MaxWait:  time.Second,
	})
	return &Service{
		name:            "feed",
		reader:          reader,
		trackingService: trackingService,
	}, nil
}

// Name 服务名称
func (s *Service) Name() string {
	if s == nil || s.name == "" {
		return "feed"
	}
	return s.name
}

// Start 启动消费循环
func (s *Service) Start(ctx context.Context) error {
	if s == nil || s.reader == nil {
		return errors.New("feed not initialized")
	}
	for {
		message, err := s.reader.ReadMessage(ctx)
		if err != nil {
			select {
			case <-ctx.Done():
				return nil
			default:
				return err
			}
		}
		s.handleMessage(ctx, message)
	}
}

// Stop 停止消费
func (s *Service) Stop(ctx context.Context) error {
	if s == nil || s.reader == nil {
		return nil
	}
	_ = ctx
	return s.reader.Close()
}

func (s *Service) handleMessage(ctx context.Context, message kafka.Message) {
	var payload CourierLocationMessage
	if err := json.Unmarshal(message.Value, &payload); err != nil {
		logger.Warnw("feed_message_unmarshal_failed",
			"topic", message.Topic,
			"partition", message.Partition,
			"offset", message.Offset,
			"error", err,
		)
		return
	}
	if payload.CourierID == 0 {
		logger.Debugw("feed_message_skip_invalid", "offset", message.Offset)
		return
	}
	at := time.Unix(payload.Timestamp, 0)
	if payload.Timestamp <= 0 {
		at = message.Time
	}
	if err := s.trackingService.RecordCourierLocation(ctx, payload.CourierID, payload.Lat, payload.Lng, at); err != nil {
		logger.Warnw("feed_location_record_failed",
			"courier_id", payload.CourierID,
			"error", err,
		)
	}
}
