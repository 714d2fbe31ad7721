package feed

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/leafline-next/internal/config"
	"github.com/leafline-next/internal/logger"

	"github.com/segmentio/kafka-go"
)

// Producer 位置流生产端
// API 进程用它把骑手上报的位置转发进流，消费端统一落缓存，
// 流未启用时调用方直接走本地写入。
type Producer struct {
	writer  *kafka.Writer
	enabled bool
}

// NewProducer 创建位置流生产端
func NewProducer(cfg *config.FeedConfig) *Producer {
	if cfg == nil || !cfg.Enabled {
		return &Producer{enabled: false}
	}
	brokers := make([]string, 0, len(cfg.Brokers))
	for _, broker := range cfg.Brokers {
		if trimmed := strings.TrimSpace(broker); trimmed != "" {
			brokers = append(brokers, trimmed)
		}
	}
	if len(brokers) == 0 {
		return &Producer{enabled: false}
	}
	topic := strings.TrimSpace(cfg.Topic)
	if topic == "" {
		topic = "courier-locations"
	}
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		BatchTimeout: 50 * time.Millisecond,
	}
	return &Producer{writer: writer, enabled: true}
}

// Enabled 判断是否启用
func (p *Producer) Enabled() bool {
	return p != nil && p.enabled && p.writer != nil
}

// PublishLocation 发布骑手位置
// 按骑手 ID 作分区键，同一骑手的位置保持顺序。
func (p *Producer) PublishLocation(ctx context.Context, payload CourierLocationMessage) error {
	if !p.Enabled() {
		return nil
	}
	if payload.Timestamp <= 0 {
		payload.Timestamp = time.Now().Unix()
	}
	value, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(strconv.FormatUint(uint64(payload.CourierID), 10)),
		Value: value,
		Time:  time.Now(),
	})
	if err != nil {
		logger.Warnw("feed_publish_failed", "courier_id", payload.CourierID, "error", err)
	}
	return err
}

// Close 关闭生产端
func (p *Producer) Close() error {
	if p == nil || p.writer == nil {
		return nil
	}
	return p.writer.Close()
}
