package repository

import (
	"github.com/leafline-next/internal/models"

	"gorm.io/gorm"
)

// TrackingEventRepository 追踪事件数据访问接口（只追加）
type TrackingEventRepository interface {
	Append(event *models.TrackingEvent) error
	ListByOrder(orderID uint) ([]models.TrackingEvent, error)
	WithTx(tx *gorm.DB) TrackingEventRepository
}

// GormTrackingEventRepository GORM 实现
type GormTrackingEventRepository struct {
	db *gorm.DB
}

// NewTrackingEventRepository 创建追踪事件仓库
func NewTrackingEventRepository(db *gorm.DB) *GormTrackingEventRepository {
	return &GormTrackingEventRepository{db: db}
}

// WithTx 绑定事务
func (r *GormTrackingEventRepository) WithTx(tx *gorm.DB) TrackingEventRepository {
	if tx == nil {
		return r
	}
	return &GormTrackingEventRepository{db: tx}
}

// Append 追加追踪事件
func (r *GormTrackingEventRepository) Append(event *models.TrackingEvent) error {
	if event == nil {
		return nil
	}
	return r.db.Create(event).Error
}

// ListByOrder 按订单获取追踪事件（时间正序）
func (r *GormTrackingEventRepository) ListByOrder(orderID uint) ([]models.TrackingEvent, error) {
	events := make([]models.TrackingEvent, 0)
	if orderID == 0 {
		return events, nil
	}
	if err := r.db.Where("order_id = ?", orderID).Order("id ASC").Find(&events).Error; err != nil {
		return nil, err
	}
	return events, nil
}
