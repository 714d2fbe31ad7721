package models

import "time"

// TrackingEvent 订单追踪事件表（追加写，不更新不删除）
type TrackingEvent struct {
	ID        uint      `gorm:"primarykey" json:"id"`                     // 主键
	OrderID   uint      `gorm:"index;not null" json:"order_id"`           // 订单ID
	Status    string    `gorm:"type:varchar(40);not null" json:"status"`  // 事件发生时的订单状态
	Lat       *float64  `json:"lat,omitempty"`                            // 事件位置纬度（可选）
	Lng       *float64  `json:"lng,omitempty"`                            // 事件位置经度（可选）
	Message   string    `gorm:"type:varchar(255)" json:"message"`         // 事件说明
	CreatedAt time.Time `gorm:"index" json:"created_at"`                  // 创建时间
}

// TableName 指定表名
func (TrackingEvent) TableName() string {
	return "tracking_events"
}
