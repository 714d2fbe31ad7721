package models

import (
	"time"

	"gorm.io/gorm"
)

// Courier 骑手表
// last_seen_at 由位置流消费端续约，在线骑手数 = is_online 且心跳未过期的行数。
type Courier struct {
	ID                 uint           `gorm:"primarykey" json:"id"`                        // 主键
	Name               string         `gorm:"type:varchar(100);not null" json:"name"`      // 姓名
	Phone              string         `gorm:"type:varchar(40)" json:"phone,omitempty"`     // 联系电话
	VehicleType        string         `gorm:"type:varchar(20);not null" json:"vehicle_type"` // 交通工具
	IsActive           bool           `gorm:"not null;default:true;index" json:"is_active"`  // 是否可接单（停用后不可认领）
	IsOnline           bool           `gorm:"not null;default:false;index" json:"is_online"` // 是否在线
	LastSeenAt         *time.Time     `gorm:"index" json:"last_seen_at"`                   // 最近心跳时间
	TokenVersion       uint64         `gorm:"not null;default:0" json:"-"`                 // Token 版本（用于全量失效）
	TokenInvalidBefore *time.Time     `gorm:"index" json:"-"`                              // 该时间点前签发的 Token 失效
	CreatedAt          time.Time      `gorm:"index" json:"created_at"`                     // 创建时间
	UpdatedAt          time.Time      `json:"updated_at"`                                  // 更新时间
	DeletedAt          gorm.DeletedAt `gorm:"index" json:"-"`                              // 软删除时间
}

// TableName 指定表名
func (Courier) TableName() string {
	return "couriers"
}
